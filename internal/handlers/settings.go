package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/database"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/types"
)

// settable keys and their validators
var settingKeys = map[string]func(string) bool{
	database.SettingDiscountPercent: validPercent,
	database.SettingUpdateMode:      types.IsValidUpdateMode,
	database.SettingShopCode:        func(v string) bool { return v != "" },
}

// GetSettings returns the current value of every well-known setting.
// GET /settings
func (h *Handler) GetSettings(c *gin.Context) {
	out := make(map[string]interface{}, len(settingKeys))
	for key := range settingKeys {
		value, found, err := h.settings.Get(c.Request.Context(), key)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read settings"})
			return
		}
		if found {
			out[key] = value
		} else {
			out[key] = nil
		}
	}
	c.JSON(http.StatusOK, gin.H{"settings": out})
}

// PutSettingRequest is the body of a setting update
type PutSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// PutSetting updates one well-known setting.
// PUT /settings/:key
func (h *Handler) PutSetting(c *gin.Context) {
	key := c.Param("key")
	validate, known := settingKeys[key]
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown setting"})
		return
	}

	var req PutSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must carry a non-empty 'value'"})
		return
	}
	if !validate(req.Value) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid value for " + key})
		return
	}

	if err := h.settings.Set(c.Request.Context(), key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store setting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}

func validPercent(v string) bool {
	f, err := strconv.ParseFloat(v, 64)
	return err == nil && f >= 0 && f <= 100
}
