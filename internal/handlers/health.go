package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/database"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health reports service liveness and database connectivity
func (h *Handler) Health(c *gin.Context) {
	response := HealthResponse{Status: "ok"}

	if database.Pool() != nil {
		if err := database.Status(c.Request.Context()); err != nil {
			response.Database = "disconnected"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		response.Database = "connected"
	} else {
		response.Database = "not configured"
	}

	c.JSON(http.StatusOK, response)
}

// Ping checks that the ESL endpoint answers its hello route
func (h *Handler) Ping(c *gin.Context) {
	if err := h.esl.Hello(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"status": "unreachable",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
