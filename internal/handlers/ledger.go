package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// ListEntries returns ledger entries for one upload.
// GET /uploads/:id/entries?status=&limit=&offset=
func (h *Handler) ListEntries(c *gin.Context) {
	upload, ok := h.uploadFromParam(c)
	if !ok {
		return
	}

	entries, err := h.store.ListEntries(c.Request.Context(), upload.ID, c.Query("status"),
		intQuery(c, "limit", 100), intQuery(c, "offset", 0))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list entries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// UploadStats aggregates the upload's ledger by action and status.
// GET /uploads/:id/stats
func (h *Handler) UploadStats(c *gin.Context) {
	upload, ok := h.uploadFromParam(c)
	if !ok {
		return
	}

	stats, err := h.store.Stats(c.Request.Context(), upload.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate ledger"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"upload": upload,
		"stats":  stats,
	})
}

// ErrorSummary groups failed entries by message.
// GET /uploads/:id/errors
func (h *Handler) ErrorSummary(c *gin.Context) {
	upload, ok := h.uploadFromParam(c)
	if !ok {
		return
	}

	summary, err := h.store.ErrorSummary(c.Request.Context(), upload.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to summarize errors"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"errors": summary})
}

// ExportCSV streams the upload's ledger as CSV.
// GET /uploads/:id/export.csv?status=
func (h *Handler) ExportCSV(c *gin.Context) {
	upload, ok := h.uploadFromParam(c)
	if !ok {
		return
	}

	rows, err := h.store.ExportRows(c.Request.Context(), upload.ID, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export ledger"})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="upload_%d.csv"`, upload.ID))

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"entry_id", "variant_id", "internal_code", "description", "barcode", "action", "status", "row_number", "error", "processed_at"})
	for _, r := range rows {
		_ = w.Write([]string{
			strconv.FormatInt(r.EntryID, 10),
			int64PtrString(r.VariantID),
			strPtr(r.InternalCode),
			strPtr(r.Description),
			strPtr(r.Barcode),
			r.Action,
			r.Status,
			strconv.Itoa(r.RowNumber),
			strPtr(r.Error),
			timePtrString(r.ProcessedAt),
		})
	}
	w.Flush()
}

func strPtr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func int64PtrString(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func timePtrString(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(time.RFC3339)
}
