package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/database"
)

// allowed upload extensions, matching the pipeline's parser dispatch
var allowedExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xls":  true,
	".csv":  true,
	".txt":  true,
}

// UploadCreatedResponse is the 201 response after a file is stored
type UploadCreatedResponse struct {
	Upload  *database.Upload `json:"upload"`
	PollURL string           `json:"pollUrl"`
}

// CreateUpload stores a spreadsheet and registers a pending upload.
// POST /uploads, multipart field "file". Processing is a separate call.
func (h *Handler) CreateUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}

	filename := filepath.Base(file.Filename)
	if !allowedExtensions[strings.ToLower(filepath.Ext(filename))] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("unsupported file type %q", filepath.Ext(filename)),
		})
		return
	}

	upload, err := h.store.CreateUpload(c.Request.Context(), filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register upload"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read uploaded file"})
		return
	}
	defer src.Close()

	if _, err := h.files.Save(upload.ID, filename, src); err != nil {
		log.Error().Err(err).Int64("upload_id", upload.ID).Msg("failed to store uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store uploaded file"})
		return
	}

	c.JSON(http.StatusCreated, UploadCreatedResponse{
		Upload:  upload,
		PollURL: fmt.Sprintf("/uploads/%d", upload.ID),
	})
}

// ListUploads returns uploads newest first.
// GET /uploads?status=&limit=&offset=
func (h *Handler) ListUploads(c *gin.Context) {
	status := c.Query("status")
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	uploads, err := h.store.ListUploads(c.Request.Context(), status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list uploads"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploads": uploads})
}

// GetUpload returns one upload with its counters.
// GET /uploads/:id
func (h *Handler) GetUpload(c *gin.Context) {
	upload, ok := h.uploadFromParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, upload)
}

// ProcessUpload starts processing asynchronously and answers 202. Runs are
// serialized; a second request queues until the current run finishes. An
// upload already processing answers 409.
// POST /uploads/:id/process
func (h *Handler) ProcessUpload(c *gin.Context) {
	h.startRun(c, false)
}

// ReprocessUpload clears prior results and runs the upload again.
// POST /uploads/:id/reprocess
func (h *Handler) ReprocessUpload(c *gin.Context) {
	h.startRun(c, true)
}

func (h *Handler) startRun(c *gin.Context, reprocess bool) {
	upload, ok := h.uploadFromParam(c)
	if !ok {
		return
	}
	if upload.Status == database.UploadStatusProcessing {
		c.JSON(http.StatusConflict, gin.H{"error": "upload is already processing"})
		return
	}

	if !h.files.Exists(upload.ID, upload.Filename) {
		c.JSON(http.StatusConflict, gin.H{"error": "stored file for this upload is gone"})
		return
	}
	path := h.files.Path(upload.ID, upload.Filename)

	go h.runInBackground(upload.ID, path, reprocess)

	c.JSON(http.StatusAccepted, gin.H{
		"uploadId": upload.ID,
		"status":   "queued",
		"pollUrl":  fmt.Sprintf("/uploads/%d", upload.ID),
	})
}

// runInBackground serializes runs through the weight-1 semaphore
func (h *Handler) runInBackground(uploadID int64, path string, reprocess bool) {
	ctx, cancel := context.WithTimeout(context.Background(), h.runTimeout)
	defer cancel()

	if err := h.sem.Acquire(ctx, 1); err != nil {
		log.Error().Err(err).Int64("upload_id", uploadID).Msg("gave up waiting for processing slot")
		return
	}
	defer h.sem.Release(1)

	var err error
	if reprocess {
		_, err = h.runner.Reprocess(ctx, uploadID, path)
	} else {
		_, err = h.runner.Run(ctx, uploadID, path)
	}
	if err != nil && !errors.Is(err, database.ErrUploadBusy) {
		log.Error().Err(err).Int64("upload_id", uploadID).Msg("upload run failed")
	}
}

// RetryFailed returns failed ledger entries to pending so a reprocess picks
// them up again.
// POST /uploads/:id/retry-failed
func (h *Handler) RetryFailed(c *gin.Context) {
	upload, ok := h.uploadFromParam(c)
	if !ok {
		return
	}

	retried, err := h.store.RetryFailed(c.Request.Context(), upload.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retry entries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"retried": retried})
}

// uploadFromParam loads the :id upload or writes the error response
func (h *Handler) uploadFromParam(c *gin.Context) (*database.Upload, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload id"})
		return nil, false
	}

	upload, err := h.store.GetUpload(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load upload"})
		return nil, false
	}
	if upload == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
		return nil, false
	}
	return upload, true
}

func intQuery(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
