// Package handlers exposes the upload, ledger and settings API over gin.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/database"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/pipeline"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/storage"
)

// Store is what the handlers read and write besides the pipeline
type Store interface {
	CreateUpload(ctx context.Context, filename string) (*database.Upload, error)
	GetUpload(ctx context.Context, uploadID int64) (*database.Upload, error)
	ListUploads(ctx context.Context, status string, limit, offset int) ([]database.Upload, error)

	ListEntries(ctx context.Context, uploadID int64, status string, limit, offset int) ([]database.SyncLogEntry, error)
	Stats(ctx context.Context, uploadID int64) (*database.LedgerStats, error)
	RetryFailed(ctx context.Context, uploadID int64) (int64, error)
	ExportRows(ctx context.Context, uploadID int64, status string) ([]database.ExportRow, error)
	ErrorSummary(ctx context.Context, uploadID int64) (map[string]int, error)
}

// Runner processes uploads; normally the pipeline
type Runner interface {
	Run(ctx context.Context, uploadID int64, filePath string) (*database.Upload, error)
	Reprocess(ctx context.Context, uploadID int64, filePath string) (*database.Upload, error)
}

// Settings is the runtime settings surface the API exposes
type Settings interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Pinger checks reachability of the remote endpoint
type Pinger interface {
	Hello(ctx context.Context) error
}

// Handler carries the wired dependencies for all routes. Processing runs
// behind a weight-1 semaphore so only one upload touches the remote
// catalog at a time; further process requests queue behind it.
type Handler struct {
	store    Store
	runner   Runner
	settings Settings
	esl      Pinger

	sem        *semaphore.Weighted
	files      storage.Store
	runTimeout time.Duration
}

// New wires a handler set
func New(store Store, runner Runner, settings Settings, esl Pinger, files storage.Store, runTimeout time.Duration) *Handler {
	if runTimeout <= 0 {
		runTimeout = 30 * time.Minute
	}
	return &Handler{
		store:      store,
		runner:     runner,
		settings:   settings,
		esl:        esl,
		sem:        semaphore.NewWeighted(1),
		files:      files,
		runTimeout: runTimeout,
	}
}

// Routes registers every route on the given router group
func (h *Handler) Routes(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/esl/ping", h.Ping)

	r.POST("/uploads", h.CreateUpload)
	r.GET("/uploads", h.ListUploads)
	r.GET("/uploads/:id", h.GetUpload)
	r.POST("/uploads/:id/process", h.ProcessUpload)
	r.POST("/uploads/:id/reprocess", h.ReprocessUpload)
	r.POST("/uploads/:id/retry-failed", h.RetryFailed)

	r.GET("/uploads/:id/entries", h.ListEntries)
	r.GET("/uploads/:id/stats", h.UploadStats)
	r.GET("/uploads/:id/errors", h.ErrorSummary)
	r.GET("/uploads/:id/export.csv", h.ExportCSV)

	r.GET("/settings", h.GetSettings)
	r.PUT("/settings/:key", h.PutSetting)
}

var _ Runner = (*pipeline.Pipeline)(nil)
var _ Store = (*database.Store)(nil)
var _ Settings = (*database.Settings)(nil)
