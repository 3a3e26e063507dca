// Package pipeline runs one uploaded spreadsheet end to end: parse,
// resolve against the catalog, detect changes and push batches to the
// remote endpoint, keeping the upload counters and the sync ledger current
// along the way.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/database"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/esl"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/parsers/csv"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/parsers/xlsx"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/syncer"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/telemetry"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/types"
)

// Store is the slice of the database the pipeline drives
type Store interface {
	syncer.CatalogStore
	syncer.DateIndex

	GetUpload(ctx context.Context, uploadID int64) (*database.Upload, error)
	StartProcessing(ctx context.Context, uploadID int64) error
	SetTotals(ctx context.Context, uploadID int64, totalProducts, totalVariants int) error
	ApplyCounters(ctx context.Context, uploadID int64, d database.CounterDelta) error
	MarkCompleted(ctx context.Context, uploadID int64) error
	MarkFailed(ctx context.Context, uploadID int64, message string) error
	ResetForReprocess(ctx context.Context, uploadID int64) error
	ClearForUpload(ctx context.Context, uploadID int64) error

	RecordAttempt(ctx context.Context, uploadID, variantID int64, action string, rowNumber int, priceChanged, barcodeChanged bool) (int64, error)
	RecordSkip(ctx context.Context, uploadID int64, variantID *int64, reason string, rowNumber int) (int64, error)
	RecordFailure(ctx context.Context, uploadID int64, variantID *int64, rowNumber int, message string) (int64, error)
	ResolveMany(ctx context.Context, entryIDs []int64, success bool, errorMessage string) error

	UpsertBarcodeDate(ctx context.Context, barcode string, date time.Time) error
}

// SettingsReader exposes the runtime settings the pipeline consults
type SettingsReader interface {
	GetString(ctx context.Context, key, fallback string) (string, error)
	GetFloat(ctx context.Context, key string, fallback float64) (float64, error)
}

// Remote is the slice of the ESL client the pipeline drives
type Remote interface {
	BatchSize() int
	ShopCode() string
	SubmitBatch(ctx context.Context, records []esl.GoodsRecord) error
	PushTagRefresh(ctx context.Context, goodsCodes []int64) bool
}

// Pipeline processes uploads against one store and one remote endpoint
type Pipeline struct {
	store    Store
	settings SettingsReader
	remote   Remote
	resolver *syncer.Resolver
	detector *syncer.Detector
}

var _ Store = (*database.Store)(nil)

// New creates a pipeline over the given store, settings and remote client
func New(store Store, settings SettingsReader, remote Remote) *Pipeline {
	return &Pipeline{
		store:    store,
		settings: settings,
		remote:   remote,
		resolver: syncer.NewResolver(store),
		detector: syncer.NewDetector(store),
	}
}

// batch accumulates records between saveList calls
type batch struct {
	records  []esl.GoodsRecord
	entryIDs []int64
	rows     []*types.NormalizedRow
	delta    database.CounterDelta
}

func (b *batch) reset() {
	b.records = b.records[:0]
	b.entryIDs = b.entryIDs[:0]
	b.rows = b.rows[:0]
	b.delta = database.CounterDelta{}
}

// Run processes one upload from its file on disk. The upload must be in a
// startable state; a concurrent start loses with ErrUploadBusy. Parse and
// authentication failures fail the whole upload; per-row and per-batch
// failures are recorded in the ledger and processing continues.
func (p *Pipeline) Run(ctx context.Context, uploadID int64, filePath string) (*database.Upload, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "pipeline.Run",
		trace.WithAttributes(attribute.Int64("upload.id", uploadID)))
	defer span.End()

	if err := p.store.StartProcessing(ctx, uploadID); err != nil {
		return nil, err
	}

	started := time.Now()
	upload, err := p.run(ctx, uploadID, filePath)
	if err != nil {
		telemetry.ObserveUpload(database.UploadStatusFailed, time.Since(started))
		return nil, err
	}
	telemetry.ObserveUpload(upload.Status, time.Since(started))
	return upload, nil
}

func (p *Pipeline) run(ctx context.Context, uploadID int64, filePath string) (*database.Upload, error) {
	result, err := parseFile(filePath)
	if err != nil {
		return nil, p.fail(ctx, uploadID, fmt.Sprintf("failed to parse %s: %v", filepath.Base(filePath), err))
	}
	if result.ValidRows == 0 && len(result.Errors) == 0 {
		return nil, p.fail(ctx, uploadID, "file contains no data rows")
	}

	// Totals count non-empty rows, valid or not; the processed and failed
	// counters accrue against the same base so they can never exceed it.
	if err := p.store.SetTotals(ctx, uploadID, result.TotalRows, result.TotalRows); err != nil {
		return nil, err
	}

	// Rows that already failed validation never reach the endpoint; record
	// them up front so the ledger covers every non-empty row of the file.
	for _, parseErr := range result.Errors {
		rowNumber := 0
		if parseErr.RowNumber != nil {
			rowNumber = *parseErr.RowNumber
		}
		if _, err := p.store.RecordFailure(ctx, uploadID, nil, rowNumber, parseErr.Message); err != nil {
			return nil, err
		}
		if err := p.store.ApplyCounters(ctx, uploadID, database.CounterDelta{Processed: 1, Failed: 1}); err != nil {
			return nil, err
		}
		telemetry.CountRow("failed")
	}

	mode, discount, shopCode, err := p.loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("upload_id", uploadID).
		Int("rows", result.ValidRows).
		Int("invalid_rows", len(result.Errors)).
		Str("mode", string(mode)).
		Float64("discount_percent", discount).
		Msg("processing upload")

	var (
		b         batch
		refreshed []int64
	)

	for i := range result.Rows {
		row := &result.Rows[i]

		sync, reason, err := p.detector.NeedsSync(ctx, row, mode)
		if err != nil {
			return nil, err
		}
		if !sync {
			if _, err := p.store.RecordSkip(ctx, uploadID, nil, string(reason), row.RowNumber); err != nil {
				return nil, err
			}
			if err := p.store.ApplyCounters(ctx, uploadID, database.CounterDelta{Processed: 1, Skipped: 1}); err != nil {
				return nil, err
			}
			telemetry.CountRow("skipped")
			continue
		}

		res, err := p.resolver.Resolve(ctx, row, syncer.ApplyDiscount(row.FinalPrice, discount))
		if err != nil {
			if _, rerr := p.store.RecordFailure(ctx, uploadID, nil, row.RowNumber, err.Error()); rerr != nil {
				return nil, rerr
			}
			if err := p.store.ApplyCounters(ctx, uploadID, database.CounterDelta{Processed: 1, Failed: 1}); err != nil {
				return nil, err
			}
			telemetry.CountRow("failed")
			continue
		}

		record := esl.GoodsRecord{
			ShopCode:       shopCode,
			GoodsCode:      res.Variant.ID,
			Description:    row.Description,
			Barcode:        row.Barcode,
			InternalCode:   row.InternalCode,
			OriginalPrice:  res.Product.FinalPrice,
			PromotionPrice: res.Product.CalculatedPrice,
		}
		if err := record.Validate(); err != nil {
			// The row resolved but cannot be shipped. Terminal for the row,
			// not the upload.
			if _, rerr := p.store.RecordFailure(ctx, uploadID, &res.Variant.ID, row.RowNumber, err.Error()); rerr != nil {
				return nil, rerr
			}
			if err := p.store.ApplyCounters(ctx, uploadID, database.CounterDelta{Processed: 1, Failed: 1}); err != nil {
				return nil, err
			}
			telemetry.CountRow("failed")
			continue
		}

		entryID, err := p.store.RecordAttempt(ctx, uploadID, res.Variant.ID, res.Action(), row.RowNumber, res.PriceChanged, res.BarcodeChanged)
		if err != nil {
			return nil, err
		}

		b.records = append(b.records, record)
		b.entryIDs = append(b.entryIDs, entryID)
		b.rows = append(b.rows, row)
		b.delta.Processed++
		if res.ProductCreated {
			b.delta.Created++
		} else {
			b.delta.Updated++
		}
		if res.VariantCreated {
			b.delta.CreatedVariants++
		} else {
			b.delta.UpdatedVariants++
		}

		if len(b.records) >= p.remote.BatchSize() {
			codes, err := p.flush(ctx, uploadID, &b)
			if err != nil {
				return nil, err
			}
			refreshed = append(refreshed, codes...)
		}
	}

	codes, err := p.flush(ctx, uploadID, &b)
	if err != nil {
		return nil, err
	}
	refreshed = append(refreshed, codes...)

	if len(refreshed) > 0 {
		p.remote.PushTagRefresh(ctx, refreshed)
	}

	if err := p.store.MarkCompleted(ctx, uploadID); err != nil {
		return nil, err
	}

	upload, err := p.store.GetUpload(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int64("upload_id", uploadID).
		Int("created", upload.CreatedProducts).
		Int("updated", upload.UpdatedProducts).
		Int("skipped", upload.SkippedProducts).
		Int("failed", upload.FailedProducts).
		Msg("upload completed")
	return upload, nil
}

// flush submits the accumulated batch and settles its ledger entries. An
// authentication failure aborts the upload; any other remote failure marks
// the batch failed and lets the run continue with the next one. On success
// it returns the goods codes, for the tag refresh push.
func (p *Pipeline) flush(ctx context.Context, uploadID int64, b *batch) ([]int64, error) {
	if len(b.records) == 0 {
		return nil, nil
	}
	defer b.reset()

	if err := p.remote.SubmitBatch(ctx, b.records); err != nil {
		var authErr *esl.AuthError
		if errors.As(err, &authErr) {
			if rerr := p.store.ResolveMany(ctx, b.entryIDs, false, authErr.Error()); rerr != nil {
				return nil, rerr
			}
			return nil, p.fail(ctx, uploadID, authErr.Error())
		}

		log.Error().Err(err).Int64("upload_id", uploadID).Int("records", len(b.records)).Msg("batch submission failed")
		if rerr := p.store.ResolveMany(ctx, b.entryIDs, false, err.Error()); rerr != nil {
			return nil, rerr
		}
		delta := b.delta
		delta.Created, delta.Updated = 0, 0
		delta.CreatedVariants, delta.UpdatedVariants = 0, 0
		delta.Failed = len(b.records)
		if err := p.store.ApplyCounters(ctx, uploadID, delta); err != nil {
			return nil, err
		}
		for range b.records {
			telemetry.CountRow("failed")
		}
		return nil, nil
	}

	if err := p.store.ResolveMany(ctx, b.entryIDs, true, ""); err != nil {
		return nil, err
	}
	if err := p.store.ApplyCounters(ctx, uploadID, b.delta); err != nil {
		return nil, err
	}

	codes := make([]int64, 0, len(b.records))
	for i, row := range b.rows {
		codes = append(codes, b.records[i].GoodsCode)
		telemetry.CountRow("synced")
		if row.Barcode == "" {
			continue
		}
		seen := time.Now()
		if row.LastModified != nil {
			seen = *row.LastModified
		}
		if err := p.store.UpsertBarcodeDate(ctx, row.Barcode, seen); err != nil {
			return nil, err
		}
	}
	return codes, nil
}

// fail marks the upload failed and returns the failure as an error
func (p *Pipeline) fail(ctx context.Context, uploadID int64, message string) error {
	if err := p.store.MarkFailed(ctx, uploadID, message); err != nil {
		log.Error().Err(err).Int64("upload_id", uploadID).Msg("failed to mark upload failed")
	}
	return fmt.Errorf("upload %d failed: %s", uploadID, message)
}

// loadSettings reads the runtime settings one run uses. The shop code can
// be overridden per deployment through app_settings; the configured client
// value is the fallback.
func (p *Pipeline) loadSettings(ctx context.Context) (types.UpdateMode, float64, string, error) {
	modeStr, err := p.settings.GetString(ctx, database.SettingUpdateMode, string(types.UpdateModeCheckDate))
	if err != nil {
		return "", 0, "", err
	}
	if !types.IsValidUpdateMode(modeStr) {
		log.Warn().Str("update_mode", modeStr).Msg("unknown update mode setting, using check_date")
		modeStr = string(types.UpdateModeCheckDate)
	}

	discount, err := p.settings.GetFloat(ctx, database.SettingDiscountPercent, 0)
	if err != nil {
		return "", 0, "", err
	}

	shopCode, err := p.settings.GetString(ctx, database.SettingShopCode, p.remote.ShopCode())
	if err != nil {
		return "", 0, "", err
	}

	return types.UpdateMode(modeStr), discount, shopCode, nil
}

// parseFile dispatches on the file extension. Structural problems (missing
// file, unreadable workbook, missing required columns) surface as errors;
// row-level problems come back inside the ParseResult.
func parseFile(filePath string) (*types.ParseResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx", ".xlsm", ".xls":
		return xlsx.NewParser(xlsx.Options{}).Parse(content)
	case ".csv", ".txt":
		return csv.NewParser(csv.Options{}).Parse(content)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(filePath))
	}
}
