package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/database"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/esl"
)

// fakeStore is an in-memory Store covering everything one run touches
type fakeStore struct {
	products map[string]*database.Product
	variants map[string]*database.Variant
	uploads  map[int64]*database.Upload
	entries  map[int64]*database.SyncLogEntry
	dates    map[string]time.Time

	nextProductID int64
	nextVariantID int64
	nextEntryID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: map[string]*database.Product{},
		variants: map[string]*database.Variant{},
		uploads:  map[int64]*database.Upload{},
		entries:  map[int64]*database.SyncLogEntry{},
		dates:    map[string]time.Time{},
	}
}

func (f *fakeStore) addUpload(id int64) {
	f.uploads[id] = &database.Upload{ID: id, Status: database.UploadStatusPending}
}

func vkey(code, desc string) string { return code + "\x00" + desc }

func (f *fakeStore) GetProductByCode(_ context.Context, code string) (*database.Product, error) {
	if p, ok := f.products[code]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) CreateProduct(_ context.Context, code string) (*database.Product, error) {
	f.nextProductID++
	p := &database.Product{ID: f.nextProductID, InternalCode: code}
	f.products[code] = p
	cp := *p
	return &cp, nil
}

func (f *fakeStore) UpdateProductPrice(_ context.Context, productID int64, finalPrice, calculatedPrice float64) error {
	for _, p := range f.products {
		if p.ID == productID {
			p.FinalPrice = finalPrice
			p.CalculatedPrice = calculatedPrice
		}
	}
	return nil
}

func (f *fakeStore) GetVariantByKey(_ context.Context, code, desc string) (*database.Variant, error) {
	if v, ok := f.variants[vkey(code, desc)]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) CreateVariant(_ context.Context, productID int64, code, desc, barcode string) (*database.Variant, error) {
	f.nextVariantID++
	v := &database.Variant{ID: f.nextVariantID, ProductID: productID, InternalCode: code, Description: desc, Barcode: barcode, IsActive: true}
	f.variants[vkey(code, desc)] = v
	cp := *v
	return &cp, nil
}

func (f *fakeStore) UpdateVariantBarcode(_ context.Context, variantID int64, barcode string) error {
	for _, v := range f.variants {
		if v.ID == variantID {
			v.Barcode = barcode
		}
	}
	return nil
}

func (f *fakeStore) GetBarcodeDate(_ context.Context, barcode string) (*time.Time, error) {
	if d, ok := f.dates[barcode]; ok {
		return &d, nil
	}
	return nil, nil
}

func (f *fakeStore) UpsertBarcodeDate(_ context.Context, barcode string, date time.Time) error {
	f.dates[barcode] = date
	return nil
}

func (f *fakeStore) GetUpload(_ context.Context, id int64) (*database.Upload, error) {
	if u, ok := f.uploads[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) StartProcessing(_ context.Context, id int64) error {
	u := f.uploads[id]
	if u.Status == database.UploadStatusProcessing {
		return database.ErrUploadBusy
	}
	u.Status = database.UploadStatusProcessing
	return nil
}

func (f *fakeStore) SetTotals(_ context.Context, id int64, totalProducts, totalVariants int) error {
	f.uploads[id].TotalProducts = totalProducts
	f.uploads[id].TotalVariants = totalVariants
	return nil
}

func (f *fakeStore) ApplyCounters(_ context.Context, id int64, d database.CounterDelta) error {
	u := f.uploads[id]
	u.ProcessedProducts += d.Processed
	u.CreatedProducts += d.Created
	u.UpdatedProducts += d.Updated
	u.SkippedProducts += d.Skipped
	u.FailedProducts += d.Failed
	u.CreatedVariants += d.CreatedVariants
	u.UpdatedVariants += d.UpdatedVariants
	return nil
}

func (f *fakeStore) MarkCompleted(_ context.Context, id int64) error {
	f.uploads[id].Status = database.UploadStatusCompleted
	return nil
}

func (f *fakeStore) MarkFailed(_ context.Context, id int64, message string) error {
	f.uploads[id].Status = database.UploadStatusFailed
	f.uploads[id].ErrorMessage = &message
	return nil
}

func (f *fakeStore) ResetForReprocess(_ context.Context, id int64) error {
	f.uploads[id] = &database.Upload{ID: id, Status: database.UploadStatusPending}
	return nil
}

func (f *fakeStore) ClearForUpload(_ context.Context, id int64) error {
	for eid, e := range f.entries {
		if e.UploadID == id {
			delete(f.entries, eid)
		}
	}
	return nil
}

func (f *fakeStore) RecordAttempt(_ context.Context, uploadID, variantID int64, action string, rowNumber int, priceChanged, barcodeChanged bool) (int64, error) {
	f.nextEntryID++
	f.entries[f.nextEntryID] = &database.SyncLogEntry{
		ID: f.nextEntryID, UploadID: uploadID, VariantID: &variantID,
		Action: action, Status: database.EntryStatusPending,
		PriceChanged: priceChanged, BarcodeChanged: barcodeChanged, RowNumber: rowNumber,
	}
	return f.nextEntryID, nil
}

func (f *fakeStore) RecordSkip(_ context.Context, uploadID int64, variantID *int64, reason string, rowNumber int) (int64, error) {
	f.nextEntryID++
	f.entries[f.nextEntryID] = &database.SyncLogEntry{
		ID: f.nextEntryID, UploadID: uploadID, VariantID: variantID,
		Action: database.ActionSkipped, Status: database.EntryStatusSkipped,
		SkipReason: &reason, RowNumber: rowNumber,
	}
	return f.nextEntryID, nil
}

func (f *fakeStore) RecordFailure(_ context.Context, uploadID int64, variantID *int64, rowNumber int, message string) (int64, error) {
	f.nextEntryID++
	f.entries[f.nextEntryID] = &database.SyncLogEntry{
		ID: f.nextEntryID, UploadID: uploadID, VariantID: variantID,
		Action: database.ActionSkipped, Status: database.EntryStatusFailed,
		ErrorMessage: &message, RowNumber: rowNumber,
	}
	return f.nextEntryID, nil
}

func (f *fakeStore) ResolveMany(_ context.Context, entryIDs []int64, success bool, errorMessage string) error {
	for _, id := range entryIDs {
		e := f.entries[id]
		if e == nil || e.Status != database.EntryStatusPending {
			continue
		}
		if success {
			e.Status = database.EntryStatusSuccess
		} else {
			e.Status = database.EntryStatusFailed
			e.ErrorMessage = &errorMessage
		}
	}
	return nil
}

func (f *fakeStore) entriesByStatus(status string) int {
	n := 0
	for _, e := range f.entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

// fakeSettings serves fixed values
type fakeSettings struct {
	mode     string
	discount float64
	shopCode string
}

func (f *fakeSettings) GetString(_ context.Context, key, fallback string) (string, error) {
	switch key {
	case database.SettingUpdateMode:
		if f.mode != "" {
			return f.mode, nil
		}
	case database.SettingShopCode:
		if f.shopCode != "" {
			return f.shopCode, nil
		}
	}
	return fallback, nil
}

func (f *fakeSettings) GetFloat(_ context.Context, _ string, fallback float64) (float64, error) {
	if f.discount != 0 {
		return f.discount, nil
	}
	return fallback, nil
}

// fakeRemote records batches and fails on request
type fakeRemote struct {
	batchSize  int
	batches    [][]esl.GoodsRecord
	refreshes  [][]int64
	failBatch  map[int]error // error by 0-based batch index
}

func (f *fakeRemote) BatchSize() int  { return f.batchSize }
func (f *fakeRemote) ShopCode() string { return "0001" }

func (f *fakeRemote) SubmitBatch(_ context.Context, records []esl.GoodsRecord) error {
	idx := len(f.batches)
	f.batches = append(f.batches, records)
	if err, ok := f.failBatch[idx]; ok {
		return err
	}
	return nil
}

func (f *fakeRemote) PushTagRefresh(_ context.Context, goodsCodes []int64) bool {
	f.refreshes = append(f.refreshes, goodsCodes)
	return true
}

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const csvHeader = "cod_barras;descripcion;final;ultima_modificacion\n"

// TestRunHappyPath tests a full run: batching, counters, ledger, dates and
// the tag refresh
func TestRunHappyPath(t *testing.T) {
	store := newFakeStore()
	store.addUpload(1)
	remote := &fakeRemote{batchSize: 2}
	pipe := New(store, &fakeSettings{mode: "force_all", discount: 12}, remote)

	path := writeTempCSV(t, csvHeader+
		"111;Yerba 1kg;200;2023-03-15\n"+
		"222;Azucar 1kg;100;2023-03-15\n"+
		"333;Cafe 500g;300;2023-03-16\n")

	upload, err := pipe.Run(context.Background(), 1, path)
	require.NoError(t, err)

	assert.Equal(t, database.UploadStatusCompleted, upload.Status)
	assert.Equal(t, 3, upload.TotalProducts)
	assert.Equal(t, 3, upload.ProcessedProducts)
	assert.Equal(t, 3, upload.CreatedProducts)
	assert.Equal(t, 3, upload.CreatedVariants)
	assert.Equal(t, 0, upload.FailedProducts)

	// batch size 2 means two saveList calls
	require.Len(t, remote.batches, 2)
	assert.Len(t, remote.batches[0], 2)
	assert.Len(t, remote.batches[1], 1)

	// discounted price travels as the promotion price
	first := remote.batches[0][0]
	assert.InDelta(t, 200, first.OriginalPrice, 0.0001)
	assert.InDelta(t, 176, first.PromotionPrice, 0.0001)
	assert.Equal(t, "0001", first.ShopCode)

	// every entry settled, all barcode dates recorded
	assert.Equal(t, 3, store.entriesByStatus(database.EntryStatusSuccess))
	assert.Len(t, store.dates, 3)

	// one refresh push covering all goods codes
	require.Len(t, remote.refreshes, 1)
	assert.Len(t, remote.refreshes[0], 3)
}

// TestRunInvalidRowsRecorded tests that validation failures land in the
// ledger without aborting the run
func TestRunInvalidRowsRecorded(t *testing.T) {
	store := newFakeStore()
	store.addUpload(1)
	remote := &fakeRemote{batchSize: 50}
	pipe := New(store, &fakeSettings{mode: "force_all"}, remote)

	path := writeTempCSV(t, csvHeader+
		"111;Yerba 1kg;200;2023-03-15\n"+
		";;0;garbage\n")

	upload, err := pipe.Run(context.Background(), 1, path)
	require.NoError(t, err)

	assert.Equal(t, database.UploadStatusCompleted, upload.Status)
	assert.Equal(t, 2, upload.TotalVariants)
	assert.Equal(t, 2, upload.ProcessedProducts)
	assert.Equal(t, 1, upload.FailedProducts)
	assert.Equal(t, 1, store.entriesByStatus(database.EntryStatusFailed))
	assert.Equal(t, 1, store.entriesByStatus(database.EntryStatusSuccess))
}

// TestRunTotalsBoundCounters tests that repeated codes and invalid rows all
// count against the same non-empty-row total, so processed can never pass it
func TestRunTotalsBoundCounters(t *testing.T) {
	store := newFakeStore()
	store.addUpload(1)
	remote := &fakeRemote{batchSize: 50}
	pipe := New(store, &fakeSettings{mode: "force_all"}, remote)

	path := writeTempCSV(t, csvHeader+
		"111;Yerba 1kg;200;2023-03-15\n"+
		"111;Yerba 1kg;210;2023-03-16\n"+ // same product twice
		";;0;garbage\n")

	upload, err := pipe.Run(context.Background(), 1, path)
	require.NoError(t, err)

	assert.Equal(t, 3, upload.TotalProducts)
	assert.Equal(t, 3, upload.ProcessedProducts)
	assert.Equal(t, 1, upload.FailedProducts)
	assert.LessOrEqual(t, upload.ProcessedProducts, upload.TotalProducts)
	assert.LessOrEqual(t, upload.FailedProducts, upload.TotalProducts)
}

// TestRunSkipsEmptyRows tests that blank spreadsheet rows leave no trace:
// totals reflect only the three real rows and the ledger has no entry for
// the empty one
func TestRunSkipsEmptyRows(t *testing.T) {
	store := newFakeStore()
	store.addUpload(1)
	remote := &fakeRemote{batchSize: 50}
	pipe := New(store, &fakeSettings{mode: "force_all"}, remote)

	path := writeTempCSV(t, csvHeader+
		"111;Yerba 1kg;200;2023-03-15\n"+
		";;;\n"+
		"222;Azucar 1kg;100;2023-03-15\n"+
		"333;Cafe 500g;300;2023-03-16\n")

	upload, err := pipe.Run(context.Background(), 1, path)
	require.NoError(t, err)

	assert.Equal(t, 3, upload.TotalProducts)
	assert.Equal(t, 3, upload.ProcessedProducts)
	assert.Equal(t, 0, upload.FailedProducts)
	assert.Len(t, store.entries, 3)
	assert.Equal(t, 3, store.entriesByStatus(database.EntryStatusSuccess))
}

// TestRunCheckDateSkips tests the already-synced skip path
func TestRunCheckDateSkips(t *testing.T) {
	store := newFakeStore()
	store.addUpload(1)
	store.dates["111"] = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	remote := &fakeRemote{batchSize: 50}
	pipe := New(store, &fakeSettings{mode: "check_date"}, remote)

	path := writeTempCSV(t, csvHeader+
		"111;Yerba 1kg;200;2023-03-15\n"+ // older than the index, skipped
		"222;Azucar 1kg;100;2023-03-15\n")

	upload, err := pipe.Run(context.Background(), 1, path)
	require.NoError(t, err)

	assert.Equal(t, 1, upload.SkippedProducts)
	assert.Equal(t, 1, store.entriesByStatus(database.EntryStatusSkipped))
	require.Len(t, remote.batches, 1)
	assert.Len(t, remote.batches[0], 1)
}

// TestRunRemoteBatchFailure tests that one rejected batch fails its rows
// but not the upload
func TestRunRemoteBatchFailure(t *testing.T) {
	store := newFakeStore()
	store.addUpload(1)
	remote := &fakeRemote{
		batchSize: 2,
		failBatch: map[int]error{0: &esl.RemoteError{Status: 500, Message: "boom"}},
	}
	pipe := New(store, &fakeSettings{mode: "force_all"}, remote)

	path := writeTempCSV(t, csvHeader+
		"111;Yerba 1kg;200;2023-03-15\n"+
		"222;Azucar 1kg;100;2023-03-15\n"+
		"333;Cafe 500g;300;2023-03-16\n")

	upload, err := pipe.Run(context.Background(), 1, path)
	require.NoError(t, err)

	assert.Equal(t, database.UploadStatusCompleted, upload.Status)
	assert.Equal(t, 2, upload.FailedProducts)
	assert.Equal(t, 2, store.entriesByStatus(database.EntryStatusFailed))
	assert.Equal(t, 1, store.entriesByStatus(database.EntryStatusSuccess))

	// failed rows leave no barcode date behind
	assert.Len(t, store.dates, 1)
	require.Len(t, remote.refreshes, 1)
	assert.Len(t, remote.refreshes[0], 1)
}

// TestRunAuthFailureAbortsUpload tests that an authentication error is
// fatal for the whole run
func TestRunAuthFailureAbortsUpload(t *testing.T) {
	store := newFakeStore()
	store.addUpload(1)
	remote := &fakeRemote{
		batchSize: 50,
		failBatch: map[int]error{0: &esl.AuthError{Code: 1, Message: "invalid credentials"}},
	}
	pipe := New(store, &fakeSettings{mode: "force_all"}, remote)

	path := writeTempCSV(t, csvHeader+"111;Yerba 1kg;200;2023-03-15\n")

	_, err := pipe.Run(context.Background(), 1, path)
	require.Error(t, err)

	upload, _ := store.GetUpload(context.Background(), 1)
	assert.Equal(t, database.UploadStatusFailed, upload.Status)
	assert.Equal(t, 1, store.entriesByStatus(database.EntryStatusFailed))
}

// TestRunParseFailureFailsUpload tests the fatal structural-parse path
func TestRunParseFailureFailsUpload(t *testing.T) {
	store := newFakeStore()
	store.addUpload(1)
	pipe := New(store, &fakeSettings{mode: "force_all"}, &fakeRemote{batchSize: 50})

	path := writeTempCSV(t, "columna_rara;otra\n1;2\n")

	_, err := pipe.Run(context.Background(), 1, path)
	require.Error(t, err)

	upload, _ := store.GetUpload(context.Background(), 1)
	assert.Equal(t, database.UploadStatusFailed, upload.Status)
	require.NotNil(t, upload.ErrorMessage)
}

// TestRunBusyUpload tests that a processing upload cannot be started again
func TestRunBusyUpload(t *testing.T) {
	store := newFakeStore()
	store.addUpload(1)
	store.uploads[1].Status = database.UploadStatusProcessing
	pipe := New(store, &fakeSettings{mode: "force_all"}, &fakeRemote{batchSize: 50})

	_, err := pipe.Run(context.Background(), 1, writeTempCSV(t, csvHeader))
	assert.ErrorIs(t, err, database.ErrUploadBusy)
}

// TestReprocessClearsAndReruns tests the reprocess path end to end
func TestReprocessClearsAndReruns(t *testing.T) {
	store := newFakeStore()
	store.addUpload(1)
	remote := &fakeRemote{batchSize: 50}
	pipe := New(store, &fakeSettings{mode: "force_all"}, remote)
	ctx := context.Background()

	path := writeTempCSV(t, csvHeader+"111;Yerba 1kg;200;2023-03-15\n")

	_, err := pipe.Run(ctx, 1, path)
	require.NoError(t, err)
	require.Equal(t, 1, store.entriesByStatus(database.EntryStatusSuccess))

	upload, err := pipe.Reprocess(ctx, 1, path)
	require.NoError(t, err)

	assert.Equal(t, database.UploadStatusCompleted, upload.Status)
	// old entries cleared, exactly one fresh entry
	assert.Len(t, store.entries, 1)
	assert.Equal(t, 1, upload.ProcessedProducts)
	// identity survives the reprocess
	require.Len(t, remote.batches, 2)
	assert.Equal(t, remote.batches[0][0].GoodsCode, remote.batches[1][0].GoodsCode)
}
