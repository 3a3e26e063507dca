package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/database"
)

// Reprocess clears an upload's ledger, zeroes its counters and runs it
// again from its original file. Completed, failed and never-started
// uploads can all be reprocessed; an upload currently processing cannot.
func (p *Pipeline) Reprocess(ctx context.Context, uploadID int64, filePath string) (*database.Upload, error) {
	if err := p.store.ClearForUpload(ctx, uploadID); err != nil {
		return nil, err
	}
	if err := p.store.ResetForReprocess(ctx, uploadID); err != nil {
		return nil, err
	}
	log.Info().Int64("upload_id", uploadID).Msg("reprocessing upload")
	return p.Run(ctx, uploadID, filePath)
}
