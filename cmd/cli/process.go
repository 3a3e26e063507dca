package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/database"
)

var processReprocessID int64

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Process a price spreadsheet against the ESL endpoint",
	Long: `Parse a spreadsheet, reconcile it against the local catalog and push the
resulting batches to the remote goods list. Registers a new upload unless
--reprocess points at an existing one, in which case its previous results
are cleared first.`,
	Example: `  etiquetas-esl process precios.xlsx
  etiquetas-esl process precios.csv --reprocess 42`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().Int64Var(&processReprocessID, "reprocess", 0, "Existing upload id to clear and run again")
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	filePath := args[0]

	store := database.NewStore(database.Pool())
	pipe := newPipeline(store)

	var (
		upload *database.Upload
		err    error
	)
	if processReprocessID > 0 {
		upload, err = pipe.Reprocess(ctx, processReprocessID, filePath)
	} else {
		var created *database.Upload
		created, err = store.CreateUpload(ctx, filepath.Base(filePath))
		if err != nil {
			return fmt.Errorf("failed to register upload: %w", err)
		}
		logger.Info().Int64("upload_id", created.ID).Str("file", filePath).Msg("Upload registered")
		upload, err = pipe.Run(ctx, created.ID, filePath)
	}
	if err != nil {
		return err
	}

	logger.Info().
		Int64("upload_id", upload.ID).
		Str("status", upload.Status).
		Msg("Processing finished")

	printUpload(upload)
	return nil
}
