package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/database"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/jobs"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/storage"
)

var (
	cleanupLedgerDays  int
	cleanupBarcodeDays int
	cleanupFileDays    int
)

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Prune old ledger entries, stale barcode dates and stored files",
	Long: `Deletes ledger entries belonging to completed uploads older than the given
retention, barcode last-seen dates not touched since, and stored upload
files past retention. Keeps the tables and the upload directory from
growing without bound on busy installs.`,
	Example: `  etiquetas-esl cleanup
  etiquetas-esl cleanup --ledger-days 30 --barcode-days 365`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().IntVar(&cleanupLedgerDays, "ledger-days", 90, "Delete ledger entries of completed uploads older than this many days")
	cleanupCmd.Flags().IntVar(&cleanupBarcodeDays, "barcode-days", 365, "Delete barcode dates not updated in this many days")
	cleanupCmd.Flags().IntVar(&cleanupFileDays, "file-days", 30, "Delete stored upload files older than this many days")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store := database.NewStore(database.Pool())

	files, err := storage.NewLocal(cfg.Storage.UploadDir)
	if err != nil {
		return err
	}

	retention := jobs.NewRetention(store, files, jobs.RetentionConfig{
		LedgerDays:     cleanupLedgerDays,
		BarcodeDays:    cleanupBarcodeDays,
		UploadFileDays: cleanupFileDays,
	})

	result, err := retention.RunOnce(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d ledger entries, %d barcode dates, %d stored files\n",
		result.LedgerEntries, result.BarcodeDates, result.UploadFiles)
	return nil
}
