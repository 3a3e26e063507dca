package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/database"
)

var (
	exportStatus string
	exportOut    string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <upload-id>",
	Short: "Export an upload's sync ledger as CSV",
	Example: `  etiquetas-esl export 42
  etiquetas-esl export 42 --status failed -o failed.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportStatus, "status", "", "Only export entries with this status")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Write to a file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid upload id %q", args[0])
	}

	store := database.NewStore(database.Pool())
	rows, err := store.ExportRows(context.Background(), id, exportStatus)
	if err != nil {
		return err
	}

	out := os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOut, err)
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"entry_id", "variant_id", "internal_code", "description", "barcode", "action", "status", "row_number", "error", "processed_at"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.EntryID, 10), "", "", "", "",
			r.Action, r.Status, strconv.Itoa(r.RowNumber), "", "",
		}
		if r.VariantID != nil {
			record[1] = strconv.FormatInt(*r.VariantID, 10)
		}
		if r.InternalCode != nil {
			record[2] = *r.InternalCode
		}
		if r.Description != nil {
			record[3] = *r.Description
		}
		if r.Barcode != nil {
			record[4] = *r.Barcode
		}
		if r.Error != nil {
			record[8] = *r.Error
		}
		if r.ProcessedAt != nil {
			record[9] = r.ProcessedAt.Format(time.RFC3339)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	logger.Info().Int64("upload_id", id).Int("rows", len(rows)).Msg("Ledger exported")
	return nil
}
