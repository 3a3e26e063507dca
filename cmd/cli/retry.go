package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/database"
)

// retryCmd represents the retry command
var retryCmd = &cobra.Command{
	Use:   "retry <upload-id>",
	Short: "Return an upload's failed ledger entries to pending",
	Long: `Moves every failed ledger entry of the given upload back to pending so the
next reprocess run submits them again. Skipped and successful entries are
left alone.`,
	Example: `  etiquetas-esl retry 42`,
	Args:    cobra.ExactArgs(1),
	RunE:    runRetry,
}

func init() {
	rootCmd.AddCommand(retryCmd)
}

func runRetry(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid upload id %q", args[0])
	}

	store := database.NewStore(database.Pool())
	retried, err := store.RetryFailed(context.Background(), id)
	if err != nil {
		return err
	}

	logger.Info().Int64("upload_id", id).Int64("retried", retried).Msg("Failed entries returned to pending")
	return nil
}
