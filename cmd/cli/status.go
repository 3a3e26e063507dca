package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/database"
)

var statusLimit int

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status [upload-id]",
	Short: "Show upload status and sync results",
	Long: `Without arguments, lists recent uploads. With an upload id, shows that
upload's counters and its ledger aggregated by action and status.`,
	Example: `  etiquetas-esl status
  etiquetas-esl status 42`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "How many uploads to list")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store := database.NewStore(database.Pool())

	if len(args) == 0 {
		uploads, err := store.ListUploads(ctx, "", statusLimit, 0)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFILE\tSTATUS\tTOTAL\tPROCESSED\tCREATED\tUPDATED\tSKIPPED\tFAILED\tCREATED AT")
		for _, u := range uploads {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
				u.ID, u.Filename, u.Status, u.TotalProducts, u.ProcessedProducts,
				u.CreatedProducts, u.UpdatedProducts, u.SkippedProducts, u.FailedProducts,
				u.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid upload id %q", args[0])
	}

	upload, err := store.GetUpload(ctx, id)
	if err != nil {
		return err
	}
	if upload == nil {
		return fmt.Errorf("upload %d not found", id)
	}

	printUpload(upload)

	stats, err := store.Stats(ctx, id)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Ledger:")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for action, count := range stats.ByAction {
		fmt.Fprintf(w, "  action %s\t%d\n", action, count)
	}
	for status, count := range stats.ByStatus {
		fmt.Fprintf(w, "  status %s\t%d\n", status, count)
	}
	fmt.Fprintf(w, "  success rate\t%.2f%%\n", stats.SuccessRate)
	return w.Flush()
}

// printUpload prints one upload's counters
func printUpload(u *database.Upload) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Upload\t%d\n", u.ID)
	fmt.Fprintf(w, "File\t%s\n", u.Filename)
	fmt.Fprintf(w, "Status\t%s\n", u.Status)
	if u.ErrorMessage != nil {
		fmt.Fprintf(w, "Error\t%s\n", *u.ErrorMessage)
	}
	fmt.Fprintf(w, "Products\t%d total, %d processed, %d created, %d updated, %d skipped, %d failed\n",
		u.TotalProducts, u.ProcessedProducts, u.CreatedProducts, u.UpdatedProducts, u.SkippedProducts, u.FailedProducts)
	fmt.Fprintf(w, "Variants\t%d total, %d created, %d updated\n",
		u.TotalVariants, u.CreatedVariants, u.UpdatedVariants)
	w.Flush()
}
