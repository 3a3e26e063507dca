package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(context.Background()); err != nil {
			return err
		}
		logger.Info().Msg("Schema applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
