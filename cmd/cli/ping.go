package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// pingCmd represents the ping command
var pingCmd = &cobra.Command{
	Use:     "ping",
	Short:   "Check that the ESL endpoint is reachable",
	Example: `  etiquetas-esl ping`,
	RunE:    runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, args []string) error {
	if cfg == nil {
		return fmt.Errorf("config required for ping command but not loaded")
	}

	client := newESLClient()
	if err := client.Hello(context.Background()); err != nil {
		return fmt.Errorf("endpoint unreachable: %w", err)
	}

	logger.Info().Str("base_url", cfg.ESL.BaseURL).Msg("ESL endpoint reachable")
	return nil
}
