package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/config"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/database"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/esl"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/pipeline"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "etiquetas-esl",
	Short: "Catalog sync CLI - spreadsheet to electronic shelf label tool",
	Long: `A CLI tool for syncing retail price spreadsheets to an electronic shelf
label endpoint. Uploads are parsed, reconciled against the local catalog and
pushed to the remote goods list in batches.`,
	PersistentPreRunE: persistentPreRun,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		// Config is optional for some commands, don't fail here
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}
}

// persistentPreRun runs before each command and initializes dependencies
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	logger = initLogger()

	switch cmd.Name() {
	case "process", "status", "retry", "export", "cleanup", "migrate":
		if cfg == nil {
			return fmt.Errorf("config required for %s command but not loaded", cmd.Name())
		}
		if err := initDatabase(); err != nil {
			return fmt.Errorf("database initialization failed: %w", err)
		}
		logger.Info().Msg("Database connected")
	}

	return nil
}

func initLogger() *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if cfg != nil && cfg.Logging.Level != "" {
		if parsedLevel, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsedLevel
		}
	}

	// Always use console format for CLI
	var output io.Writer
	if cfg != nil && cfg.Logging.Format == "json" {
		output = os.Stdout
	} else {
		noColor := false
		if cfg != nil {
			noColor = cfg.Logging.NoColor
		}
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: noColor}
	}

	log := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &log
}

func initDatabase() error {
	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}

	ctx := context.Background()
	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	return nil
}

func newESLClient() *esl.Client {
	return esl.NewClient(esl.Config{
		BaseURL:           cfg.ESL.BaseURL,
		Username:          cfg.ESL.Username,
		Password:          cfg.ESL.Password,
		ShopCode:          cfg.ESL.ShopCode,
		BatchSize:         cfg.ESL.BatchSize,
		Timeout:           cfg.ESL.Timeout,
		TokenTTL:          cfg.ESL.TokenTTL,
		RequestsPerSecond: cfg.ESL.RequestsPerSecond,
	})
}

func newPipeline(store *database.Store) *pipeline.Pipeline {
	settings := database.NewSettings(database.Pool(), cfg.Sync.SettingsTTL)
	return pipeline.New(store, settings, newESLClient())
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
