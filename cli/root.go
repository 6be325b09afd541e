package cli

import (
	"context"
	"errors"
	"fmt"

	"nairobi-rag/config"
	"nairobi-rag/llm/vector"
	"nairobi-rag/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool

	// Set by the root command before any subcommand runs
	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "nairobi-rag",
	Short: "Ask questions about Nairobi's tourist attractions",
	Long: `nairobi-rag collects text about Nairobi's attractions from web pages,
PDF brochures and video transcripts, indexes it, and answers questions
from the index with a hosted language model.

Typical flow:
  nairobi-rag ingest   # scrape, extract and fetch sources into data/
  nairobi-rag index    # chunk and embed data/ into the vector index
  nairobi-rag chat     # interactive chat over the index`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	appConfig = cfg
	return nil
}

// commandContext returns the command's context carrying a logger built from
// the loaded config. file overrides the configured log file.
func commandContext(cmd *cobra.Command, file string) (context.Context, *zap.Logger, error) {
	if file == "" {
		file = appConfig.Log.File
	}
	log, err := logger.New(appConfig.Log.Env, appConfig.Log.Level, file)
	if err != nil {
		return nil, nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logger.WithLogger(ctx, log), log, nil
}

// explain turns fatal startup errors into operator-facing messages.
func explain(err error) error {
	var missing *config.MissingCredentialError
	if errors.As(err, &missing) {
		return fmt.Errorf("cannot start: %w", err)
	}

	var loadErr *vector.IndexLoadError
	if errors.As(err, &loadErr) {
		return fmt.Errorf("cannot start: %w (run `nairobi-rag ingest` and `nairobi-rag index` first)", err)
	}
	return err
}
