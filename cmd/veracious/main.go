// Package main provides the veracious CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/FrenchMajesty/veracious/internal/config"
	"github.com/FrenchMajesty/veracious/internal/logging"
	"github.com/FrenchMajesty/veracious/pkg/adapters"
	"github.com/FrenchMajesty/veracious/pkg/adapters/relay"
	"github.com/FrenchMajesty/veracious/pkg/similar"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "veracious",
	Short: "veracious - political lean and manipulation tags for your feed",
	Long: `veracious watches a social feed, sends new posts to the analysis relay
in small batches and tags every post with its political lean and
manipulation score. A feed summary is kept in shared storage.`,
	Version:       versionString(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine, keys may come from the environment
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.veracious/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.AddCommand(watchCmd, annotateCmd, statusCmd, similarCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads the config and builds the logger every command shares
func setup(stderr io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, stderr)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newRelayClient(cfg *config.Config, logger *slog.Logger) *relay.Client {
	return relay.NewClient(relay.Config{
		BaseURL: cfg.Relay.URL,
		Timeout: cfg.Relay.Timeout,
		Logger:  logger,
	})
}

// newSimilarIndex connects the Voyage and Pinecone adapters using keys from the environment
func newSimilarIndex(cfg *config.Config, logger *slog.Logger) (*similar.Index, error) {
	acfg := adapters.Config{Namespace: cfg.Similar.Namespace}
	embedder, err := adapters.NewEmbeddings(acfg)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	vectors, err := adapters.NewVectors(acfg)
	if err != nil {
		return nil, fmt.Errorf("create vector client: %w", err)
	}
	return similar.NewIndex(embedder, vectors, logger)
}
