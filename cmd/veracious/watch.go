package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/FrenchMajesty/veracious/pkg/adapters/browser"
	"github.com/FrenchMajesty/veracious/pkg/annotator"
	"github.com/FrenchMajesty/veracious/pkg/storage"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the feed in a browser and annotate posts as they load",
	RunE:  runWatch,
}

var (
	watchURL      string
	watchHeadless bool
)

func init() {
	watchCmd.Flags().StringVar(&watchURL, "url", "", "feed URL (default from config)")
	watchCmd.Flags().BoolVar(&watchHeadless, "headless", false, "run the browser without a window")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if watchURL != "" {
		cfg.Browser.FeedURL = watchURL
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = watchHeadless
	}

	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	session, err := browser.Launch(browser.LaunchOptions{
		URL:           cfg.Browser.FeedURL,
		Headless:      cfg.Browser.Headless,
		StorageState:  cfg.Browser.StorageState,
		InstallDriver: cfg.Browser.InstallDriver,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	acfg := annotator.Config{
		Document:      session.Doc,
		Classifier:    newRelayClient(cfg, logger),
		Store:         store,
		Logger:        logger,
		CacheCapacity: cfg.CacheCapacity,
	}
	if cfg.Similar.Enabled {
		index, err := newSimilarIndex(cfg, logger)
		if err != nil {
			return err
		}
		acfg.Sink = index
	}

	a, err := annotator.New(acfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching feed", "url", cfg.Browser.FeedURL, "storage", cfg.Storage.Driver)
	err = a.Run(ctx)

	stats := a.Stats()
	logger.Info("watch stopped",
		"cycles", stats.Cycles,
		"batches", stats.Batches,
		"classified", stats.Classified,
		"rate_limited", stats.RateLimited,
		"failures", stats.Failures,
		"cache_size", stats.CacheSize,
	)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
