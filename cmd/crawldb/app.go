package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hfcj478/Crawl-DB/internal/checkpoint"
	"github.com/hfcj478/Crawl-DB/internal/config"
	"github.com/hfcj478/Crawl-DB/internal/crawler"
	"github.com/hfcj478/Crawl-DB/internal/database"
	"github.com/hfcj478/Crawl-DB/internal/fetch"
	"github.com/hfcj478/Crawl-DB/internal/log"
	"github.com/hfcj478/Crawl-DB/internal/parse"
)

// app bundles the long-lived collaborators a command needs: the
// validated configuration, the opened catalog, and the stage state
// files. Commands that crawl add a Coordinator via newCoordinator.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *database.CatalogDB
	store   *checkpoint.Store
	history *checkpoint.History
}

// newApp builds the configuration from the config file plus flags,
// sets up logging, and opens the catalog database.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	db, err := database.Open(cfg.DataDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "dir", cfg.DataDir)

	return &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		store:   checkpoint.NewStore(cfg.DataDir),
		history: checkpoint.NewHistory(cfg.DataDir),
	}, nil
}

// close releases the app's resources.
func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", "error", err)
	}
}

// newCoordinator loads the session cookie bundle and wires up the
// crawl collaborators. Only crawling commands pay the cookie cost;
// pick and report work offline.
func (a *app) newCoordinator() (*crawler.Coordinator, error) {
	cookies, err := config.LoadCookies(a.cfg.CookiePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load session cookies: %w", err)
	}
	if missing := config.MissingSessionKeys(cookies); len(missing) > 0 {
		a.logger.Warn("cookie bundle lacks known session keys, pages may be interstitials",
			"missing", missing)
	}

	client := fetch.NewClient(cookies,
		fetch.WithUserAgent(a.cfg.UserAgent),
		fetch.WithTimeout(a.cfg.Timeout),
		fetch.WithMaxBodySize(a.cfg.MaxBodySize),
		fetch.WithReferer(a.cfg.BaseURL+"/"),
	)

	extractor, err := parse.New(a.cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	return crawler.New(crawler.Params{
		DB:               a.db,
		Checkpoints:      a.store,
		History:          a.history,
		Fetcher:          client,
		Extractor:        extractor,
		Logger:           a.logger,
		DelayMin:         a.cfg.DelayMin,
		DelayMax:         a.cfg.DelayMax,
		DisableEarlyStop: a.cfg.DisableEarlyStop,
	}), nil
}

// buildConfig creates a Config from the config file and cobra flags.
// Flags override file values, which override defaults.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not
	// found. If no path specified, silently skip a missing default file.
	explicit := configPath != ""
	if found := config.FindConfigFile(configPath); found != "" {
		file, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		if err := file.Apply(cfg); err != nil {
			return nil, err
		}
	} else if explicit {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	if cmd.Flags().Changed("data-dir") {
		if cfg.DataDir, err = cmd.Flags().GetString("data-dir"); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("cookie") {
		if cfg.CookiePath, err = cmd.Flags().GetString("cookie"); err != nil {
			return nil, err
		}
	}
	if cfg.Verbose, err = cmd.Flags().GetBool("verbose"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// signalContext returns a context canceled by SIGINT or SIGTERM, so a
// crawl stops at the next unit boundary and the checkpoint stays valid.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()
	return ctx, cancel
}
