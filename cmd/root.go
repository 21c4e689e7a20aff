package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/songleague/internal/adapters/cache"
	"github.com/okian/songleague/internal/adapters/loader"
	service "github.com/okian/songleague/internal/app"
	"github.com/okian/songleague/internal/config"
	"github.com/okian/songleague/pkg/logger"
)

// cli holds state shared by every sub-command once the root pre-run has
// loaded the configuration.
type cli struct {
	configFile string
	dataDir    string
	logLevel   string

	cfg *config.Config
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "songleague",
		Short: "Music League metrics and network analysis",
		Long: "songleague computes song, voter, submitter and network metrics from " +
			"Music League CSV exports and serves them over HTTP.",
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(*cobra.Command, []string) { _ = logger.Sync() },
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "YAML config file (overrides SONGLEAGUE_CONFIG)")
	flags.StringVar(&c.dataDir, "data-dir", "", "directory with one sub-directory per league")
	flags.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newServeCmd(c),
		newPreprocessCmd(c),
		newAnalyzeCmd(c),
		newCompareCmd(c),
		newGenerateCmd(c),
	)
	return root
}

// setup loads configuration (defaults -> optional file -> env -> flags) and
// initialises logging.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.configFile != "" {
		if err := os.Setenv("SONGLEAGUE_CONFIG", c.configFile); err != nil {
			return err
		}
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}

	if err := logger.InitWithOptions(logger.Options{Format: cfg.LogFormat, File: cfg.LogFile}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	c.log = logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		c.log.Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel),
			logger.Error(err),
		)
		_ = logger.SetLevelString("info")
	}
	c.cfg = cfg
	return nil
}

// newLoader builds the CSV loader with the configured vote filter.
func (c *cli) newLoader() (*loader.Loader, error) {
	filter, err := loader.NewVoteFilter(c.cfg.VoteFilter)
	if err != nil {
		return nil, err
	}
	return loader.New(c.cfg.DataDir,
		loader.WithVoteFilter(filter),
		loader.WithPopularity(loader.NewPopularityProvider(c.cfg.DataDir, c.log.Named("popularity"))),
		loader.WithLogger(c.log.Named("loader")),
	), nil
}

// newService wires loader, cache and settings into a Service. The returned
// cleanup closes the cache.
func (c *cli) newService(ctx context.Context) (*service.Service, func(), error) {
	ld, err := c.newLoader()
	if err != nil {
		return nil, nil, err
	}
	store, err := cache.Open(ctx, c.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}
	opts := append(service.FromConfig(c.cfg),
		service.WithCache(store),
		service.WithLogger(c.log),
	)
	cleanup := func() {
		if err := store.Close(); err != nil {
			c.log.Warn(ctx, "cache close failed", logger.Error(err))
		}
	}
	return service.New(ld, opts...), cleanup, nil
}
