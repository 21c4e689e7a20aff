package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/okian/songleague/internal/adapters/http/api"
	"github.com/okian/songleague/internal/adapters/http/swagger"
	"github.com/okian/songleague/internal/adapters/loader"
	service "github.com/okian/songleague/internal/app"
	"github.com/okian/songleague/pkg/logger"
	"github.com/okian/songleague/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func newServeCmd(c *cli) *cobra.Command {
	var (
		addr    string
		watch   bool
		preload bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve league reports over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				c.cfg.Addr = addr
			}
			if cmd.Flags().Changed("watch") {
				c.cfg.Watch = watch
			}
			return c.serve(cmd.Context(), preload)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, e.g. :9080")
	cmd.Flags().BoolVar(&watch, "watch", false, "recompute leagues whose CSV files change")
	cmd.Flags().BoolVar(&preload, "preload", false, "queue every league for analysis on startup")
	return cmd
}

func (c *cli) serve(parent context.Context, preload bool) error {
	// Default Go collectors would duplicate the system gauges below.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := c.newService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	leagues, err := svc.Leagues(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(leagues))
	for _, l := range leagues {
		names = append(names, l.Name)
	}

	if c.cfg.Watch {
		w, err := loader.NewWatcher(c.cfg.DataDir, names, loader.DefaultDebounce, c.log.Named("watcher"))
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", c.cfg.DataDir, err)
		}
		w.Start(ctx)
		defer w.Stop()
		go svc.Watch(ctx, w.Changes)
	}

	if preload {
		for _, name := range names {
			if _, err := svc.Submit(ctx, name, false); err != nil {
				c.log.Warn(ctx, "preload submit failed", logger.String("league", name), logger.Error(err))
			}
		}
	}

	router := mux.NewRouter()
	swagger.Register(ctx, router)
	api.NewServer(svc).Register(ctx, router)

	srv := &http.Server{
		Addr:              c.cfg.Addr,
		Handler:           router,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		c.log.Info(ctx, "starting HTTP server",
			logger.String("addr", c.cfg.Addr),
			logger.String("data_dir", c.cfg.DataDir),
			logger.Int("leagues", len(names)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	c.log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		c.log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	c.log.Info(ctx, "server stopped")
	return nil
}

// startSystemMetricsUpdater refreshes process gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes engine gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

func updateServiceMetrics(ctx context.Context, svc *service.Service) {
	stats := svc.Stats(ctx)

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if stored, ok := stats["leaguesStored"].(int); ok {
		metrics.UpdateLeaguesStored(stored)
	}
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
}
