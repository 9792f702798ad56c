package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/joshp123/petoneer/internal/config"
	"github.com/joshp123/petoneer/internal/core"
	"github.com/joshp123/petoneer/internal/logging"
	"github.com/joshp123/petoneer/internal/rate"
	"github.com/joshp123/petoneer/internal/router"
	"github.com/joshp123/petoneer/internal/server"
	"github.com/joshp123/petoneer/plugins/petoneer"
)

const healthSyncInterval = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default "+config.DefaultPath+" if present)")
	flag.Parse()

	cfg, err := config.LoadDefault(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(cfg.Core.LogLevel)
	defer func() { _ = logger.Sync() }()

	compiled := []core.Plugin{
		petoneer.NewPlugin(cfg.Petoneer, logger.Named("petoneer")),
	}
	enabled := config.EnabledPlugins(cfg)
	if err := core.ValidateEnabledPlugins(compiled, enabled, false); err != nil {
		logger.Fatal("enabled plugins", zap.Error(err))
	}
	plugins := core.FilterPlugins(compiled, enabled, false)
	if err := core.ValidatePlugins(plugins); err != nil {
		logger.Fatal("validate plugins", zap.Error(err))
	}
	if len(plugins) == 0 {
		logger.Warn("no plugins enabled; set petoneer.username to enable the fountain exporter")
	}
	for _, p := range plugins {
		logger.Info("plugin loaded",
			zap.String("id", p.ID()),
			zap.String("health", string(p.Health())),
			zap.String("message", p.HealthMessage()))
	}

	if err := core.WriteDashboards(cfg.Core.DashboardDir, plugins); err != nil {
		logger.Warn("write dashboards", zap.Error(err))
	}

	grpcServer, err := server.NewGRPCServer(cfg.Core.GRPCAddr)
	if err != nil {
		logger.Fatal("grpc listen", zap.Error(err))
	}
	router.SyncHealth(grpcServer.Health, plugins)

	buildInfo := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "petoneer_build_info",
		Help: "Build information",
	}, func() float64 { return 1 })
	metricsRegistry := core.MetricsRegistry(plugins, append(rate.MetricsCollectors(), buildInfo)...)

	httpServer := server.NewHTTPServer(cfg.Core.HTTPAddr, router.NewMux(plugins, metricsRegistry))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.Core.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http serve", zap.Error(err))
		}
	}()

	go func() {
		ticker := time.NewTicker(healthSyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				router.SyncHealth(grpcServer.Health, plugins)
			}
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		grpcServer.Stop()
	}()

	logger.Info("grpc listening", zap.String("addr", cfg.Core.GRPCAddr))
	if err := grpcServer.Serve(); err != nil {
		logger.Fatal("grpc serve", zap.Error(err))
	}
}
