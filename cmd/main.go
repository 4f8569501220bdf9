package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/propedge/propedge/internal/adapters/provider"
	"github.com/propedge/propedge/internal/adapters/repository"
	service "github.com/propedge/propedge/internal/app"
	"github.com/propedge/propedge/internal/config"
	"github.com/propedge/propedge/internal/domain/calibration"
	"github.com/propedge/propedge/internal/domain/correlation"
	"github.com/propedge/propedge/internal/domain/scoring"
	"github.com/propedge/propedge/internal/simulate"
	"github.com/propedge/propedge/pkg/logger"
	"github.com/propedge/propedge/pkg/metrics"
)

// Metrics server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since the logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts, sim, err := buildOptions(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to assemble engine", logger.Error(err))
		return
	}

	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start engine", logger.Error(err))
		return
	}
	defer svc.Stop()

	// Optional Prometheus endpoint.
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = startMetricsServer(ctx, cfg.MetricsAddr, log)
	}

	// One full simulation pass: score, bundle, settle, calibrate.
	simCfg := &simulate.Config{
		SlateSize:     cfg.SlateSize,
		Games:         cfg.SimGames,
		Seed:          cfg.SimSeed,
		Period:        cfg.SimPeriod,
		BundleSizes:   cfg.BundleSizes,
		MinConfidence: cfg.MinConfidence,
	}
	if _, err := simulate.Run(ctx, svc, sim, simCfg); err != nil {
		log.Error(ctx, "simulation pass failed", logger.Error(err))
	}

	if metricsSrv != nil {
		// Keep serving metrics until interrupted.
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "metrics server shutdown failed", logger.Error(err))
		}
	}

	log.Info(ctx, "engine exited")
}

// buildOptions translates configuration into engine options and returns
// the simulation provider wired in for contexts and outcomes.
func buildOptions(ctx context.Context, cfg *config.Config, log logger.Logger) ([]service.Option, *provider.StaticProvider, error) {
	sim := provider.NewStaticProvider()

	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithPoolLimit(cfg.PoolLimit),
		service.WithPenalty(cfg.BaseMagnitude, cfg.PenaltyFloor),
		service.WithDataProvider(sim),
		service.WithOutcomeProvider(sim),
		service.WithCalibrationOptions(
			calibration.WithOverconfidenceGain(cfg.OverconfidenceGain),
			calibration.WithAccuracyBonusGain(cfg.AccuracyBonusGain),
			calibration.WithMinSampleSize(cfg.MinSampleSize),
			calibration.WithMaxDelta(cfg.MaxDelta),
		),
	}

	if len(cfg.Tiers) > 0 {
		floors := make([]scoring.Tier, 0, len(cfg.Tiers))
		for _, t := range cfg.Tiers {
			floors = append(floors, scoring.Tier{Name: t.Name, Min: t.Min})
		}
		tiers, err := scoring.NewTiers(floors)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, service.WithTiers(tiers))
	}

	if cfg.StrengthTablePath != "" {
		table, err := correlation.LoadStrengthTable(cfg.StrengthTablePath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, service.WithStrengthTable(table))
	}

	if cfg.StorePath != "" {
		store, err := repository.NewSQLiteWeightStore(ctx, cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, service.WithWeightStore(store))
	}

	return opts, sim, nil
}

// startMetricsServer exposes the engine's Prometheus registry.
func startMetricsServer(ctx context.Context, addr string, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		log.Info(ctx, "starting metrics server", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "metrics server failed", logger.Error(err))
		}
	}()
	return srv
}
