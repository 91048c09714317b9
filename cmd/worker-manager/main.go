// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"knowledge-workers/internal/common/camunda"
	"knowledge-workers/internal/common/config"
	"knowledge-workers/internal/common/database"
	apperrors "knowledge-workers/internal/common/errors"
	"knowledge-workers/internal/common/events"
	apphttp "knowledge-workers/internal/common/http"
	"knowledge-workers/internal/common/logger"
	"knowledge-workers/internal/common/observability"
	"knowledge-workers/internal/knowledge/geo"
	"knowledge-workers/internal/knowledge/orchestrator"
	"knowledge-workers/internal/knowledge/router"
	"knowledge-workers/internal/knowledge/sources"
	groundcontext "knowledge-workers/internal/workers/knowledge/ground-context"
	"knowledge-workers/pkg/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("metrics exporter unavailable, continuing with no-op instruments", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Facility registry ---
	reg, err := loadRegistry(cfg.Registry)
	if err != nil {
		zapLog.Fatal("facility registry invalid", zap.Error(err))
	}
	zapLog.Info("Facility registry loaded", zap.Int("facilities", len(reg.All())))

	// --- Event sink ---
	sink, closeSink := buildSink(ctx, cfg.Events, log)
	defer closeSink()

	// --- Knowledge pipeline ---
	fetchers := sources.NewFetchers(cfg.Sources, sources.NewClient(cfg.Sources), reg, log)
	aggregator := orchestrator.New(fetchers, orchestrator.Options{
		Timeout:      config.GetDuration(cfg.Sources.Timeout),
		NewsMaxItems: cfg.News.MaxItems,
	}, sink, obs, log)

	geoClient := apphttp.NewClient(
		config.GetDuration(cfg.Geocoding.Timeout),
		apphttp.WithUserAgent(cfg.Sources.UserAgent),
	)
	resolver := geo.NewResolver(reg, []geo.Provider{
		geo.NewAddressProvider(geoClient, cfg.Geocoding.PrimaryURL),
		geo.NewNominatimProvider(geoClient, cfg.Geocoding.FallbackURL),
	}, geo.Options{
		Timeout:         config.GetDuration(cfg.Geocoding.Timeout),
		NationalSlackKm: cfg.Geocoding.NationalSlackKm,
		CoLocatedKm:     cfg.Geocoding.CoLocatedKm,
	}, log)

	handler, err := groundcontext.NewHandler(groundcontext.ConfigFromApp(cfg), groundcontext.Dependencies{
		Router:       router.New(cfg.Router.Thresholds),
		Aggregator:   aggregator,
		Resolver:     resolver,
		Locations:    geo.NewLocationFinder(reg),
		Events:       sink,
		Logger:       log,
		Obs:          obs,
		ErrorHandler: apperrors.NewErrorHandler(log),
	})
	if err != nil {
		zapLog.Fatal("ground-context handler init failed", zap.Error(err))
	}

	// --- Zeebe client with retry ---
	zeebe, err := camunda.Connect(ctx, camunda.ConfigFromApp(cfg.Camunda), log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully", zap.String("gateway", cfg.Camunda.BrokerAddress))

	workers := []*camunda.JobWorker{
		camunda.StartWorker(zeebe.GetClient(), groundcontext.TaskType,
			config.GetWorkerConfig(cfg, groundcontext.TaskType), handler.Handle, log),
	}

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           newMux(zeebe),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}

func loadRegistry(cfg config.RegistryConfig) (*registry.FacilityRegistry, error) {
	if cfg.Path == "" {
		return registry.Default()
	}
	return registry.Load(cfg.Path)
}

// buildSink returns the configured event sink and a cleanup function.
func buildSink(ctx context.Context, cfg config.EventsConfig, log logger.Logger) (events.Sink, func()) {
	switch cfg.Sink {
	case "nop":
		return events.NopSink{}, func() {}
	case "redis":
		client := database.NewRedis(cfg.Redis)
		if err := client.Ping(ctx); err != nil {
			log.Warn("Redis event stream unreachable, falling back to log sink", map[string]interface{}{
				"error":   err.Error(),
				"address": cfg.Redis.Address,
			})
			_ = client.Close()
			return events.NewLogSink(log), func() {}
		}
		return events.Multi{
				events.NewLogSink(log),
				events.NewRedisStreamSink(client, cfg.Redis.Stream, cfg.Redis.MaxLen, log),
			}, func() {
				_ = client.Close()
			}
	default:
		return events.NewLogSink(log), func() {}
	}
}

type readinessChecker interface {
	HealthCheck(ctx context.Context) error
}

func newMux(zeebe readinessChecker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", "")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not_ready", err.Error())
			return
		}
		writeStatus(w, http.StatusOK, "ready", "")
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, status, detail string) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if detail != "" {
		body["error"] = detail
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
