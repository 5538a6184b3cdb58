// Command almanacd serves the recipe almanac HTTP API.
//
// Configuration is environment-driven:
//
//	ALMANAC_HTTP_ADDR: listen address (default :8080)
//	ALMANAC_STORAGE_DRIVER / ALMANAC_SQLITE_PATH / ALMANAC_POSTGRES_DSN
//	ALMANAC_BLOB_DRIVER / ALMANAC_BLOB_FS_ROOT / ALMANAC_BLOB_S3_*
package main

import (
	"context"
	"errors"
	"expvar"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recipealmanac/internal/adapters/recipes"
	"recipealmanac/internal/blob"
	"recipealmanac/internal/core"
	"recipealmanac/internal/infra/persistence"
)

func main() {
	logger := log.New(os.Stderr, "almanacd ", log.LstdFlags|log.LUTC)
	if err := run(logger); err != nil {
		logger.Fatalf("fatal: %v", err)
	}
}

func run(logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := persistence.Open(core.NewDefaultRulesEngine())
	if err != nil {
		return err
	}

	blobs, err := blob.Open(ctx)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := core.NewPrometheusMetricsRecorder(registry)
	if err != nil {
		return err
	}

	svc := core.NewService(store,
		core.WithLogger(logger),
		core.WithMetricsRecorder(metrics),
	)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", recipes.NewHandler(svc, blobs))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := os.Getenv("ALMANAC_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s (storage=%s blobs=%s)", addr, os.Getenv("ALMANAC_STORAGE_DRIVER"), blobs.Driver())
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
