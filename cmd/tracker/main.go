// Package main runs the location tracker: a small HTTP-shaped service that
// keeps the latest device location and a bounded history of reports.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│                Tracker                  │
//	├─────────────────────────────────────────┤
//	│  Routes:                                │
//	│    GET    /                  page       │
//	│    GET    /api/location      current    │
//	│    POST   /api/location      update     │
//	│    GET    /api/history       history    │
//	│    DELETE /api/history/clear clear      │
//	├─────────────────────────────────────────┤
//	│  Components:                            │
//	│    server.Server  - worker pool         │
//	│    api.Router     - route table         │
//	│    tracker.State  - current + history   │
//	│    storage        - history snapshot    │
//	└─────────────────────────────────────────┘
//
// Configuration (all optional, see internal/config):
//   - TRACKER_CONFIG: YAML file path
//   - TRACKER_LISTEN: listen address (default: "0.0.0.0:8080")
//   - TRACKER_HISTORY_BACKEND: file, sqlite or memory (default: "file")
//   - TRACKER_HISTORY_FILE: snapshot file (default: "location_history.json")
//   - TRACKER_SQLITE_PATH: database file (default: "location_history.db")
//   - TRACKER_WORKERS / TRACKER_QUEUE: pool size (default: 64 / 128)
//   - TRACKER_METRICS_ADDR: Prometheus listener, off when empty
//   - TRACKER_LOG_LEVEL: debug, info, warn or error (default: "info")
//
// Example usage:
//
//	./tracker
//
//	curl -X POST localhost:8080/api/location \
//	  -d '{"latitude":25.1,"longitude":55.2,"device_name":"phone"}'
//	curl localhost:8080/api/history
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dreamware/loctrack/internal/api"
	"github.com/dreamware/loctrack/internal/config"
	"github.com/dreamware/loctrack/internal/metrics"
	"github.com/dreamware/loctrack/internal/server"
	"github.com/dreamware/loctrack/internal/storage"
	"github.com/dreamware/loctrack/internal/tracker"
	"github.com/dreamware/loctrack/internal/web"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
var logFatal = log.Fatalf

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, "", os.Stderr, nil); err != nil {
		logFatal("tracker: %v", err)
	}
}

// run wires the tracker together and serves until ctx is cancelled. If
// ready is non-nil it receives the bound listen address once accepting.
func run(ctx context.Context, configPath string, logOut io.Writer, ready chan<- string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, logOut)
	if err != nil {
		return err
	}

	store, err := openStore(cfg.History)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close history store", "err", err)
		}
	}()

	storeAttrs := []any{"backend", cfg.History.Backend}
	if fs, ok := store.(*storage.FileStore); ok {
		storeAttrs = append(storeAttrs, "path", fs.Path())
	}
	logger.Info("history store open", storeAttrs...)

	state := tracker.New(store, tracker.WithLogger(logger))

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		m.WatchState(state)
		m.WatchStore(store)

		_, shutdown, err := serveMetrics(cfg.MetricsAddr, m, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	router := api.NewRouter(state,
		api.WithLogger(logger),
		api.WithMetrics(m),
		api.WithIndexPage(web.Index()),
	)
	srv := server.New(router,
		server.WithLogger(logger),
		server.WithMetrics(m),
		server.WithWorkers(cfg.Workers),
		server.WithQueueDepth(cfg.QueueDepth),
	)

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	logger.Info("tracker listening", "addr", ln.Addr().String(), "history_backend", cfg.History.Backend)
	if ready != nil {
		ready <- ln.Addr().String()
	}

	return srv.Serve(ctx, ln)
}

func newLogger(cfg *config.Config, out io.Writer) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), nil
}

// openStore returns the snapshot backend named by the configuration.
func openStore(h config.HistoryConfig) (storage.SnapshotStore, error) {
	switch h.Backend {
	case config.BackendFile:
		return storage.NewFileStore(h.File), nil
	case config.BackendSQLite:
		return storage.OpenSQLite(h.SQLitePath)
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", h.Backend)
	}
}

// serveMetrics starts the Prometheus listener. It returns the bound
// address and a function that shuts the listener down.
func serveMetrics(addr string, m *metrics.Metrics, logger *slog.Logger) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("metrics listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	s := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics listening", "addr", ln.Addr().String())
		if err := s.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "err", err)
		}
	}()

	return ln.Addr().String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			logger.Warn("metrics shutdown", "err", err)
		}
	}, nil
}
