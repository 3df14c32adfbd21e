package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/loctrack/internal/config"
	"github.com/dreamware/loctrack/internal/metrics"
	"github.com/dreamware/loctrack/internal/storage"
)

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		history config.HistoryConfig
		check   func(t *testing.T, s storage.SnapshotStore)
		wantErr bool
	}{
		{
			name:    "file",
			history: config.HistoryConfig{Backend: config.BackendFile, File: filepath.Join(dir, "h.json")},
			check: func(t *testing.T, s storage.SnapshotStore) {
				fs, ok := s.(*storage.FileStore)
				require.True(t, ok)
				assert.Equal(t, filepath.Join(dir, "h.json"), fs.Path())
			},
		},
		{
			name:    "sqlite",
			history: config.HistoryConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(dir, "h.db")},
			check: func(t *testing.T, s storage.SnapshotStore) {
				_, ok := s.(*storage.SQLiteStore)
				assert.True(t, ok)
			},
		},
		{
			name:    "memory",
			history: config.HistoryConfig{Backend: config.BackendMemory},
			check: func(t *testing.T, s storage.SnapshotStore) {
				_, ok := s.(*storage.MemoryStore)
				assert.True(t, ok)
			},
		},
		{
			name:    "unknown",
			history: config.HistoryConfig{Backend: "tape"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := openStore(tt.history)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer s.Close()
			tt.check(t, s)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "warn"

	var buf strings.Builder
	logger, err := newLogger(cfg, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown k=v")

	cfg.LogLevel = "loud"
	_, err = newLogger(cfg, &buf)
	assert.Error(t, err)
}

func TestServeMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	m.ConnAccepted()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	addr, shutdown, err := serveMetrics("127.0.0.1:0", m, logger)
	require.NoError(t, err)
	defer shutdown()

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "tracker_connections_accepted_total 1")
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	historyFile := filepath.Join(dir, "location_history.json")
	t.Setenv(config.EnvListen, "127.0.0.1:0")
	t.Setenv(config.EnvHistoryFile, historyFile)
	t.Setenv(config.EnvWorkers, "2")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan string, 1)
	done := make(chan error, 1)
	var logs bytes.Buffer
	go func() { done <- run(ctx, "", &logs, ready) }()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("run exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("tracker did not start")
	}

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	_, err = conn.Write([]byte("GET /api/location HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	out, err := io.ReadAll(conn)
	require.NoError(t, err)
	conn.Close()
	assert.True(t, strings.HasPrefix(string(out), "HTTP/1.1 404 Not Found\r\n"))
	assert.True(t, strings.HasSuffix(string(out), `{"error":"No location data available"}`))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("tracker did not stop")
	}
	assert.Contains(t, logs.String(), "path="+historyFile)
}

func TestRunConfigError(t *testing.T) {
	t.Setenv(config.EnvHistoryBackend, "tape")

	err := run(context.Background(), "", io.Discard, nil)
	assert.ErrorContains(t, err, "tape")
}

func TestMainFatalOnConfigError(t *testing.T) {
	t.Setenv(config.EnvWorkers, "-1")

	oldLogFatal := logFatal
	defer func() { logFatal = oldLogFatal }()

	fatalCalled := false
	logFatal = func(format string, v ...interface{}) {
		fatalCalled = true
	}

	main()
	assert.True(t, fatalCalled)
}
