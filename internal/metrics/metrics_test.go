package metrics

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/loctrack/internal/storage"
	"github.com/dreamware/loctrack/internal/tracker"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ConnAccepted()
	m.ConnAccepted()
	m.ConnRejected()
	m.PanicRecovered()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.connsAccepted))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.connsRejected))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.panics))
}

func TestObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("GET /api/location", 200, time.Millisecond)
	m.ObserveRequest("GET /api/location", 404, time.Millisecond)
	m.ObserveRequest("GET /api/location", 404, time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("GET /api/location", "200")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues("GET /api/location", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestWatchState(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := tracker.New(storage.NewMemoryStore(), tracker.WithLogger(logger))
	m.WatchState(s)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Record(tracker.Report{Timestamp: "1", DeviceName: "d"}))
	}
	require.NoError(t, s.Clear())
	require.NoError(t, s.Record(tracker.Report{Timestamp: "2", DeviceName: "d"}))

	expected := `
# HELP tracker_history_length Reports currently held in the history
# TYPE tracker_history_length gauge
tracker_history_length 1
# HELP tracker_updates_total Location updates recorded
# TYPE tracker_updates_total counter
tracker_updates_total 4
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"tracker_history_length", "tracker_updates_total")
	assert.NoError(t, err)
}

func TestWatchStore(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	store := storage.NewMemoryStore()
	m.WatchStore(store)

	require.NoError(t, store.Save([]byte(`{"locations":[]}`)))
	require.NoError(t, store.Save([]byte(`{}`)))

	expected := `
# HELP tracker_snapshot_bytes Size of the last saved history snapshot
# TYPE tracker_snapshot_bytes gauge
tracker_snapshot_bytes 2
# HELP tracker_snapshot_saves_total History snapshots written by the backend since open
# TYPE tracker_snapshot_saves_total counter
tracker_snapshot_saves_total 2
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"tracker_snapshot_bytes", "tracker_snapshot_saves_total")
	assert.NoError(t, err)
}

func TestHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ConnAccepted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tracker_connections_accepted_total 1")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ConnAccepted()
		m.ConnRejected()
		m.PanicRecovered()
		m.ObserveRequest("x", 200, time.Second)
		m.WatchState(nil)
		m.WatchStore(nil)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
