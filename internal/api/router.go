// Package api maps tracker requests to operations on the shared state.
//
// Routes are matched on the exact (method, path) pair. Query strings are
// not stripped, so "/api/history?x=1" is not the history route.
//
//	GET    /                    embedded page
//	GET    /api/location        current report, or 404 with an error object
//	POST   /api/location        record a report
//	GET    /api/history         {"locations":[...]}, oldest first
//	DELETE /api/history/clear   empty the history
//
// Anything else is 404 "Not Found".
package api

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/exp/slices"

	"github.com/dreamware/loctrack/internal/metrics"
	"github.com/dreamware/loctrack/internal/tracker"
	"github.com/dreamware/loctrack/internal/value"
	"github.com/dreamware/loctrack/internal/wire"
)

// Fixed response bodies.
const (
	bodyNoLocation    = `{"error":"No location data available"}`
	bodyUpdated       = `{"status":"success","message":"Location updated successfully"}`
	bodyCleared       = `{"status":"success","message":"History cleared successfully"}`
	bodyInvalidJSON   = "Invalid JSON"
	bodyNotFound      = "Not Found"
	bodyInternalError = "Internal Server Error"

	unmatchedRouteName = "unmatched"
)

type routeKey struct {
	method string
	path   string
}

type handlerFunc func(req *wire.Request) wire.Response

// Router dispatches wire requests. It is safe for concurrent use; all
// mutable state lives in the tracker.State.
type Router struct {
	state   *tracker.State
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	index   []byte

	routes map[routeKey]handlerFunc
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Router) { rt.logger = l }
}

// WithMetrics records per-route counts and durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(rt *Router) { rt.metrics = m }
}

// WithClock replaces the clock used to stamp new reports.
func WithClock(now func() time.Time) Option {
	return func(rt *Router) { rt.now = now }
}

// WithIndexPage sets the page served at GET /.
func WithIndexPage(page []byte) Option {
	return func(rt *Router) { rt.index = page }
}

// NewRouter builds the route table over state.
func NewRouter(state *tracker.State, opts ...Option) *Router {
	rt := &Router{
		state:  state,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(rt)
	}

	rt.routes = map[routeKey]handlerFunc{
		{http.MethodGet, "/"}:                     rt.serveIndex,
		{http.MethodGet, "/api/location"}:         rt.getLocation,
		{http.MethodPost, "/api/location"}:        rt.updateLocation,
		{http.MethodGet, "/api/history"}:          rt.getHistory,
		{http.MethodDelete, "/api/history/clear"}: rt.clearHistory,
	}
	return rt
}

// Routes lists the registered routes as "METHOD PATH", sorted.
func (rt *Router) Routes() []string {
	out := make([]string, 0, len(rt.routes))
	for k := range rt.routes {
		out = append(out, k.method+" "+k.path)
	}
	slices.Sort(out)
	return out
}

// ServeWire implements wire.Handler.
func (rt *Router) ServeWire(req *wire.Request) wire.Response {
	start := time.Now()

	name := unmatchedRouteName
	h, ok := rt.routes[routeKey{req.Method, req.Path}]
	if ok {
		name = req.Method + " " + req.Path
	} else {
		h = notFound
	}

	resp := h(req)
	elapsed := time.Since(start)

	rt.metrics.ObserveRequest(name, resp.Status, elapsed)
	rt.logger.Info("request",
		"method", req.Method,
		"path", req.Path,
		"status", resp.Status,
		"bytes", len(resp.Body),
		"duration", elapsed,
	)
	return resp
}

func notFound(*wire.Request) wire.Response {
	return wire.Text(http.StatusNotFound, bodyNotFound)
}

func (rt *Router) serveIndex(*wire.Request) wire.Response {
	return wire.HTML(http.StatusOK, rt.index)
}

func (rt *Router) getLocation(*wire.Request) wire.Response {
	r, ok, err := rt.state.Current()
	if err != nil {
		rt.logger.Error("read current location", "err", err)
		return wire.Text(http.StatusInternalServerError, bodyInternalError)
	}
	if !ok {
		return jsonText(http.StatusNotFound, bodyNoLocation)
	}
	return wire.JSON(http.StatusOK, r.Value())
}

// updateLocation records the report even when part of the state could not
// be written; those failures are logged and the client still sees success.
func (rt *Router) updateLocation(req *wire.Request) wire.Response {
	update, err := value.Parse(req.Body)
	if err != nil {
		rt.logger.Debug("rejecting update", "err", err, "kind", value.KindOf(err))
		return wire.Text(http.StatusBadRequest, bodyInvalidJSON)
	}
	r, err := tracker.NewReport(update, rt.now())
	if err != nil {
		rt.logger.Debug("rejecting update", "err", err)
		return wire.Text(http.StatusBadRequest, bodyInvalidJSON)
	}

	if err := rt.state.Record(r); err != nil {
		rt.logger.Warn("location update incomplete", "err", err)
	}
	return jsonText(http.StatusOK, bodyUpdated)
}

func (rt *Router) getHistory(*wire.Request) wire.Response {
	h, err := rt.state.History()
	if err != nil {
		rt.logger.Error("read history", "err", err)
		return wire.Text(http.StatusInternalServerError, bodyInternalError)
	}
	return wire.JSON(http.StatusOK, tracker.HistoryValue(h))
}

func (rt *Router) clearHistory(*wire.Request) wire.Response {
	if err := rt.state.Clear(); err != nil {
		rt.logger.Warn("history clear incomplete", "err", err)
	}
	return jsonText(http.StatusOK, bodyCleared)
}

func jsonText(status int, body string) wire.Response {
	return wire.Response{Status: status, ContentType: wire.ContentTypeJSON, Body: []byte(body)}
}
