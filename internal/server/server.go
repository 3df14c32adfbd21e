// Package server accepts TCP connections and runs each one through a
// wire.Handler on a fixed pool of worker goroutines.
//
// Architecture:
//
//	listener ──accept──▶ queue (bounded) ──▶ worker 1..N ──▶ wire.Serve
//	                        │
//	                        └── full: 503 and close
//
// Every connection carries one request and one response. A stalled peer
// holds its worker until it sends or disconnects; there are no read or
// write deadlines on served connections.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dreamware/loctrack/internal/metrics"
	"github.com/dreamware/loctrack/internal/wire"
)

// Pool defaults.
const (
	DefaultWorkers    = 64
	DefaultQueueDepth = 128
)

// rejectTimeout bounds the whole exchange with a client we are turning
// away; rejectDrainLimit caps how much of its request is read and dropped.
const (
	rejectTimeout    = time.Second
	rejectDrainLimit = 64 << 10
)

// Server is a bounded connection pool in front of a wire.Handler.
type Server struct {
	handler    wire.Handler
	logger     *slog.Logger
	metrics    *metrics.Metrics
	workers    int
	queueDepth int
}

// Option configures a Server.
type Option func(*Server)

// WithWorkers sets the number of connections handled concurrently.
func WithWorkers(n int) Option {
	return func(s *Server) { s.workers = n }
}

// WithQueueDepth sets how many accepted connections may wait for a worker.
// Zero means a connection is rejected unless a worker is idle.
func WithQueueDepth(n int) Option {
	return func(s *Server) { s.queueDepth = n }
}

// WithLogger sets the connection logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics records accepted, rejected and panicking connections.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New builds a Server for h.
func New(h wire.Handler, opts ...Option) *Server {
	s := &Server{
		handler:    h,
		logger:     slog.Default(),
		workers:    DefaultWorkers,
		queueDepth: DefaultQueueDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 1 {
		s.workers = 1
	}
	if s.queueDepth < 0 {
		s.queueDepth = 0
	}
	return s
}

type job struct {
	conn net.Conn
	id   string
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. It then closes
// ln, lets the workers finish every queued connection, and returns nil.
// Any other accept failure that closes the listener is returned.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	queue := make(chan job, s.queueDepth)

	var wg sync.WaitGroup
	wg.Add(s.workers)
	for i := 0; i < s.workers; i++ {
		go func() {
			defer wg.Done()
			for j := range queue {
				s.handle(j)
			}
		}()
	}

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.logger.Info("serving", "addr", ln.Addr().String(), "workers", s.workers, "queue", s.queueDepth)

	err := s.acceptLoop(ctx, ln, queue)

	close(queue)
	wg.Wait()
	s.logger.Info("server stopped")
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener, queue chan<- job) error {
	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			// Transient failures such as EMFILE: back off and keep accepting.
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else if backoff *= 2; backoff > time.Second {
				backoff = time.Second
			}
			s.logger.Warn("accept failed", "err", err, "retry_in", backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		j := job{conn: conn, id: uuid.NewString()}
		select {
		case queue <- j:
			s.metrics.ConnAccepted()
		default:
			s.metrics.ConnRejected()
			go s.reject(j)
		}
	}
}

// reject answers 503 without reading the request, then half-closes and
// discards whatever the peer sent. Closing with unread input would reset
// the connection and could destroy the 503 before the peer reads it.
func (s *Server) reject(j job) {
	defer j.conn.Close()
	s.logger.Warn("queue full, rejecting connection", "conn_id", j.id, "remote", j.conn.RemoteAddr().String())

	j.conn.SetDeadline(time.Now().Add(rejectTimeout))
	resp := wire.Text(http.StatusServiceUnavailable, wire.StatusText(http.StatusServiceUnavailable))
	if err := wire.WriteResponse(j.conn, resp); err != nil {
		s.logger.Debug("write 503", "conn_id", j.id, "err", err)
		return
	}

	if cw, ok := j.conn.(interface{ CloseWrite() error }); ok {
		cw.CloseWrite()
	}
	io.Copy(io.Discard, io.LimitReader(j.conn, rejectDrainLimit))
}

// handle serves one connection. A panic in the handler is contained here:
// it is logged, the peer gets a 500, and the worker moves on.
func (s *Server) handle(j job) {
	logger := s.logger.With("conn_id", j.id, "remote", j.conn.RemoteAddr().String())
	defer j.conn.Close()
	defer func() {
		if r := recover(); r != nil {
			s.metrics.PanicRecovered()
			logger.Error("handler panicked", "panic", r)
			resp := wire.Text(http.StatusInternalServerError, wire.StatusText(http.StatusInternalServerError))
			_ = wire.WriteResponse(j.conn, resp)
		}
	}()

	if err := wire.Serve(j.conn, s.handler); err != nil {
		logger.Debug("connection error", "err", err)
	}
}
