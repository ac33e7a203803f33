package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanet-platform/prefixtrie/filter"
)

// Option is a function that configures the server.
type Option func(*options)

type options struct {
	Log      *zap.SugaredLogger
	Gatherer prometheus.Gatherer
}

func newOptions() *options {
	return &options{
		Log:      zap.NewNop().Sugar(),
		Gatherer: prometheus.DefaultGatherer,
	}
}

// WithLog configures the server with a logger.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.Log = log
	}
}

// WithGatherer sets the source of metrics exposed on /metrics.
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(o *options) {
		o.Gatherer = gatherer
	}
}

// Server exposes a prefix filter over HTTP.
type Server struct {
	cfg     *Config
	filter  *filter.Filter
	handler http.Handler
	log     *zap.SugaredLogger
}

// NewServer creates a new server for the given filter.
func NewServer(cfg *Config, f *filter.Filter, options ...Option) *Server {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	m := &Server{
		cfg:    cfg,
		filter: f,
		log:    opts.Log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/lookup", m.handleLookup)
	mux.HandleFunc("GET /v1/rules", m.handleListRules)
	mux.HandleFunc("PUT /v1/rules", m.handlePutRule)
	mux.HandleFunc("DELETE /v1/rules", m.handleDeleteRule)
	mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	m.handler = mux

	return m
}

// Handler returns the HTTP handler of the server.
func (m *Server) Handler() http.Handler {
	return m.handler
}

// Run serves HTTP requests until the specified context is canceled.
func (m *Server) Run(ctx context.Context) error {
	listener, err := m.listen(ctx)
	if err != nil {
		return err
	}

	m.log.Infow("exposing lookup API", zap.Stringer("addr", listener.Addr()))
	defer m.log.Infow("stopped lookup API", zap.Stringer("addr", listener.Addr()))

	srv := &http.Server{
		Handler:           m.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	wg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), m.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return wg.Wait()
}

// listen binds the endpoint, retrying with exponential backoff while the
// address is busy, e.g. during a restart.
func (m *Server) listen(ctx context.Context) (net.Listener, error) {
	retryBackoff := backoff.ExponentialBackOff{
		InitialInterval:     backoff.DefaultInitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         5 * time.Second,
	}
	retryBackoff.Reset()

	attempts := max(m.cfg.ListenAttempts, 1)
	for attempt := 1; ; attempt++ {
		listener, err := net.Listen("tcp", m.cfg.Endpoint)
		if err == nil {
			return listener, nil
		}
		if attempt >= attempts {
			return nil, fmt.Errorf("failed to listen on %q: %w", m.cfg.Endpoint, err)
		}

		delay := retryBackoff.NextBackOff()
		m.log.Warnw("failed to listen, retrying",
			zap.String("endpoint", m.cfg.Endpoint),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}
