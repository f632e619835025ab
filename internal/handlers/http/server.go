// Package http serves the chainscan API: node liveness, event metadata,
// historical chain lookups, node call forwarding and the websocket event
// stream.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gabapcia/chainscan/internal/chainstore"
	"github.com/gabapcia/chainscan/internal/chainstream"
	"github.com/gabapcia/chainscan/internal/event"
	"github.com/gabapcia/chainscan/internal/eventcache"
	"github.com/gabapcia/chainscan/internal/fanout"
	"github.com/gabapcia/chainscan/internal/node"
	"github.com/gabapcia/chainscan/internal/pkg/logger"
	"github.com/gabapcia/chainscan/internal/pkg/metrics"
	"github.com/gabapcia/chainscan/internal/pool"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

type config struct {
	requestTimeout  time.Duration
	shutdownTimeout time.Duration
	rateLimit       float64
	rateBurst       int
	allowedOrigins  []string
	fanoutOpts      []fanout.Option
}

// Option configures the Server.
type Option func(*config)

// WithRequestTimeout bounds every handler except the websocket stream.
// Default: 15s.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *config) {
		c.requestTimeout = d
	}
}

// WithShutdownTimeout bounds the graceful shutdown. Default: 10s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *config) {
		c.shutdownTimeout = d
	}
}

// WithRateLimit sets the process-wide request rate and burst. Default: 50/s,
// burst 100.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *config) {
		c.rateLimit = perSecond
		c.rateBurst = burst
	}
}

// WithAllowedOrigins restricts CORS to origins. Empty allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(c *config) {
		c.allowedOrigins = origins
	}
}

// WithFanoutOptions configures the websocket handler.
func WithFanoutOptions(opts ...fanout.Option) Option {
	return func(c *config) {
		c.fanoutOpts = append(c.fanoutOpts, opts...)
	}
}

// Server routes API requests to the node pool, the event cache and the
// chain store.
type Server struct {
	pool     *pool.Pool[*node.Client]
	source   *chainstream.PoolSource
	protocol string
	events   event.Config
	cache    eventcache.Service
	store    chainstore.Service
	fanout   *fanout.Handler
	cfg      config
	handler  http.Handler
}

// NewServer builds the router. store may be chainstore.Unavailable() when no
// database is configured.
func NewServer(p *pool.Pool[*node.Client], events event.Config, cache eventcache.Service, store chainstore.Service, opts ...Option) *Server {
	cfg := config{
		requestTimeout:  15 * time.Second,
		shutdownTimeout: 10 * time.Second,
		rateLimit:       50,
		rateBurst:       100,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	protocol := ""
	if ep, err := node.ParseEndpoint(p.Meta()); err == nil {
		protocol = ep.Protocol.String()
	}

	source := chainstream.FromPool(p)
	s := &Server{
		pool:     p,
		source:   source,
		protocol: protocol,
		events:   events,
		cache:    cache,
		store:    store,
		fanout: fanout.NewHandler(source, append([]fanout.Option{
			fanout.WithErrorWriter(WriteError),
		}, cfg.fanoutOpts...)...),
		cfg: cfg,
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, ErrRouteNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, ErrMethodNotAllowed)
	})
	r.Use(metricsMiddleware, rateLimitMiddleware(rate.NewLimiter(rate.Limit(s.cfg.rateLimit), s.cfg.rateBurst)))

	get := func(path string, fn http.HandlerFunc) {
		r.Handle(path, withTimeout(fn, s.cfg.requestTimeout)).Methods(http.MethodGet)
	}

	get("/", s.index)
	get("/health", s.health)
	get("/events", s.listEvents)
	get("/events/{event}/last", s.lastEvent)
	get("/chain/last", s.lastHeader)
	get("/chain/stats", s.chainStats)
	get("/chain/header/{hash}", s.headerByHash)
	get("/transaction/last", s.lastTransaction)
	get("/transaction/stats", s.transactionStats)
	get("/transaction/{id}", s.transactionByID)
	get("/metrics", metrics.Handler().ServeHTTP)
	r.Handle("/rpc", withTimeout(http.HandlerFunc(s.rpc), s.cfg.requestTimeout)).Methods(http.MethodPost)
	r.Handle("/websocket", s.fanout).Methods(http.MethodGet)

	origins := s.cfg.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	var h http.Handler = r
	h = skipUpgrades(handlers.CompressHandler(h), h)
	return cors(h)
}

// Handler returns the routed handler with its middleware stack.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is done, then closes the websocket
// sessions and drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info(ctx, "http server listening", "addr", addr)

	select {
	case err := <-errCh:
		s.fanout.Shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "http server shutting down")
	s.fanout.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Shutdown closes every websocket session.
func (s *Server) Shutdown() {
	s.fanout.Shutdown()
}
