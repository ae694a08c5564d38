// internal/rest/server.go
package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tamzrod/automation-gateway/internal/board"
	"github.com/tamzrod/automation-gateway/internal/health"
	"github.com/tamzrod/automation-gateway/internal/link"
	"github.com/tamzrod/automation-gateway/internal/protocol"
	"github.com/tamzrod/automation-gateway/internal/state"
)

// Board is the slice of the serial manager the API uses.
type Board interface {
	Submit(ctx context.Context, cmd protocol.Command) (protocol.Result, error)
	State() link.State
}

type Config struct {
	Host      string
	Port      int
	StaticDir string
}

// Server is the HTTP face of the gateway: a small JSON API plus the
// static dashboard.
type Server struct {
	cfg     Config
	variant board.Variant
	board   Board
	store   *state.Store
	monitor *health.Monitor
	log     zerolog.Logger
	srv     *http.Server
}

func New(cfg Config, variant board.Variant, b Board, store *state.Store, monitor *health.Monitor, log zerolog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		variant: variant,
		board:   b,
		store:   store,
		monitor: monitor,
		log:     log,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/api/health", s.health)
	r.Get("/api/status", s.status)
	r.Post("/api/relay/{channel}", s.relay)
	r.Post("/api/output/{channel}", s.output)
	r.Post("/api/reset", s.reset)

	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
