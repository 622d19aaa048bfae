package skill

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxEnvelopeBytes bounds a request body.
const maxEnvelopeBytes = 1 << 20

// NewRouter exposes h at POST / with a liveness probe at GET /healthz.
func NewRouter(h *Handler, log *slog.Logger) http.Handler {
	mux := chi.NewRouter()

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var env Envelope
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEnvelopeBytes))
		if err := dec.Decode(&env); err != nil {
			log.WarnContext(r.Context(), "malformed skill request", slog.Any("error", err))
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}

		resp, err := h.Dispatch(r.Context(), env)
		if err != nil {
			log.WarnContext(r.Context(), "unroutable skill request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.ErrorContext(r.Context(), "failed to write response", slog.Any("error", err))
		}
	})

	return otelhttp.NewHandler(mux, "skill")
}

// Server serves a handler until its context is cancelled.
type Server struct {
	ls  net.Listener
	srv *http.Server
}

// NewServer wraps an already bound listener.
func NewServer(ls net.Listener, h http.Handler) *Server {
	return &Server{
		ls: ls,
		srv: &http.Server{
			Handler:           h,
			ReadTimeout:       5 * time.Second,
			ReadHeaderTimeout: 2 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Addr returns the listening address.
func (s *Server) Addr() net.Addr {
	return s.ls.Addr()
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	p := pool.New().WithContext(ctx).WithCancelOnError()

	p.Go(func(ctx context.Context) error {
		return s.srv.Serve(s.ls)
	})

	p.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return s.srv.Shutdown(context.Background())
	})

	err := p.Wait()
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
