package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/dispatch/internal/events/bus"
	"github.com/zeusync/dispatch/internal/observability/log"
	"github.com/zeusync/dispatch/pkg/vtable"
)

// Server exposes read-only introspection over a frozen dispatcher: JSON
// snapshots of families and scopes, plus a live trace stream over a
// websocket. It never mutates the dispatcher.
type Server struct {
	dispatcher *vtable.Dispatcher
	bus        bus.EventBus
	logger     log.Log
	http       *http.Server
}

// New creates an introspection server over the given dispatcher and bus.
func New(d *vtable.Dispatcher, b bus.EventBus, logger log.Log) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Server{dispatcher: d, bus: b, logger: logger}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/families", s.handleFamilies)
	mux.HandleFunc("/scopes", s.handleScopes)
	mux.HandleFunc("/ws/trace", s.handleTrace)

	s.http = &http.Server{Addr: addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("introspection server listening", log.String("addr", addr))
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutCtx)
	})
	return g.Wait()
}

func (s *Server) handleFamilies(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.dispatcher.Families())
}

func (s *Server) handleScopes(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, struct {
		Frozen bool               `json:"frozen"`
		Scopes []vtable.ScopeInfo `json:"scopes"`
	}{
		Frozen: s.dispatcher.Frozen(),
		Scopes: s.dispatcher.Scopes(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", log.Error(err))
	}
}
