package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// StatusServer exposes run progress over HTTP, for watching long or
// unbounded transmissions from another terminal.
type StatusServer struct {
	srv *http.Server
	hub *Hub
	log *zap.Logger
}

// NewStatusServer builds an HTTP server with status and event endpoints
// backed by the hub.
func NewStatusServer(addr string, hub *Hub, log *zap.Logger) *StatusServer {
	if log == nil {
		log = zap.NewNop()
	}
	s := &StatusServer{hub: hub, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/events", s.handleEvents)
	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Start begins listening and shuts down when the context is canceled.
func (s *StatusServer) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("status server shutdown", zap.Error(err))
		}
	}()

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Warn("status server", zap.Error(err))
	}
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := struct {
		Stage  Stage     `json:"stage"`
		At     time.Time `json:"at"`
		Events int       `json:"events"`
	}{Stage: "idle", Events: len(s.hub.History())}
	if last, ok := s.hub.Last(); ok {
		status.Stage = last.Stage
		status.At = last.Time
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

func (s *StatusServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.hub.History())
}
