package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/pprof"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skipbench/skipbench/internal/report"
)

// Server exposes the latest benchmark record plus metrics and profiling
// endpoints while a run is in flight.
type Server struct {
	mu     sync.RWMutex
	latest *report.Record
	server *http.Server
}

// New creates the API server listening on addr.
func New(addr string) *Server {
	s := &Server{}

	mux := http.NewServeMux()

	mux.HandleFunc("/summary", s.handleSummary)
	mux.HandleFunc("/healthz", s.handleHealthz)

	// pprof profiling endpoints
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Publish replaces the record served at /summary.
func (s *Server) Publish(rec *report.Record) {
	s.mu.Lock()
	s.latest = rec
	s.mu.Unlock()
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "server: only GET method is allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	rec := s.latest
	s.mu.RUnlock()

	if rec == nil {
		http.Error(w, "server: no benchmark has completed yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rec); err != nil {
		log.Printf("server: failed to write response: %v", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Start runs the API server.
func (s *Server) Start() error {
	log.Printf("server: listening on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("server: shutting down API server...")
	return s.server.Shutdown(ctx)
}
