// Package server exposes the derived price view to the rendering layer over
// HTTP: the projected view as JSON, a rendered chart, the visibility signal,
// captured logs, and a health probe.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"homedash/internal/logcapture"
	"homedash/internal/logger"
	"homedash/internal/scheduler"
	"homedash/internal/view"
)

// Server serves the dashboard API. It does not own the scheduler or window
// lifecycle; it only reads from them and forwards the visibility signal.
type Server struct {
	sched       *scheduler.Scheduler
	window      *scheduler.WindowAdvancer
	capture     *logcapture.Capture
	displayZone *time.Location
	priceZone   *time.Location
}

// New creates the API server around an already-started scheduler and window.
func New(sched *scheduler.Scheduler, window *scheduler.WindowAdvancer, capture *logcapture.Capture, displayZone, priceZone *time.Location) *Server {
	return &Server{
		sched:       sched,
		window:      window,
		capture:     capture,
		displayZone: displayZone,
		priceZone:   priceZone,
	}
}

// Handler returns the routed handler with access logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/electricity/view", s.handleView)
	mux.HandleFunc("GET /api/electricity/chart.png", s.handleChart)
	mux.HandleFunc("POST /api/visibility", s.handleVisibility)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return s.withAccessLog(mux)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("HTTP server listening on %s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	// Background context: a staleness revalidation kicked off here must
	// outlive this request.
	snap := s.sched.Cache().Snapshot(context.Background())

	dv := view.Project(snap.Series, s.window.First(), s.priceZone)
	dv.Loading = snap.Loading
	if snap.Err != nil {
		dv.Error = snap.Err.Error()
	}
	writeJSON(w, http.StatusOK, dv)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	snap := s.sched.Cache().Snapshot(context.Background())
	if snap.Loading || len(snap.Series) == 0 {
		http.Error(w, "no price data yet", http.StatusServiceUnavailable)
		return
	}

	dv := view.Project(snap.Series, s.window.First(), s.priceZone)
	img, err := renderChart(dv, s.displayZone)
	if err != nil {
		logger.Error("chart rendering failed: %v", err)
		http.Error(w, "chart rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(img) //nolint:errcheck
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Visible *bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Visible == nil {
		http.Error(w, "body must be {\"visible\": bool}", http.StatusBadRequest)
		return
	}
	s.window.SetVisible(*body.Visible)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.capture.Entries())
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok")) //nolint:errcheck
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response: %v", err)
	}
}

// statusRecorder captures the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		logger.Info("%s %s -> %d (%v) request=%s", r.Method, r.URL.Path, rec.status, time.Since(start), id)
	})
}
