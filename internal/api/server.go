package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/inboundiq/server/internal/agent/graph"
	"github.com/inboundiq/server/internal/agent/model"
	errx "github.com/inboundiq/server/internal/core/error"
	logx "github.com/inboundiq/server/pkg/logger"
)

const maxBodyBytes = 64 << 10

// Server is the webhook front door. One inbound lead message in, one agent
// response out.
type Server struct {
	runner graph.Runner
	http   *http.Server
}

func NewServer(addr string, runner graph.Runner) *Server {
	s := &Server{runner: runner}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/inbound", s.handleInbound)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	logx.Info().Str("addr", s.http.Addr).Msg("webhook server listening")
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleInbound(w http.ResponseWriter, r *http.Request) {
	var ev model.InboundEvent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := ev.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.runner.Handle(r.Context(), ev)
	if err != nil {
		var appErr *errx.AppError
		if errors.As(err, &appErr) {
			writeError(w, appErr.Status, appErr.Message)
			return
		}
		logx.Error().Err(err).Str("leadKey", ev.LeadKey).Msg("inbound handling failed")
		writeError(w, http.StatusInternalServerError, errx.SystemErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
