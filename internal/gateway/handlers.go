package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/callsight/callsight/internal/engine"
)

// maxRequestBody caps inbound JSON bodies at 4MB.
const maxRequestBody = 4 * 1024 * 1024

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type finalizeRequest struct {
	CallID      string `json:"callId"`
	ClientEmail string `json:"clientEmail"`
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: s.version})
}

// handleProcessWindow runs one window through the engine and returns its tips
// and tool activity. Processed windows are also broadcast to feed clients.
func (s *Server) handleProcessWindow(w http.ResponseWriter, r *http.Request) {
	var req engine.WindowRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := s.engine.ProcessWindow(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.feed.Broadcast(Event{
		Type: EventWindowProcessed,
		Payload: WindowProcessedPayload{
			CallID:       req.CallID,
			WindowNum:    req.WindowNum,
			AiTips:       res.AiTips,
			ActivityFeed: res.ActivityFeed,
		},
	})

	writeJSON(w, http.StatusOK, res)
}

// handleFinalizeCall aggregates a finished call into its analytics record.
func (s *Server) handleFinalizeCall(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rec, err := s.engine.FinalizeCall(r.Context(), req.CallID, req.ClientEmail)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.feed.Broadcast(Event{
		Type: EventCallFinalized,
		Payload: CallFinalizedPayload{
			CallID:      req.CallID,
			ClientEmail: req.ClientEmail,
		},
	})

	writeJSON(w, http.StatusOK, rec)
}

// writeEngineError maps the engine's error taxonomy to status codes:
// bad input 400, reasoning/summarization failures 502, store failures 500.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var inputErr *engine.InputError
	var upstreamErr *engine.UpstreamError
	var storeErr *engine.StoreError

	switch {
	case errors.As(err, &inputErr):
		writeError(w, http.StatusBadRequest, inputErr.Reason)
	case errors.As(err, &upstreamErr):
		s.log.Error().Err(err).Msg("upstream failure")
		writeError(w, http.StatusBadGateway, "upstream service failed")
	case errors.As(err, &storeErr):
		s.log.Error().Err(err).Msg("store failure")
		writeError(w, http.StatusInternalServerError, "storage failed")
	default:
		s.log.Error().Err(err).Msg("unexpected failure")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	return json.NewDecoder(r.Body).Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
