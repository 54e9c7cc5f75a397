package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/HendryAvila/provisio/internal/orchestrator"
	"github.com/HendryAvila/provisio/internal/provisioning"
	"github.com/HendryAvila/provisio/internal/session"
	"github.com/HendryAvila/provisio/internal/telemetry"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

func sessionKey(r *http.Request) string {
	return session.NormalizeKey(r.Header.Get(SessionHeader))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"uptime":   time.Since(s.startTime).String(),
		"sessions": s.orc.Sessions().Len(),
	})
}

type allowedToolsResponse struct {
	AllowedTools []string `json:"allowedTools"`
}

func (s *Server) handleAllowedTools(w http.ResponseWriter, r *http.Request) {
	snap := s.orc.Snapshot(sessionKey(r))
	writeJSON(w, http.StatusOK, allowedToolsResponse{
		AllowedTools: provisioning.Strings(snap.Legal),
	})
}

type aiRequest struct {
	Message string `json:"message"`
}

type aiResponse struct {
	Executed       bool   `json:"executed"`
	Message        string `json:"message"`
	ProposedAction string `json:"proposedAction,omitempty"`
	PendingAction  string `json:"pendingAction,omitempty"`
	Intent         string `json:"intent,omitempty"`
	Error          string `json:"error,omitempty"`
}

func (s *Server) handleAI(w http.ResponseWriter, r *http.Request) {
	var req aiRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "message is required")
		return
	}

	reply, err := s.orc.Handle(r.Context(), sessionKey(r), req.Message)
	resp := aiResponse{
		Executed:       reply.Executed,
		Message:        reply.Message,
		ProposedAction: string(reply.Proposed),
		PendingAction:  string(reply.Pending),
		Intent:         string(reply.Label),
	}
	if err != nil {
		code := orchestrator.ErrorCode(err)
		if code == "internal" {
			log.Error().Err(err).Func(telemetry.LogTraceFields(r.Context())).Msg("handling message")
			writeError(w, http.StatusInternalServerError, code, "internal error")
			return
		}
		resp.Error = code
		writeJSON(w, http.StatusConflict, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type stateResponse struct {
	Session string                   `json:"session"`
	State   provisioning.ConfigState `json:"state"`
	Pending string                   `json:"pending,omitempty"`
	Allowed []string                 `json:"allowed"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap := s.orc.Snapshot(sessionKey(r))
	writeJSON(w, http.StatusOK, stateResponse{
		Session: snap.Key,
		State:   snap.State,
		Pending: string(snap.Pending),
		Allowed: provisioning.Strings(snap.Legal),
	})
}
