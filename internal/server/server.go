// Package server exposes the companion over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/easeaico/mindmate/internal/agent"
	"github.com/easeaico/mindmate/internal/types"
)

const maxAudioBytes = 25 << 20

// Agents resolves the live companion for a user.
type Agents interface {
	Get(ctx context.Context, userID string) (*agent.Companion, error)
}

// ProviderLister reports provider availability.
type ProviderLister interface {
	Status() []types.ProviderStatus
}

// Transcriber converts uploaded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Server holds the HTTP handlers.
type Server struct {
	agents    Agents
	providers ProviderLister
	// voice may be nil, which disables transcription.
	voice Transcriber
}

// New builds the router.
func New(agents Agents, providers ProviderLister, voice Transcriber) http.Handler {
	s := &Server{agents: agents, providers: providers, voice: voice}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/providers", s.handleProviders).Methods(http.MethodGet)

	users := r.PathPrefix("/v1/users/{userID}").Subrouter()
	users.HandleFunc("/messages", s.handleMessage).Methods(http.MethodPost)
	users.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	users.HandleFunc("/insights", s.handleInsights).Methods(http.MethodPost)
	users.HandleFunc("/activities", s.handleActivities).Methods(http.MethodGet)
	users.HandleFunc("/permissions", s.handlePermissions).Methods(http.MethodPatch)
	users.HandleFunc("/transcriptions", s.handleTranscription).Methods(http.MethodPost)

	return r
}

type sendMessageRequest struct {
	Text          string `json:"text"`
	SessionID     string `json:"session_id,omitempty"`
	Type          string `json:"type,omitempty"`
	GenerateVoice bool   `json:"generate_voice,omitempty"`
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.providers.Status())
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	c, ok := s.companion(w, r)
	if !ok {
		return
	}

	res, err := c.HandleMessage(r.Context(), req.Text, req.SessionID, req.Type, agent.HandleOptions{GenerateVoice: req.GenerateVoice})
	if err != nil {
		agentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := s.companion(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.Status())
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	c, ok := s.companion(w, r)
	if !ok {
		return
	}
	res, err := c.GenerateInsights(r.Context())
	if err != nil {
		agentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	mood, err := strconv.Atoi(r.URL.Query().Get("mood"))
	if err != nil {
		badRequest(w, "mood must be an integer between 1 and 10")
		return
	}

	c, ok := s.companion(w, r)
	if !ok {
		return
	}
	suggestions, err := c.SuggestActivities(mood, r.URL.Query().Get("time"))
	if err != nil {
		agentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (s *Server) handlePermissions(w http.ResponseWriter, r *http.Request) {
	var update types.PermissionUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	c, ok := s.companion(w, r)
	if !ok {
		return
	}
	if !c.UpdatePermissions(r.Context(), update) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to update permissions"})
		return
	}
	writeJSON(w, http.StatusOK, c.Status())
}

func (s *Server) handleTranscription(w http.ResponseWriter, r *http.Request) {
	if s.voice == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "voice is not configured"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		badRequest(w, "audio file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		badRequest(w, "failed to read audio file")
		return
	}

	text, err := s.voice.Transcribe(r.Context(), audio, header.Filename)
	if err != nil {
		slog.Error("transcription failed", "user_id", mux.Vars(r)["userID"], "error", err.Error())
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "transcription failed"})
		return
	}
	writeJSON(w, http.StatusOK, transcriptionResponse{Text: text})
}

func (s *Server) companion(w http.ResponseWriter, r *http.Request) (*agent.Companion, bool) {
	userID := mux.Vars(r)["userID"]
	c, err := s.agents.Get(r.Context(), userID)
	if err != nil {
		slog.Error("failed to get agent", "user_id", userID, "error", err.Error())
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "companion is unavailable"})
		return nil, false
	}
	return c, true
}

func agentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, agent.ErrEmptyMessage),
		errors.Is(err, agent.ErrInvalidMood),
		errors.Is(err, agent.ErrInvalidTimeOfDay):
		badRequest(w, err.Error())
	case errors.Is(err, agent.ErrDisposed), errors.Is(err, agent.ErrNotInitialized):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		slog.Error("agent request failed", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err.Error())
	}
}
