package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/alokm/hr-assistant/internal/auth"
	"github.com/alokm/hr-assistant/internal/core"
	"github.com/alokm/hr-assistant/internal/history"
	"github.com/alokm/hr-assistant/internal/logging"
)

// ChatAgent is the orchestration entry point the HTTP layer calls.
type ChatAgent interface {
	Invoke(ctx context.Context, query, sessionID string) (string, error)
}

// VectorIndex reports the state of the policy index for health checks.
type VectorIndex interface {
	Count() int
}

// APIHandler holds the handler dependencies. agent and vectors are nil when
// the LLM is not configured; the affected endpoints answer 503.
type APIHandler struct {
	agent     ChatAgent
	histories *history.Store
	vectors   VectorIndex
	jwtSecret string
	log       *logging.Logger
}

func NewAPIHandler(agent ChatAgent, histories *history.Store, vectors VectorIndex, jwtSecret string, log *logging.Logger) *APIHandler {
	return &APIHandler{
		agent:     agent,
		histories: histories,
		vectors:   vectors,
		jwtSecret: jwtSecret,
		log:       log.Sub("api"),
	}
}

// BearerAuthMiddleware validates the Authorization header against the
// configured JWT secret. Installed only when a secret is configured.
func (h *APIHandler) BearerAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		subject, err := auth.ValidateToken(h.jwtSecret, tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey{}, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type subjectKey struct{}

type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if h.agent == nil {
		http.Error(w, "LLM service is unavailable.", http.StatusServiceUnavailable)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "Query cannot be empty", http.StatusBadRequest)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	answer, err := h.agent.Invoke(r.Context(), req.Query, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrHistoryUnavailable):
			h.log.Error().Err(err).Str("session", sessionID).Msg("history store failure")
			http.Error(w, "Chat history service error", http.StatusServiceUnavailable)
		default:
			h.log.Error().Err(err).Str("session", sessionID).Msg("error during conversation")
			http.Error(w, "Error during conversation", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Response: answer, SessionID: sessionID})
}

type componentHealth struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type healthResponse struct {
	Status  string                     `json:"status"`
	Details map[string]componentHealth `json:"details"`
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Details: make(map[string]componentHealth)}
	healthy := true

	if h.agent != nil {
		resp.Details["llm_service"] = componentHealth{Status: "healthy", Reason: "LLM initialized"}
	} else {
		healthy = false
		resp.Details["llm_service"] = componentHealth{Status: "unhealthy", Reason: "LLM not initialized"}
	}

	if err := h.histories.Ping(); err != nil {
		healthy = false
		resp.Details["history_service"] = componentHealth{Status: "unhealthy", Reason: err.Error()}
	} else {
		resp.Details["history_service"] = componentHealth{Status: "healthy", Reason: "Connected successfully."}
	}

	if h.vectors != nil {
		resp.Details["vector_service"] = componentHealth{
			Status: "healthy",
			Reason: "Index loaded.",
		}
	} else {
		healthy = false
		resp.Details["vector_service"] = componentHealth{Status: "unhealthy", Reason: "Vector index not initialized"}
	}

	resp.Status = "healthy"
	status := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (h *APIHandler) ClearHistoryHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	err := h.histories.Clear(sessionID)
	switch {
	case errors.Is(err, history.ErrSessionNotFound):
		http.Error(w, "Session ID not found in chat history.", http.StatusNotFound)
	case err != nil:
		h.log.Error().Err(err).Str("session", sessionID).Msg("failed to clear history")
		http.Error(w, "Chat history service error", http.StatusServiceUnavailable)
	default:
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Chat history for session " + sessionID + " cleared.",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
