// Package api is the thin HTTP trigger surface: manual agent triggers,
// schedule CRUD, activity-log queries, and a live log tail. It calls
// into the same Execute boundary every other dispatch path uses.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/zoark/agentd/internal/agent"
	"github.com/zoark/agentd/internal/bus"
	"github.com/zoark/agentd/internal/store"
	"github.com/zoark/agentd/internal/vectorstore"
	"go.uber.org/zap"
)

// Store is the slice of the store the HTTP surface needs.
type Store interface {
	ListLogs(ctx context.Context, limit int, action string) ([]store.LogEntry, error)
	ListSchedules(ctx context.Context) ([]store.Schedule, error)
	CreateSchedule(ctx context.Context, agentType, cronExpression string, isActive bool) (*store.Schedule, error)
	UpdateSchedule(ctx context.Context, id, cronExpression string, isActive bool) (*store.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// LogTail delivers live activity-log payloads; the bus satisfies it.
type LogTail interface {
	Subscribe(ctx context.Context, channel string, fn func(payload string)) error
}

// DocSearch answers free-text queries over the indexed documents.
type DocSearch interface {
	Query(ctx context.Context, text string, topK uint64) ([]vectorstore.SearchHit, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	executor *agent.Executor
	registry map[string]agent.Agent
	store    Store
	tail     LogTail
	search   DocSearch
	logger   *zap.Logger
}

// NewHandler creates a new API handler. tail and search may be nil when
// the bus or vector store is unavailable; the matching endpoints then
// report unavailable.
func NewHandler(executor *agent.Executor, registry map[string]agent.Agent, st Store, tail LogTail, search DocSearch, logger *zap.Logger) *Handler {
	return &Handler{
		executor: executor,
		registry: registry,
		store:    st,
		tail:     tail,
		search:   search,
		logger:   logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)

		r.Post("/agents/{type}/trigger", h.triggerAgent)

		r.Get("/activity", h.listActivity)
		r.Get("/activity/stream", h.streamActivity)

		r.Get("/documents/search", h.searchDocuments)

		r.Get("/schedules", h.listSchedules)
		r.Post("/schedules", h.createSchedule)
		r.Patch("/schedules/{id}", h.updateSchedule)
		r.Delete("/schedules/{id}", h.deleteSchedule)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// triggerAgent runs a registered agent type on demand and returns its
// outcome. Agent failures come back as 502 with the audit-logged error.
func (h *Handler) triggerAgent(w http.ResponseWriter, r *http.Request) {
	agentType := chi.URLParam(r, "type")
	a, ok := h.registry[agentType]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("agent %s not registered", agentType),
		})
		return
	}

	outcome, err := h.executor.Execute(r.Context(), a)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agent":   agentType,
		"outcome": outcome,
	})
}

func (h *Handler) listActivity(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	entries, err := h.store.ListLogs(r.Context(), limit, r.URL.Query().Get("action"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// streamActivity tails the agent_logs broadcast channel as server-sent
// events until the client disconnects.
func (h *Handler) streamActivity(w http.ResponseWriter, r *http.Request) {
	if h.tail == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "log stream unavailable"})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	err := h.tail.Subscribe(r.Context(), bus.LogChannel, func(payload string) {
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	})
	if err != nil && r.Context().Err() == nil {
		h.logger.Error("activity stream ended", zap.Error(err))
	}
}

// searchDocuments answers a free-text query against the indexed
// document vectors.
func (h *Handler) searchDocuments(w http.ResponseWriter, r *http.Request) {
	if h.search == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "document search unavailable"})
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q is required"})
		return
	}

	topK := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 50 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		topK = n
	}

	hits, err := h.search.Query(r.Context(), query, uint64(topK))
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

func (h *Handler) listSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.store.ListSchedules(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, schedules)
}

type scheduleRequest struct {
	AgentType      string `json:"agent_type"`
	CronExpression string `json:"cron_expression"`
	IsActive       bool   `json:"is_active"`
}

func (h *Handler) createSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.AgentType == "" || req.CronExpression == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "agent_type and cron_expression are required"})
		return
	}

	sc, err := h.store.CreateSchedule(r.Context(), req.AgentType, req.CronExpression, req.IsActive)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (h *Handler) updateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sc, err := h.store.UpdateSchedule(r.Context(), chi.URLParam(r, "id"), req.CronExpression, req.IsActive)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (h *Handler) deleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteSchedule(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
