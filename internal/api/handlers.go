package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/repository"
	"github.com/yourusername/sharpline/internal/stream"
)

// Runner is the pipeline surface exposed through the trigger endpoints
type Runner interface {
	RunUpdate(ctx context.Context, runDate time.Time) error
	RunSettlement(ctx context.Context, now time.Time) error
}

// Handlers holds the dependencies for all HTTP handlers
type Handlers struct {
	repos    *repository.Repositories
	runner   Runner
	hub      *stream.Hub
	cfg      *config.Config
	logger   *logrus.Logger
	upgrader websocket.Upgrader
}

// NewHandlers creates the handler set
func NewHandlers(repos *repository.Repositories, runner Runner, hub *stream.Hub, cfg *config.Config, logger *logrus.Logger) *Handlers {
	return &Handlers{
		repos:  repos,
		runner: runner,
		hub:    hub,
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}

// parseDate reads a YYYY-MM-DD query parameter, defaulting to today (UTC)
func parseDate(r *http.Request, param string) (time.Time, error) {
	value := r.URL.Query().Get(param)
	if value == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", value)
}

// ListOpportunities handles GET /api/v1/opportunities
func (h *Handlers) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	runDate, err := parseDate(r, "date")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	minConfidence := 0.0
	if raw := r.URL.Query().Get("min_confidence"); raw != "" {
		minConfidence, err = strconv.ParseFloat(raw, 64)
		if err != nil || minConfidence < 0 || minConfidence > 1 {
			h.writeError(w, http.StatusBadRequest, "min_confidence must be between 0 and 1")
			return
		}
	}

	opportunities, err := h.repos.Opportunity.GetByRunDate(r.Context(), runDate,
		r.URL.Query().Get("sport"), minConfidence)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list opportunities")
		h.writeError(w, http.StatusInternalServerError, "failed to list opportunities")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_date":      runDate.Format("2006-01-02"),
		"count":         len(opportunities),
		"opportunities": opportunities,
	})
}

// ListParlays handles GET /api/v1/parlays
func (h *Handlers) ListParlays(w http.ResponseWriter, r *http.Request) {
	runDate, err := parseDate(r, "date")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	pendingOnly := r.URL.Query().Get("pending") == "true"

	parlays, err := h.repos.Parlay.GetByRunDate(r.Context(), runDate, pendingOnly)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list parlays")
		h.writeError(w, http.StatusInternalServerError, "failed to list parlays")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_date": runDate.Format("2006-01-02"),
		"count":    len(parlays),
		"parlays":  parlays,
	})
}

// GetParlay handles GET /api/v1/parlays/{id}
func (h *Handlers) GetParlay(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid parlay id")
		return
	}

	parlay, err := h.repos.Parlay.GetByID(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "parlay not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get parlay")
		h.writeError(w, http.StatusInternalServerError, "failed to get parlay")
		return
	}

	h.writeJSON(w, http.StatusOK, parlay)
}

// GetPerformance handles GET /api/v1/performance
func (h *Handlers) GetPerformance(w http.ResponseWriter, r *http.Request) {
	limit := 1000
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	settled, err := h.repos.Parlay.GetSettled(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load settled parlays")
		h.writeError(w, http.StatusInternalServerError, "failed to compute performance")
		return
	}

	h.writeJSON(w, http.StatusOK, models.ComputePerformance(settled))
}

// ListSports handles GET /api/v1/sports
func (h *Handlers) ListSports(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"sports": h.cfg.DataSources.Sports,
	})
}

// TriggerUpdate handles POST /api/v1/runs/update. The run executes inline;
// the per-date advisory lock turns a concurrent trigger into a 409.
func (h *Handlers) TriggerUpdate(w http.ResponseWriter, r *http.Request) {
	runDate, err := parseDate(r, "date")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	if err := h.runner.RunUpdate(r.Context(), runDate); err != nil {
		switch {
		case errors.Is(err, models.ErrRunInProgress):
			h.writeError(w, http.StatusConflict, "an update run is already in progress")
		case errors.Is(err, models.ErrDataUnavailable):
			h.writeError(w, http.StatusBadGateway, "data sources unavailable")
		default:
			h.logger.WithError(err).Error("Triggered update run failed")
			h.writeError(w, http.StatusInternalServerError, "update run failed")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":   "completed",
		"run_date": runDate.Format("2006-01-02"),
	})
}

// TriggerSettlement handles POST /api/v1/runs/settlement
func (h *Handlers) TriggerSettlement(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.RunSettlement(r.Context(), time.Now().UTC()); err != nil {
		if errors.Is(err, models.ErrRunInProgress) {
			h.writeError(w, http.StatusConflict, "a settlement pass is already in progress")
			return
		}
		h.logger.WithError(err).Error("Triggered settlement pass failed")
		h.writeError(w, http.StatusInternalServerError, "settlement pass failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// StreamParlays handles GET /ws/parlays, upgrading to a websocket that
// receives each cycle's composed parlays as they commit
func (h *Handlers) StreamParlays(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	sports := r.URL.Query()["sport"]
	client := stream.NewClient(uuid.New().String()[:8], conn, sports, h.hub, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// NotFound handles unmatched routes
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, http.StatusNotFound, "not found")
}
