// Package httpapi exposes the stored departed loads read-only over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"skybox-manifest/internal/domain/entity"
	"skybox-manifest/internal/domain/repository"
	"skybox-manifest/pkg/logger"
)

// LoadReader is the read side of the load store
type LoadReader interface {
	ListDates(ctx context.Context) ([]string, error)
	ListByDate(ctx context.Context, date string) ([]*entity.Load, error)
	GetByID(ctx context.Context, id uint) (*entity.Load, error)
}

// Handler serves the read API
type Handler struct {
	loads  LoadReader
	logger logger.Logger
}

// NewHandler creates a new read API handler
func NewHandler(loads LoadReader, logger logger.Logger) *Handler {
	return &Handler{loads: loads, logger: logger}
}

// Register mounts the API routes on mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/dates", h.listDates)
	mux.HandleFunc("GET /api/loads", h.listLoads)
	mux.HandleFunc("GET /api/loads/{id}", h.getLoad)
}

func (h *Handler) listDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.loads.ListDates(r.Context())
	if err != nil {
		h.internalError(w, "Failed to list dates", err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	h.writeJSON(w, http.StatusOK, dates)
}

func (h *Handler) listLoads(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if _, err := time.Parse(entity.DateLayout, date); err != nil {
		h.writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	loads, err := h.loads.ListByDate(r.Context(), date)
	if err != nil {
		h.internalError(w, "Failed to list loads", err)
		return
	}
	if loads == nil {
		loads = []*entity.Load{}
	}
	h.writeJSON(w, http.StatusOK, loads)
}

func (h *Handler) getLoad(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		h.writeError(w, http.StatusBadRequest, "invalid load id")
		return
	}

	load, err := h.loads.GetByID(r.Context(), uint(id))
	if errors.Is(err, repository.ErrLoadNotFound) {
		h.writeError(w, http.StatusNotFound, "load not found")
		return
	}
	if err != nil {
		h.internalError(w, "Failed to get load", err)
		return
	}
	h.writeJSON(w, http.StatusOK, load)
}

func (h *Handler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "error", err)
	h.writeError(w, http.StatusInternalServerError, "internal error")
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("Failed to write response", "error", err)
	}
}
