package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"hackbot/internal/hackathon"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type HackathonHandler struct {
	Svc *hackathon.Service
	Log *zap.Logger
}

type hackathonDTO struct {
	ID           uint64    `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
	IsActive     bool      `json:"is_active"`
	OrganizerIDs []int64   `json:"organizer_ids"`
}

func toHackathonDTO(h hackathon.Hackathon) hackathonDTO {
	ids := []int64(h.OrganizerIDs)
	if ids == nil {
		ids = []int64{}
	}
	return hackathonDTO{
		ID:           h.ID,
		Code:         h.Code,
		Name:         h.Name,
		Description:  h.Description,
		Location:     h.Location,
		StartAt:      h.StartAt.UTC(),
		EndAt:        h.EndAt.UTC(),
		IsActive:     h.IsActive,
		OrganizerIDs: ids,
	}
}

// List returns active hackathons; ?all=true includes finished ones.
func (h *HackathonHandler) List(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	rows, err := h.Svc.ListHackathons(r.Context(), !all)
	if err != nil {
		h.Log.Error("list hackathons failed", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]hackathonDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toHackathonDTO(row))
	}
	writeJSON(w, http.StatusOK, out)
}

// Create accepts the same JSON config as the CLI loader.
func (h *HackathonHandler) Create(w http.ResponseWriter, r *http.Request) {
	cfg, err := hackathon.DecodeConfig(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.Svc.CreateFromConfig(r.Context(), cfg)
	switch {
	case errors.Is(err, hackathon.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, hackathon.ErrAlreadyExists):
		http.Error(w, "hackathon code already exists", http.StatusConflict)
		return
	case err != nil:
		h.Log.Error("create hackathon failed", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toHackathonDTO(*created))
}

func (h *HackathonHandler) Finish(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.Svc.Finish(r.Context(), id); err != nil {
		if errors.Is(err, hackathon.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		h.Log.Error("finish hackathon failed", zap.Error(err), zap.Uint64("hackathon_id", id))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "is_active": false})
}

func (h *HackathonHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Svc.Stats(r.Context())
	if err != nil {
		h.Log.Error("stats failed", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
