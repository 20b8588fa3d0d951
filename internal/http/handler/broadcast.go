package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"hackbot/internal/broadcast"
	"hackbot/internal/hackathon"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BroadcastHandler struct {
	Svc *broadcast.Service
	Log *zap.Logger
}

type broadcastReq struct {
	Text string `json:"text"`
}

func (h *BroadcastHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req broadcastReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	res, err := h.Svc.Send(r.Context(), chi.URLParam(r, "code"), req.Text)
	switch {
	case errors.Is(err, broadcast.ErrEmptyText):
		http.Error(w, "text required", http.StatusBadRequest)
		return
	case errors.Is(err, hackathon.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
		return
	case err != nil:
		h.Log.Error("broadcast failed", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
