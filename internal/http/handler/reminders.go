package handler

import (
	"context"
	"net/http"

	"hackbot/internal/reminder"
)

// Ticker runs one reminder cycle synchronously.
type Ticker interface {
	Tick(ctx context.Context) reminder.Stats
}

type ReminderHandler struct {
	Runner Ticker
}

func (h *ReminderHandler) Run(w http.ResponseWriter, r *http.Request) {
	st := h.Runner.Tick(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"sent":   st.Sent,
		"failed": st.Failed,
	})
}
