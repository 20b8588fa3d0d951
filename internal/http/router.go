package http

import (
	"net/http"

	"hackbot/internal/auth"
	"hackbot/internal/broadcast"
	"hackbot/internal/config"
	"hackbot/internal/hackathon"
	"hackbot/internal/http/handler"
	mw "hackbot/internal/http/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Deps struct {
	Hackathons *hackathon.Service
	Accounts   *auth.Accounts
	Broadcast  *broadcast.Service
	Reminders  handler.Ticker
	JWT        *auth.JWT
	Log        *zap.Logger
}

func NewRouter(cfg config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.AccessLog(d.Log))
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{Accounts: d.Accounts, JWT: d.JWT, Log: d.Log}
	r.Post("/auth/login", ah.Login)

	hh := &handler.HackathonHandler{Svc: d.Hackathons, Log: d.Log}
	bh := &handler.BroadcastHandler{Svc: d.Broadcast, Log: d.Log}
	rh := &handler.ReminderHandler{Runner: d.Reminders}

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAdmin(d.JWT))

		r.Get("/hackathons", hh.List)
		r.Post("/hackathons", hh.Create)
		r.Post("/hackathons/{id}/finish", hh.Finish)
		r.Post("/hackathons/{code}/broadcast", bh.Send)

		r.Get("/stats", hh.Stats)
		r.Post("/reminders/run", rh.Run)
	})

	return r
}
