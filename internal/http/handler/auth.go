package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"hackbot/internal/auth"

	"go.uber.org/zap"
)

type AuthHandler struct {
	Accounts *auth.Accounts
	JWT      *auth.JWT
	Log      *zap.Logger
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	adm, err := h.Accounts.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.Log.Error("authenticate failed", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	token, err := h.JWT.Sign(adm.ID)
	if err != nil {
		h.Log.Error("sign token failed", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"token": token})
}
