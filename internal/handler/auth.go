package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/foodgram/internal/apperr"
	"github.com/dukerupert/foodgram/internal/auth"
	"github.com/dukerupert/foodgram/internal/store"
	"github.com/dukerupert/foodgram/internal/validation"
)

type AuthHandler struct {
	userStore  *store.UserStore
	tokenStore *store.TokenStore
	logger     *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ts *store.TokenStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{userStore: us, tokenStore: ts, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

var errBadCredentials = apperr.Invalid("non_field_errors", "Unable to log in with provided credentials.")

// Login exchanges an email and password for the user's API token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if user == nil {
		writeError(w, h.logger, errBadCredentials)
		return
	}

	hash, err := h.userStore.GetPasswordHash(user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	ok, err := auth.CheckPassword(hash, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok {
		writeError(w, h.logger, errBadCredentials)
		return
	}

	tok, err := h.tokenStore.GetOrCreate(user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]string{"auth_token": tok.Key})
}

// Logout revokes the caller's token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.tokenStore.DeleteByUser(auth.UserID(r.Context())); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
