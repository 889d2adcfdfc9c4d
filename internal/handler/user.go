package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/foodgram/internal/apperr"
	"github.com/dukerupert/foodgram/internal/auth"
	"github.com/dukerupert/foodgram/internal/media"
	"github.com/dukerupert/foodgram/internal/model"
	"github.com/dukerupert/foodgram/internal/store"
	"github.com/dukerupert/foodgram/internal/validation"
)

const avatarKind = "avatars"

type UserHandler struct {
	userStore *store.UserStore
	subStore  *store.SubscriptionStore
	images    *media.Store
	pres      *Presenter
	pageSize  int
	logger    *slog.Logger
}

func NewUserHandler(us *store.UserStore, ss *store.SubscriptionStore, images *media.Store, pres *Presenter, pageSize int, logger *slog.Logger) *UserHandler {
	return &UserHandler{userStore: us, subStore: ss, images: images, pres: pres, pageSize: pageSize, logger: logger}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

type registeredUser struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	emailTaken, usernameTaken, err := h.userStore.ExistsByEmailOrUsername(req.Email, req.Username)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if emailTaken {
		writeError(w, h.logger, apperr.Invalid("email", "A user with that email already exists."))
		return
	}
	if usernameTaken {
		writeError(w, h.logger, apperr.Invalid("username", "A user with that username already exists."))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	u, err := h.userStore.Create(req.Email, req.Username, req.FirstName, req.LastName, hash)
	if errors.Is(err, store.ErrAlreadyExists) {
		writeError(w, h.logger, apperr.Invalid("email", "A user with that email or username already exists."))
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("user registered", "user_id", u.ID)
	writeJSON(w, http.StatusCreated, registeredUser{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r, h.pageSize)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	count, err := h.userStore.Count()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	users, err := h.userStore.List(p.limit, p.offset())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	views, err := h.pres.userList(auth.UserID(r.Context()), users)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	body, err := paginate(r, p, count, views)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.ErrNotFound)
		return
	}
	h.writeUser(w, r, id)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	h.writeUser(w, r, auth.UserID(r.Context()))
}

func (h *UserHandler) writeUser(w http.ResponseWriter, r *http.Request, id int64) {
	u, err := h.userStore.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if u == nil {
		writeError(w, h.logger, apperr.ErrNotFound)
		return
	}
	v, err := h.pres.user(auth.UserID(r.Context()), u)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type setPasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

func (h *UserHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	userID := auth.UserID(r.Context())
	hash, err := h.userStore.GetPasswordHash(userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	ok, err := auth.CheckPassword(hash, req.CurrentPassword)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok {
		writeError(w, h.logger, apperr.Invalid("current_password", "Invalid password."))
		return
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.userStore.SetPasswordHash(userID, newHash); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type avatarRequest struct {
	Avatar string `json:"avatar" validate:"required"`
}

func (h *UserHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	var req avatarRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	rel, err := h.images.SaveDataURL(avatarKind, req.Avatar)
	if errors.Is(err, media.ErrInvalidImage) {
		writeError(w, h.logger, apperr.Invalid("avatar", "Upload a valid image."))
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	old, err := h.replaceAvatar(auth.UserID(r.Context()), rel)
	if err != nil {
		h.images.Remove(rel)
		writeError(w, h.logger, err)
		return
	}
	h.removeImage(old)
	writeJSON(w, http.StatusOK, map[string]string{"avatar": media.URL(rel)})
}

func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	old, err := h.replaceAvatar(auth.UserID(r.Context()), "")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.removeImage(old)
	w.WriteHeader(http.StatusNoContent)
}

// replaceAvatar stores rel as the user's avatar and returns the previous one.
func (h *UserHandler) replaceAvatar(userID int64, rel string) (string, error) {
	u, err := h.userStore.GetByID(userID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", apperr.ErrNotFound
	}
	if _, err := h.userStore.SetAvatar(userID, rel); err != nil {
		return "", err
	}
	return u.Avatar, nil
}

func (h *UserHandler) removeImage(rel string) {
	if err := h.images.Remove(rel); err != nil {
		h.logger.Warn("remove avatar", "avatar", rel, "error", err)
	}
}

func (h *UserHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	author, err := h.lookupAuthor(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if author.ID == userID {
		writeError(w, h.logger, apperr.Conflict("You cannot subscribe to yourself."))
		return
	}

	err = h.subStore.Add(userID, author.ID)
	if errors.Is(err, store.ErrAlreadyExists) {
		writeError(w, h.logger, apperr.Conflict("You are already subscribed to this user."))
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	v, err := h.pres.subscription(userID, author, queryInt(r, "recipes_limit"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *UserHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	author, err := h.lookupAuthor(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	removed, err := h.subStore.Remove(auth.UserID(r.Context()), author.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !removed {
		writeError(w, h.logger, apperr.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) lookupAuthor(r *http.Request) (*model.User, error) {
	id, err := parseIDParam(r)
	if err != nil {
		return nil, apperr.ErrNotFound
	}
	u, err := h.userStore.GetByID(id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.ErrNotFound
	}
	return u, nil
}

// Subscriptions lists the authors the caller follows.
func (h *UserHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	p, err := parsePage(r, h.pageSize)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	count, err := h.subStore.CountAuthors(userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	authors, err := h.subStore.ListAuthors(userID, p.limit, p.offset())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	recipesLimit := queryInt(r, "recipes_limit")
	views := make([]subscriptionView, 0, len(authors))
	for i := range authors {
		v, err := h.pres.subscription(userID, &authors[i], recipesLimit)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		views = append(views, v)
	}

	body, err := paginate(r, p, count, views)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}
