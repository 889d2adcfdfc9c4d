package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/foodgram/internal/apperr"
	"github.com/dukerupert/foodgram/internal/auth"
	"github.com/dukerupert/foodgram/internal/model"
	"github.com/dukerupert/foodgram/internal/recipe"
	"github.com/dukerupert/foodgram/internal/shopping"
	"github.com/dukerupert/foodgram/internal/store"
)

type RecipeHandler struct {
	manager       *recipe.Manager
	recipeStore   *store.RecipeStore
	favoriteStore *store.FavoriteStore
	cartStore     *store.CartStore
	shopping      *shopping.Builder
	pres          *Presenter
	pageSize      int
	domain        string
	logger        *slog.Logger
}

func NewRecipeHandler(
	manager *recipe.Manager,
	rs *store.RecipeStore,
	fs *store.FavoriteStore,
	cs *store.CartStore,
	sb *shopping.Builder,
	pres *Presenter,
	pageSize int,
	domain string,
	logger *slog.Logger,
) *RecipeHandler {
	return &RecipeHandler{
		manager:       manager,
		recipeStore:   rs,
		favoriteStore: fs,
		cartStore:     cs,
		shopping:      sb,
		pres:          pres,
		pageSize:      pageSize,
		domain:        domain,
		logger:        logger,
	}
}

func isTruthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

// List supports ?author=, repeated ?tags=<slug>, and, for signed-in users,
// ?is_favorited=1 and ?is_in_shopping_cart=1.
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer := auth.UserID(r.Context())
	p, err := parsePage(r, h.pageSize)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	q := r.URL.Query()
	f := model.RecipeFilter{
		AuthorID: int64(queryInt(r, "author")),
		TagSlugs: q["tags"],
	}
	if viewer != 0 && isTruthy(q.Get("is_favorited")) {
		f.FavoritedBy = viewer
	}
	if viewer != 0 && isTruthy(q.Get("is_in_shopping_cart")) {
		f.InCartOf = viewer
	}

	count, err := h.recipeStore.Count(f)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	f.Limit, f.Offset = p.limit, p.offset()
	recipes, err := h.recipeStore.List(f)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	views, err := h.pres.recipeList(viewer, "list", recipes)
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

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.lookup(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.present(w, r, http.StatusOK, "retrieve", rec)
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in recipe.Input
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	rec, err := h.manager.Create(auth.UserID(r.Context()), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.present(w, r, http.StatusCreated, "create", rec)
}

func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.ErrNotFound)
		return
	}
	var p recipe.Patch
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, h.logger, err)
		return
	}
	rec, err := h.manager.Update(auth.UserID(r.Context()), id, p)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.present(w, r, http.StatusOK, "update", rec)
}

func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.ErrNotFound)
		return
	}
	if err := h.manager.Delete(auth.UserID(r.Context()), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// relation is a presence-only user/recipe table such as favorites or the
// shopping cart.
type relation interface {
	Add(userID, recipeID int64) error
	Remove(userID, recipeID int64) (bool, error)
}

func (h *RecipeHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.add(w, r, h.favoriteStore, "favorite", "Recipe is already in favorites.")
}

func (h *RecipeHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.favoriteStore)
}

func (h *RecipeHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	h.add(w, r, h.cartStore, "shopping_cart", "Recipe is already in the shopping cart.")
}

func (h *RecipeHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.cartStore)
}

func (h *RecipeHandler) add(w http.ResponseWriter, r *http.Request, rel relation, op, duplicateMsg string) {
	rec, err := h.lookup(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	err = rel.Add(auth.UserID(r.Context()), rec.ID)
	if errors.Is(err, store.ErrAlreadyExists) {
		writeError(w, h.logger, apperr.Conflict(duplicateMsg))
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.present(w, r, http.StatusCreated, op, rec)
}

func (h *RecipeHandler) remove(w http.ResponseWriter, r *http.Request, rel relation) {
	rec, err := h.lookup(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	removed, err := rel.Remove(auth.UserID(r.Context()), rec.ID)
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

// DownloadShoppingCart sends the caller's aggregated shopping list as a
// text attachment.
func (h *RecipeHandler) DownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.shopping.Build(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="shopping-list.txt"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(shopping.Render(items)))
}

func (h *RecipeHandler) GetLink(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.ErrNotFound)
		return
	}
	authorID, err := h.recipeStore.AuthorID(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if authorID == 0 {
		writeError(w, h.logger, apperr.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"short-link": fmt.Sprintf("https://%s/recipes/%d/", h.domain, id),
	})
}

func (h *RecipeHandler) lookup(r *http.Request) (*model.Recipe, error) {
	id, err := parseIDParam(r)
	if err != nil {
		return nil, apperr.ErrNotFound
	}
	rec, err := h.recipeStore.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.ErrNotFound
	}
	return rec, nil
}

func (h *RecipeHandler) present(w http.ResponseWriter, r *http.Request, status int, op string, rec *model.Recipe) {
	v, err := h.pres.recipe(auth.UserID(r.Context()), op, rec)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, status, v)
}
