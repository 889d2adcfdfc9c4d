package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/foodgram/internal/apperr"
	"github.com/dukerupert/foodgram/internal/model"
	"github.com/dukerupert/foodgram/internal/store"
)

// CatalogueHandler serves the read-only tag and ingredient lists.
type CatalogueHandler struct {
	tagStore        *store.TagStore
	ingredientStore *store.IngredientStore
	logger          *slog.Logger
}

func NewCatalogueHandler(ts *store.TagStore, is *store.IngredientStore, logger *slog.Logger) *CatalogueHandler {
	return &CatalogueHandler{tagStore: ts, ingredientStore: is, logger: logger}
}

func (h *CatalogueHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tagStore.List()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *CatalogueHandler) GetTag(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.ErrNotFound)
		return
	}
	tag, err := h.tagStore.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if tag == nil {
		writeError(w, h.logger, apperr.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// ListIngredients filters by ?name= prefix, ignoring case.
func (h *CatalogueHandler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	items, err := h.ingredientStore.Search(r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if items == nil {
		items = []model.Ingredient{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CatalogueHandler) GetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, apperr.ErrNotFound)
		return
	}
	item, err := h.ingredientStore.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if item == nil {
		writeError(w, h.logger, apperr.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
