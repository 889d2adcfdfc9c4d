// Package recipe creates, updates and deletes recipes together with their
// tag set and ingredient lines.
package recipe

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/foodgram/internal/apperr"
	"github.com/dukerupert/foodgram/internal/media"
	"github.com/dukerupert/foodgram/internal/model"
	"github.com/dukerupert/foodgram/internal/store"
	"github.com/dukerupert/foodgram/internal/validation"
	ws "github.com/dukerupert/foodgram/internal/websocket"
)

const (
	MinAmount = 1
	MaxAmount = 32000

	imageKind = "recipes"
)

type Repository interface {
	Create(authorID int64, f model.RecipeFields) (*model.Recipe, error)
	Update(id int64, p model.RecipePatch) (*model.Recipe, error)
	GetByID(id int64) (*model.Recipe, error)
	Delete(id int64) error
}

// Catalogue reports which referenced ids do not exist.
type Catalogue interface {
	MissingIDs(ids []int64) ([]int64, error)
}

type Images interface {
	SaveDataURL(kind, dataURL string) (string, error)
	Remove(rel string) error
}

type Publisher interface {
	Broadcast(msg ws.Message)
}

// Input is the payload for creating a recipe. Image is a base64 data URL.
type Input struct {
	Name        string                   `json:"name" validate:"required,max=200"`
	Text        string                   `json:"text" validate:"required"`
	CookingTime int                      `json:"cooking_time" validate:"gte=1"`
	Image       string                   `json:"image" validate:"required"`
	Tags        []int64                  `json:"tags"`
	Ingredients []model.IngredientAmount `json:"ingredients"`
}

// Patch is the payload for a partial update. Absent fields are nil and keep
// their stored value; a present Tags or Ingredients replaces the whole set.
type Patch struct {
	Name        *string                  `json:"name" validate:"omitnil,min=1,max=200"`
	Text        *string                  `json:"text" validate:"omitnil,min=1"`
	CookingTime *int                     `json:"cooking_time" validate:"omitnil,gte=1"`
	Image       *string                  `json:"image" validate:"omitnil,min=1"`
	Tags        []int64                  `json:"tags"`
	Ingredients []model.IngredientAmount `json:"ingredients"`
}

type Manager struct {
	recipes     Repository
	tags        Catalogue
	ingredients Catalogue
	images      Images
	feed        Publisher
	logger      *slog.Logger
}

func NewManager(recipes Repository, tags, ingredients Catalogue, images Images, feed Publisher, logger *slog.Logger) *Manager {
	return &Manager{
		recipes:     recipes,
		tags:        tags,
		ingredients: ingredients,
		images:      images,
		feed:        feed,
		logger:      logger,
	}
}

// Create validates in and stores the recipe with its tags and ingredient
// lines as one unit. Nothing is written when validation fails.
func (m *Manager) Create(authorID int64, in Input) (*model.Recipe, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	tagIDs, err := m.checkTags(in.Tags)
	if err != nil {
		return nil, err
	}
	if err := m.checkIngredients(in.Ingredients); err != nil {
		return nil, err
	}

	image, err := m.saveImage(in.Image)
	if err != nil {
		return nil, err
	}

	r, err := m.recipes.Create(authorID, model.RecipeFields{
		Name:        in.Name,
		Image:       image,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		TagIDs:      tagIDs,
		Ingredients: in.Ingredients,
	})
	if err != nil {
		m.discardImage(image)
		return nil, translateStoreErr(err)
	}

	m.logger.Info("recipe created", "recipe_id", r.ID, "author_id", authorID)
	m.feed.Broadcast(ws.RecipeEvent("created", r.ID, authorID))
	return r, nil
}

// Update applies p to recipe id on behalf of actorID, who must be its author.
func (m *Manager) Update(actorID, id int64, p Patch) (*model.Recipe, error) {
	existing, err := m.authorized(actorID, id)
	if err != nil {
		return nil, err
	}

	if err := validation.Struct(p); err != nil {
		return nil, err
	}

	patch := model.RecipePatch{
		Name:        p.Name,
		Text:        p.Text,
		CookingTime: p.CookingTime,
	}
	if p.Tags != nil {
		if patch.TagIDs, err = m.checkTags(p.Tags); err != nil {
			return nil, err
		}
	}
	if p.Ingredients != nil {
		if err := m.checkIngredients(p.Ingredients); err != nil {
			return nil, err
		}
		patch.Ingredients = p.Ingredients
	}

	var newImage string
	if p.Image != nil {
		if newImage, err = m.saveImage(*p.Image); err != nil {
			return nil, err
		}
		patch.Image = &newImage
	}

	r, err := m.recipes.Update(id, patch)
	if err != nil {
		m.discardImage(newImage)
		return nil, translateStoreErr(err)
	}
	if newImage != "" {
		m.discardImage(existing.Image)
	}

	m.logger.Info("recipe updated", "recipe_id", id, "author_id", actorID)
	m.feed.Broadcast(ws.RecipeEvent("updated", id, actorID))
	return r, nil
}

// Delete removes recipe id on behalf of actorID, who must be its author.
func (m *Manager) Delete(actorID, id int64) error {
	existing, err := m.authorized(actorID, id)
	if err != nil {
		return err
	}
	if err := m.recipes.Delete(id); err != nil {
		return err
	}
	m.discardImage(existing.Image)

	m.logger.Info("recipe deleted", "recipe_id", id, "author_id", actorID)
	m.feed.Broadcast(ws.RecipeEvent("deleted", id, actorID))
	return nil
}

func (m *Manager) authorized(actorID, id int64) (*model.Recipe, error) {
	r, err := m.recipes.GetByID(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.ErrNotFound
	}
	if r.AuthorID != actorID {
		return nil, apperr.ErrForbidden
	}
	return r, nil
}

// checkTags requires at least one existing tag and returns the ids with
// duplicates removed, in first-seen order.
func (m *Manager) checkTags(ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, apperr.Invalid("tags", "At least one tag is required.")
	}
	seen := make(map[int64]bool, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	missing, err := m.tags.MissingIDs(unique)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, apperr.Invalid("tags", "Tag %d does not exist.", missing[0])
	}
	return unique, nil
}

func (m *Manager) checkIngredients(lines []model.IngredientAmount) error {
	if len(lines) == 0 {
		return apperr.Invalid("ingredients", "At least one ingredient is required.")
	}

	seen := make(map[int64]bool, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if l.Amount < MinAmount || l.Amount > MaxAmount {
			return apperr.Invalid("ingredients", "Amount must be between %d and %d.", MinAmount, MaxAmount)
		}
		if seen[l.IngredientID] {
			return apperr.Invalid("ingredients", "Ingredient %d is listed more than once.", l.IngredientID)
		}
		seen[l.IngredientID] = true
		ids = append(ids, l.IngredientID)
	}

	missing, err := m.ingredients.MissingIDs(ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return apperr.Invalid("ingredients", "Ingredient %d does not exist.", missing[0])
	}
	return nil
}

func (m *Manager) saveImage(dataURL string) (string, error) {
	rel, err := m.images.SaveDataURL(imageKind, dataURL)
	if errors.Is(err, media.ErrInvalidImage) {
		return "", apperr.Invalid("image", "Upload a valid image.")
	}
	if err != nil {
		return "", err
	}
	return rel, nil
}

func (m *Manager) discardImage(rel string) {
	if err := m.images.Remove(rel); err != nil {
		m.logger.Warn("remove recipe image", "image", rel, "error", err)
	}
}

// translateStoreErr maps a constraint failure that slipped past validation,
// such as a concurrent duplicate line, to a validation error.
func translateStoreErr(err error) error {
	if errors.Is(err, store.ErrAlreadyExists) {
		return apperr.Invalid("ingredients", "Ingredients must be unique.")
	}
	return fmt.Errorf("save recipe: %w", err)
}
