// Package seed loads reference tags and ingredients from a JSON file.
package seed

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukerupert/foodgram/internal/model"
	"github.com/dukerupert/foodgram/internal/store"
)

type Data struct {
	Ingredients []model.Ingredient `json:"ingredients"`
	Tags        []model.Tag        `json:"tags"`
}

type Result struct {
	IngredientsCreated int
	TagsCreated        int
	Skipped            int
}

func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &d, nil
}

// Apply inserts every row of d, skipping rows that already exist.
func Apply(d *Data, tags *store.TagStore, ingredients *store.IngredientStore, logger *slog.Logger) (Result, error) {
	var res Result

	for _, t := range d.Tags {
		_, err := tags.Create(t.Name, t.Color, t.Slug)
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("seed tag %q: %w", t.Slug, err)
		default:
			res.TagsCreated++
		}
	}

	for _, i := range d.Ingredients {
		_, err := ingredients.Create(i.Name, i.MeasurementUnit)
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("seed ingredient %q: %w", i.Name, err)
		default:
			res.IngredientsCreated++
		}
	}

	logger.Info("seed applied",
		"tags", res.TagsCreated,
		"ingredients", res.IngredientsCreated,
		"skipped", res.Skipped,
	)
	return res, nil
}
