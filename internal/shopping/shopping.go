// Package shopping turns the ingredient lines of every recipe in a user's
// cart into a consolidated shopping list.
package shopping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dukerupert/foodgram/internal/model"
)

// Header is the first line of every rendered shopping list.
const Header = "Shopping list:"

// LineSource lists the cart lines for a user.
type LineSource interface {
	ListLines(userID int64) ([]model.CartLine, error)
}

type Builder struct {
	lines LineSource
}

func NewBuilder(lines LineSource) *Builder {
	return &Builder{lines: lines}
}

// Build aggregates the user's cart. It never writes.
func (b *Builder) Build(userID int64) ([]model.ShoppingItem, error) {
	lines, err := b.lines.ListLines(userID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	return Aggregate(lines), nil
}

type groupKey struct {
	name string
	unit string
}

// Aggregate groups lines by ingredient name and measurement unit, sums the
// amounts, and sorts the result by name then unit.
func Aggregate(lines []model.CartLine) []model.ShoppingItem {
	totals := make(map[groupKey]int)
	for _, l := range lines {
		totals[groupKey{l.Name, l.MeasurementUnit}] += l.Amount
	}

	items := make([]model.ShoppingItem, 0, len(totals))
	for k, total := range totals {
		items = append(items, model.ShoppingItem{Name: k.name, MeasurementUnit: k.unit, Total: total})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
	return items
}

// Render formats items as the downloadable text report.
func Render(items []model.ShoppingItem) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')
	for _, it := range items {
		fmt.Fprintf(&b, "%s - %d %s\n", it.Name, it.Total, it.MeasurementUnit)
	}
	return b.String()
}
