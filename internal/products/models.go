package products

import (
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-shop-services/internal/apperr"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = fmt.Errorf("product %w", apperr.ErrNotFound)
	ErrInvalidInput = fmt.Errorf("product: invalid input: %w", apperr.ErrBusinessRule)
)

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand"`
	StockQuantity int             `json:"stockQuantity"`
	ImageURL      string          `json:"imageUrl"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (p Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	case p.StockQuantity < 0:
		return fmt.Errorf("%w: stock quantity must not be negative", ErrInvalidInput)
	}
	return nil
}

// Filter is a conjunction of optional predicates; zero values match everything.
type Filter struct {
	Category     string
	Brand        string
	NameContains string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	ActiveOnly   bool
	InStockOnly  bool
}

func (f Filter) Match(p Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Brand != "" && p.Brand != f.Brand {
		return false
	}
	if f.NameContains != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.ActiveOnly && !p.Active {
		return false
	}
	if f.InStockOnly && p.StockQuantity <= 0 {
		return false
	}
	return true
}
