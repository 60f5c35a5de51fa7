package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-shop-services/internal/logging"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) All(ctx context.Context) ([]Product, error) {
	return s.store.List(ctx, Filter{ActiveOnly: true})
}

// Get hides inactive products.
func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) ByCategory(ctx context.Context, category string) ([]Product, error) {
	return s.store.List(ctx, Filter{Category: category, ActiveOnly: true})
}

func (s *Service) ByBrand(ctx context.Context, brand string) ([]Product, error) {
	return s.store.List(ctx, Filter{Brand: brand, ActiveOnly: true})
}

func (s *Service) Search(ctx context.Context, name string) ([]Product, error) {
	return s.store.List(ctx, Filter{NameContains: name, ActiveOnly: true})
}

func (s *Service) PriceRange(ctx context.Context, lo, hi decimal.Decimal) ([]Product, error) {
	if lo.GreaterThan(hi) {
		return nil, fmt.Errorf("%w: minPrice %s exceeds maxPrice %s", ErrInvalidInput, lo, hi)
	}
	return s.store.List(ctx, Filter{MinPrice: &lo, MaxPrice: &hi, ActiveOnly: true})
}

func (s *Service) Available(ctx context.Context) ([]Product, error) {
	return s.store.List(ctx, Filter{ActiveOnly: true, InStockOnly: true})
}

func (s *Service) UpToPrice(ctx context.Context, limit decimal.Decimal) ([]Product, error) {
	return s.store.List(ctx, Filter{MaxPrice: &limit, ActiveOnly: true})
}

func (s *Service) Create(ctx context.Context, p Product) (*Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ID = 0
	if err := s.store.Create(ctx, &p); err != nil {
		return nil, fmt.Errorf("products: create: %w", err)
	}
	logging.FromContext(ctx).Info("product_created", zap.Int64("product_id", p.ID))
	return &p, nil
}

// Update overwrites every mutable field, including inactive products.
func (s *Service) Update(ctx context.Context, id int64, p Product) (*Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ID = id
	if err := s.store.Update(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete is a soft delete; unknown ids are ignored.
func (s *Service) Delete(ctx context.Context, id int64) error {
	p, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	p.Active = false
	if err := s.store.Update(ctx, p); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("products: soft delete %d: %w", id, err)
	}
	logging.FromContext(ctx).Info("product_deactivated", zap.Int64("product_id", id))
	return nil
}

func (s *Service) AdjustStock(ctx context.Context, id int64, quantity int) (bool, error) {
	ok, err := s.store.AdjustStock(ctx, id, quantity)
	if err != nil {
		return false, fmt.Errorf("products: adjust stock %d: %w", id, err)
	}
	if !ok {
		logging.FromContext(ctx).Warn("stock_adjust_rejected",
			zap.Int64("product_id", id), zap.Int("quantity", quantity))
	}
	return ok, nil
}
