package orders

import (
	"fmt"

	"github.com/ariefcatur/go-shop-services/internal/apperr"
)

var (
	ErrOrderNotFound     = fmt.Errorf("order %w", apperr.ErrNotFound)
	ErrProductNotFound   = fmt.Errorf("orders: product %w", apperr.ErrNotFound)
	ErrProductInactive   = fmt.Errorf("orders: product inactive: %w", apperr.ErrBusinessRule)
	ErrInsufficientStock = fmt.Errorf("orders: insufficient stock: %w", apperr.ErrBusinessRule)
	ErrStockUpdateFailed = fmt.Errorf("orders: stock update failed: %w", apperr.ErrRemoteCall)
	ErrInvalidOrder      = fmt.Errorf("orders: invalid order: %w", apperr.ErrBusinessRule)
	ErrInvalidStatus     = fmt.Errorf("orders: invalid status: %w", apperr.ErrBusinessRule)
)
