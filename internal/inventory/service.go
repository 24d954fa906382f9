package inventory

import (
	"context"
	"errors"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithStock(ctx context.Context, fn func(context.Context, StockOps) error) error
	GetEntry(ctx context.Context, productID int64) (StockEntry, error)
	ListEntries(ctx context.Context) ([]StockEntry, error)
}

// Service coordinates stock ledger operations. Each mutation runs as exactly
// one transaction; the all-or-nothing guarantee comes from the repository.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Reserve atomically checks availability and decrements stock. On shortage it
// returns InsufficientStockError and changes nothing.
func (s *Service) Reserve(ctx context.Context, productID int64, qty int) error {
	if productID <= 0 {
		return errors.New("inventory: product required")
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	return s.repo.WithStock(ctx, func(ctx context.Context, ops StockOps) error {
		return ops.Reserve(ctx, productID, qty)
	})
}

// Release atomically returns stock, used on line deletion and quantity decrease.
func (s *Service) Release(ctx context.Context, productID int64, qty int) error {
	if productID <= 0 {
		return errors.New("inventory: product required")
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	return s.repo.WithStock(ctx, func(ctx context.Context, ops StockOps) error {
		return ops.Release(ctx, productID, qty)
	})
}

// AdjustDelta applies a signed line-quantity change with Reserve semantics for
// positive deltas and Release semantics for negative ones.
func (s *Service) AdjustDelta(ctx context.Context, productID int64, delta int) error {
	if productID <= 0 {
		return errors.New("inventory: product required")
	}
	if delta == 0 {
		return nil
	}
	return s.repo.WithStock(ctx, func(ctx context.Context, ops StockOps) error {
		return ops.AdjustDelta(ctx, productID, delta)
	})
}

// SetAbsolute overwrites the on-hand quantity. This is the administrative
// correction entry point for the physical-count workflow; it bypasses
// reservation accounting on purpose.
func (s *Service) SetAbsolute(ctx context.Context, productID int64, newQty int) error {
	if productID <= 0 {
		return errors.New("inventory: product required")
	}
	if newQty < 0 {
		return ErrInvalidQuantity
	}
	return s.repo.WithStock(ctx, func(ctx context.Context, ops StockOps) error {
		return ops.SetAbsolute(ctx, productID, newQty)
	})
}

// CreateEntry registers stock for a product that has none yet.
func (s *Service) CreateEntry(ctx context.Context, productID int64, quantity, threshold int, supplierID int64) error {
	if productID <= 0 {
		return errors.New("inventory: product required")
	}
	if supplierID <= 0 {
		return errors.New("inventory: supplier required")
	}
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if threshold < 0 {
		return ErrInvalidThreshold
	}
	return s.repo.WithStock(ctx, func(ctx context.Context, ops StockOps) error {
		_, err := ops.CreateEntry(ctx, StockEntry{
			ProductID:        productID,
			Quantity:         quantity,
			ReorderThreshold: threshold,
			SupplierID:       supplierID,
		})
		return err
	})
}

// GetEntry returns the stock entry for a product.
func (s *Service) GetEntry(ctx context.Context, productID int64) (StockEntry, error) {
	if productID <= 0 {
		return StockEntry{}, errors.New("inventory: product required")
	}
	return s.repo.GetEntry(ctx, productID)
}

// ListEntries returns all stock entries.
func (s *Service) ListEntries(ctx context.Context) ([]StockEntry, error) {
	return s.repo.ListEntries(ctx)
}
