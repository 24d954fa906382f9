package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	entries map[int64]*StockEntry
	nextID  int64
}

type memoryStock struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{entries: make(map[int64]*StockEntry)}
}

func (r *memoryRepo) seed(productID int64, qty, threshold int, supplierID int64) {
	r.nextID++
	r.entries[productID] = &StockEntry{
		ID:               r.nextID,
		ProductID:        productID,
		Quantity:         qty,
		ReorderThreshold: threshold,
		SupplierID:       supplierID,
		UpdatedAt:        time.Now(),
	}
}

func (r *memoryRepo) WithStock(ctx context.Context, fn func(context.Context, StockOps) error) error {
	return fn(ctx, &memoryStock{repo: r})
}

func (r *memoryRepo) GetEntry(ctx context.Context, productID int64) (StockEntry, error) {
	if e, ok := r.entries[productID]; ok {
		return *e, nil
	}
	return StockEntry{}, ErrStockNotFound
}

func (r *memoryRepo) ListEntries(ctx context.Context) ([]StockEntry, error) {
	var entries []StockEntry
	for _, e := range r.entries {
		entries = append(entries, *e)
	}
	return entries, nil
}

func (s *memoryStock) Reserve(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	e, ok := s.repo.entries[productID]
	if !ok {
		return ErrStockNotFound
	}
	if e.Quantity < qty {
		return &InsufficientStockError{ProductID: productID, Requested: qty, Available: e.Quantity}
	}
	e.Quantity -= qty
	return nil
}

func (s *memoryStock) Release(ctx context.Context, productID int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	e, ok := s.repo.entries[productID]
	if !ok {
		return ErrStockNotFound
	}
	e.Quantity += qty
	return nil
}

func (s *memoryStock) AdjustDelta(ctx context.Context, productID int64, delta int) error {
	switch {
	case delta > 0:
		return s.Reserve(ctx, productID, delta)
	case delta < 0:
		return s.Release(ctx, productID, -delta)
	}
	return nil
}

func (s *memoryStock) SetAbsolute(ctx context.Context, productID int64, newQty int) error {
	if newQty < 0 {
		return ErrInvalidQuantity
	}
	e, ok := s.repo.entries[productID]
	if !ok {
		return ErrStockNotFound
	}
	now := time.Now()
	e.Quantity = newQty
	e.AdjustedAt = &now
	return nil
}

func (s *memoryStock) CreateEntry(ctx context.Context, entry StockEntry) (int64, error) {
	if _, ok := s.repo.entries[entry.ProductID]; ok {
		return 0, ErrEntryExists
	}
	s.repo.nextID++
	entry.ID = s.repo.nextID
	entry.UpdatedAt = time.Now()
	s.repo.entries[entry.ProductID] = &entry
	return entry.ID, nil
}

func (s *memoryStock) GetEntry(ctx context.Context, productID int64) (StockEntry, error) {
	return s.repo.GetEntry(ctx, productID)
}

func TestReserveDecrementsStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, 10, 3, 1)
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Reserve(ctx, 1, 4))

	entry, err := svc.GetEntry(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 6, entry.Quantity)
}

func TestReserveShortfallLeavesStockUnchanged(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, 6, 3, 1)
	svc := NewService(repo)
	ctx := context.Background()

	err := svc.Reserve(ctx, 1, 9)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 9, insufficient.Requested)
	require.Equal(t, 6, insufficient.Available)
	require.Equal(t, 3, insufficient.Shortfall())

	entry, err := svc.GetEntry(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 6, entry.Quantity)
}

func TestReserveUnknownProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	err := svc.Reserve(context.Background(), 99, 1)
	require.ErrorIs(t, err, ErrStockNotFound)
}

func TestReleaseRestoresStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, 8, 3, 1)
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Release(ctx, 1, 2))

	entry, err := svc.GetEntry(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 10, entry.Quantity)
}

func TestAdjustDeltaIsSymmetric(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, 10, 3, 1)
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.AdjustDelta(ctx, 1, 5))
	entry, _ := svc.GetEntry(ctx, 1)
	require.Equal(t, 5, entry.Quantity)

	require.NoError(t, svc.AdjustDelta(ctx, 1, -5))
	entry, _ = svc.GetEntry(ctx, 1)
	require.Equal(t, 10, entry.Quantity)

	require.NoError(t, svc.AdjustDelta(ctx, 1, 0))
	entry, _ = svc.GetEntry(ctx, 1)
	require.Equal(t, 10, entry.Quantity)
}

func TestAdjustDeltaCannotOverdraw(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, 2, 3, 1)
	svc := NewService(repo)

	err := svc.AdjustDelta(context.Background(), 1, 3)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	entry, _ := svc.GetEntry(context.Background(), 1)
	require.Equal(t, 2, entry.Quantity)
}

func TestSetAbsoluteOverwrites(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, 10, 3, 1)
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.SetAbsolute(ctx, 1, 42))

	entry, err := svc.GetEntry(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 42, entry.Quantity)
	require.NotNil(t, entry.AdjustedAt)

	require.ErrorIs(t, svc.SetAbsolute(ctx, 1, -1), ErrInvalidQuantity)
}

func TestCreateEntryRejectsDuplicates(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.CreateEntry(ctx, 1, 20, 5, 2))
	require.ErrorIs(t, svc.CreateEntry(ctx, 1, 10, 5, 2), ErrEntryExists)

	entry, err := svc.GetEntry(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 20, entry.Quantity)
	require.Equal(t, 5, entry.ReorderThreshold)
	require.EqualValues(t, 2, entry.SupplierID)
}

func TestValidationGuards(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, 5, 3, 1)
	svc := NewService(repo)
	ctx := context.Background()

	require.ErrorIs(t, svc.Reserve(ctx, 1, 0), ErrInvalidQuantity)
	require.ErrorIs(t, svc.Reserve(ctx, 1, -2), ErrInvalidQuantity)
	require.ErrorIs(t, svc.Release(ctx, 1, 0), ErrInvalidQuantity)
	require.Error(t, svc.Reserve(ctx, 0, 1))

	entry, _ := svc.GetEntry(ctx, 1)
	require.Equal(t, 5, entry.Quantity)
}
