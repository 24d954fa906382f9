package products

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orderdesk/orderdesk/internal/masterdata/shared"
)

type memoryRepo struct {
	items  map[int64]Product
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Product), nextID: 1}
}

func (m *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]ProductWithStock, int, error) {
	filters = filters.Normalize()
	var matched []ProductWithStock
	for _, p := range m.items {
		if filters.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filters.Search)) {
			continue
		}
		matched = append(matched, ProductWithStock{Product: p})
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	total := len(matched)
	offset := filters.Offset()
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + filters.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := m.items[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) Create(ctx context.Context, product Product) (Product, error) {
	product.ID = m.nextID
	m.nextID++
	m.items[product.ID] = product
	return product, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, product Product) error {
	if _, ok := m.items[id]; !ok {
		return shared.ErrNotFound
	}
	product.ID = id
	m.items[id] = product
	return nil
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Product{Name: "  ", Price: 1})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), Product{Name: "Widget", Price: -0.01})
	require.Error(t, err)

	created, err := svc.Create(context.Background(), Product{Name: "Widget", Price: 9.99})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
}

func TestListSearch(t *testing.T) {
	svc := NewService(newMemoryRepo())
	for _, name := range []string{"Schraube M4", "Schraube M6", "Netzteil 24V"} {
		_, err := svc.Create(context.Background(), Product{Name: name, Price: 1})
		require.NoError(t, err)
	}

	items, total, err := svc.List(context.Background(), shared.ListFilters{Search: "schraube"})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, items, 2)

	items, total, err = svc.List(context.Background(), shared.ListFilters{})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, items, 3)
}

func TestGetAndUpdate(t *testing.T) {
	svc := NewService(newMemoryRepo())
	created, err := svc.Create(context.Background(), Product{Name: "Widget", Price: 9.99})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Widget", got.Name)

	require.NoError(t, svc.Update(context.Background(), created.ID, Product{Name: "Widget v2", Price: 12.50}))
	got, err = svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Widget v2", got.Name)

	err = svc.Update(context.Background(), 404, Product{Name: "x", Price: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Get(context.Background(), 0)
	require.Error(t, err)
}
