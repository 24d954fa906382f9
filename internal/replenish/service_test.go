package replenish

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type mockReader struct {
	rows  []Suggestion
	calls int
}

func (m *mockReader) LowStock(ctx context.Context) ([]Suggestion, error) {
	m.calls++
	return m.rows, nil
}

func newTestService(t *testing.T, repo LowStockReader) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, NewCache(client, time.Minute))
}

func TestReportCaches(t *testing.T) {
	repo := &mockReader{rows: []Suggestion{
		{ProductID: 1, ProductName: "Schraube M4", CurrentQty: 2, ReorderThreshold: 5, SupplierID: 1, SupplierName: "Stahl AG", LeadTimeDays: 3, SuggestedQty: 13},
	}}
	svc := newTestService(t, repo)

	first, err := svc.Report(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 13, first[0].SuggestedQty)

	second, err := svc.Report(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.calls)
}

func TestRefreshInvalidates(t *testing.T) {
	repo := &mockReader{rows: []Suggestion{{ProductID: 1, SuggestedQty: 4}}}
	svc := newTestService(t, repo)

	_, err := svc.Report(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.Refresh(context.Background()))

	_, err = svc.Report(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}

func TestReportEmptyIsNotNil(t *testing.T) {
	svc := newTestService(t, &mockReader{})

	got, err := svc.Report(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestSuggestedQty(t *testing.T) {
	require.Equal(t, 13, suggestedQty(5, 2))
	require.Equal(t, 15, suggestedQty(5, 0))
	require.Equal(t, 0, suggestedQty(0, 0))
}
