package replenish

import "context"

// LowStockReader supplies the low stock rows. Satisfied by Repository.
type LowStockReader interface {
	LowStock(ctx context.Context) ([]Suggestion, error)
}

// Service answers replenishment queries, with a short cache in front of the
// scan. Suggestions are advisory; nothing here mutates stock.
type Service struct {
	repo  LowStockReader
	cache *Cache
}

// NewService wires a LowStockReader with a Cache helper.
func NewService(repo LowStockReader, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Report returns the current reorder suggestions, most depleted first. An
// empty slice means nothing needs attention.
func (s *Service) Report(ctx context.Context) ([]Suggestion, error) {
	var suggestions []Suggestion
	err := s.cache.FetchJSON(ctx, lowStockKey, &suggestions, func(ctx context.Context) (interface{}, error) {
		return s.repo.LowStock(ctx)
	})
	if err != nil {
		return nil, err
	}
	if suggestions == nil {
		suggestions = []Suggestion{}
	}
	return suggestions, nil
}

// Refresh drops the cached report, forcing the next Report to rescan.
func (s *Service) Refresh(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}
