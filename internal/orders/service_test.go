package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orderdesk/orderdesk/internal/inventory"
	"github.com/orderdesk/orderdesk/internal/masterdata/customers"
	"github.com/orderdesk/orderdesk/internal/masterdata/shared"
	"github.com/orderdesk/orderdesk/internal/platform/httpx"
)

// ledgerState is the shared mutable state behind the in-memory repository.
type ledgerState struct {
	orders    map[int64]Order
	lines     map[int64]OrderLine
	stock     map[int64]inventory.StockEntry
	nextOrder int64
	nextLine  int64
	nextStock int64
}

func newLedgerState() *ledgerState {
	return &ledgerState{
		orders:    make(map[int64]Order),
		lines:     make(map[int64]OrderLine),
		stock:     make(map[int64]inventory.StockEntry),
		nextOrder: 1,
		nextLine:  1,
		nextStock: 1,
	}
}

func (s *ledgerState) clone() *ledgerState {
	c := newLedgerState()
	c.nextOrder, c.nextLine, c.nextStock = s.nextOrder, s.nextLine, s.nextStock
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	return c
}

// memoryRepo implements Repository with commit/rollback semantics: the
// callback mutates a copy that replaces the live state only on success.
// Transactions serialize on a mutex, mirroring the serializable isolation
// of the postgres repository.
type memoryRepo struct {
	mu    sync.Mutex
	state *ledgerState
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{state: newLedgerState()}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	work := r.state.clone()
	if err := fn(ctx, &memoryTx{state: work}); err != nil {
		return err
	}
	r.state = work
	return nil
}

func (r *memoryRepo) GetOrder(ctx context.Context, id int64) (Order, error) {
	o, ok := r.state.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	o.Lines = nil
	for i := int64(1); i < r.state.nextLine; i++ {
		if l, ok := r.state.lines[i]; ok && l.OrderID == id {
			o.Lines = append(o.Lines, l)
		}
	}
	return o, nil
}

func (r *memoryRepo) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	var result []Order
	for i := r.state.nextOrder - 1; i >= 1; i-- {
		if o, ok := r.state.orders[i]; ok && o.CustomerID == customerID {
			result = append(result, o)
		}
	}
	return result, nil
}

type memoryTx struct {
	state *ledgerState
}

func (t *memoryTx) InsertOrder(ctx context.Context, order Order) (int64, error) {
	order.ID = t.state.nextOrder
	t.state.nextOrder++
	t.state.orders[order.ID] = order
	return order.ID, nil
}

func (t *memoryTx) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	o, ok := t.state.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (t *memoryTx) GetLineForUpdate(ctx context.Context, lineID int64) (OrderLine, error) {
	l, ok := t.state.lines[lineID]
	if !ok {
		return OrderLine{}, ErrLineNotFound
	}
	return l, nil
}

func (t *memoryTx) InsertLine(ctx context.Context, line OrderLine) (int64, error) {
	line.ID = t.state.nextLine
	t.state.nextLine++
	t.state.lines[line.ID] = line
	return line.ID, nil
}

func (t *memoryTx) UpdateLineQuantity(ctx context.Context, lineID int64, quantity int) error {
	l, ok := t.state.lines[lineID]
	if !ok {
		return ErrLineNotFound
	}
	l.Quantity = quantity
	t.state.lines[lineID] = l
	return nil
}

func (t *memoryTx) DeleteLine(ctx context.Context, lineID int64) error {
	if _, ok := t.state.lines[lineID]; !ok {
		return ErrLineNotFound
	}
	delete(t.state.lines, lineID)
	return nil
}

func (t *memoryTx) UpdateDiscountTax(ctx context.Context, orderID int64, discountPct, taxPct float64) error {
	o, ok := t.state.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	o.DiscountPct, o.TaxPct = discountPct, taxPct
	t.state.orders[orderID] = o
	return nil
}

func (t *memoryTx) UpdateStatus(ctx context.Context, orderID int64, status Status) error {
	o, ok := t.state.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	t.state.orders[orderID] = o
	return nil
}

func (t *memoryTx) Stock() inventory.StockOps {
	return &memoryStock{state: t.state}
}

type memoryStock struct {
	state *ledgerState
}

func (m *memoryStock) Reserve(ctx context.Context, productID int64, qty int) error {
	entry, ok := m.state.stock[productID]
	if !ok {
		return inventory.ErrStockNotFound
	}
	if entry.Quantity < qty {
		return &inventory.InsufficientStockError{
			ProductID: productID,
			Requested: qty,
			Available: entry.Quantity,
		}
	}
	entry.Quantity -= qty
	m.state.stock[productID] = entry
	return nil
}

func (m *memoryStock) Release(ctx context.Context, productID int64, qty int) error {
	entry, ok := m.state.stock[productID]
	if !ok {
		return inventory.ErrStockNotFound
	}
	entry.Quantity += qty
	m.state.stock[productID] = entry
	return nil
}

func (m *memoryStock) AdjustDelta(ctx context.Context, productID int64, delta int) error {
	if delta > 0 {
		return m.Reserve(ctx, productID, delta)
	}
	if delta < 0 {
		return m.Release(ctx, productID, -delta)
	}
	return nil
}

func (m *memoryStock) SetAbsolute(ctx context.Context, productID int64, newQty int) error {
	entry, ok := m.state.stock[productID]
	if !ok {
		return inventory.ErrStockNotFound
	}
	entry.Quantity = newQty
	m.state.stock[productID] = entry
	return nil
}

func (m *memoryStock) CreateEntry(ctx context.Context, entry inventory.StockEntry) (int64, error) {
	if _, exists := m.state.stock[entry.ProductID]; exists {
		return 0, inventory.ErrEntryExists
	}
	entry.ID = m.state.nextStock
	m.state.nextStock++
	m.state.stock[entry.ProductID] = entry
	return entry.ID, nil
}

func (m *memoryStock) GetEntry(ctx context.Context, productID int64) (inventory.StockEntry, error) {
	entry, ok := m.state.stock[productID]
	if !ok {
		return inventory.StockEntry{}, inventory.ErrStockNotFound
	}
	return entry, nil
}

type staticCustomers struct {
	known map[int64]customers.Customer
}

func (d *staticCustomers) Get(ctx context.Context, id int64) (customers.Customer, error) {
	c, ok := d.known[id]
	if !ok {
		return customers.Customer{}, shared.ErrNotFound
	}
	return c, nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	dir := &staticCustomers{known: map[int64]customers.Customer{
		1: {ID: 1, Name: "Musterfirma GmbH"},
	}}
	return NewService(repo, dir), repo
}

func (r *memoryRepo) seedStock(productID int64, qty int) {
	r.state.stock[productID] = inventory.StockEntry{
		ID:        r.state.nextStock,
		ProductID: productID,
		Quantity:  qty,
	}
	r.state.nextStock++
}

func (r *memoryRepo) stockQty(productID int64) int {
	return r.state.stock[productID].Quantity
}

func TestCreateOrderDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	order, err := svc.CreateOrder(context.Background(), 1, time.Time{})
	require.NoError(t, err)
	require.Equal(t, StatusOpen, order.Status)
	require.Zero(t, order.DiscountPct)
	require.InDelta(t, DefaultTaxPct, order.TaxPct, 1e-9)
	require.Empty(t, order.Lines)
	require.False(t, order.OrderDate.IsZero())
}

func TestCreateOrderUnknownCustomer(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateOrder(context.Background(), 99, time.Now())
	require.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestAddLineReservesStock(t *testing.T) {
	svc, repo := newTestService(t)
	repo.seedStock(100, 10)
	order, err := svc.CreateOrder(context.Background(), 1, time.Now())
	require.NoError(t, err)

	line, err := svc.AddLine(context.Background(), order.ID, 100, 4)
	require.NoError(t, err)
	require.Equal(t, 4, line.Quantity)
	require.Equal(t, 6, repo.stockQty(100))
}

func TestAddLineInsufficientStock(t *testing.T) {
	svc, repo := newTestService(t)
	repo.seedStock(100, 3)
	order, err := svc.CreateOrder(context.Background(), 1, time.Now())
	require.NoError(t, err)

	_, err = svc.AddLine(context.Background(), order.ID, 100, 5)
	var shortage *inventory.InsufficientStockError
	require.ErrorAs(t, err, &shortage)
	require.Equal(t, 5, shortage.Requested)
	require.Equal(t, 3, shortage.Available)
	require.Equal(t, 2, shortage.Shortfall())

	// Nothing persisted: stock untouched, no line created.
	require.Equal(t, 3, repo.stockQty(100))
	got, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Empty(t, got.Lines)
}

func TestConcurrentAddLineReservesAtMostOnce(t *testing.T) {
	svc, repo := newTestService(t)
	repo.seedStock(100, 5)
	order, err := svc.CreateOrder(context.Background(), 1, time.Now())
	require.NoError(t, err)

	// Two requests race for the same stock; 3+3 > 5, so the availability
	// check and the decrement must act as one step.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddLine(context.Background(), order.ID, 100, 3)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, short int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		var shortage *inventory.InsufficientStockError
		require.ErrorAs(t, err, &shortage)
		require.Equal(t, 3, shortage.Requested)
		require.Equal(t, 2, shortage.Available)
		short++
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, short)
	require.Equal(t, 2, repo.stockQty(100))

	got, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	require.Equal(t, 3, got.Lines[0].Quantity)
}

func TestAddLineUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)
	order, err := svc.CreateOrder(context.Background(), 1, time.Now())
	require.NoError(t, err)

	_, err = svc.AddLine(context.Background(), order.ID, 42, 1)
	require.ErrorIs(t, err, inventory.ErrStockNotFound)
}

func TestUpdateLineQuantityIncreaseFailsAtomically(t *testing.T) {
	svc, repo := newTestService(t)
	repo.seedStock(100, 10)
	order, err := svc.CreateOrder(context.Background(), 1, time.Now())
	require.NoError(t, err)
	line, err := svc.AddLine(context.Background(), order.ID, 100, 4)
	require.NoError(t, err)
	require.Equal(t, 6, repo.stockQty(100))

	// Raising 4 -> 11 needs 7 more units with only 6 on hand.
	err = svc.UpdateLineQuantity(context.Background(), line.ID, 11)
	var shortage *inventory.InsufficientStockError
	require.ErrorAs(t, err, &shortage)
	require.Equal(t, 7, shortage.Requested)
	require.Equal(t, 6, shortage.Available)

	// Line keeps its old quantity and stock is unchanged.
	require.Equal(t, 6, repo.stockQty(100))
	got, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	require.Equal(t, 4, got.Lines[0].Quantity)
}

func TestUpdateLineQuantityDecreaseReleasesStock(t *testing.T) {
	svc, repo := newTestService(t)
	repo.seedStock(100, 10)
	order, err := svc.CreateOrder(context.Background(), 1, time.Now())
	require.NoError(t, err)
	line, err := svc.AddLine(context.Background(), order.ID, 100, 4)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateLineQuantity(context.Background(), line.ID, 2))
	require.Equal(t, 8, repo.stockQty(100))

	got, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Lines[0].Quantity)
}

func TestUpdateLineQuantityToZeroRemovesLine(t *testing.T) {
	svc, repo := newTestService(t)
	repo.seedStock(100, 10)
	order, err := svc.CreateOrder(context.Background(), 1, time.Now())
	require.NoError(t, err)
	line, err := svc.AddLine(context.Background(), order.ID, 100, 4)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateLineQuantity(context.Background(), line.ID, 0))
	require.Equal(t, 10, repo.stockQty(100))

	got, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Empty(t, got.Lines)
}

func TestUpdateLineQuantityRejectsNegative(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.UpdateLineQuantity(context.Background(), 1, -1)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRemoveLineRestoresStock(t *testing.T) {
	svc, repo := newTestService(t)
	repo.seedStock(100, 10)
	order, err := svc.CreateOrder(context.Background(), 1, time.Now())
	require.NoError(t, err)
	line, err := svc.AddLine(context.Background(), order.ID, 100, 4)
	require.NoError(t, err)
	require.Equal(t, 6, repo.stockQty(100))

	require.NoError(t, svc.RemoveLine(context.Background(), line.ID))
	require.Equal(t, 10, repo.stockQty(100))

	err = svc.RemoveLine(context.Background(), line.ID)
	require.ErrorIs(t, err, ErrLineNotFound)
}

func TestStockConservation(t *testing.T) {
	svc, repo := newTestService(t)
	repo.seedStock(100, 20)
	order, err := svc.CreateOrder(context.Background(), 1, time.Now())
	require.NoError(t, err)

	line, err := svc.AddLine(context.Background(), order.ID, 100, 7)
	require.NoError(t, err)
	require.NoError(t, svc.UpdateLineQuantity(context.Background(), line.ID, 12))
	require.NoError(t, svc.UpdateLineQuantity(context.Background(), line.ID, 3))
	require.NoError(t, svc.RemoveLine(context.Background(), line.ID))

	// Every reservation was matched by a release.
	require.Equal(t, 20, repo.stockQty(100))
}

func TestSetDiscountAndTax(t *testing.T) {
	svc, _ := newTestService(t)
	order, err := svc.CreateOrder(context.Background(), 1, time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.SetDiscountAndTax(context.Background(), order.ID, 10, 19))
	got, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.InDelta(t, 10.0, got.DiscountPct, 1e-9)

	err = svc.SetDiscountAndTax(context.Background(), order.ID, 101, 19)
	require.ErrorIs(t, err, ErrPercentOutOfRange)
	err = svc.SetDiscountAndTax(context.Background(), order.ID, 10, -1)
	require.ErrorIs(t, err, ErrPercentOutOfRange)

	// Rejected updates leave both values untouched.
	got, err = svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.InDelta(t, 10.0, got.DiscountPct, 1e-9)
	require.InDelta(t, 19.0, got.TaxPct, 1e-9)
}

func TestAdvanceLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	order, err := svc.CreateOrder(context.Background(), 1, time.Now())
	require.NoError(t, err)

	res, err := svc.Advance(context.Background(), order.ID, StatusShipped)
	require.NoError(t, err)
	require.Equal(t, StatusShipped, res.Status)
	require.False(t, res.NoOp)

	res, err = svc.Advance(context.Background(), order.ID, StatusDelivered)
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, res.Status)
}

func TestAdvanceSkippingStateRejected(t *testing.T) {
	svc, _ := newTestService(t)
	order, err := svc.CreateOrder(context.Background(), 1, time.Now())
	require.NoError(t, err)

	_, err = svc.Advance(context.Background(), order.ID, StatusDelivered)
	var transition *InvalidTransitionError
	require.ErrorAs(t, err, &transition)
	require.Equal(t, StatusOpen, transition.From)
	require.Equal(t, StatusDelivered, transition.To)

	got, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusOpen, got.Status)
}

func TestAdvanceBackwardRejected(t *testing.T) {
	svc, _ := newTestService(t)
	order, err := svc.CreateOrder(context.Background(), 1, time.Now())
	require.NoError(t, err)

	_, err = svc.Advance(context.Background(), order.ID, StatusShipped)
	require.NoError(t, err)

	_, err = svc.Advance(context.Background(), order.ID, StatusOpen)
	var transition *InvalidTransitionError
	require.ErrorAs(t, err, &transition)
}

func TestAdvanceSameStatusIsNoOp(t *testing.T) {
	svc, _ := newTestService(t)
	order, err := svc.CreateOrder(context.Background(), 1, time.Now())
	require.NoError(t, err)

	res, err := svc.Advance(context.Background(), order.ID, StatusOpen)
	require.NoError(t, err)
	require.True(t, res.NoOp)
	require.Equal(t, StatusOpen, res.Status)
}

func TestAdvanceUnknownStatus(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Advance(context.Background(), 1, Status("CANCELLED"))
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestHistoryNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.CreateOrder(context.Background(), 1, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	second, err := svc.CreateOrder(context.Background(), 1, time.Now())
	require.NoError(t, err)

	history, err := svc.History(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, second.ID, history[0].ID)
	require.Equal(t, first.ID, history[1].ID)

	_, err = svc.History(context.Background(), 404)
	require.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestMapErrTranslatesNotFound(t *testing.T) {
	require.ErrorIs(t, mapErr(ErrOrderNotFound), httpx.ErrNotFound)
	require.ErrorIs(t, mapErr(inventory.ErrStockNotFound), httpx.ErrNotFound)
	// Masterdata lookups (customer on the invoice path) surface the shared
	// sentinel and must map to 404, not fall through to 500.
	require.ErrorIs(t, mapErr(shared.ErrNotFound), httpx.ErrNotFound)
	require.ErrorIs(t, mapErr(fmt.Errorf("load customer: %w", shared.ErrNotFound)), httpx.ErrNotFound)

	opaque := errors.New("boom")
	require.Equal(t, opaque, mapErr(opaque))
}

func TestAddLineRejectsNonPositiveQuantity(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.AddLine(context.Background(), 1, 100, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
	require.False(t, errors.Is(err, ErrOrderNotFound))
}
