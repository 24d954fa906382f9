package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orderdesk/orderdesk/internal/masterdata/customers"
	"github.com/orderdesk/orderdesk/internal/masterdata/shared"
)

// CustomerDirectory resolves customer references. Satisfied by the masterdata
// customer service.
type CustomerDirectory interface {
	Get(ctx context.Context, id int64) (customers.Customer, error)
}

// Service is the order ledger: it owns orders, their lines, and the lifecycle
// status, and routes every line mutation through the inventory ledger inside
// one transaction. Stock and line state never diverge, even under failure.
type Service struct {
	repo      Repository
	customers CustomerDirectory
}

func NewService(repo Repository, customerDir CustomerDirectory) *Service {
	return &Service{repo: repo, customers: customerDir}
}

// CreateOrder opens a new order for the customer with an empty line set,
// zero discount and the default tax rate.
func (s *Service) CreateOrder(ctx context.Context, customerID int64, orderDate time.Time) (Order, error) {
	if _, err := s.customers.Get(ctx, customerID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Order{}, ErrCustomerNotFound
		}
		return Order{}, fmt.Errorf("verify customer: %w", err)
	}
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	order := Order{
		CustomerID:  customerID,
		OrderDate:   orderDate,
		Status:      StatusOpen,
		DiscountPct: 0,
		TaxPct:      DefaultTaxPct,
	}

	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		id, err := repo.InsertOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		orderID = id
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return s.repo.GetOrder(ctx, orderID)
}

// AddLine reserves stock and appends a line in one transaction. On
// insufficient stock nothing is persisted and the shortfall is surfaced for
// the operator to decide (smaller quantity, or abort).
func (s *Service) AddLine(ctx context.Context, orderID, productID int64, qty int) (OrderLine, error) {
	if qty <= 0 {
		return OrderLine{}, ErrInvalidQuantity
	}

	var line OrderLine
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		if _, err := repo.GetOrderForUpdate(ctx, orderID); err != nil {
			return err
		}
		if err := repo.Stock().Reserve(ctx, productID, qty); err != nil {
			return err
		}
		id, err := repo.InsertLine(ctx, OrderLine{OrderID: orderID, ProductID: productID, Quantity: qty})
		if err != nil {
			return fmt.Errorf("insert line: %w", err)
		}
		line = OrderLine{ID: id, OrderID: orderID, ProductID: productID, Quantity: qty}
		return nil
	})
	if err != nil {
		return OrderLine{}, err
	}
	return line, nil
}

// UpdateLineQuantity changes a line's quantity, adjusting stock by the delta.
// A new quantity of zero removes the line. The line keeps its old quantity
// whenever the stock adjustment fails.
func (s *Service) UpdateLineQuantity(ctx context.Context, lineID int64, newQty int) error {
	if newQty < 0 {
		return ErrInvalidQuantity
	}

	return s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		line, err := repo.GetLineForUpdate(ctx, lineID)
		if err != nil {
			return err
		}

		if newQty == 0 {
			return removeLineTx(ctx, repo, line)
		}

		delta := newQty - line.Quantity
		if delta == 0 {
			return nil
		}
		if err := repo.Stock().AdjustDelta(ctx, line.ProductID, delta); err != nil {
			return err
		}
		return repo.UpdateLineQuantity(ctx, lineID, newQty)
	})
}

// RemoveLine deletes a line and returns its full quantity to stock.
func (s *Service) RemoveLine(ctx context.Context, lineID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		line, err := repo.GetLineForUpdate(ctx, lineID)
		if err != nil {
			return err
		}
		return removeLineTx(ctx, repo, line)
	})
}

func removeLineTx(ctx context.Context, repo TxRepository, line OrderLine) error {
	if err := repo.Stock().Release(ctx, line.ProductID, line.Quantity); err != nil {
		return err
	}
	return repo.DeleteLine(ctx, line.ID)
}

// SetDiscountAndTax updates both percentages; both must lie in [0,100] or
// neither is applied.
func (s *Service) SetDiscountAndTax(ctx context.Context, orderID int64, discountPct, taxPct float64) error {
	if discountPct < 0 || discountPct > 100 || taxPct < 0 || taxPct > 100 {
		return ErrPercentOutOfRange
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		if _, err := repo.GetOrderForUpdate(ctx, orderID); err != nil {
			return err
		}
		return repo.UpdateDiscountTax(ctx, orderID, discountPct, taxPct)
	})
}

// Advance moves the order to the strict next lifecycle state. Requesting the
// current state is reported as a no-op, not an error; anything else that is
// not the direct successor is rejected.
func (s *Service) Advance(ctx context.Context, orderID int64, target Status) (AdvanceResult, error) {
	if !target.Valid() {
		return AdvanceResult{}, ErrUnknownStatus
	}

	var result AdvanceResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo TxRepository) error {
		order, err := repo.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == target {
			result = AdvanceResult{Status: order.Status, NoOp: true}
			return nil
		}
		if !order.Status.CanAdvanceTo(target) {
			return &InvalidTransitionError{From: order.Status, To: target}
		}
		if err := repo.UpdateStatus(ctx, orderID, target); err != nil {
			return err
		}
		result = AdvanceResult{Status: target}
		return nil
	})
	if err != nil {
		return AdvanceResult{}, err
	}
	return result, nil
}

// Get returns an order with its lines.
func (s *Service) Get(ctx context.Context, orderID int64) (Order, error) {
	if orderID <= 0 {
		return Order{}, ErrOrderNotFound
	}
	return s.repo.GetOrder(ctx, orderID)
}

// History lists a customer's orders, newest first.
func (s *Service) History(ctx context.Context, customerID int64) ([]Order, error) {
	if _, err := s.customers.Get(ctx, customerID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("verify customer: %w", err)
	}
	return s.repo.ListByCustomer(ctx, customerID)
}
