package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/orderdesk/orderdesk/internal/replenish"
)

// LowStockScanJob rebuilds the replenishment report and logs every product
// that needs reordering, so the nightly run leaves an audit trail even when
// nobody queries the endpoint.
type LowStockScanJob struct {
	Service *replenish.Service
	Logger  *slog.Logger
}

// NewLowStockScanJob initialises the scan handler.
func NewLowStockScanJob(service *replenish.Service, logger *slog.Logger) *LowStockScanJob {
	return &LowStockScanJob{Service: service, Logger: logger}
}

// Handle executes the scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("lowstock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := time.Now()
	logger := j.logger().With(slog.String("run_id", uuid.NewString()))
	logger.Info("starting low stock scan")

	if err := j.Service.Refresh(ctx); err != nil {
		logger.Error("cache refresh failed", slog.Any("error", err))
		return err
	}
	suggestions, err := j.Service.Report(ctx)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	if payload.Notify {
		for _, s := range suggestions {
			logger.Warn("product below reorder threshold",
				slog.Int64("product_id", s.ProductID),
				slog.String("product_name", s.ProductName),
				slog.Int("current_qty", s.CurrentQty),
				slog.Int("reorder_threshold", s.ReorderThreshold),
				slog.String("supplier", s.SupplierName),
				slog.Int("lead_time_days", s.LeadTimeDays),
				slog.Int("suggested_qty", s.SuggestedQty),
			)
		}
	}

	logger.Info("completed low stock scan",
		slog.Int("suggestions", len(suggestions)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLowStockScan))
	}
	return slog.Default().With(slog.String("job", TaskLowStockScan))
}
