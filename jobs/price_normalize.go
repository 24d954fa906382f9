package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PriceNormalizeJob converts legacy free-text prices ("12,34 EUR",
// "1.234,56") into numeric prices. Rows that do not parse are left for
// manual review, with a warning per row.
type PriceNormalizeJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
}

// NewPriceNormalizeJob initialises the normalization handler.
func NewPriceNormalizeJob(pool *pgxpool.Pool, logger *slog.Logger) *PriceNormalizeJob {
	return &PriceNormalizeJob{Pool: pool, Logger: logger}
}

// Handle executes the sweep.
func (j *PriceNormalizeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("price normalize: handler not configured")
	}
	var payload PriceNormalizePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := time.Now()
	logger := j.logger().With(slog.Bool("dry_run", payload.DryRun))
	logger.Info("starting price normalization")

	rows, err := j.Pool.Query(ctx, `SELECT id, price_raw FROM products WHERE price_raw IS NOT NULL`)
	if err != nil {
		return err
	}
	type rawPrice struct {
		id  int64
		raw string
	}
	var pending []rawPrice
	for rows.Next() {
		var p rawPrice
		if err := rows.Scan(&p.id, &p.raw); err != nil {
			rows.Close()
			return err
		}
		pending = append(pending, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	normalized, skipped := 0, 0
	for _, p := range pending {
		price, err := ParseRawPrice(p.raw)
		if err != nil {
			skipped++
			logger.Warn("unparseable raw price",
				slog.Int64("product_id", p.id),
				slog.String("raw", p.raw),
			)
			continue
		}
		if payload.DryRun {
			normalized++
			logger.Info("would normalize",
				slog.Int64("product_id", p.id),
				slog.String("raw", p.raw),
				slog.Float64("price", price),
			)
			continue
		}
		if _, err := j.Pool.Exec(ctx, `UPDATE products SET price = $2, price_raw = NULL, updated_at = NOW() WHERE id = $1`, p.id, price); err != nil {
			return fmt.Errorf("update product %d: %w", p.id, err)
		}
		normalized++
	}

	logger.Info("completed price normalization",
		slog.Int("normalized", normalized),
		slog.Int("skipped", skipped),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *PriceNormalizeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskPriceNormalize))
	}
	return slog.Default().With(slog.String("job", TaskPriceNormalize))
}

var priceJunk = regexp.MustCompile(`[^\d,.\-]`)

// ParseRawPrice parses a free-text price. Currency symbols and whitespace
// are ignored. When both separators appear, the rightmost one is taken as
// the decimal separator ("1.234,56" and "1,234.56" both parse).
func ParseRawPrice(raw string) (float64, error) {
	cleaned := priceJunk.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0, fmt.Errorf("no digits in %q", raw)
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(cleaned, ",") > 1 {
			return 0, fmt.Errorf("ambiguous separators in %q", raw)
		}
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", raw, err)
	}
	if price < 0 {
		return 0, fmt.Errorf("negative price in %q", raw)
	}
	return price, nil
}
