// Package jobs contains the background workers: the nightly low stock scan,
// the database backup, and the raw price normalization sweep.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan refreshes and reports the replenishment suggestions.
	TaskLowStockScan = "inventory:lowstock_scan"
	// TaskDatabaseBackup dumps the database to the backup directory.
	TaskDatabaseBackup = "ops:db_backup"
	// TaskPriceNormalize parses raw price strings into numeric prices.
	TaskPriceNormalize = "catalog:price_normalize"
)

// LowStockScanPayload configures one scan run.
type LowStockScanPayload struct {
	// Notify logs each suggestion at warning level when set.
	Notify bool `json:"notify"`
}

// NewLowStockScanTask constructs an Asynq task.
func NewLowStockScanTask(notify bool) (*asynq.Task, error) {
	data, err := json.Marshal(LowStockScanPayload{Notify: notify})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, data), nil
}

// DatabaseBackupPayload configures one backup run.
type DatabaseBackupPayload struct {
	// Keep overrides the configured retention count when positive.
	Keep int `json:"keep,omitempty"`
}

// NewDatabaseBackupTask constructs an Asynq task.
func NewDatabaseBackupTask(keep int) (*asynq.Task, error) {
	data, err := json.Marshal(DatabaseBackupPayload{Keep: keep})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDatabaseBackup, data), nil
}

// PriceNormalizePayload configures one normalization sweep.
type PriceNormalizePayload struct {
	// DryRun reports what would change without writing.
	DryRun bool `json:"dry_run"`
}

// NewPriceNormalizeTask constructs an Asynq task.
func NewPriceNormalizeTask(dryRun bool) (*asynq.Task, error) {
	data, err := json.Marshal(PriceNormalizePayload{DryRun: dryRun})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPriceNormalize, data), nil
}
