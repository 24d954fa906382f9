package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// DatabaseBackupJob dumps the database with pg_dump and prunes old dumps so
// the backup directory holds at most Keep files.
type DatabaseBackupJob struct {
	DSN    string
	Dir    string
	Keep   int
	Logger *slog.Logger
	clock  func() time.Time
}

// NewDatabaseBackupJob initialises the backup handler.
func NewDatabaseBackupJob(dsn, dir string, keep int, logger *slog.Logger) *DatabaseBackupJob {
	return &DatabaseBackupJob{
		DSN:    dsn,
		Dir:    dir,
		Keep:   keep,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the backup.
func (j *DatabaseBackupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.DSN == "" || j.Dir == "" {
		return errors.New("db backup: handler not configured")
	}
	var payload DatabaseBackupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	keep := j.Keep
	if payload.Keep > 0 {
		keep = payload.Keep
	}

	start := j.now()
	logger := j.logger().With(slog.String("run_id", uuid.NewString()))
	logger.Info("starting database backup", slog.String("dir", j.Dir))

	if err := os.MkdirAll(j.Dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	target := filepath.Join(j.Dir, fmt.Sprintf("orderdesk-%s.dump", start.Format("20060102T150405Z")))
	cmd := exec.CommandContext(ctx, "pg_dump", "--format=custom", "--file="+target, "--dbname="+j.DSN)
	if out, err := cmd.CombinedOutput(); err != nil {
		logger.Error("pg_dump failed", slog.Any("error", err), slog.String("output", strings.TrimSpace(string(out))))
		return fmt.Errorf("pg_dump: %w", err)
	}

	pruned, err := j.prune(keep)
	if err != nil {
		logger.Warn("prune old backups", slog.Any("error", err))
	}

	logger.Info("completed database backup",
		slog.String("file", target),
		slog.Int("pruned", pruned),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// prune deletes the oldest dumps past the retention count and returns how
// many were removed.
func (j *DatabaseBackupJob) prune(keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	matches, err := filepath.Glob(filepath.Join(j.Dir, "orderdesk-*.dump"))
	if err != nil {
		return 0, err
	}
	if len(matches) <= keep {
		return 0, nil
	}
	// Timestamped names sort chronologically.
	sort.Strings(matches)
	stale := matches[:len(matches)-keep]
	removed := 0
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (j *DatabaseBackupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDatabaseBackup))
	}
	return slog.Default().With(slog.String("job", TaskDatabaseBackup))
}

func (j *DatabaseBackupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
