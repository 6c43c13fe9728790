package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig configures periodic pruning of old audit records.
type RetentionConfig struct {
	// Period is how long records are kept. Default: 30 days.
	Period time.Duration

	// Schedule is the cron expression controlling when pruning runs.
	// Default: "0 3 * * *" (daily at 03:00).
	Schedule string
}

// DefaultRetentionConfig returns the default retention configuration.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		Period:   30 * 24 * time.Hour,
		Schedule: "0 3 * * *",
	}
}

// Pruner deletes audit records older than the retention period.
type Pruner struct {
	storage Storage
	period  time.Duration
	logger  *slog.Logger
}

// NewPruner creates a pruner over the given storage.
func NewPruner(storage Storage, period time.Duration, logger *slog.Logger) *Pruner {
	if period <= 0 {
		period = DefaultRetentionConfig().Period
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		storage: storage,
		period:  period,
		logger:  logger.With("component", "audit.pruner"),
	}
}

// Prune deletes records older than the retention period and returns how
// many were removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-p.period)
	deleted, err := p.storage.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention prune failed: %w", err)
	}
	if deleted > 0 {
		p.logger.Info("pruned audit records",
			"deleted", deleted,
			"cutoff", cutoff.UTC().Format(time.RFC3339),
		)
	}
	return deleted, nil
}

// Scheduler runs the pruner on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler creates a scheduler that runs the pruner per config. The
// schedule must be a valid five-field cron expression.
func NewScheduler(pruner *Pruner, config *RetentionConfig, logger *slog.Logger) (*Scheduler, error) {
	if config == nil {
		config = DefaultRetentionConfig()
	}
	schedule := config.Schedule
	if schedule == "" {
		schedule = DefaultRetentionConfig().Schedule
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		cron:   cron.New(),
		logger: logger.With("component", "audit.scheduler"),
	}

	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := pruner.Prune(ctx); err != nil {
			s.logger.Error("scheduled prune failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}

	s.logger.Info("retention scheduler configured", "schedule", schedule)
	return s, nil
}

// Start begins running scheduled prunes in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for any running prune to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
