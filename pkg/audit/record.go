package audit

import (
	"context"
	"time"
)

// Record is one persisted execution summary.
type Record struct {
	// ID is the unique record identifier (UUID).
	ID string

	// SessionID identifies the session that executed.
	SessionID string

	// RuleSet is the rule set name.
	RuleSet string

	// Strategy is the execution strategy that was applied.
	Strategy string

	// FactCount is the number of facts evaluated.
	FactCount int

	// ResultCount is the number of results produced.
	ResultCount int

	// MatchedRules lists matched rule names in firing order.
	MatchedRules []string

	// RuleErrors lists rules whose evaluation failed and was isolated.
	RuleErrors []string

	// Duration is the execution wall-clock time.
	Duration time.Duration

	// StartedAt is when the execution began.
	StartedAt time.Time
}

// Storage persists execution records.
type Storage interface {
	// Write persists one record.
	Write(ctx context.Context, record *Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]*Record, error)

	// DeleteBefore removes records that started before the cutoff and
	// returns how many were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases backend resources.
	Close() error
}
