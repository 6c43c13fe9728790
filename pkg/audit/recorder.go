package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ruleworks/arbiter/pkg/engine"
)

// RecorderConfig configures the async Recorder.
type RecorderConfig struct {
	// BufferSize is the capacity of the write queue. When the queue is
	// full, new records are dropped rather than blocking the evaluation
	// path. Default: 1000.
	BufferSize int

	// WriteTimeout bounds each storage write. Default: 5s.
	WriteTimeout time.Duration
}

// DefaultRecorderConfig returns the default recorder configuration.
func DefaultRecorderConfig() *RecorderConfig {
	return &RecorderConfig{
		BufferSize:   1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder persists execution summaries asynchronously. It implements
// engine.ExecutionObserver: ObserveExecution enqueues and returns
// immediately; a background worker drains the queue into Storage.
type Recorder struct {
	storage Storage
	logger  *slog.Logger

	queue        chan *Record
	writeTimeout time.Duration
	dropped      atomic.Int64

	closeOnce sync.Once
	done      chan struct{}
}

// NewRecorder starts a recorder writing to the given storage.
func NewRecorder(storage Storage, config *RecorderConfig, logger *slog.Logger) *Recorder {
	if config == nil {
		config = DefaultRecorderConfig()
	}
	bufferSize := config.BufferSize
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	writeTimeout := config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		storage:      storage,
		logger:       logger.With("component", "audit.recorder"),
		queue:        make(chan *Record, bufferSize),
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
	go r.run()
	return r
}

// ObserveExecution converts the execution summary into a Record and
// enqueues it. Never blocks: if the queue is full the record is dropped
// and counted.
func (r *Recorder) ObserveExecution(ctx context.Context, exec engine.Execution) {
	record := &Record{
		ID:           uuid.NewString(),
		SessionID:    exec.SessionID,
		RuleSet:      exec.RuleSet,
		Strategy:     string(exec.Strategy),
		FactCount:    exec.FactCount,
		ResultCount:  exec.ResultCount,
		MatchedRules: exec.MatchedRules,
		RuleErrors:   exec.RuleErrors,
		Duration:     exec.Duration,
		StartedAt:    exec.StartedAt,
	}

	select {
	case r.queue <- record:
	default:
		dropped := r.dropped.Add(1)
		if dropped == 1 || dropped%100 == 0 {
			r.logger.Warn("audit queue full, dropping records",
				"dropped_total", dropped,
			)
		}
	}
}

// Dropped returns how many records have been dropped because the queue
// was full.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close drains the queue, stops the worker, and closes the storage.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.queue)
		<-r.done
	})
	return r.storage.Close()
}

func (r *Recorder) run() {
	defer close(r.done)

	for record := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		err := r.storage.Write(ctx, record)
		cancel()
		if err != nil {
			r.logger.Error("failed to write audit record",
				"record_id", record.ID,
				"ruleset", record.RuleSet,
				"error", err,
			)
		}
	}
}
