package engine

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"ruleworks/arbiter/pkg/rules"
	"ruleworks/arbiter/pkg/telemetry/metrics"
)

// ExecutionObserver receives a summary of every completed Execute call.
// Implementations must not block; the audit recorder, for example, hands
// the record to an async writer.
type ExecutionObserver interface {
	ObserveExecution(ctx context.Context, exec Execution)
}

// Execution summarizes one Execute call for observers.
type Execution struct {
	// SessionID identifies the session that executed.
	SessionID string

	// RuleSet is the name of the bound rule set.
	RuleSet string

	// Strategy is the execution strategy that was applied.
	Strategy rules.ExecutionStrategy

	// FactCount is the number of pending facts that were evaluated.
	FactCount int

	// ResultCount is the number of results produced.
	ResultCount int

	// MatchedRules lists the names of rules that matched, in firing order.
	MatchedRules []string

	// RuleErrors lists the names of rules whose evaluation failed and was
	// isolated.
	RuleErrors []string

	// Duration is the wall-clock time of the execution.
	Duration time.Duration

	// StartedAt is when the execution began.
	StartedAt time.Time
}

// Config configures an Engine. All fields are optional.
type Config struct {
	// Logger receives structured evaluation logs. Defaults to
	// slog.Default.
	Logger *slog.Logger

	// Metrics, when set, receives hit/miss/error/duration observations.
	Metrics *metrics.EngineMetrics

	// Observer, when set, is notified after every Execute call.
	Observer ExecutionObserver
}

// Engine administers named RuleSet registrations and opens execution
// sessions against them. It is safe for concurrent use; registered
// RuleSets are immutable snapshots, so sessions read them without locks.
type Engine struct {
	mu       sync.RWMutex
	rulesets map[string]*rules.RuleSet

	logger   *slog.Logger
	metrics  *metrics.EngineMetrics
	observer ExecutionObserver
}

// NewEngine creates an engine with no registered rule sets.
func NewEngine(cfg *Config) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		rulesets: make(map[string]*rules.RuleSet),
		logger:   logger.With("component", "engine"),
		metrics:  cfg.Metrics,
		observer: cfg.Observer,
	}
}

// RegisterRuleSet binds a rule set under the given name, atomically
// replacing any previous binding. Sessions already bound to the previous
// rule set are unaffected.
func (e *Engine) RegisterRuleSet(name string, rs *rules.RuleSet) error {
	if name == "" {
		return &ValidationError{Op: "register rule set", Message: "name cannot be empty"}
	}
	if rs == nil {
		return &ValidationError{Op: "register rule set", Message: "rule set cannot be nil"}
	}

	e.mu.Lock()
	_, replaced := e.rulesets[name]
	e.rulesets[name] = rs
	e.mu.Unlock()

	e.logger.Info("rule set registered",
		"name", name,
		"rules", rs.Len(),
		"strategy", string(rs.Strategy()),
		"replaced", replaced,
	)
	return nil
}

// DeregisterRuleSet removes a binding. Removing an absent name is a no-op.
func (e *Engine) DeregisterRuleSet(name string) {
	e.mu.Lock()
	_, present := e.rulesets[name]
	delete(e.rulesets, name)
	e.mu.Unlock()

	if present {
		e.logger.Info("rule set deregistered", "name", name)
	}
}

// Registrations returns a snapshot copy of the name-to-RuleSet mapping.
// Mutating the returned map does not affect the engine.
func (e *Engine) Registrations() map[string]*rules.RuleSet {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]*rules.RuleSet, len(e.rulesets))
	for name, rs := range e.rulesets {
		out[name] = rs
	}
	return out
}

// RegisteredNames returns a sorted snapshot of the registered names.
func (e *Engine) RegisteredNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.rulesets))
	for name := range e.rulesets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateSession opens a session bound to the rule set registered under
// name. The session holds the current RuleSet snapshot; later
// re-registrations do not affect it.
func (e *Engine) CreateSession(name string, opts *SessionOptions) (*Session, error) {
	if opts == nil {
		opts = &SessionOptions{}
	}

	e.mu.RLock()
	rs, ok := e.rulesets[name]
	e.mu.RUnlock()
	if !ok {
		return nil, &ValidationError{Op: "create session", Message: "no rule set registered under " + name}
	}

	return newSession(e, rs, opts), nil
}
