package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ruleworks/arbiter/pkg/rules"
)

// SessionOptions configures session creation. It is a struct rather than
// bare parameters so future options do not change the signature.
type SessionOptions struct {
	// Stateless sessions clear the pending-fact buffer at the end of
	// every Execute call. Stateful sessions retain facts until Reset or
	// Close.
	Stateless bool
}

// Session is an execution context bound to one RuleSet snapshot. It is a
// single-owner, sequential-use object: one goroutine drives AddFacts,
// Execute, Reset, and Close. Independent sessions never interfere.
type Session struct {
	id        string
	ruleset   *rules.RuleSet
	facts     []rules.Fact
	results   []any
	stateless bool
	closed    bool

	logger   *slog.Logger
	engine   *Engine
	openedAt time.Time
}

func newSession(e *Engine, rs *rules.RuleSet, opts *SessionOptions) *Session {
	s := &Session{
		id:        uuid.NewString(),
		ruleset:   rs,
		stateless: opts.Stateless,
		engine:    e,
		openedAt:  time.Now(),
	}
	s.logger = e.logger.With("session_id", s.id, "ruleset", rs.Name())

	if e.metrics != nil {
		e.metrics.SessionOpened()
	}

	s.logger.Debug("session created",
		"stateless", opts.Stateless,
		"rules", rs.Len(),
	)
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// RuleSet returns the RuleSet snapshot this session is bound to.
func (s *Session) RuleSet() *rules.RuleSet {
	return s.ruleset
}

// Stateless reports whether the session clears facts after each Execute.
func (s *Session) Stateless() bool {
	return s.stateless
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool {
	return s.closed
}

// PendingFacts returns the number of facts waiting for the next Execute.
func (s *Session) PendingFacts() int {
	return len(s.facts)
}

// AddFacts appends facts to the pending buffer. Order is preserved and
// duplicates are allowed.
func (s *Session) AddFacts(facts []rules.Fact) error {
	if s.closed {
		return &SessionClosedError{Op: "add facts", SessionID: s.id}
	}
	s.facts = append(s.facts, facts...)
	return nil
}

// Execute evaluates every pending fact against the bound rule set and
// returns the accumulated results.
//
// For each fact in arrival order, rules are scanned in priority-descending
// order (stable for equal priorities). A true condition fires the rule's
// action; non-nil action results are appended. Under FIRST_MATCH the scan
// stops at the first matching rule per fact. A condition or action error
// is logged with the rule name and skipped; one rule's failure never
// aborts the fact or the batch.
//
// The results buffer is reset at the start of each call, so results do not
// accumulate across calls. The returned slice is a copy. Stateless
// sessions clear the pending-fact buffer before returning.
//
// Context cancellation is checked between facts and aborts with ctx.Err().
func (s *Session) Execute(ctx context.Context) ([]any, error) {
	if s.closed {
		return nil, &SessionClosedError{Op: "execute", SessionID: s.id}
	}

	started := time.Now()
	strategy := s.ruleset.Strategy()
	ruleList := s.ruleset.Rules()
	s.results = s.results[:0]

	var matched, failed []string

	for _, fact := range s.facts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for _, rule := range ruleList {
			ok, err := rule.Condition(fact)
			if err != nil {
				s.isolateRuleError(rule.Name, "condition", err)
				failed = append(failed, rule.Name)
				continue
			}
			if !ok {
				if s.engine.metrics != nil {
					s.engine.metrics.RecordMiss(s.ruleset.Name(), rule.Name)
				}
				continue
			}

			if s.engine.metrics != nil {
				s.engine.metrics.RecordHit(s.ruleset.Name(), rule.Name)
			}

			result, err := rule.Action(fact)
			if err != nil {
				s.isolateRuleError(rule.Name, "action", err)
				failed = append(failed, rule.Name)
				continue
			}
			matched = append(matched, rule.Name)
			if result != nil {
				s.results = append(s.results, result)
			}
			if strategy == rules.FirstMatch {
				break
			}
		}
	}

	results := make([]any, len(s.results))
	copy(results, s.results)

	factCount := len(s.facts)
	if s.stateless {
		s.facts = s.facts[:0]
	}

	duration := time.Since(started)
	if s.engine.metrics != nil {
		s.engine.metrics.RecordExecution(s.ruleset.Name(), string(strategy), duration)
	}
	if s.engine.observer != nil {
		s.engine.observer.ObserveExecution(ctx, Execution{
			SessionID:    s.id,
			RuleSet:      s.ruleset.Name(),
			Strategy:     strategy,
			FactCount:    factCount,
			ResultCount:  len(results),
			MatchedRules: matched,
			RuleErrors:   failed,
			Duration:     duration,
			StartedAt:    started,
		})
	}

	s.logger.Debug("execution finished",
		"facts", factCount,
		"results", len(results),
		"duration", duration,
	)

	return results, nil
}

// Reset clears the pending-fact and result buffers without closing the
// session.
func (s *Session) Reset() error {
	if s.closed {
		return &SessionClosedError{Op: "reset", SessionID: s.id}
	}
	s.facts = nil
	s.results = nil
	return nil
}

// Close clears both buffers and marks the session closed. Closing an
// already-closed session is a no-op.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.facts = nil
	s.results = nil
	s.closed = true

	if s.engine.metrics != nil {
		s.engine.metrics.SessionClosed()
	}
	s.logger.Debug("session closed", "lifetime", time.Since(s.openedAt))
}

func (s *Session) isolateRuleError(ruleName, phase string, err error) {
	s.logger.Warn("rule evaluation failed, continuing with next rule",
		"rule", ruleName,
		"phase", phase,
		"error", err,
	)
	if s.engine.metrics != nil {
		s.engine.metrics.RecordRuleError(s.ruleset.Name(), ruleName)
	}
}
