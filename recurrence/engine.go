package recurrence

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Engine compiles whole recurrence sets and answers range queries on them,
// reusing built occurrence sources through an optional cache.
type Engine struct {
	cache  *RecurrenceCache
	config EngineConfig
	logger *slog.Logger
}

// Option represents a configuration option for the Engine
type Option func(*Engine)

// WithLogger sets the logger for the engine
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a new recurrence engine instance with the default configuration
func NewEngine(opts ...Option) *Engine {
	return NewEngineWithConfig(DefaultEngineConfig, opts...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RuleViolations ties validation failures to a rule of a set.
type RuleViolations struct {
	Index      int
	RuleID     string
	Violations Violations
}

// SetError reports every invalid rule of a recurrence set. It matches
// ErrInvalidSpec with errors.Is.
type SetError struct {
	SetID string
	Rules []RuleViolations
}

func (e *SetError) Error() string {
	return fmt.Sprintf("%v: recurrence %q has %d invalid rule(s): %v",
		ErrInvalidSpec, e.SetID, len(e.Rules), e.Rules[0].Violations)
}

func (e *SetError) Unwrap() error {
	return ErrInvalidSpec
}

// ValidateSet checks the set's timezone and every member rule. The returned
// error is ErrInvalidTimezone, a *SetError, or nil.
func ValidateSet(set *RecurrenceSet) error {
	if _, err := set.Location(); err != nil {
		return err
	}
	var invalid []RuleViolations
	for i, rule := range set.Rules {
		if vs := Validate(rule); len(vs) > 0 {
			invalid = append(invalid, RuleViolations{Index: i, RuleID: rule.ID, Violations: vs})
		}
	}
	if len(invalid) > 0 {
		return &SetError{SetID: set.ID, Rules: invalid}
	}
	return nil
}

// CompileSet validates and compiles every member of set into one occurrence
// source.
func CompileSet(set *RecurrenceSet, opts ...BuildOption) (*OccurrenceSource, error) {
	if err := ValidateSet(set); err != nil {
		return nil, err
	}
	loc, err := set.Location()
	if err != nil {
		return nil, err
	}

	rules := make([]*CompiledRule, 0, len(set.Rules))
	for i, spec := range set.Rules {
		compiled, err := CompileIn(spec, loc)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, spec.ID, err)
		}
		rules = append(rules, compiled)
	}

	rdates := make([]RDate, 0, len(set.RDates))
	for _, d := range set.RDates {
		rdates = append(rdates, d.Localize(loc))
	}

	return Build(rules, rdates, opts...)
}

// Compile builds the occurrence source for set, consulting the cache first.
func (e *Engine) Compile(set *RecurrenceSet) (*OccurrenceSource, error) {
	if e.cache != nil {
		if source, ok := e.cache.Get(set); ok {
			e.logger.Debug("recurrence cache hit", "set_id", set.ID)
			return source, nil
		}
	}

	source, err := CompileSet(set, WithMaxResults(e.config.MaxExpansionOccurrences))
	if err != nil {
		var setErr *SetError
		if errors.As(err, &setErr) {
			e.logger.Info("recurrence set rejected",
				"set_id", set.ID,
				"invalid_rules", len(setErr.Rules))
		} else {
			e.logger.Warn("failed to compile recurrence set",
				"set_id", set.ID,
				"timezone", set.Timezone,
				"error", err)
		}
		return nil, err
	}

	if e.cache != nil {
		e.cache.Set(set, source)
	}
	e.logger.Debug("recurrence set compiled",
		"set_id", set.ID,
		"rules", len(set.Rules),
		"rdates", len(set.RDates),
		"bounded", source.Bounded())
	return source, nil
}

// HasOccurrenceInRange checks whether the set has an occurrence within
// [rangeStart, rangeEnd]. Only occurrences up to the first one at or after
// rangeStart are generated.
func (e *Engine) HasOccurrenceInRange(set *RecurrenceSet, rangeStart, rangeEnd time.Time) (bool, error) {
	if rangeEnd.Before(rangeStart) {
		return false, fmt.Errorf("recurrence: range end %s is before start %s", rangeEnd, rangeStart)
	}
	source, err := e.Compile(set)
	if err != nil {
		return false, fmt.Errorf("failed to compile recurrence: %w", err)
	}
	next, ok := source.After(rangeStart, true).Get()
	return ok && !next.After(rangeEnd), nil
}

// Expand returns the occurrences within [rangeStart, rangeEnd], truncated to
// MaxExpansionOccurrences.
func (e *Engine) Expand(set *RecurrenceSet, rangeStart, rangeEnd time.Time) ([]time.Time, error) {
	if rangeEnd.Before(rangeStart) {
		return nil, fmt.Errorf("recurrence: range end %s is before start %s", rangeEnd, rangeStart)
	}
	source, err := e.Compile(set)
	if err != nil {
		return nil, fmt.Errorf("failed to compile recurrence: %w", err)
	}

	occurrences := source.Between(rangeStart, rangeEnd, true)
	if limit := e.config.MaxExpansionOccurrences; limit > 0 && len(occurrences) >= limit {
		e.logger.Warn("recurrence expansion truncated",
			"set_id", set.ID,
			"cap", limit)
	}
	return occurrences, nil
}

// CacheStats reports the engine cache state; zero when caching is disabled.
func (e *Engine) CacheStats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.Stats()
}
