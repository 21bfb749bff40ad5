// memory based implementation for testing purposes
package memory

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/storage"
	"github.com/google/uuid"
)

// Store implements storage.Storage interface using in-memory maps. Sets are
// copied on the way in and out, so callers never share memory with the store.
type Store struct {
	mu     sync.RWMutex
	sets   map[string]*recurrence.RecurrenceSet
	logger *slog.Logger
}

// New creates a new in-memory storage
func New(opts ...Option) *Store {
	s := &Store{
		sets:   make(map[string]*recurrence.RecurrenceSet),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Option represents a configuration option for the Store
type Option func(*Store)

// WithLogger sets the logger for the store
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func notFound(message string) error {
	return &storage.Error{Type: storage.ErrNotFound, Message: message}
}

func assignIDs(set *recurrence.RecurrenceSet) {
	if set.ID == "" {
		set.ID = uuid.NewString()
	}
	for i := range set.Rules {
		if set.Rules[i].ID == "" {
			set.Rules[i].ID = uuid.NewString()
		}
	}
	for i := range set.RDates {
		if set.RDates[i].ID == "" {
			set.RDates[i].ID = uuid.NewString()
		}
	}
}

// Recurrence set operations

func (s *Store) GetRecurrence(_ context.Context, id string) (*recurrence.RecurrenceSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.sets[id]
	if !ok {
		return nil, notFound("recurrence not found")
	}
	return set.Clone(), nil
}

func (s *Store) ListRecurrences(_ context.Context) ([]*recurrence.RecurrenceSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*recurrence.RecurrenceSet, 0, len(s.sets))
	for _, set := range s.sets {
		out = append(out, set.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateRecurrence(_ context.Context, set *recurrence.RecurrenceSet) error {
	if set == nil {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "recurrence is nil"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sets[set.ID]; exists && set.ID != "" {
		s.logger.Warn("failed to create recurrence: already exists",
			"set_id", set.ID)
		return &storage.Error{Type: storage.ErrAlreadyExists, Message: "recurrence already exists"}
	}

	assignIDs(set)
	s.sets[set.ID] = set.Clone()

	s.logger.Info("recurrence created",
		"set_id", set.ID,
		"rules", len(set.Rules),
		"rdates", len(set.RDates))
	return nil
}

func (s *Store) UpdateRecurrence(_ context.Context, set *recurrence.RecurrenceSet) error {
	if set == nil || set.ID == "" {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "recurrence ID is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sets[set.ID]; !ok {
		return notFound("recurrence not found")
	}
	assignIDs(set)
	s.sets[set.ID] = set.Clone()

	s.logger.Info("recurrence updated", "set_id", set.ID)
	return nil
}

func (s *Store) DeleteRecurrence(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[id]
	if !ok {
		return notFound("recurrence not found")
	}
	// rules and rdates live inside the set, so they go with it
	delete(s.sets, id)

	s.logger.Info("recurrence deleted",
		"set_id", id,
		"rules", len(set.Rules),
		"rdates", len(set.RDates))
	return nil
}

// Member operations

func (s *Store) AddRule(_ context.Context, setID string, rule *recurrence.RuleSpec) error {
	if rule == nil {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "rule is nil"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[setID]
	if !ok {
		return notFound("recurrence not found")
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	} else if slices.ContainsFunc(set.Rules, func(r recurrence.RuleSpec) bool { return r.ID == rule.ID }) {
		return &storage.Error{Type: storage.ErrAlreadyExists, Message: "rule already exists"}
	}

	added := (&recurrence.RecurrenceSet{Rules: []recurrence.RuleSpec{*rule}}).Clone()
	set.Rules = append(set.Rules, added.Rules[0])

	s.logger.Debug("rule added", "set_id", setID, "rule_id", rule.ID)
	return nil
}

func (s *Store) DeleteRule(_ context.Context, setID, ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[setID]
	if !ok {
		return notFound("recurrence not found")
	}
	idx := slices.IndexFunc(set.Rules, func(r recurrence.RuleSpec) bool { return r.ID == ruleID })
	if idx < 0 {
		return notFound("rule not found")
	}
	set.Rules = slices.Delete(set.Rules, idx, idx+1)

	s.logger.Debug("rule deleted", "set_id", setID, "rule_id", ruleID)
	return nil
}

func (s *Store) AddRDate(_ context.Context, setID string, rdate *recurrence.RDateSpec) error {
	if rdate == nil {
		return &storage.Error{Type: storage.ErrInvalidInput, Message: "rdate is nil"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[setID]
	if !ok {
		return notFound("recurrence not found")
	}
	if rdate.ID == "" {
		rdate.ID = uuid.NewString()
	} else if slices.ContainsFunc(set.RDates, func(d recurrence.RDateSpec) bool { return d.ID == rdate.ID }) {
		return &storage.Error{Type: storage.ErrAlreadyExists, Message: "rdate already exists"}
	}
	set.RDates = append(set.RDates, *rdate)

	s.logger.Debug("rdate added", "set_id", setID, "rdate_id", rdate.ID)
	return nil
}

func (s *Store) DeleteRDate(_ context.Context, setID, rdateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[setID]
	if !ok {
		return notFound("recurrence not found")
	}
	idx := slices.IndexFunc(set.RDates, func(d recurrence.RDateSpec) bool { return d.ID == rdateID })
	if idx < 0 {
		return notFound("rdate not found")
	}
	set.RDates = slices.Delete(set.RDates, idx, idx+1)

	s.logger.Debug("rdate deleted", "set_id", setID, "rdate_id", rdateID)
	return nil
}

var _ storage.Storage = (*Store)(nil)
