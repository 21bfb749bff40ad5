package recurrence

import (
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
)

// RDate is a localized explicit date added to or removed from a set.
type RDate struct {
	At      time.Time
	Exclude bool
}

// OccurrenceSource is the union of the included rules and rdates minus the
// union of the excluded ones. Occurrences are generated lazily, so queries on
// unbounded rules stop as soon as they are answered. It is immutable.
type OccurrenceSource struct {
	include    []*CompiledRule
	exclude    []*CompiledRule
	rdates     []time.Time
	exdates    []time.Time
	maxResults int
}

// BuildOption configures an OccurrenceSource.
type BuildOption func(*OccurrenceSource)

// WithMaxResults caps the number of instants Between returns. Zero means no cap.
func WithMaxResults(n int) BuildOption {
	return func(s *OccurrenceSource) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// Build combines compiled rules and rdates into one occurrence source. It fails
// if any rule was not produced by Compile or any rdate has no instant.
func Build(rules []*CompiledRule, rdates []RDate, opts ...BuildOption) (*OccurrenceSource, error) {
	s := &OccurrenceSource{}
	for i, r := range rules {
		if r == nil || r.rule == nil {
			return nil, fmt.Errorf("%w: rule %d was not compiled", ErrInvalidSpec, i)
		}
		if r.exclude {
			s.exclude = append(s.exclude, r)
		} else {
			s.include = append(s.include, r)
		}
	}
	for i, d := range rdates {
		if d.At.IsZero() {
			return nil, fmt.Errorf("%w: rdate %d has no instant", ErrInvalidSpec, i)
		}
		if d.Exclude {
			s.exdates = append(s.exdates, d.At)
		} else {
			s.rdates = append(s.rdates, d.At)
		}
	}
	s.rdates = sortInstants(s.rdates)
	s.exdates = sortInstants(s.exdates)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Bounded reports whether the source yields a finite number of occurrences.
func (s *OccurrenceSource) Bounded() bool {
	for _, r := range s.include {
		if !r.Bounded() {
			return false
		}
	}
	return true
}

// All yields every occurrence in chronological order, without duplicates.
func (s *OccurrenceSource) All() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		include := make([]*cursor, 0, len(s.include)+1)
		for _, r := range s.include {
			include = append(include, newCursor(r.iterator()))
		}
		include = append(include, newCursor(sliceIterator(s.rdates)))

		exclude := make([]*cursor, 0, len(s.exclude)+1)
		for _, r := range s.exclude {
			exclude = append(exclude, newCursor(r.iterator()))
		}
		exclude = append(exclude, newCursor(sliceIterator(s.exdates)))

		for {
			var earliest *cursor
			for _, c := range include {
				if c.ok && (earliest == nil || c.value.Before(earliest.value)) {
					earliest = c
				}
			}
			if earliest == nil {
				return
			}
			current := earliest.value
			for _, c := range include {
				for c.ok && !c.value.After(current) {
					c.advance()
				}
			}
			if excluded(exclude, current) {
				continue
			}
			if !yield(current) {
				return
			}
		}
	}
}

// Before returns the latest occurrence before t, or at t when inc is true.
// It scans forward from the earliest occurrence.
func (s *OccurrenceSource) Before(t time.Time, inc bool) mo.Option[time.Time] {
	found := mo.None[time.Time]()
	for occ := range s.All() {
		if occ.After(t) || (!inc && occ.Equal(t)) {
			break
		}
		found = mo.Some(occ)
	}
	return found
}

// After returns the earliest occurrence after t, or at t when inc is true.
// It scans forward from the earliest occurrence, so rules without an end
// stop at the horizon rrule-go gives them (start plus the largest
// time.Duration, about 292 years).
func (s *OccurrenceSource) After(t time.Time, inc bool) mo.Option[time.Time] {
	for occ := range s.All() {
		if occ.After(t) || (inc && occ.Equal(t)) {
			return mo.Some(occ)
		}
	}
	return mo.None[time.Time]()
}

// Between returns the occurrences within [from, to] when inc is true, or
// strictly inside (from, to) otherwise, in chronological order.
func (s *OccurrenceSource) Between(from, to time.Time, inc bool) []time.Time {
	var out []time.Time
	for occ := range s.All() {
		if occ.After(to) || (!inc && occ.Equal(to)) {
			break
		}
		if occ.Before(from) || (!inc && occ.Equal(from)) {
			continue
		}
		out = append(out, occ)
		if s.maxResults > 0 && len(out) >= s.maxResults {
			break
		}
	}
	return out
}

// Contains reports whether t is an occurrence.
func (s *OccurrenceSource) Contains(t time.Time) bool {
	occ, ok := s.After(t, true).Get()
	return ok && occ.Equal(t)
}

// Count returns the total number of occurrences. It fails with
// ErrUnboundedCount when an included rule never ends.
func (s *OccurrenceSource) Count() (int, error) {
	for _, r := range s.include {
		if !r.Bounded() {
			return 0, fmt.Errorf("%w: rule %q has no count or until", ErrUnboundedCount, r.id)
		}
	}
	n := 0
	for range s.All() {
		n++
	}
	return n, nil
}

type cursor struct {
	next  rrule.Next
	value time.Time
	ok    bool
}

func newCursor(next rrule.Next) *cursor {
	c := &cursor{next: next}
	c.advance()
	return c
}

func (c *cursor) advance() {
	c.value, c.ok = c.next()
}

func excluded(cursors []*cursor, t time.Time) bool {
	hit := false
	for _, c := range cursors {
		for c.ok && c.value.Before(t) {
			c.advance()
		}
		if c.ok && c.value.Equal(t) {
			hit = true
		}
	}
	return hit
}

func sliceIterator(ts []time.Time) rrule.Next {
	i := 0
	return func() (time.Time, bool) {
		if i >= len(ts) {
			return time.Time{}, false
		}
		t := ts[i]
		i++
		return t, true
	}
}

func sortInstants(ts []time.Time) []time.Time {
	if len(ts) == 0 {
		return nil
	}
	slices.SortFunc(ts, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(ts, func(a, b time.Time) bool { return a.Equal(b) })
}
