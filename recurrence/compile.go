package recurrence

import (
	"fmt"
	"iter"
	"time"

	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
)

// CompiledRule is a validated, timezone-localized rule that can produce
// occurrences. It is immutable and safe for concurrent use.
type CompiledRule struct {
	id         string
	frequency  Frequency
	start      time.Time
	interval   int
	weekStart  Weekday
	count      mo.Option[int]
	until      mo.Option[time.Time]
	untilDate  mo.Option[Date]
	byMonth    []int
	byMonthDay []int
	byWeekday  []WeekdayOccurrence
	bySetPos   []int
	exclude    bool

	option rrule.ROption
	rule   *rrule.RRule
}

// Compile validates spec and localizes it in the named timezone.
func Compile(spec RuleSpec, timezone string) (*CompiledRule, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return CompileIn(spec, loc)
}

// CompileIn is Compile with an already resolved location.
func CompileIn(spec RuleSpec, loc *time.Location) (*CompiledRule, error) {
	if loc == nil {
		return nil, fmt.Errorf("%w: nil location", ErrInvalidTimezone)
	}
	if violations := Validate(spec); len(violations) > 0 {
		return nil, &SpecError{Violations: violations}
	}

	weekdays, err := DecodeAll(spec.ByWeekday)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}

	c := &CompiledRule{
		id:         spec.ID,
		frequency:  spec.Frequency,
		start:      spec.LocalStart(loc),
		interval:   spec.interval(),
		weekStart:  spec.WeekStart,
		count:      mo.None[int](),
		until:      mo.None[time.Time](),
		untilDate:  mo.None[Date](),
		byMonth:    cloneInts(spec.ByMonth),
		byMonthDay: cloneInts(spec.ByMonthDay),
		byWeekday:  weekdays,
		bySetPos:   cloneInts(spec.BySetPos),
		exclude:    spec.Exclude,
	}

	opt := rrule.ROption{
		Freq:       spec.Frequency.rrule(),
		Dtstart:    c.start,
		Interval:   c.interval,
		Wkst:       spec.WeekStart.rrule(),
		Bymonth:    cloneInts(c.byMonth),
		Bymonthday: cloneInts(c.byMonthDay),
		Bysetpos:   cloneInts(c.bySetPos),
	}
	for _, w := range weekdays {
		opt.Byweekday = append(opt.Byweekday, w.rrule())
	}

	switch spec.Terminator {
	case Count:
		c.count = mo.Some(spec.Count)
		opt.Count = spec.Count
	case Until:
		until := spec.Until.At(loc)
		c.until = mo.Some(until)
		c.untilDate = mo.Some(*spec.Until)
		opt.Until = until
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	c.option = opt
	c.rule = rule
	return c, nil
}

// ID is the identifier of the source RuleSpec, if any.
func (c *CompiledRule) ID() string { return c.id }

func (c *CompiledRule) Frequency() Frequency { return c.frequency }

// Start is the localized first instant of the rule.
func (c *CompiledRule) Start() time.Time { return c.start }

func (c *CompiledRule) Location() *time.Location { return c.start.Location() }

func (c *CompiledRule) Interval() int { return c.interval }

func (c *CompiledRule) WeekStart() Weekday { return c.weekStart }

// CountLimit is the occurrence count the rule stops after, if any.
func (c *CompiledRule) CountLimit() mo.Option[int] { return c.count }

// Until is the inclusive last instant, if any.
func (c *CompiledRule) Until() mo.Option[time.Time] { return c.until }

// UntilDate is the naive date Until was derived from.
func (c *CompiledRule) UntilDate() mo.Option[Date] { return c.untilDate }

func (c *CompiledRule) ByMonth() []int { return cloneInts(c.byMonth) }

func (c *CompiledRule) ByMonthDay() []int { return cloneInts(c.byMonthDay) }

func (c *CompiledRule) ByWeekday() []WeekdayOccurrence {
	return append([]WeekdayOccurrence(nil), c.byWeekday...)
}

func (c *CompiledRule) BySetPos() []int { return cloneInts(c.bySetPos) }

// Exclude reports whether the rule removes occurrences instead of adding them.
func (c *CompiledRule) Exclude() bool { return c.exclude }

// Bounded reports whether the rule ends, by count or by date.
func (c *CompiledRule) Bounded() bool {
	return c.count.IsPresent() || c.until.IsPresent()
}

// Terminator reports how the rule stops.
func (c *CompiledRule) Terminator() TerminatorKind {
	switch {
	case c.count.IsPresent():
		return Count
	case c.until.IsPresent():
		return Until
	default:
		return Forever
	}
}

// Option returns a copy of the underlying rrule options.
func (c *CompiledRule) Option() rrule.ROption {
	opt := c.option
	opt.Bymonth = cloneInts(opt.Bymonth)
	opt.Bymonthday = cloneInts(opt.Bymonthday)
	opt.Bysetpos = cloneInts(opt.Bysetpos)
	opt.Byweekday = append([]rrule.Weekday(nil), opt.Byweekday...)
	return opt
}

// RRule renders the rule as an iCalendar RRULE value, without DTSTART.
func (c *CompiledRule) RRule() string {
	opt := c.Option()
	return opt.RRuleString()
}

func (c *CompiledRule) String() string {
	return c.rule.String()
}

// All yields the occurrences in chronological order. The sequence is
// unbounded for rules that never end.
func (c *CompiledRule) All() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		next := c.rule.Iterator()
		for {
			t, ok := next()
			if !ok || !yield(t) {
				return
			}
		}
	}
}

// Between returns the occurrences within [after, before], or (after, before)
// when inc is false.
func (c *CompiledRule) Between(after, before time.Time, inc bool) []time.Time {
	return c.rule.Between(after, before, inc)
}

// Before returns the last occurrence before dt.
func (c *CompiledRule) Before(dt time.Time, inc bool) mo.Option[time.Time] {
	return optionalTime(c.rule.Before(dt, inc))
}

// After returns the first occurrence after dt.
func (c *CompiledRule) After(dt time.Time, inc bool) mo.Option[time.Time] {
	return optionalTime(c.rule.After(dt, inc))
}

func (c *CompiledRule) iterator() rrule.Next {
	return c.rule.Iterator()
}

func optionalTime(t time.Time) mo.Option[time.Time] {
	if t.IsZero() {
		return mo.None[time.Time]()
	}
	return mo.Some(t)
}
