package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// AnchorHour is the wall-clock hour every naive date is materialized at before
// localization. Rules and rdates share it so that exclusion matching is not
// shifted by daylight-saving offsets on only some dates.
const AnchorHour = 12

// Frequency is the period a rule repeats over.
type Frequency int

const (
	Yearly Frequency = iota
	Monthly
	Weekly
	Daily
)

var frequencyNames = [...]string{"YEARLY", "MONTHLY", "WEEKLY", "DAILY"}

func (f Frequency) String() string {
	if f < Yearly || f > Daily {
		return fmt.Sprintf("Frequency(%d)", int(f))
	}
	return frequencyNames[f]
}

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	return f >= Yearly && f <= Daily
}

func (f Frequency) rrule() rrule.Frequency {
	switch f {
	case Yearly:
		return rrule.YEARLY
	case Monthly:
		return rrule.MONTHLY
	case Weekly:
		return rrule.WEEKLY
	default:
		return rrule.DAILY
	}
}

func (f Frequency) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("recurrence: unknown frequency %d", int(f))
	}
	return []byte(strings.ToLower(frequencyNames[f])), nil
}

func (f *Frequency) UnmarshalText(text []byte) error {
	s := strings.ToUpper(strings.TrimSpace(string(text)))
	for i, name := range frequencyNames {
		if s == name {
			*f = Frequency(i)
			return nil
		}
	}
	return fmt.Errorf("recurrence: unknown frequency %q", string(text))
}

// YearMonthMode selects how a yearly or monthly rule picks its days.
type YearMonthMode int

const (
	// ModeUnset is the zero value and is the only legal value for weekly and
	// daily rules.
	ModeUnset YearMonthMode = iota
	// ByDate picks days through ByMonthDay.
	ByDate
	// ByDay picks days through ByWeekday.
	ByDay
)

func (m YearMonthMode) String() string {
	switch m {
	case ModeUnset:
		return "unset"
	case ByDate:
		return "by_date"
	case ByDay:
		return "by_day"
	default:
		return fmt.Sprintf("YearMonthMode(%d)", int(m))
	}
}

func (m YearMonthMode) MarshalText() ([]byte, error) {
	if m < ModeUnset || m > ByDay {
		return nil, fmt.Errorf("recurrence: unknown year/month mode %d", int(m))
	}
	if m == ModeUnset {
		return []byte{}, nil
	}
	return []byte(m.String()), nil
}

func (m *YearMonthMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "unset":
		*m = ModeUnset
	case "by_date", "bydate", "date":
		*m = ByDate
	case "by_day", "byday", "day":
		*m = ByDay
	default:
		return fmt.Errorf("recurrence: unknown year/month mode %q", string(text))
	}
	return nil
}

// Weekday is a day of the week indexed from Monday (0) to Sunday (6).
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayCodes = [...]string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

// Valid reports whether d is within Monday..Sunday.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// Code returns the two-letter iCalendar code, e.g. "MO".
func (d Weekday) Code() string {
	if !d.Valid() {
		return ""
	}
	return weekdayCodes[d]
}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayCodes[d]
}

// WeekdayOf converts a time.Weekday (Sunday-based) into a Weekday.
func WeekdayOf(w time.Weekday) Weekday {
	return Weekday((int(w) + 6) % 7)
}

func (d Weekday) rrule() rrule.Weekday {
	return rruleWeekdays[d]
}

var rruleWeekdays = [...]rrule.Weekday{
	rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU,
}

func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("recurrence: unknown weekday %d", int(d))
	}
	return []byte(weekdayCodes[d]), nil
}

func (d *Weekday) UnmarshalText(text []byte) error {
	s := strings.ToUpper(strings.TrimSpace(string(text)))
	for i, code := range weekdayCodes {
		full := strings.ToUpper(time.Weekday((i + 1) % 7).String())
		if s == code || s == full {
			*d = Weekday(i)
			return nil
		}
	}
	return fmt.Errorf("recurrence: unknown weekday %q", string(text))
}

// TerminatorKind says how a rule stops.
type TerminatorKind int

const (
	Forever TerminatorKind = iota
	Until
	Count
)

func (k TerminatorKind) String() string {
	switch k {
	case Forever:
		return "forever"
	case Until:
		return "until"
	case Count:
		return "count"
	default:
		return fmt.Sprintf("TerminatorKind(%d)", int(k))
	}
}

func (k TerminatorKind) MarshalText() ([]byte, error) {
	if k < Forever || k > Count {
		return nil, fmt.Errorf("recurrence: unknown terminator %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *TerminatorKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "forever":
		*k = Forever
	case "until":
		*k = Until
	case "count":
		*k = Count
	default:
		return fmt.Errorf("recurrence: unknown terminator %q", string(text))
	}
	return nil
}

// Date is a calendar date with no time of day and no timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// NewDate returns the date y-m-d. The fields are not normalized.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("recurrence: invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// At combines d with the anchor time of day in loc.
func (d Date) At(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, AnchorHour, 0, 0, 0, loc)
}

// Weekday returns the day of the week d falls on.
func (d Date) Weekday() Weekday {
	return WeekdayOf(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday())
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// RuleSpec is the raw, possibly inconsistent recurrence specification a
// presentation layer collects. Validate it before compiling.
type RuleSpec struct {
	ID            string         `yaml:"id,omitempty"`
	Frequency     Frequency      `yaml:"freq"`
	YearMonthMode YearMonthMode  `yaml:"mode,omitempty"`
	Start         Date           `yaml:"start"`
	Interval      int            `yaml:"interval,omitempty"` // 0 means 1
	WeekStart     Weekday        `yaml:"wkst,omitempty"`
	ByMonth       []int          `yaml:"bymonth,omitempty"`
	ByMonthDay    []int          `yaml:"bymonthday,omitempty"`
	ByWeekday     []string       `yaml:"byweekday,omitempty"`
	BySetPos      []int          `yaml:"bysetpos,omitempty"`
	Terminator    TerminatorKind `yaml:"terminator,omitempty"`
	Count         int            `yaml:"count,omitempty"`
	Until         *Date          `yaml:"until,omitempty"`
	Exclude       bool           `yaml:"exclude,omitempty"`
}

// LocalStart returns the start instant of the rule in loc.
func (r RuleSpec) LocalStart(loc *time.Location) time.Time {
	return r.Start.At(loc)
}

func (r RuleSpec) interval() int {
	if r.Interval == 0 {
		return 1
	}
	return r.Interval
}

func (r RuleSpec) clone() RuleSpec {
	c := r
	c.ByMonth = cloneInts(r.ByMonth)
	c.ByMonthDay = cloneInts(r.ByMonthDay)
	c.BySetPos = cloneInts(r.BySetPos)
	if r.ByWeekday != nil {
		c.ByWeekday = append([]string(nil), r.ByWeekday...)
	}
	if r.Until != nil {
		u := *r.Until
		c.Until = &u
	}
	return c
}

// RDateSpec injects or removes a single date.
type RDateSpec struct {
	ID      string `yaml:"id,omitempty"`
	Date    Date   `yaml:"date"`
	Exclude bool   `yaml:"exclude,omitempty"`
}

// Localize materializes the date at the anchor time in loc.
func (r RDateSpec) Localize(loc *time.Location) RDate {
	return RDate{At: r.Date.At(loc), Exclude: r.Exclude}
}

func (r RDateSpec) String() string {
	t := time.Date(r.Date.Year, r.Date.Month, r.Date.Day, 0, 0, 0, 0, time.UTC)
	action := "included in rule"
	if r.Exclude {
		action = "excluded from rule"
	}
	return fmt.Sprintf("date: %s %s", t.Format("Mon 02 January 2006"), action)
}

// RecurrenceSet owns a group of rules and rdates interpreted in one timezone.
type RecurrenceSet struct {
	ID       string      `yaml:"id,omitempty"`
	Timezone string      `yaml:"timezone"`
	Rules    []RuleSpec  `yaml:"rules,omitempty"`
	RDates   []RDateSpec `yaml:"rdates,omitempty"`
}

// Location resolves the set's timezone.
func (s *RecurrenceSet) Location() (*time.Location, error) {
	return LoadLocation(s.Timezone)
}

// Clone returns a deep copy of s.
func (s *RecurrenceSet) Clone() *RecurrenceSet {
	c := &RecurrenceSet{ID: s.ID, Timezone: s.Timezone}
	if s.Rules != nil {
		c.Rules = make([]RuleSpec, len(s.Rules))
		for i, r := range s.Rules {
			c.Rules[i] = r.clone()
		}
	}
	if s.RDates != nil {
		c.RDates = append([]RDateSpec(nil), s.RDates...)
	}
	return c
}

func (s *RecurrenceSet) String() string {
	return fmt.Sprintf("recurrence #%s timezone: %s rules: %d rdates: %d",
		s.ID, s.Timezone, len(s.Rules), len(s.RDates))
}

// LoadLocation resolves an IANA timezone name. The empty name and "Local" are
// rejected since they do not identify a zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, name, err)
	}
	return loc, nil
}

func cloneInts(in []int) []int {
	if in == nil {
		return nil
	}
	return append([]int(nil), in...)
}
