package recurrence

import (
	"strconv"
	"strings"
)

// Field names the RuleSpec field a violation is attached to. FieldNone marks
// cross-field constraints.
type Field string

const (
	FieldNone          Field = ""
	FieldYearMonthMode Field = "year_month_mode"
	FieldStart         Field = "dtstart"
	FieldInterval      Field = "interval"
	FieldByMonth       Field = "bymonth"
	FieldByMonthDay    Field = "bymonthday"
	FieldByWeekday     Field = "byweekday"
	FieldBySetPos      Field = "bysetpos"
	FieldCount         Field = "count"
	FieldUntil         Field = "until_date"
)

// Code is a stable constraint identifier that presentation layers localize.
type Code string

const (
	CodeModeRequired            Code = "mode_required"
	CodeMonthDayOrWeekday       Code = "bymonth_or_byweekday_forbidden"
	CodeUnnecessaryByMonthDay   Code = "unnecessary_bymonthday"
	CodeUnnecessaryByWeekday    Code = "unnecessary_byweekday"
	CodeDifferentFormats        Code = "different_formats"
	CodeWrongValue              Code = "wrong_value"
	CodeInvalidWeekday          Code = "invalid_weekday"
	CodeCountOrUntilForbidden   Code = "count_or_until_forbidden"
	CodeCountOrUntilUnnecessary Code = "count_or_until_unnecessary"
	CodeUntilRequired           Code = "until_required"
	CodeCountRequired           Code = "count_required"
	CodeUnnecessaryBySetPos     Code = "unnecessary_bysetpos"
	CodeStartRequired           Code = "start_required"
	CodeInvalidInterval         Code = "invalid_interval"
	CodeInvalidByMonth          Code = "invalid_bymonth"
	CodeInvalidByMonthDay       Code = "invalid_bymonthday"
	CodeBySetPosOutOfRange      Code = "bysetpos_out_of_range"
	CodeInvalidFrequency        Code = "invalid_frequency"
	CodeInvalidTerminator       Code = "invalid_terminator"
	CodeInvalidWeekStart        Code = "invalid_wkst"
)

// bySetPos bounds.
const (
	MinBySetPos = -3
	MaxBySetPos = 4
)

// Violation is one broken constraint. Value holds the offending item when the
// constraint applies per element.
type Violation struct {
	Field Field
	Code  Code
	Value string
}

func (v Violation) String() string {
	var b strings.Builder
	if v.Field != FieldNone {
		b.WriteString(string(v.Field))
		b.WriteString(": ")
	}
	b.WriteString(string(v.Code))
	if v.Value != "" {
		b.WriteString(" (")
		b.WriteString(v.Value)
		b.WriteString(")")
	}
	return b.String()
}

// Violations is the ordered result of Validate. A nil or empty list means the
// spec is valid.
type Violations []Violation

func (vs Violations) Error() string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

// Err returns vs as an error, or nil when vs is empty.
func (vs Violations) Err() error {
	if len(vs) == 0 {
		return nil
	}
	return vs
}

// Has reports whether any violation carries code.
func (vs Violations) Has(code Code) bool {
	for _, v := range vs {
		if v.Code == code {
			return true
		}
	}
	return false
}

// Codes lists the violation codes in order.
func (vs Violations) Codes() []Code {
	out := make([]Code, len(vs))
	for i, v := range vs {
		out[i] = v.Code
	}
	return out
}

// ForField returns the violations attached to f.
func (vs Violations) ForField(f Field) Violations {
	var out Violations
	for _, v := range vs {
		if v.Field == f {
			out = append(out, v)
		}
	}
	return out
}

type violationBuilder struct {
	list Violations
}

func (b *violationBuilder) add(field Field, code Code) {
	b.list = append(b.list, Violation{Field: field, Code: code})
}

func (b *violationBuilder) addValue(field Field, code Code, value string) {
	b.list = append(b.list, Violation{Field: field, Code: code, Value: value})
}

// Validate checks spec for cross-field consistency and returns every
// violation found, in a fixed order.
func Validate(spec RuleSpec) Violations {
	b := &violationBuilder{}
	freq := spec.Frequency
	hasMonthDay := len(spec.ByMonthDay) > 0
	hasWeekday := len(spec.ByWeekday) > 0

	if !freq.Valid() {
		b.add(FieldNone, CodeInvalidFrequency)
	}

	// mode presence follows the frequency
	periodic := freq == Yearly || freq == Monthly
	if periodic && spec.YearMonthMode == ModeUnset {
		b.add(FieldYearMonthMode, CodeModeRequired)
	} else if !periodic && spec.YearMonthMode != ModeUnset {
		b.add(FieldYearMonthMode, CodeModeRequired)
	}

	if hasMonthDay && hasWeekday {
		b.add(FieldNone, CodeMonthDayOrWeekday)
	}

	switch spec.YearMonthMode {
	case ByDate:
		if hasWeekday {
			b.add(FieldByWeekday, CodeModeRequired)
		}
	case ByDay:
		if hasMonthDay {
			b.add(FieldByMonthDay, CodeModeRequired)
		}
	}

	if hasMonthDay && (freq == Weekly || freq == Daily) {
		b.add(FieldByMonthDay, CodeUnnecessaryByMonthDay)
	}
	if hasWeekday && freq == Daily {
		b.add(FieldByWeekday, CodeUnnecessaryByWeekday)
	}

	if hasWeekday {
		validateWeekdays(b, spec)
	}

	if spec.Count > 0 && spec.Until != nil {
		b.add(FieldNone, CodeCountOrUntilForbidden)
	}

	switch spec.Terminator {
	case Forever:
		if spec.Count != 0 || spec.Until != nil {
			b.add(FieldNone, CodeCountOrUntilUnnecessary)
		}
	case Until:
		if spec.Until == nil || spec.Until.IsZero() {
			b.add(FieldUntil, CodeUntilRequired)
		}
	case Count:
		if spec.Count <= 0 {
			b.add(FieldCount, CodeCountRequired)
		}
	default:
		b.add(FieldNone, CodeInvalidTerminator)
	}

	if len(spec.BySetPos) > 0 && ((!hasWeekday && !hasMonthDay) || freq == Weekly) {
		b.add(FieldBySetPos, CodeUnnecessaryBySetPos)
	}

	validateRanges(b, spec)

	return b.list
}

func validateWeekdays(b *violationBuilder, spec RuleSpec) {
	forms := make([]TokenForm, len(spec.ByWeekday))
	var first TokenForm
	mixed := false
	for i, token := range spec.ByWeekday {
		form, err := Classify(token)
		if err != nil {
			continue
		}
		forms[i] = form
		if first == 0 {
			first = form
		} else if form != first {
			mixed = true
		}
	}
	if mixed {
		b.add(FieldByWeekday, CodeDifferentFormats)
	}

	for i, token := range spec.ByWeekday {
		if forms[i] == 0 {
			b.addValue(FieldByWeekday, CodeWrongValue, token)
		}
	}

	if spec.Frequency == Weekly {
		for i, token := range spec.ByWeekday {
			if forms[i] == FormOrdinal {
				b.addValue(FieldByWeekday, CodeInvalidWeekday, token)
			}
		}
	}
}

func validateRanges(b *violationBuilder, spec RuleSpec) {
	if spec.Start.IsZero() {
		b.add(FieldStart, CodeStartRequired)
	}
	if spec.Interval < 0 {
		b.addValue(FieldInterval, CodeInvalidInterval, strconv.Itoa(spec.Interval))
	}
	if !spec.WeekStart.Valid() {
		b.add(FieldNone, CodeInvalidWeekStart)
	}
	for _, m := range spec.ByMonth {
		if m < 1 || m > 12 {
			b.addValue(FieldByMonth, CodeInvalidByMonth, strconv.Itoa(m))
		}
	}
	for _, d := range spec.ByMonthDay {
		if !validMonthDay(d) {
			b.addValue(FieldByMonthDay, CodeInvalidByMonthDay, strconv.Itoa(d))
		}
	}
	for _, p := range spec.BySetPos {
		if p == 0 || p < MinBySetPos || p > MaxBySetPos {
			b.addValue(FieldBySetPos, CodeBySetPosOutOfRange, strconv.Itoa(p))
		}
	}
}

func validMonthDay(d int) bool {
	return (d >= 1 && d <= 31) || (d >= -4 && d <= -1)
}
