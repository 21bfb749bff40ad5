// Package describe renders recurrence rules as natural-language text.
//
// All wording comes from a Locale keyed by MessageID; the renderer only
// assembles clauses. English is built in:
//
//	describe.Render(rule, false) // "monthly, on the first Monday, for 3 occurrences"
package describe

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/samber/mo"
)

// Renderer turns rules into text using a Locale.
type Renderer struct {
	locale Locale
}

// NewRenderer creates a renderer for locale. A nil locale means English.
func NewRenderer(locale Locale) *Renderer {
	if locale == nil {
		locale = English
	}
	return &Renderer{locale: locale}
}

// Render describes rule with the English catalog.
func Render(rule *recurrence.CompiledRule, short bool) string {
	return NewRenderer(English).Render(rule, short)
}

// ruleView is the subset of a rule the text depends on.
type ruleView struct {
	frequency  recurrence.Frequency
	interval   int
	byMonth    []int
	byMonthDay []int
	byWeekday  []recurrence.WeekdayOccurrence
	bySetPos   []int
	terminator recurrence.TerminatorKind
	count      int
	until      mo.Option[recurrence.Date]
}

// Render describes a compiled rule. Short abbreviates month names and
// positional phrases; weekday names are always written in full.
func (r *Renderer) Render(rule *recurrence.CompiledRule, short bool) string {
	view := ruleView{
		frequency:  rule.Frequency(),
		interval:   rule.Interval(),
		byMonth:    rule.ByMonth(),
		byMonthDay: rule.ByMonthDay(),
		byWeekday:  rule.ByWeekday(),
		bySetPos:   rule.BySetPos(),
		terminator: rule.Terminator(),
		count:      rule.CountLimit().OrElse(0),
		until:      rule.UntilDate(),
	}
	return r.render(view, short)
}

// RenderSpec describes a spec without compiling it. Only the weekday tokens
// need to be well formed.
func (r *Renderer) RenderSpec(spec recurrence.RuleSpec, short bool) (string, error) {
	weekdays, err := recurrence.DecodeAll(spec.ByWeekday)
	if err != nil {
		return "", err
	}
	view := ruleView{
		frequency:  spec.Frequency,
		interval:   spec.Interval,
		byMonth:    spec.ByMonth,
		byMonthDay: spec.ByMonthDay,
		byWeekday:  weekdays,
		bySetPos:   spec.BySetPos,
		terminator: spec.Terminator,
		count:      spec.Count,
		until:      mo.None[recurrence.Date](),
	}
	if spec.Until != nil {
		view.until = mo.Some(*spec.Until)
	}
	return r.render(view, short), nil
}

func (r *Renderer) render(v ruleView, short bool) string {
	var parts []string
	conjunction := r.text(MsgAnd)
	hasSetPos := len(v.bySetPos) > 0
	periodic := v.frequency == recurrence.Yearly || v.frequency == recurrence.Monthly

	if v.interval > 1 {
		parts = append(parts, r.format(MsgEvery, v.interval, r.text(UnitID(v.frequency))))
	} else {
		parts = append(parts, r.text(FrequencyID(v.frequency)))
	}

	if len(v.byMonth) > 0 {
		// with yearly rules bySetPos picks among all months, so they are alternatives
		if hasSetPos && v.frequency == recurrence.Yearly {
			conjunction = r.text(MsgOr)
		}
		months := make([]string, len(v.byMonth))
		for i, m := range v.byMonth {
			months[i] = r.text(MonthID(time.Month(m), short))
		}
		parts = append(parts, r.format(MsgIn, r.join(months, conjunction)))
	}

	if hasSetPos {
		conjunction = r.text(MsgOr)
	}

	if len(v.byMonthDay) > 0 && len(v.byMonth) == 0 && v.frequency == recurrence.Yearly {
		parts = append(parts, r.text(MsgEachMonth))
	}

	switch {
	case periodic && len(v.byMonthDay) > 0:
		days := make([]string, len(v.byMonthDay))
		for i, d := range v.byMonthDay {
			days[i] = r.textOr(MonthDayID(d, short), strconv.Itoa(d))
		}
		parts = append(parts, r.format(MsgOnThe, r.join(days, conjunction)))
	case periodic && len(v.byWeekday) > 0:
		days := make([]string, len(v.byWeekday))
		for i, w := range v.byWeekday {
			days[i] = r.positional(w, short)
		}
		parts = append(parts, r.format(MsgOnThe, r.join(days, conjunction)))
	case v.frequency == recurrence.Weekly && len(v.byWeekday) > 0:
		days := make([]string, len(v.byWeekday))
		for i, w := range v.byWeekday {
			days[i] = r.text(WeekdayID(w.Weekday, false))
		}
		parts = append(parts, r.format(MsgEach, r.join(days, conjunction)))
	}

	if hasSetPos {
		positions := make([]string, len(v.bySetPos))
		for i, p := range v.bySetPos {
			positions[i] = r.textOr(SetPosID(p, short), strconv.Itoa(p))
		}
		parts = append(parts, r.format(MsgOnlyThe, r.join(positions, conjunction)))
	}

	parts = append(parts, r.terminator(v, short))
	return strings.Join(parts, r.text(MsgClauseSeparator))
}

func (r *Renderer) positional(w recurrence.WeekdayOccurrence, short bool) string {
	name := r.text(WeekdayID(w.Weekday, false))
	n, ok := w.Ordinal.Get()
	if !ok {
		return name
	}
	format, ok := r.lookup(PositionID(n, short))
	if !ok {
		return name
	}
	return fmt.Sprintf(format, name)
}

func (r *Renderer) terminator(v ruleView, short bool) string {
	switch v.terminator {
	case recurrence.Count:
		if v.count == 1 {
			return r.text(MsgOnce)
		}
		return r.format(MsgOccurrences, v.count)
	case recurrence.Until:
		if d, ok := v.until.Get(); ok {
			return r.format(MsgUntil, r.date(d))
		}
	}
	return r.text(MsgForever)
}

func (r *Renderer) date(d recurrence.Date) string {
	weekday := r.text(WeekdayID(d.Weekday(), true))
	month := r.text(MonthID(d.Month, false))
	return r.format(MsgDate, weekday, d.Day, month, d.Year)
}

func (r *Renderer) join(items []string, conjunction string) string {
	return Join(items, r.text(MsgListSeparator), conjunction)
}

func (r *Renderer) lookup(id MessageID) (string, bool) {
	if s, ok := r.locale.Lookup(id); ok {
		return s, true
	}
	return English.Lookup(id)
}

func (r *Renderer) text(id MessageID) string {
	return r.textOr(id, string(id))
}

func (r *Renderer) textOr(id MessageID, fallback string) string {
	if s, ok := r.lookup(id); ok {
		return s
	}
	return fallback
}

func (r *Renderer) format(id MessageID, args ...any) string {
	return fmt.Sprintf(r.text(id), args...)
}

// Join joins items with sep, except the last item which is attached with
// " <conjunction> ". A single item is returned as is.
func Join(items []string, sep, conjunction string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], sep) + " " + conjunction + " " + items[len(items)-1]
}
