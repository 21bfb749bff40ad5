package recurrence

import (
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"
)

// ProductID is written as PRODID on exported calendars.
const ProductID = "-//cyp0633//librecur//EN"

// propExceptionRule is the RFC 2445 EXRULE property, dropped from RFC 5545 but
// still understood by most consumers.
const propExceptionRule = "EXRULE"

// ToCalendar exports set as a VCALENDAR. Each included rule becomes a VEVENT
// with its own DTSTART and RRULE; included rdates are collected in one more
// VEVENT. Exclusion rules and dates are attached to every event as EXRULE and
// EXDATE, so an exclusion rule is evaluated against each event's DTSTART.
func ToCalendar(set *RecurrenceSet, stamp time.Time) (*ical.Calendar, error) {
	if err := ValidateSet(set); err != nil {
		return nil, err
	}
	loc, err := set.Location()
	if err != nil {
		return nil, err
	}

	var include, exclude []*CompiledRule
	for i, spec := range set.Rules {
		compiled, err := CompileIn(spec, loc)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, spec.ID, err)
		}
		if compiled.Exclude() {
			exclude = append(exclude, compiled)
		} else {
			include = append(include, compiled)
		}
	}
	var rdates, exdates []time.Time
	for _, d := range set.RDates {
		localized := d.Localize(loc)
		if localized.Exclude {
			exdates = append(exdates, localized.At)
		} else {
			rdates = append(rdates, localized.At)
		}
	}
	rdates = sortInstants(rdates)
	exdates = sortInstants(exdates)

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	newEvent := func(uid string, start time.Time) *ical.Event {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, uid)
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, start)
		for _, r := range exclude {
			addTextProp(event.Props, propExceptionRule, r.RRule())
		}
		for _, t := range exdates {
			addDateTimeProp(event.Props, ical.PropExceptionDates, t)
		}
		return event
	}

	for i, r := range include {
		event := newEvent(eventUID(set.ID, r.ID(), i), r.Start())
		addTextProp(event.Props, ical.PropRecurrenceRule, r.RRule())
		cal.Children = append(cal.Children, event.Component)
	}
	if len(rdates) > 0 {
		event := newEvent(eventUID(set.ID, "rdates", len(include)), rdates[0])
		for _, t := range rdates[1:] {
			addDateTimeProp(event.Props, ical.PropRecurrenceDates, t)
		}
		cal.Children = append(cal.Children, event.Component)
	}

	if len(cal.Children) == 0 {
		return nil, fmt.Errorf("recurrence: set %q has no included rule or date to export", set.ID)
	}
	return cal, nil
}

func eventUID(setID, memberID string, index int) string {
	if setID == "" {
		setID = "recurrence"
	}
	if memberID == "" {
		memberID = fmt.Sprintf("rule-%d", index)
	}
	return setID + "-" + memberID
}

func addTextProp(props ical.Props, name, value string) {
	prop := ical.NewProp(name)
	prop.Value = value
	props.Add(prop)
}

func addDateTimeProp(props ical.Props, name string, t time.Time) {
	prop := ical.NewProp(name)
	prop.SetDateTime(t)
	props.Add(prop)
}

// RuleSpecFromComponent reads DTSTART and RRULE from comp and converts them
// into a validated RuleSpec. loc is used for floating DTSTART values.
func RuleSpecFromComponent(comp *ical.Component, loc *time.Location) (RuleSpec, error) {
	start, err := comp.Props.DateTime(ical.PropDateTimeStart, loc)
	if err != nil {
		return RuleSpec{}, fmt.Errorf("%w: failed to read DTSTART: %v", ErrInvalidSpec, err)
	}
	if start.IsZero() {
		return RuleSpec{}, fmt.Errorf("%w: component has no DTSTART", ErrInvalidSpec)
	}

	prop := comp.Props.Get(ical.PropRecurrenceRule)
	if prop == nil || prop.Value == "" {
		return RuleSpec{}, fmt.Errorf("%w: component has no RRULE", ErrInvalidSpec)
	}
	opt, err := rrule.StrToROption(prop.Value)
	if err != nil {
		return RuleSpec{}, fmt.Errorf("%w: failed to parse RRULE %q: %v", ErrInvalidSpec, prop.Value, err)
	}

	spec, err := RuleSpecFromOption(opt, start)
	if err != nil {
		return RuleSpec{}, err
	}
	if uid := comp.Props.Get(ical.PropUID); uid != nil {
		spec.ID = uid.Value
	}
	return spec, nil
}

// RuleSpecFromOption converts parsed rrule options into a RuleSpec starting on
// the calendar date of start. Options this model cannot express are rejected.
func RuleSpecFromOption(opt *rrule.ROption, start time.Time) (RuleSpec, error) {
	if len(opt.Byyearday) > 0 || len(opt.Byweekno) > 0 || len(opt.Byhour) > 0 ||
		len(opt.Byminute) > 0 || len(opt.Bysecond) > 0 || len(opt.Byeaster) > 0 {
		return RuleSpec{}, fmt.Errorf("%w: unsupported BY* parts in %s", ErrInvalidSpec, opt.RRuleString())
	}

	spec := RuleSpec{
		Start:      DateOf(start),
		Interval:   opt.Interval,
		ByMonth:    cloneInts(opt.Bymonth),
		ByMonthDay: cloneInts(opt.Bymonthday),
		BySetPos:   cloneInts(opt.Bysetpos),
	}

	switch opt.Freq {
	case rrule.YEARLY:
		spec.Frequency = Yearly
	case rrule.MONTHLY:
		spec.Frequency = Monthly
	case rrule.WEEKLY:
		spec.Frequency = Weekly
	case rrule.DAILY:
		spec.Frequency = Daily
	default:
		return RuleSpec{}, fmt.Errorf("%w: unsupported frequency %v", ErrInvalidSpec, opt.Freq)
	}

	wkst, _, err := Decode(opt.Wkst.String())
	if err != nil {
		return RuleSpec{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	spec.WeekStart = wkst

	for _, w := range opt.Byweekday {
		day, ordinal, err := Decode(w.String())
		if err != nil {
			return RuleSpec{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
		}
		token, err := Encode(day, ordinal)
		if err != nil {
			return RuleSpec{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
		}
		spec.ByWeekday = append(spec.ByWeekday, token)
	}

	if spec.Frequency == Yearly || spec.Frequency == Monthly {
		if len(spec.ByWeekday) > 0 {
			spec.YearMonthMode = ByDay
		} else {
			spec.YearMonthMode = ByDate
		}
	}

	switch {
	case opt.Count > 0:
		spec.Terminator = Count
		spec.Count = opt.Count
	case !opt.Until.IsZero():
		until := DateOf(opt.Until.In(start.Location()))
		spec.Terminator = Until
		spec.Until = &until
	}

	if vs := Validate(spec); len(vs) > 0 {
		return RuleSpec{}, &SpecError{Violations: vs}
	}
	return spec, nil
}
