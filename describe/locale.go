package describe

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cyp0633/librecur/recurrence"
)

// MessageID keys a label or format string in a Locale.
type MessageID string

// Locale looks up translated labels. Missing ids fall back to English.
type Locale interface {
	Lookup(id MessageID) (string, bool)
}

// Catalog is a map-backed Locale.
type Catalog map[MessageID]string

func (c Catalog) Lookup(id MessageID) (string, bool) {
	s, ok := c[id]
	return s, ok
}

// Fixed message ids. Format strings use fmt verbs: MsgEvery takes the
// interval and the unit, MsgOccurrences the count, MsgDate the weekday name,
// day, month name and year; the others take one string or nothing.
const (
	MsgEvery           MessageID = "every"
	MsgIn              MessageID = "in"
	MsgOnThe           MessageID = "on_the"
	MsgEach            MessageID = "each"
	MsgEachMonth       MessageID = "each_month"
	MsgOnlyThe         MessageID = "only_the"
	MsgOnce            MessageID = "once"
	MsgOccurrences     MessageID = "occurrences"
	MsgUntil           MessageID = "until"
	MsgForever         MessageID = "forever"
	MsgAnd             MessageID = "conj.and"
	MsgOr              MessageID = "conj.or"
	MsgListSeparator   MessageID = "sep.list"
	MsgClauseSeparator MessageID = "sep.clause"
	MsgDate            MessageID = "date"
)

func shortSuffix(short bool) string {
	if short {
		return ".short"
	}
	return ""
}

// FrequencyID keys the adverb for f ("monthly").
func FrequencyID(f recurrence.Frequency) MessageID {
	return MessageID("freq." + f.String())
}

// UnitID keys the plural period noun for f ("months").
func UnitID(f recurrence.Frequency) MessageID {
	return MessageID("unit." + f.String())
}

// MonthID keys the name of month m.
func MonthID(m time.Month, short bool) MessageID {
	return MessageID(fmt.Sprintf("month.%d%s", int(m), shortSuffix(short)))
}

// WeekdayID keys the name of d.
func WeekdayID(d recurrence.Weekday, short bool) MessageID {
	return MessageID(fmt.Sprintf("weekday.%d%s", int(d), shortSuffix(short)))
}

// PositionID keys the "nth weekday" format for ordinal n, taking the weekday name.
func PositionID(n int, short bool) MessageID {
	return MessageID(fmt.Sprintf("position.%d%s", n, shortSuffix(short)))
}

// SetPosID keys the label of bySetPos value n.
func SetPosID(n int, short bool) MessageID {
	return MessageID(fmt.Sprintf("setpos.%d%s", n, shortSuffix(short)))
}

// MonthDayID keys the label of month day n; negative n counts from month end.
func MonthDayID(n int, short bool) MessageID {
	return MessageID(fmt.Sprintf("monthday.%d%s", n, shortSuffix(short)))
}

// English is the built-in catalog and the fallback for every other Locale.
var English = newEnglish()

func newEnglish() Catalog {
	c := Catalog{
		MsgEvery:           "every %d %s",
		MsgIn:              "in %s",
		MsgOnThe:           "on the %s",
		MsgEach:            "each %s",
		MsgEachMonth:       "each month",
		MsgOnlyThe:         "only the %s instance",
		MsgOnce:            "for once",
		MsgOccurrences:     "for %d occurrences",
		MsgUntil:           "until the %s",
		MsgForever:         "forever",
		MsgAnd:             "and",
		MsgOr:              "or",
		MsgListSeparator:   ", ",
		MsgClauseSeparator: ", ",
		MsgDate:            "%[1]s %02[2]d %[3]s %[4]d",
	}

	adverbs := map[recurrence.Frequency][2]string{
		recurrence.Yearly:  {"annually", "years"},
		recurrence.Monthly: {"monthly", "months"},
		recurrence.Weekly:  {"weekly", "weeks"},
		recurrence.Daily:   {"daily", "days"},
	}
	for f, words := range adverbs {
		c[FrequencyID(f)] = words[0]
		c[UnitID(f)] = words[1]
	}

	for m := time.January; m <= time.December; m++ {
		c[MonthID(m, false)] = m.String()
		c[MonthID(m, true)] = m.String()[:3]
	}
	for d := recurrence.Monday; d <= recurrence.Sunday; d++ {
		name := time.Weekday((int(d) + 1) % 7).String()
		c[WeekdayID(d, false)] = name
		c[WeekdayID(d, true)] = name[:3]
	}

	positions := map[int][2]string{
		1:  {"first", "1st"},
		2:  {"second", "2nd"},
		3:  {"third", "3rd"},
		4:  {"fourth", "4th"},
		-1: {"last", "last"},
		-2: {"second last", "2nd last"},
		-3: {"third last", "3rd last"},
	}
	for n, words := range positions {
		c[PositionID(n, false)] = words[0] + " %s"
		c[PositionID(n, true)] = words[1] + " %s"
		c[SetPosID(n, false)] = words[0]
		c[SetPosID(n, true)] = words[1]
	}

	for n := 1; n <= 31; n++ {
		c[MonthDayID(n, false)] = ordinalSuffix(n)
		c[MonthDayID(n, true)] = ordinalSuffix(n)
	}
	lastDays := map[int][2]string{
		-1: {"last day", "last day"},
		-2: {"second last day", "2nd last day"},
		-3: {"third last day", "3rd last day"},
		-4: {"fourth last day", "4th last day"},
	}
	for n, words := range lastDays {
		c[MonthDayID(n, false)] = words[0]
		c[MonthDayID(n, true)] = words[1]
	}
	return c
}

// ordinalSuffix renders n as "1st", "2nd", "11th", "23rd".
func ordinalSuffix(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
