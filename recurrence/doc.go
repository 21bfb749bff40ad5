/*
Package recurrence validates, compiles and combines iCalendar-style recurrence
rules.

# Basic Usage

A RuleSpec is the raw specification a form or a YAML document supplies.
Validate reports every broken constraint at once; Compile localizes a valid
spec into a CompiledRule:

	spec := recurrence.RuleSpec{
		Frequency:     recurrence.Monthly,
		YearMonthMode: recurrence.ByDay,
		Start:         recurrence.NewDate(2024, time.January, 1),
		ByWeekday:     []string{"1MO"},
		Terminator:    recurrence.Count,
		Count:         3,
	}
	if vs := recurrence.Validate(spec); len(vs) > 0 {
		// present vs to the user
	}
	rule, err := recurrence.Compile(spec, "Europe/Paris")

# Occurrence Sets

Build combines compiled rules and explicit dates. Excluded rules and dates
are subtracted from the union of the included ones:

	source, err := recurrence.Build([]*recurrence.CompiledRule{rule}, []recurrence.RDate{
		recurrence.RDateSpec{Date: recurrence.NewDate(2024, time.February, 5), Exclude: true}.Localize(loc),
	})
	next := source.After(time.Now(), false)

Every naive date, rule start and until date is materialized at noon
(AnchorHour) before localization, so a naive exclusion date always cancels
the occurrence it names regardless of daylight-saving changes.

# Weekday Tokens

ByWeekday holds tokens in one of two grammars: bare ("MO") or ordinal
("1MO", "+2TU", "-1FR"). Classify, Decode and Encode implement the grammar;
a rule must use one grammar for all of its tokens.

# Engine

Engine wraps CompileSet with caching and logging for callers that work with
whole RecurrenceSets:

	engine := recurrence.NewEngine(recurrence.WithLogger(logger))
	occurrences, err := engine.Expand(set, from, to)
*/
package recurrence
