package recurrence

import (
	"iter"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func take(seq iter.Seq[time.Time], n int) []time.Time {
	var out []time.Time
	for t := range seq {
		if len(out) == n {
			break
		}
		out = append(out, t)
	}
	return out
}

func mustCompile(t *testing.T, spec RuleSpec) *CompiledRule {
	t.Helper()
	rule, err := Compile(spec, "UTC")
	require.NoError(t, err)
	return rule
}

func fiveDays() RuleSpec {
	return RuleSpec{
		Frequency:  Daily,
		Start:      NewDate(2024, time.January, 1),
		Terminator: Count,
		Count:      5,
	}
}

func noon(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, AnchorHour, 0, 0, 0, time.UTC)
}

func TestBuild_BiweeklyForever(t *testing.T) {
	rule := mustCompile(t, RuleSpec{
		Frequency: Weekly,
		Start:     NewDate(2024, time.January, 1),
		Interval:  2,
		ByWeekday: []string{"MO", "WE"},
	})

	source, err := Build([]*CompiledRule{rule}, nil)
	require.NoError(t, err)
	assert.False(t, source.Bounded())

	assert.Equal(t, []string{
		"2024-01-01T12:00:00Z",
		"2024-01-03T12:00:00Z",
		"2024-01-15T12:00:00Z",
		"2024-01-17T12:00:00Z",
	}, stamps(take(source.All(), 4)))

	next, ok := source.After(noon(time.March, 1), false).Get()
	require.True(t, ok)
	assert.Equal(t, "2024-03-11T12:00:00Z", next.Format(time.RFC3339))

	_, err = source.Count()
	assert.ErrorIs(t, err, ErrUnboundedCount)
}

func TestBuild_LastWeekdayOfMonth(t *testing.T) {
	rule := mustCompile(t, RuleSpec{
		Frequency:     Monthly,
		YearMonthMode: ByDay,
		Start:         NewDate(2024, time.January, 1),
		ByWeekday:     []string{"MO", "TU", "WE", "TH", "FR"},
		BySetPos:      []int{-1},
	})

	source, err := Build([]*CompiledRule{rule}, nil)
	require.NoError(t, err)

	january := source.Between(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
		true,
	)
	assert.Equal(t, []string{"2024-01-31T12:00:00Z"}, stamps(january))
}

func TestBuild_ExcludedRDate(t *testing.T) {
	rule := mustCompile(t, fiveDays())
	exdate := RDateSpec{Date: NewDate(2024, time.January, 3), Exclude: true}.Localize(time.UTC)

	source, err := Build([]*CompiledRule{rule}, []RDate{exdate})
	require.NoError(t, err)

	got := slices.Collect(source.All())
	assert.Equal(t, []string{
		"2024-01-01T12:00:00Z",
		"2024-01-02T12:00:00Z",
		"2024-01-04T12:00:00Z",
		"2024-01-05T12:00:00Z",
	}, stamps(got))
	assert.False(t, source.Contains(noon(time.January, 3)))
	assert.True(t, source.Contains(noon(time.January, 4)))

	count, err := source.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestBuild_ExcludedRDateAcrossDaylightSaving(t *testing.T) {
	spec := RuleSpec{
		Frequency:  Daily,
		Start:      NewDate(2024, time.March, 8),
		Terminator: Count,
		Count:      5,
	}
	rule, err := Compile(spec, "America/New_York")
	require.NoError(t, err)

	ny := rule.Location()
	// March 11 is the first full day of EDT
	exdate := RDateSpec{Date: NewDate(2024, time.March, 11), Exclude: true}.Localize(ny)

	source, err := Build([]*CompiledRule{rule}, []RDate{exdate})
	require.NoError(t, err)

	count, err := source.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	got := slices.Collect(source.All())
	assert.Equal(t, []string{
		"2024-03-08T12:00:00-05:00",
		"2024-03-09T12:00:00-05:00",
		"2024-03-10T12:00:00-04:00",
		"2024-03-12T12:00:00-04:00",
	}, stamps(got))
	assert.False(t, source.Contains(exdate.At))
	assert.True(t, source.Contains(time.Date(2024, 3, 10, AnchorHour, 0, 0, 0, ny)))
}

func TestBuild_IncludedRDates(t *testing.T) {
	rule := mustCompile(t, fiveDays())
	rdates := []RDate{
		{At: noon(time.January, 10)},
		{At: noon(time.January, 2)}, // already produced by the rule
		{At: noon(time.January, 10)},
	}

	source, err := Build([]*CompiledRule{rule}, rdates)
	require.NoError(t, err)

	got := slices.Collect(source.All())
	assert.Len(t, got, 6)
	assert.True(t, got[5].Equal(noon(time.January, 10)))
	assert.True(t, source.Bounded())
}

func TestBuild_ExcludedRule(t *testing.T) {
	include := mustCompile(t, RuleSpec{
		Frequency:  Daily,
		Start:      NewDate(2024, time.January, 1),
		Terminator: Count,
		Count:      10,
	})
	weekends := mustCompile(t, RuleSpec{
		Frequency: Weekly,
		Start:     NewDate(2024, time.January, 1),
		ByWeekday: []string{"SA", "SU"},
		Exclude:   true,
	})

	source, err := Build([]*CompiledRule{include, weekends}, nil)
	require.NoError(t, err)
	assert.True(t, source.Bounded(), "excluded rules do not make a source unbounded")

	got := slices.Collect(source.All())
	require.Len(t, got, 8)
	for _, occ := range got {
		assert.NotEqual(t, time.Saturday, occ.Weekday())
		assert.NotEqual(t, time.Sunday, occ.Weekday())
	}
}

func TestBuild_RangeQueries(t *testing.T) {
	rule := mustCompile(t, fiveDays())
	source, err := Build([]*CompiledRule{rule}, nil)
	require.NoError(t, err)

	from, to := noon(time.January, 2), noon(time.January, 4)
	inclusive := source.Between(from, to, true)
	exclusive := source.Between(from, to, false)
	assert.Len(t, inclusive, 3)
	assert.Equal(t, []string{"2024-01-03T12:00:00Z"}, stamps(exclusive))

	before, ok := source.Before(to, true).Get()
	require.True(t, ok)
	assert.True(t, before.Equal(inclusive[len(inclusive)-1]))

	before, ok = source.Before(to, false).Get()
	require.True(t, ok)
	assert.True(t, before.Equal(noon(time.January, 3)))

	assert.True(t, source.Before(noon(time.January, 1), false).IsAbsent())
	assert.True(t, source.After(noon(time.January, 5), false).IsAbsent())

	after, ok := source.After(noon(time.January, 5), true).Get()
	require.True(t, ok)
	assert.True(t, after.Equal(noon(time.January, 5)))
}

func TestBuild_ForeverRuleHorizon(t *testing.T) {
	rule := mustCompile(t, RuleSpec{Frequency: Yearly, Start: NewDate(2024, time.January, 1)})
	source, err := Build([]*CompiledRule{rule}, nil)
	require.NoError(t, err)

	last, ok := source.After(time.Date(2316, 1, 1, 0, 0, 0, 0, time.UTC), true).Get()
	require.True(t, ok)
	assert.Equal(t, "2316-01-01T12:00:00Z", last.Format(time.RFC3339))

	assert.True(t, source.After(time.Date(2317, 1, 1, 0, 0, 0, 0, time.UTC), true).IsAbsent())
}

func TestBuild_MaxResults(t *testing.T) {
	rule := mustCompile(t, RuleSpec{Frequency: Daily, Start: NewDate(2024, time.January, 1)})

	source, err := Build([]*CompiledRule{rule}, nil, WithMaxResults(2))
	require.NoError(t, err)

	got := source.Between(noon(time.January, 1), noon(time.December, 31), true)
	assert.Len(t, got, 2)
}

func TestBuild_Rejects(t *testing.T) {
	_, err := Build([]*CompiledRule{nil}, nil)
	assert.ErrorIs(t, err, ErrInvalidSpec)

	_, err = Build([]*CompiledRule{{}}, nil)
	assert.ErrorIs(t, err, ErrInvalidSpec)

	_, err = Build(nil, []RDate{{}})
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestBuild_Empty(t *testing.T) {
	source, err := Build(nil, nil)
	require.NoError(t, err)

	assert.Empty(t, slices.Collect(source.All()))
	count, err := source.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}
