package recurrence

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_HasOccurrenceInRange(t *testing.T) {
	engine := NewEngine()

	daily := func(count int) RuleSpec {
		return RuleSpec{
			Frequency:  Daily,
			Start:      NewDate(2024, time.January, 1),
			Terminator: Count,
			Count:      count,
		}
	}

	tests := []struct {
		name       string
		set        *RecurrenceSet
		rangeStart time.Time
		rangeEnd   time.Time
		expected   bool
	}{
		{
			name: "Single date in range",
			set: &RecurrenceSet{Timezone: "UTC", RDates: []RDateSpec{
				{Date: NewDate(2024, time.January, 1)},
			}},
			rangeStart: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
			rangeEnd:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			expected:   true,
		},
		{
			name: "Single date out of range",
			set: &RecurrenceSet{Timezone: "UTC", RDates: []RDateSpec{
				{Date: NewDate(2024, time.January, 1)},
			}},
			rangeStart: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			rangeEnd:   time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			expected:   false,
		},
		{
			name:       "Daily rule with occurrence in range",
			set:        &RecurrenceSet{Timezone: "UTC", Rules: []RuleSpec{daily(7)}},
			rangeStart: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			rangeEnd:   time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
			expected:   true,
		},
		{
			name:       "Daily rule with no occurrence in range",
			set:        &RecurrenceSet{Timezone: "UTC", Rules: []RuleSpec{daily(3)}},
			rangeStart: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			rangeEnd:   time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
			expected:   false,
		},
		{
			name: "Excluded date leaves a gap",
			set: &RecurrenceSet{
				Timezone: "UTC",
				Rules:    []RuleSpec{daily(7)},
				RDates:   []RDateSpec{{Date: NewDate(2024, time.January, 3), Exclude: true}},
			},
			rangeStart: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			rangeEnd:   time.Date(2024, 1, 3, 23, 59, 59, 0, time.UTC),
			expected:   false,
		},
		{
			name: "Unbounded weekly rule far in the future",
			set: &RecurrenceSet{Timezone: "UTC", Rules: []RuleSpec{{
				Frequency: Weekly,
				Start:     NewDate(2024, time.January, 1),
				ByWeekday: []string{"MO"},
			}}},
			rangeStart: time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC),
			rangeEnd:   time.Date(2030, 6, 3, 23, 0, 0, 0, time.UTC),
			expected:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.HasOccurrenceInRange(tt.set, tt.rangeStart, tt.rangeEnd)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEngine_Expand(t *testing.T) {
	engine := NewEngineWithConfig(EngineConfig{MaxExpansionOccurrences: 3})
	set := &RecurrenceSet{
		ID:       "daily",
		Timezone: "Asia/Tokyo",
		Rules:    []RuleSpec{{Frequency: Daily, Start: NewDate(2024, time.January, 1)}},
	}

	tokyo, err := set.Location()
	require.NoError(t, err)

	occurrences, err := engine.Expand(set,
		time.Date(2024, 1, 1, 0, 0, 0, 0, tokyo),
		time.Date(2024, 12, 31, 0, 0, 0, 0, tokyo))
	require.NoError(t, err)
	require.Len(t, occurrences, 3)
	assert.True(t, occurrences[0].Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, tokyo)))

	_, err = engine.Expand(set, time.Date(2024, 2, 1, 0, 0, 0, 0, tokyo), time.Date(2024, 1, 1, 0, 0, 0, 0, tokyo))
	assert.Error(t, err)
}

func TestEngine_CompileUsesCache(t *testing.T) {
	engine := NewEngine()
	set := &RecurrenceSet{Timezone: "UTC", Rules: []RuleSpec{monthlyFirstMonday()}}

	first, err := engine.Compile(set)
	require.NoError(t, err)
	second, err := engine.Compile(set.Clone())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, engine.CacheStats().TotalEntries)

	changed := set.Clone()
	changed.Rules[0].Count = 4
	third, err := engine.Compile(changed)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, engine.CacheStats().TotalEntries)
}

func TestEngine_DisabledCache(t *testing.T) {
	engine := NewEngineWithConfig(DisabledCacheConfig)
	set := &RecurrenceSet{Timezone: "UTC", Rules: []RuleSpec{monthlyFirstMonday()}}

	first, err := engine.Compile(set)
	require.NoError(t, err)
	second, err := engine.Compile(set)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Zero(t, engine.CacheStats().TotalEntries)
}

func TestEngine_ConfigPresets(t *testing.T) {
	set := &RecurrenceSet{
		Timezone: "UTC",
		Rules:    []RuleSpec{{Frequency: Daily, Start: NewDate(2024, time.January, 1)}},
	}
	yearStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name        string
		config      EngineConfig
		occurrences int
		cached      int
	}{
		{name: "default", config: DefaultEngineConfig, occurrences: 366, cached: 1},
		{name: "high performance", config: HighPerformanceConfig, occurrences: 366, cached: 1},
		{name: "low memory", config: LowMemoryConfig, occurrences: 200, cached: 1},
		{name: "disabled cache", config: DisabledCacheConfig, occurrences: 366, cached: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngineWithConfig(tt.config)

			occurrences, err := engine.Expand(set, yearStart, yearEnd)
			require.NoError(t, err)
			assert.Len(t, occurrences, tt.occurrences)
			assert.Equal(t, tt.cached, engine.CacheStats().TotalEntries)

			found, err := engine.HasOccurrenceInRange(set, yearEnd.AddDate(0, 0, -1), yearEnd)
			require.NoError(t, err)
			assert.True(t, found)
		})
	}
}

func TestEngine_InvalidSets(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	engine := NewEngine(WithLogger(logger))

	badRule := RuleSpec{ID: "bad", Frequency: Daily, Start: NewDate(2024, time.January, 1), ByWeekday: []string{"MO"}}
	set := &RecurrenceSet{ID: "s1", Timezone: "UTC", Rules: []RuleSpec{monthlyFirstMonday(), badRule}}

	_, err := engine.Compile(set)
	require.ErrorIs(t, err, ErrInvalidSpec)

	var setErr *SetError
	require.True(t, errors.As(err, &setErr))
	require.Len(t, setErr.Rules, 1)
	assert.Equal(t, 1, setErr.Rules[0].Index)
	assert.Equal(t, "bad", setErr.Rules[0].RuleID)
	assert.True(t, setErr.Rules[0].Violations.Has(CodeUnnecessaryByWeekday))
	assert.Contains(t, logs.String(), "recurrence set rejected")

	_, err = engine.HasOccurrenceInRange(&RecurrenceSet{Timezone: "Local"}, time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrInvalidTimezone)
}
