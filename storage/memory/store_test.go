package memory

import (
	"context"
	"testing"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSet() *recurrence.RecurrenceSet {
	return &recurrence.RecurrenceSet{
		Timezone: "UTC",
		Rules: []recurrence.RuleSpec{{
			Frequency:  recurrence.Daily,
			Start:      recurrence.NewDate(2024, time.January, 1),
			Terminator: recurrence.Count,
			Count:      5,
			ByMonth:    []int{1},
		}},
		RDates: []recurrence.RDateSpec{
			{Date: recurrence.NewDate(2024, time.January, 3), Exclude: true},
		},
	}
}

func TestStore_Recurrence(t *testing.T) {
	store := New()
	ctx := context.Background()

	// Test getting non-existent set
	_, err := store.GetRecurrence(ctx, "nonexistent")
	require.Error(t, err)
	assert.True(t, storage.IsNotFound(err))

	set := testSet()
	require.NoError(t, store.CreateRecurrence(ctx, set))
	require.NotEmpty(t, set.ID, "create assigns an ID")
	require.NotEmpty(t, set.Rules[0].ID)
	require.NotEmpty(t, set.RDates[0].ID)

	// Test creating duplicate set
	err = store.CreateRecurrence(ctx, set)
	assert.True(t, storage.IsAlreadyExists(err))

	got, err := store.GetRecurrence(ctx, set.ID)
	require.NoError(t, err)
	assert.Equal(t, set, got)

	// the store keeps its own copy
	got.Rules[0].ByMonth[0] = 7
	set.Rules[0].Count = 99
	again, err := store.GetRecurrence(ctx, set.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, again.Rules[0].ByMonth)
	assert.Equal(t, 5, again.Rules[0].Count)

	// Test update
	again.Timezone = "Europe/Paris"
	require.NoError(t, store.UpdateRecurrence(ctx, again))
	updated, err := store.GetRecurrence(ctx, set.ID)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", updated.Timezone)

	err = store.UpdateRecurrence(ctx, &recurrence.RecurrenceSet{ID: "missing"})
	assert.True(t, storage.IsNotFound(err))

	list, err := store.ListRecurrences(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStore_DeleteCascades(t *testing.T) {
	store := New()
	ctx := context.Background()

	set := testSet()
	require.NoError(t, store.CreateRecurrence(ctx, set))
	ruleID, rdateID := set.Rules[0].ID, set.RDates[0].ID

	require.NoError(t, store.DeleteRecurrence(ctx, set.ID))

	_, err := store.GetRecurrence(ctx, set.ID)
	assert.True(t, storage.IsNotFound(err))

	// members went with their set
	assert.True(t, storage.IsNotFound(store.DeleteRule(ctx, set.ID, ruleID)))
	assert.True(t, storage.IsNotFound(store.DeleteRDate(ctx, set.ID, rdateID)))
	assert.True(t, storage.IsNotFound(store.DeleteRecurrence(ctx, set.ID)))

	list, err := store.ListRecurrences(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_Members(t *testing.T) {
	store := New()
	ctx := context.Background()

	set := testSet()
	require.NoError(t, store.CreateRecurrence(ctx, set))

	rule := &recurrence.RuleSpec{
		Frequency: recurrence.Weekly,
		Start:     recurrence.NewDate(2024, time.January, 6),
		ByWeekday: []string{"SA"},
		Exclude:   true,
	}
	require.NoError(t, store.AddRule(ctx, set.ID, rule))
	require.NotEmpty(t, rule.ID)
	assert.True(t, storage.IsAlreadyExists(store.AddRule(ctx, set.ID, rule)))

	rdate := &recurrence.RDateSpec{Date: recurrence.NewDate(2024, time.February, 1)}
	require.NoError(t, store.AddRDate(ctx, set.ID, rdate))
	require.NotEmpty(t, rdate.ID)

	got, err := store.GetRecurrence(ctx, set.ID)
	require.NoError(t, err)
	assert.Len(t, got.Rules, 2)
	assert.Len(t, got.RDates, 2)

	// mutating the added rule does not reach the store
	rule.ByWeekday[0] = "SU"
	got, err = store.GetRecurrence(ctx, set.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"SA"}, got.Rules[1].ByWeekday)

	require.NoError(t, store.DeleteRule(ctx, set.ID, rule.ID))
	require.NoError(t, store.DeleteRDate(ctx, set.ID, rdate.ID))
	assert.True(t, storage.IsNotFound(store.DeleteRule(ctx, set.ID, rule.ID)))

	got, err = store.GetRecurrence(ctx, set.ID)
	require.NoError(t, err)
	assert.Len(t, got.Rules, 1)
	assert.Len(t, got.RDates, 1)

	assert.True(t, storage.IsNotFound(store.AddRule(ctx, "missing", &recurrence.RuleSpec{})))
	assert.True(t, storage.IsNotFound(store.AddRDate(ctx, "missing", &recurrence.RDateSpec{})))
}

func TestStore_InvalidInput(t *testing.T) {
	store := New()
	ctx := context.Background()

	var storageErr *storage.Error
	err := store.CreateRecurrence(ctx, nil)
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, storage.ErrInvalidInput, storageErr.Type)

	err = store.UpdateRecurrence(ctx, &recurrence.RecurrenceSet{})
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, storage.ErrInvalidInput, storageErr.Type)

	err = store.AddRule(ctx, "any", nil)
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, storage.ErrInvalidInput, storageErr.Type)
}
