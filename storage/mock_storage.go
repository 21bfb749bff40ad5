package storage

import (
	"context"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/stretchr/testify/mock"
)

// MockStorage implements the Storage interface for testing
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetRecurrence(ctx context.Context, id string) (*recurrence.RecurrenceSet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recurrence.RecurrenceSet), args.Error(1)
}

func (m *MockStorage) ListRecurrences(ctx context.Context) ([]*recurrence.RecurrenceSet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*recurrence.RecurrenceSet), args.Error(1)
}

func (m *MockStorage) CreateRecurrence(ctx context.Context, set *recurrence.RecurrenceSet) error {
	return m.Called(ctx, set).Error(0)
}

func (m *MockStorage) UpdateRecurrence(ctx context.Context, set *recurrence.RecurrenceSet) error {
	return m.Called(ctx, set).Error(0)
}

func (m *MockStorage) DeleteRecurrence(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStorage) AddRule(ctx context.Context, setID string, rule *recurrence.RuleSpec) error {
	return m.Called(ctx, setID, rule).Error(0)
}

func (m *MockStorage) DeleteRule(ctx context.Context, setID, ruleID string) error {
	return m.Called(ctx, setID, ruleID).Error(0)
}

func (m *MockStorage) AddRDate(ctx context.Context, setID string, rdate *recurrence.RDateSpec) error {
	return m.Called(ctx, setID, rdate).Error(0)
}

func (m *MockStorage) DeleteRDate(ctx context.Context, setID, rdateID string) error {
	return m.Called(ctx, setID, rdateID).Error(0)
}

var _ Storage = (*MockStorage)(nil)
