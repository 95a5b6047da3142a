package mocks

import (
	"context"

	"github.com/ganot/convlog/internal/domain/activity"
	"github.com/stretchr/testify/mock"
)

// Storage is a mock for activity.Storage.
type Storage struct {
	mock.Mock
}

func (m *Storage) Begin(ctx context.Context) (activity.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(activity.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

// Tx is a mock for activity.Tx.
type Tx struct {
	mock.Mock
}

func (m *Tx) Conversations() activity.ConversationRepository {
	args := m.Called()
	return args.Get(0).(activity.ConversationRepository)
}

func (m *Tx) Records() activity.RecordRepository {
	args := m.Called()
	return args.Get(0).(activity.RecordRepository)
}

func (m *Tx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *Tx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// ConversationRepository is a mock for activity.ConversationRepository.
type ConversationRepository struct {
	mock.Mock
}

func (m *ConversationRepository) Find(ctx context.Context, filter activity.ConversationFilter) ([]activity.Conversation, error) {
	args := m.Called(ctx, filter)
	if list, ok := args.Get(0).([]activity.Conversation); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ConversationRepository) FindOrCreate(ctx context.Context, channelID, conversationID string) (*activity.Conversation, error) {
	args := m.Called(ctx, channelID, conversationID)
	if conv, ok := args.Get(0).(*activity.Conversation); ok {
		return conv, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ConversationRepository) Get(ctx context.Context, id int64) (*activity.Conversation, error) {
	args := m.Called(ctx, id)
	if conv, ok := args.Get(0).(*activity.Conversation); ok {
		return conv, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ConversationRepository) Remove(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ConversationRepository) RemoveEmpty(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// RecordRepository is a mock for activity.RecordRepository.
type RecordRepository struct {
	mock.Mock
}

func (m *RecordRepository) Add(ctx context.Context, rec *activity.ActivityRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *RecordRepository) Query(ctx context.Context, q activity.RecordQuery) ([]activity.ActivityRecord, error) {
	args := m.Called(ctx, q)
	if list, ok := args.Get(0).([]activity.ActivityRecord); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RecordRepository) Remove(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *RecordRepository) Count(ctx context.Context, conversationRowID int64) (int64, error) {
	args := m.Called(ctx, conversationRowID)
	return args.Get(0).(int64), args.Error(1)
}
