package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ganot/convlog/internal/domain/activity"
)

// Store implements activity.Storage on GORM.
type Store struct {
	db *gorm.DB
}

// NewStore creates a GORM store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Begin starts a database transaction
func (s *Store) Begin(ctx context.Context) (activity.Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return &Tx{
		db:            tx,
		conversations: NewGormConversationRepository(tx),
		records:       NewGormRecordRepository(tx),
	}, nil
}

// Tx implements activity.Tx over a GORM transaction.
type Tx struct {
	db            *gorm.DB
	conversations *GormConversationRepository
	records       *GormRecordRepository
}

func (t *Tx) Conversations() activity.ConversationRepository { return t.conversations }

func (t *Tx) Records() activity.RecordRepository { return t.records }

func (t *Tx) Commit() error { return t.db.Commit().Error }

func (t *Tx) Rollback() error { return t.db.Rollback().Error }
