package activity

import "context"

// Storage begins units of work against the conversation and activity collections.
type Storage interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a unit of work. Mutations become durable on Commit.
type Tx interface {
	Conversations() ConversationRepository
	Records() RecordRepository
	Commit() error
	Rollback() error
}

// ConversationRepository provides persistence operations for conversations.
type ConversationRepository interface {
	// Find returns conversations matching the filter. Empty filter fields match anything.
	Find(ctx context.Context, filter ConversationFilter) ([]Conversation, error)
	FindOrCreate(ctx context.Context, channelID, conversationID string) (*Conversation, error)
	Get(ctx context.Context, id int64) (*Conversation, error)
	// Remove deletes the conversation and every record it owns.
	Remove(ctx context.Context, id int64) error
	// RemoveEmpty deletes conversations that own no records.
	RemoveEmpty(ctx context.Context) (int64, error)
}

// RecordRepository provides persistence operations for activity records.
type RecordRepository interface {
	Add(ctx context.Context, rec *ActivityRecord) error
	// Query returns records ordered by (timestamp, id).
	Query(ctx context.Context, q RecordQuery) ([]ActivityRecord, error)
	Remove(ctx context.Context, id int64) error
	Count(ctx context.Context, conversationRowID int64) (int64, error)
}
