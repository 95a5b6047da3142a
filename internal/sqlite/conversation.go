package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ganot/convlog/internal/domain/activity"
	"github.com/ganot/convlog/internal/repository"
)

// ConversationRepository implements activity.ConversationRepository for SQLite
type ConversationRepository struct {
	q querier
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(q querier) *ConversationRepository {
	return &ConversationRepository{q: q}
}

// Find returns conversations matching the filter
func (r *ConversationRepository) Find(ctx context.Context, filter activity.ConversationFilter) ([]activity.Conversation, error) {
	query := `SELECT id, channel_id, conversation_id, created_at FROM conversations`

	var conditions []string
	var args []any
	if filter.ChannelID != "" {
		conditions = append(conditions, "channel_id = ?")
		args = append(args, filter.ChannelID)
	}
	if filter.ConversationID != "" {
		conditions = append(conditions, "conversation_id = ?")
		args = append(args, filter.ConversationID)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find conversations: %w", err)
	}
	defer rows.Close()

	var convs []activity.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, *conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation rows: %w", err)
	}
	return convs, nil
}

// FindOrCreate returns the conversation for the key, inserting it if needed
func (r *ConversationRepository) FindOrCreate(ctx context.Context, channelID, conversationID string) (*activity.Conversation, error) {
	conv, err := r.lookup(ctx, channelID, conversationID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	createdAt := time.Now().UTC()
	result, err := r.q.ExecContext(ctx,
		`INSERT INTO conversations (channel_id, conversation_id, created_at) VALUES (?, ?, ?)`,
		channelID, conversationID, createdAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return r.lookup(ctx, channelID, conversationID)
		}
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation id: %w", err)
	}

	return &activity.Conversation{
		ID:             id,
		ChannelID:      channelID,
		ConversationID: conversationID,
		CreatedAt:      fromUnixNano(createdAt.UnixNano()),
	}, nil
}

// Get returns a conversation by row id
func (r *ConversationRepository) Get(ctx context.Context, id int64) (*activity.Conversation, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, channel_id, conversation_id, created_at FROM conversations WHERE id = ?`, id)
	return scanConversation(row)
}

// Remove deletes a conversation and its activities
func (r *ConversationRepository) Remove(ctx context.Context, id int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM activities WHERE conversation_row_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete conversation activities: %w", err)
	}

	result, err := r.q.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RemoveEmpty deletes conversations that own no activities
func (r *ConversationRepository) RemoveEmpty(ctx context.Context) (int64, error) {
	result, err := r.q.ExecContext(ctx, `
		DELETE FROM conversations
		WHERE NOT EXISTS (
			SELECT 1 FROM activities a WHERE a.conversation_row_id = conversations.id
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete empty conversations: %w", err)
	}
	return result.RowsAffected()
}

func (r *ConversationRepository) lookup(ctx context.Context, channelID, conversationID string) (*activity.Conversation, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, channel_id, conversation_id, created_at FROM conversations
		 WHERE channel_id = ? AND conversation_id = ?`,
		channelID, conversationID)
	return scanConversation(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*activity.Conversation, error) {
	var conv activity.Conversation
	var createdAt int64
	if err := row.Scan(&conv.ID, &conv.ChannelID, &conv.ConversationID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}
	conv.CreatedAt = fromUnixNano(createdAt)
	return &conv, nil
}
