package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ganot/convlog/internal/domain/activity"
	"github.com/ganot/convlog/internal/repository"
)

// RecordRepository implements activity.RecordRepository for SQLite
type RecordRepository struct {
	q querier
}

// NewRecordRepository creates a new RecordRepository
func NewRecordRepository(q querier) *RecordRepository {
	return &RecordRepository{q: q}
}

// Add inserts a new activity record
func (r *RecordRepository) Add(ctx context.Context, rec *activity.ActivityRecord) error {
	occurredAt, err := toUnixNano(rec.Timestamp)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO activities (
			conversation_row_id, occurred_at, version, from_id, recipient_id, payload
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.q.ExecContext(ctx, query,
		rec.ConversationRowID,
		occurredAt,
		rec.Version,
		rec.From,
		rec.Recipient,
		rec.Payload,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("conversation %d: %w", rec.ConversationRowID, repository.ErrNotFound)
		}
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read activity id: %w", err)
	}
	rec.ID = id
	return nil
}

// Query returns activity records matching the given filters
func (r *RecordRepository) Query(ctx context.Context, q activity.RecordQuery) ([]activity.ActivityRecord, error) {
	if q.ConversationRowIDs != nil && len(q.ConversationRowIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, conversation_row_id, occurred_at, version, from_id, recipient_id, payload
		FROM activities
	`

	var conditions []string
	var args []any

	if len(q.ConversationRowIDs) > 0 {
		conditions = append(conditions, "conversation_row_id IN ("+placeholders(len(q.ConversationRowIDs))+")")
		for _, id := range q.ConversationRowIDs {
			args = append(args, id)
		}
	}
	if q.Recipient != "" {
		conditions = append(conditions, "recipient_id = ?")
		args = append(args, q.Recipient)
	}
	if !q.Before.IsZero() {
		before, err := toUnixNano(q.Before)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, "occurred_at < ?")
		args = append(args, before)
	}
	if q.After != nil {
		ts, err := toUnixNano(q.After.Timestamp)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, "(occurred_at > ? OR (occurred_at = ? AND id > ?))")
		args = append(args, ts, ts, q.After.ID)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY occurred_at, id"

	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var records []activity.ActivityRecord
	for rows.Next() {
		var rec activity.ActivityRecord
		var occurredAt int64
		if err := rows.Scan(
			&rec.ID,
			&rec.ConversationRowID,
			&occurredAt,
			&rec.Version,
			&rec.From,
			&rec.Recipient,
			&rec.Payload,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		rec.Timestamp = fromUnixNano(occurredAt)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return records, nil
}

// Remove deletes one activity record
func (r *RecordRepository) Remove(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
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

// Count returns the number of activities owned by a conversation
func (r *RecordRepository) Count(ctx context.Context, conversationRowID int64) (int64, error) {
	var count int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activities WHERE conversation_row_id = ?`, conversationRowID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return count, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// Timestamps are stored as UTC unix nanoseconds so they compare numerically.
func toUnixNano(t time.Time) (int64, error) {
	if err := activity.CheckStorable(t); err != nil {
		return 0, err
	}
	return t.UTC().UnixNano(), nil
}

func fromUnixNano(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}
