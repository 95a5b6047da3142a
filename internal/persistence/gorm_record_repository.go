package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ganot/convlog/internal/domain/activity"
	"github.com/ganot/convlog/internal/persistence/models"
	"github.com/ganot/convlog/internal/repository"
)

// GormRecordRepository implements activity.RecordRepository on GORM.
type GormRecordRepository struct {
	db *gorm.DB
}

// NewGormRecordRepository creates a record repository
func NewGormRecordRepository(db *gorm.DB) *GormRecordRepository {
	return &GormRecordRepository{db: db}
}

// Add inserts a new activity record
func (r *GormRecordRepository) Add(ctx context.Context, rec *activity.ActivityRecord) error {
	db := r.db.WithContext(ctx)

	var parents int64
	if err := db.Model(&models.ConversationModel{}).Where("id = ?", rec.ConversationRowID).Count(&parents).Error; err != nil {
		return fmt.Errorf("failed to check conversation: %w", err)
	}
	if parents == 0 {
		return fmt.Errorf("conversation %d: %w", rec.ConversationRowID, repository.ErrNotFound)
	}

	row, err := toModel(rec)
	if err != nil {
		return err
	}
	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	rec.ID = row.ID
	return nil
}

// Query returns activity records matching the given filters
func (r *GormRecordRepository) Query(ctx context.Context, q activity.RecordQuery) ([]activity.ActivityRecord, error) {
	if q.ConversationRowIDs != nil && len(q.ConversationRowIDs) == 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).Model(&models.ActivityModel{})
	if len(q.ConversationRowIDs) > 0 {
		query = query.Where("conversation_row_id IN ?", q.ConversationRowIDs)
	}
	if q.Recipient != "" {
		query = query.Where("recipient_id = ?", q.Recipient)
	}
	if !q.Before.IsZero() {
		before, err := unixNano(q.Before)
		if err != nil {
			return nil, err
		}
		query = query.Where("occurred_at < ?", before)
	}
	if q.After != nil {
		ts, err := unixNano(q.After.Timestamp)
		if err != nil {
			return nil, err
		}
		query = query.Where("(occurred_at > ? OR (occurred_at = ? AND id > ?))", ts, ts, q.After.ID)
	}
	query = query.Order("occurred_at").Order("id")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var rows []models.ActivityModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}

	records := make([]activity.ActivityRecord, 0, len(rows))
	for i := range rows {
		records = append(records, toRecord(&rows[i]))
	}
	return records, nil
}

// Remove deletes one activity record
func (r *GormRecordRepository) Remove(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.ActivityModel{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete activity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Count returns the number of activities a conversation owns
func (r *GormRecordRepository) Count(ctx context.Context, conversationRowID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ActivityModel{}).
		Where("conversation_row_id = ?", conversationRowID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return count, nil
}

func unixNano(t time.Time) (int64, error) {
	if err := activity.CheckStorable(t); err != nil {
		return 0, err
	}
	return t.UTC().UnixNano(), nil
}

func toModel(rec *activity.ActivityRecord) (models.ActivityModel, error) {
	occurredAt, err := unixNano(rec.Timestamp)
	if err != nil {
		return models.ActivityModel{}, err
	}
	return models.ActivityModel{
		ConversationRowID: rec.ConversationRowID,
		OccurredAt:        occurredAt,
		Version:           rec.Version,
		FromID:            rec.From,
		RecipientID:       rec.Recipient,
		Payload:           rec.Payload,
	}, nil
}

func toRecord(row *models.ActivityModel) activity.ActivityRecord {
	return activity.ActivityRecord{
		ID:                row.ID,
		ConversationRowID: row.ConversationRowID,
		Timestamp:         time.Unix(0, row.OccurredAt).UTC(),
		Version:           row.Version,
		From:              row.FromID,
		Recipient:         row.RecipientID,
		Payload:           row.Payload,
	}
}
