package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ganot/convlog/internal/domain/activity"
	"github.com/ganot/convlog/internal/persistence/models"
	"github.com/ganot/convlog/internal/repository"
)

// GormConversationRepository implements activity.ConversationRepository on GORM.
type GormConversationRepository struct {
	db *gorm.DB
}

// NewGormConversationRepository creates a conversation repository
func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

// Find returns conversations matching the filter
func (r *GormConversationRepository) Find(ctx context.Context, filter activity.ConversationFilter) ([]activity.Conversation, error) {
	query := r.db.WithContext(ctx).Model(&models.ConversationModel{})
	if filter.ChannelID != "" {
		query = query.Where("channel_id = ?", filter.ChannelID)
	}
	if filter.ConversationID != "" {
		query = query.Where("conversation_id = ?", filter.ConversationID)
	}

	var rows []models.ConversationModel
	if err := query.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find conversations: %w", err)
	}

	convs := make([]activity.Conversation, 0, len(rows))
	for i := range rows {
		convs = append(convs, toConversation(&rows[i]))
	}
	return convs, nil
}

// FindOrCreate returns the conversation for the key, inserting it if needed
func (r *GormConversationRepository) FindOrCreate(ctx context.Context, channelID, conversationID string) (*activity.Conversation, error) {
	var row models.ConversationModel
	err := r.db.WithContext(ctx).
		Where(models.ConversationModel{ChannelID: channelID, ConversationID: conversationID}).
		FirstOrCreate(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find or create conversation: %w", err)
	}
	conv := toConversation(&row)
	return &conv, nil
}

// Get returns a conversation by row id
func (r *GormConversationRepository) Get(ctx context.Context, id int64) (*activity.Conversation, error) {
	var row models.ConversationModel
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	conv := toConversation(&row)
	return &conv, nil
}

// Remove deletes a conversation and its activities
func (r *GormConversationRepository) Remove(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("conversation_row_id = ?", id).Delete(&models.ActivityModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete conversation activities: %w", err)
	}

	result := db.Delete(&models.ConversationModel{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete conversation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RemoveEmpty deletes conversations that own no activities
func (r *GormConversationRepository) RemoveEmpty(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM activities a WHERE a.conversation_row_id = conversations.id)").
		Delete(&models.ConversationModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete empty conversations: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func toConversation(row *models.ConversationModel) activity.Conversation {
	return activity.Conversation{
		ID:             row.ID,
		ChannelID:      row.ChannelID,
		ConversationID: row.ConversationID,
		CreatedAt:      row.CreatedAt.UTC(),
	}
}
