package models

import "time"

// ConversationModel is the GORM row for a conversation.
type ConversationModel struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	ChannelID      string          `gorm:"size:255;not null;uniqueIndex:idx_conversation_key"`
	ConversationID string          `gorm:"size:255;not null;uniqueIndex:idx_conversation_key"`
	CreatedAt      time.Time       `gorm:"not null"`
	Activities     []ActivityModel `gorm:"foreignKey:ConversationRowID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the table name used by GORM.
func (ConversationModel) TableName() string {
	return "conversations"
}
