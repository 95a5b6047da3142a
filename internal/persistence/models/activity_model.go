package models

// ActivityModel is the GORM row for a logged activity. OccurredAt holds UTC
// unix nanoseconds so ordering does not depend on the dialect's time format.
type ActivityModel struct {
	ID                int64   `gorm:"primaryKey;autoIncrement"`
	ConversationRowID int64   `gorm:"not null;index:idx_activities_conversation"`
	OccurredAt        int64   `gorm:"column:occurred_at;not null;index:idx_activities_occurred"`
	Version           float64 `gorm:"not null"`
	FromID            string  `gorm:"size:255;not null"`
	RecipientID       string  `gorm:"size:255;not null;index:idx_activities_recipient"`
	Payload           []byte  `gorm:"not null"`
}

// TableName overrides the table name used by GORM.
func (ActivityModel) TableName() string {
	return "activities"
}
