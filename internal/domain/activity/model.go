package activity

import (
	"math"
	"time"
)

// SchemaVersion is the payload schema version stored with every record.
const SchemaVersion = 3.0

// Record timestamps must fall in [MinTimestamp, MaxTimestamp], the range of
// UTC unix nanoseconds that SQL backends store them as.
var (
	MinTimestamp = time.Unix(0, math.MinInt64).UTC()
	MaxTimestamp = time.Unix(0, math.MaxInt64).UTC()
)

// Storable reports whether t can be stored as a record timestamp.
func Storable(t time.Time) bool {
	return !t.Before(MinTimestamp) && !t.After(MaxTimestamp)
}

// Activity types understood by the bot framework.
const (
	TypeMessage            = "message"
	TypeConversationUpdate = "conversationUpdate"
	TypeTyping             = "typing"
	TypeEvent              = "event"
	TypeEndOfConversation  = "endOfConversation"
)

// ChannelAccount identifies a user or bot on a channel.
type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// ConversationAccount identifies a conversation on a channel.
type ConversationAccount struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	IsGroup bool   `json:"isGroup,omitempty"`
}

// Activity is a single message or event exchanged between a channel and a user.
type Activity struct {
	Type           string              `json:"type"`
	ID             string              `json:"id,omitempty"`
	Timestamp      time.Time           `json:"timestamp"`
	LocalTimestamp *time.Time          `json:"localTimestamp,omitempty"`
	ServiceURL     string              `json:"serviceUrl,omitempty"`
	ChannelID      string              `json:"channelId"`
	From           ChannelAccount      `json:"from"`
	Conversation   ConversationAccount `json:"conversation"`
	Recipient      ChannelAccount      `json:"recipient"`
	Text           string              `json:"text,omitempty"`
	TextFormat     string              `json:"textFormat,omitempty"`
	Locale         string              `json:"locale,omitempty"`
	ReplyToID      string              `json:"replyToId,omitempty"`
	Summary        string              `json:"summary,omitempty"`
	ChannelData    map[string]any      `json:"channelData,omitempty"`
}

// Conversation groups the activities that share a (channel, conversation) key.
type Conversation struct {
	ID             int64     `json:"id"`
	ChannelID      string    `json:"channel_id"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// ActivityRecord is the persisted form of a logged activity. Payload holds the
// encoded Activity; the other columns exist so storage can filter without
// decoding it.
type ActivityRecord struct {
	ID                int64     `json:"id"`
	ConversationRowID int64     `json:"conversation_row_id"`
	Timestamp         time.Time `json:"timestamp"`
	Version           float64   `json:"version"`
	From              string    `json:"from"`
	Recipient         string    `json:"recipient"`
	Payload           []byte    `json:"-"`
}

// DeleteStats reports how much a bulk delete removed.
type DeleteStats struct {
	Activities    int64 `json:"activities"`
	Conversations int64 `json:"conversations"`
}
