package mcp

import (
	"time"

	"github.com/ganot/convlog/internal/domain/activity"
)

type LogActivityParams struct {
	ChannelID      string `json:"channel_id" jsonschema:"channel the activity was exchanged on"`
	ConversationID string `json:"conversation_id" jsonschema:"conversation id within the channel"`
	FromID         string `json:"from_id" jsonschema:"sender account id"`
	RecipientID    string `json:"recipient_id" jsonschema:"recipient account id"`
	FromName       string `json:"from_name,omitempty" jsonschema:"sender display name"`
	RecipientName  string `json:"recipient_name,omitempty" jsonschema:"recipient display name"`
	Type           string `json:"type,omitempty" jsonschema:"activity type, defaults to message"`
	ID             string `json:"id,omitempty" jsonschema:"activity id, generated when omitted"`
	Timestamp      string `json:"timestamp,omitempty" jsonschema:"RFC 3339 timestamp, defaults to now"`
	Text           string `json:"text,omitempty"`
	Locale         string `json:"locale,omitempty"`
	ReplyToID      string `json:"reply_to_id,omitempty"`
	Summary        string `json:"summary,omitempty"`
}

type LogActivityResult struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
}

type ListActivitiesParams struct {
	ChannelID      string `json:"channel_id"`
	ConversationID string `json:"conversation_id"`
	OlderThan      string `json:"older_than,omitempty" jsonschema:"RFC 3339 exclusive upper bound; omit for all activities"`
}

type WalkActivitiesParams struct {
	ChannelID      string `json:"channel_id,omitempty" jsonschema:"restrict to one channel"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"restrict to one conversation id"`
	OlderThan      string `json:"older_than,omitempty" jsonschema:"RFC 3339 exclusive upper bound"`
	Limit          int    `json:"limit,omitempty" jsonschema:"maximum activities to return, default 100"`
}

type ActivityListResult struct {
	Activities []ActivityView `json:"activities"`
	Count      int            `json:"count"`
	Truncated  bool           `json:"truncated,omitempty"`
}

// ActivityView is the flattened tool representation of an activity.
type ActivityView struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	Timestamp      string `json:"timestamp"`
	ChannelID      string `json:"channel_id"`
	ConversationID string `json:"conversation_id"`
	FromID         string `json:"from_id"`
	FromName       string `json:"from_name,omitempty"`
	RecipientID    string `json:"recipient_id"`
	RecipientName  string `json:"recipient_name,omitempty"`
	Text           string `json:"text,omitempty"`
	Locale         string `json:"locale,omitempty"`
	ReplyToID      string `json:"reply_to_id,omitempty"`
	Summary        string `json:"summary,omitempty"`
}

type DeleteConversationParams struct {
	ChannelID      string `json:"channel_id"`
	ConversationID string `json:"conversation_id"`
}

type DeleteUserActivitiesParams struct {
	UserID string `json:"user_id" jsonschema:"recipient id whose activities are removed"`
}

type DeleteOlderThanParams struct {
	OlderThan string `json:"older_than" jsonschema:"RFC 3339 cutoff; activities before it are removed"`
}

type DeleteStatsResult struct {
	Activities    int64 `json:"activities"`
	Conversations int64 `json:"conversations"`
}

type FlushParams struct{}

type StatusResult struct {
	Status string `json:"status"`
}

func toActivityView(act activity.Activity) ActivityView {
	return ActivityView{
		ID:             act.ID,
		Type:           act.Type,
		Timestamp:      act.Timestamp.UTC().Format(time.RFC3339Nano),
		ChannelID:      act.ChannelID,
		ConversationID: act.Conversation.ID,
		FromID:         act.From.ID,
		FromName:       act.From.Name,
		RecipientID:    act.Recipient.ID,
		RecipientName:  act.Recipient.Name,
		Text:           act.Text,
		Locale:         act.Locale,
		ReplyToID:      act.ReplyToID,
		Summary:        act.Summary,
	}
}

func toActivityList(acts []activity.Activity) ActivityListResult {
	views := make([]ActivityView, 0, len(acts))
	for _, act := range acts {
		views = append(views, toActivityView(act))
	}
	return ActivityListResult{Activities: views, Count: len(views)}
}
