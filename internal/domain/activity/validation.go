package activity

import (
	"fmt"
	"strings"
	"time"
)

// ValidateActivity validates fields required to log an activity.
func ValidateActivity(act *Activity) error {
	if act == nil {
		return fmt.Errorf("%w: nil activity", ErrInvalidInput)
	}
	if strings.TrimSpace(act.ChannelID) == "" {
		return fmt.Errorf("%w: channel id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(act.Conversation.ID) == "" {
		return fmt.Errorf("%w: conversation id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(act.From.ID) == "" {
		return fmt.Errorf("%w: sender id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(act.Recipient.ID) == "" {
		return fmt.Errorf("%w: recipient id is required", ErrInvalidInput)
	}
	if !act.Timestamp.IsZero() {
		return CheckStorable(act.Timestamp)
	}
	return nil
}

// CheckStorable returns ErrInvalidInput when t lies outside the storable range.
func CheckStorable(t time.Time) error {
	if !Storable(t) {
		return fmt.Errorf("%w: timestamp %s is outside %s..%s", ErrInvalidInput,
			t.Format(time.RFC3339), MinTimestamp.Format(time.RFC3339), MaxTimestamp.Format(time.RFC3339))
	}
	return nil
}

func validateKey(channelID, conversationID string) error {
	if strings.TrimSpace(channelID) == "" || strings.TrimSpace(conversationID) == "" {
		return fmt.Errorf("%w: channel and conversation id are required", ErrInvalidInput)
	}
	return nil
}

// upperBound maps an exclusive timestamp bound onto the storable range. A
// bound past MaxTimestamp matches everything and becomes the zero (unbounded)
// time. ok is false when no storable timestamp lies before t.
func upperBound(t time.Time) (bound time.Time, ok bool) {
	switch {
	case t.IsZero():
		return t, true
	case t.After(MaxTimestamp):
		return time.Time{}, true
	case !t.After(MinTimestamp):
		return time.Time{}, false
	}
	return t, true
}
