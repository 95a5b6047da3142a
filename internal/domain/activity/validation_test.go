package activity_test

import (
	"testing"
	"time"

	"github.com/ganot/convlog/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestValidateActivity(t *testing.T) {
	valid := func() *activity.Activity {
		return &activity.Activity{
			ChannelID:    "c1",
			From:         activity.ChannelAccount{ID: "bot"},
			Conversation: activity.ConversationAccount{ID: "k1"},
			Recipient:    activity.ChannelAccount{ID: "u1"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*activity.Activity)
	}{
		{"missing channel", func(a *activity.Activity) { a.ChannelID = "" }},
		{"missing conversation", func(a *activity.Activity) { a.Conversation.ID = "  " }},
		{"missing sender", func(a *activity.Activity) { a.From.ID = "" }},
		{"missing recipient", func(a *activity.Activity) { a.Recipient.ID = "" }},
		{"timestamp after range", func(a *activity.Activity) { a.Timestamp = time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC) }},
		{"timestamp before range", func(a *activity.Activity) { a.Timestamp = time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC) }},
	}

	require.NoError(t, activity.ValidateActivity(valid()))
	edge := valid()
	edge.Timestamp = activity.MaxTimestamp
	require.NoError(t, activity.ValidateActivity(edge))
	require.ErrorIs(t, activity.ValidateActivity(nil), activity.ErrInvalidInput)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act := valid()
			tt.mutate(act)
			require.ErrorIs(t, activity.ValidateActivity(act), activity.ErrInvalidInput)
		})
	}
}

func TestJSONCodec_PreservesFields(t *testing.T) {
	codec := activity.JSONCodec{}
	act := &activity.Activity{
		Type:         activity.TypeMessage,
		ID:           "a1",
		Timestamp:    t0,
		ChannelID:    "c1",
		From:         activity.ChannelAccount{ID: "bot", Name: "Bot"},
		Conversation: activity.ConversationAccount{ID: "k1", IsGroup: true},
		Recipient:    activity.ChannelAccount{ID: "u1"},
		Text:         "hi",
		ChannelData:  map[string]any{"tenant": "contoso"},
	}

	data, err := codec.Marshal(act)
	require.NoError(t, err)
	require.Contains(t, string(data), `"conversation":{"id":"k1"`)

	got, err := codec.Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, *act, got)

	_, err = codec.Unmarshal([]byte("{"))
	require.Error(t, err)
}
