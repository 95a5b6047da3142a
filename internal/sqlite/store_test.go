package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/convlog/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, opts activity.Options) *activity.Service {
	t.Helper()
	return activity.NewService(NewStore(NewTestDB(t)), opts, nil)
}

func logActivity(t *testing.T, svc *activity.Service, recipient string, ts time.Time) *activity.Activity {
	t.Helper()
	act := &activity.Activity{
		Type:         activity.TypeMessage,
		Timestamp:    ts,
		ChannelID:    "c1",
		From:         activity.ChannelAccount{ID: "bot"},
		Conversation: activity.ConversationAccount{ID: "k1"},
		Recipient:    activity.ChannelAccount{ID: recipient},
		Text:         "hello " + recipient,
	}
	require.NoError(t, svc.Log(context.Background(), act))
	return act
}

func TestStore_LogListDeleteUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, activity.Options{AutoCommit: true})

	a1 := logActivity(t, svc, "u1", baseTime.Add(10*time.Second))
	logActivity(t, svc, "u2", baseTime.Add(20*time.Second))

	got, err := svc.ListActivities(ctx, "c1", "k1", baseTime.Add(15*time.Second))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, *a1, got[0])

	require.NoError(t, <-svc.DeleteUserActivities(ctx, "u1"))

	got, err = svc.ListActivities(ctx, "c1", "k1", baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, <-svc.DeleteUserActivities(ctx, "u1"))
}

func TestStore_WalkAndPrune(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, activity.Options{AutoCommit: true, PageSize: 2})

	for i := range 5 {
		logActivity(t, svc, "u1", baseTime.Add(time.Duration(i)*time.Minute))
	}

	var seen []time.Time
	err := svc.WalkActivities(ctx, activity.WalkFilter{ChannelID: "c1", ConversationID: "k1"}, func(_ context.Context, act activity.Activity) error {
		seen = append(seen, act.Timestamp)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 5)
	for i := 1; i < len(seen); i++ {
		require.True(t, seen[i-1].Before(seen[i]))
	}

	stats, err := svc.DeleteOlderThan(ctx, baseTime.Add(3*time.Minute))
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Activities)
	require.Zero(t, stats.Conversations)

	stats, err = svc.DeleteOlderThan(ctx, baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, activity.DeleteStats{Activities: 2, Conversations: 1}, stats)
}

func TestStore_DeferredCommit(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, activity.Options{AutoCommit: false})

	logActivity(t, svc, "u1", baseTime)
	require.NoError(t, svc.Discard())

	got, err := svc.ListActivities(ctx, "c1", "k1", time.Time{})
	require.NoError(t, err)
	require.Empty(t, got)

	logActivity(t, svc, "u1", baseTime)
	require.NoError(t, svc.Flush(ctx))

	got, err = svc.ListActivities(ctx, "c1", "k1", time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NoError(t, svc.Flush(ctx))
}

func TestStore_FarBoundsMatchEverythingOrNothing(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, activity.Options{AutoCommit: true})
	logActivity(t, svc, "u1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	got, err := svc.ListActivities(ctx, "c1", "k1", time.Date(1000, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = svc.ListActivities(ctx, "c1", "k1", time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)

	stats, err := svc.DeleteOlderThan(ctx, time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, activity.DeleteStats{Activities: 1, Conversations: 1}, stats)
}
