package persistence

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ganot/convlog/internal/config"
	"github.com/ganot/convlog/internal/domain/activity"
	"github.com/ganot/convlog/internal/repository"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := config.DBConfig{Driver: config.DriverGormSQLite, Path: ":memory:"}
	if dsn := os.Getenv("CONVLOG_TEST_POSTGRES_DSN"); dsn != "" {
		cfg = config.DBConfig{Driver: config.DriverPostgres, DSN: dsn}
	}

	db, err := NewDBConnection(cfg, "error", nil)
	require.NoError(t, err, "failed to open test database")

	t.Cleanup(func() {
		if cfg.Driver == config.DriverPostgres {
			db.Exec("DELETE FROM activities")
			db.Exec("DELETE FROM conversations")
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func begin(t *testing.T, store *Store) activity.Tx {
	t.Helper()
	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })
	return tx
}

func record(convID int64, recipient string, offsetSeconds int) *activity.ActivityRecord {
	return &activity.ActivityRecord{
		ConversationRowID: convID,
		Timestamp:         baseTime.Add(time.Duration(offsetSeconds) * time.Second),
		Version:           activity.SchemaVersion,
		From:              "bot",
		Recipient:         recipient,
		Payload:           []byte(`{"type":"message"}`),
	}
}

func TestNewDBConnection_UnsupportedDriver(t *testing.T) {
	_, err := NewDBConnection(config.DBConfig{Driver: "oracle"}, "info", nil)
	require.Error(t, err)
}

func TestGormConversationRepository(t *testing.T) {
	ctx := context.Background()
	tx := begin(t, NewStore(newTestDB(t)))
	convs := tx.Conversations()

	first, err := convs.FindOrCreate(ctx, "c1", "k1")
	require.NoError(t, err)
	require.NotZero(t, first.ID)
	require.False(t, first.CreatedAt.IsZero())

	again, err := convs.FindOrCreate(ctx, "c1", "k1")
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)

	_, err = convs.FindOrCreate(ctx, "c2", "k1")
	require.NoError(t, err)

	found, err := convs.Find(ctx, activity.ConversationFilter{ConversationID: "k1"})
	require.NoError(t, err)
	require.Len(t, found, 2)

	found, err = convs.Find(ctx, activity.ConversationFilter{ChannelID: "c1", ConversationID: "k1"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	got, err := convs.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "c1", got.ChannelID)

	require.NoError(t, tx.Records().Add(ctx, record(first.ID, "u1", 1)))
	require.NoError(t, convs.Remove(ctx, first.ID))
	require.ErrorIs(t, convs.Remove(ctx, first.ID), repository.ErrNotFound)

	_, err = convs.Get(ctx, first.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	count, err := tx.Records().Count(ctx, first.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	removed, err := convs.RemoveEmpty(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
}

func TestGormRecordRepository(t *testing.T) {
	ctx := context.Background()
	tx := begin(t, NewStore(newTestDB(t)))

	conv, err := tx.Conversations().FindOrCreate(ctx, "c1", "k1")
	require.NoError(t, err)
	records := tx.Records()

	late := record(conv.ID, "u2", 20)
	early := record(conv.ID, "u1", 10)
	tie := record(conv.ID, "u1", 10)
	require.NoError(t, records.Add(ctx, late))
	require.NoError(t, records.Add(ctx, early))
	require.NoError(t, records.Add(ctx, tie))

	all, err := records.Query(ctx, activity.RecordQuery{ConversationRowIDs: []int64{conv.ID}})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, early.ID, all[0].ID)
	require.Equal(t, tie.ID, all[1].ID)
	require.Equal(t, late.ID, all[2].ID)
	require.True(t, early.Timestamp.Equal(all[0].Timestamp))
	require.Equal(t, early.Payload, all[0].Payload)

	page, err := records.Query(ctx, activity.RecordQuery{
		After: &activity.Cursor{Timestamp: all[0].Timestamp, ID: all[0].ID},
		Limit: 1,
	})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, tie.ID, page[0].ID)

	byUser, err := records.Query(ctx, activity.RecordQuery{Recipient: "u1", Before: baseTime.Add(15 * time.Second)})
	require.NoError(t, err)
	require.Len(t, byUser, 2)

	none, err := records.Query(ctx, activity.RecordQuery{ConversationRowIDs: []int64{}})
	require.NoError(t, err)
	require.Empty(t, none)

	require.NoError(t, records.Remove(ctx, late.ID))
	require.ErrorIs(t, records.Remove(ctx, late.ID), repository.ErrNotFound)

	count, err := records.Count(ctx, conv.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	require.ErrorIs(t, records.Add(ctx, record(conv.ID+1000, "u1", 1)), repository.ErrNotFound)
}

func TestGormStore_Service(t *testing.T) {
	ctx := context.Background()
	svc := activity.NewService(NewStore(newTestDB(t)), activity.Options{AutoCommit: true, PageSize: 2}, nil)

	logAt := func(recipient string, ts time.Time) *activity.Activity {
		act := &activity.Activity{
			Type:         activity.TypeMessage,
			Timestamp:    ts,
			ChannelID:    "c1",
			From:         activity.ChannelAccount{ID: "bot"},
			Conversation: activity.ConversationAccount{ID: "k1"},
			Recipient:    activity.ChannelAccount{ID: recipient},
		}
		require.NoError(t, svc.Log(ctx, act))
		return act
	}

	a1 := logAt("u1", baseTime.Add(10*time.Second))
	logAt("u2", baseTime.Add(20*time.Second))
	logAt("u2", baseTime.Add(30*time.Second))

	got, err := svc.ListActivities(ctx, "c1", "k1", baseTime.Add(15*time.Second))
	require.NoError(t, err)
	require.Equal(t, []activity.Activity{*a1}, got)

	walked := 0
	require.NoError(t, svc.WalkActivities(ctx, activity.WalkFilter{}, func(context.Context, activity.Activity) error {
		walked++
		return nil
	}))
	require.Equal(t, 3, walked)

	require.NoError(t, <-svc.DeleteUserActivities(ctx, "u1"))

	got, err = svc.ListActivities(ctx, "c1", "k1", time.Time{})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestGormRecordRepository_RejectsUnstorableTimestamps(t *testing.T) {
	ctx := context.Background()
	tx := begin(t, NewStore(newTestDB(t)))
	conv, err := tx.Conversations().FindOrCreate(ctx, "c1", "k1")
	require.NoError(t, err)

	rec := record(conv.ID, "u1", 0)
	rec.Timestamp = time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)
	require.ErrorIs(t, tx.Records().Add(ctx, rec), activity.ErrInvalidInput)

	_, err = tx.Records().Query(ctx, activity.RecordQuery{Before: time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.ErrorIs(t, err, activity.ErrInvalidInput)
}
