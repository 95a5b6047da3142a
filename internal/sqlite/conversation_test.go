package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/ganot/convlog/internal/domain/activity"
	"github.com/ganot/convlog/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestConversationRepository_FindOrCreate(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewConversationRepository(db)

	first, err := repo.FindOrCreate(ctx, "c1", "k1")
	require.NoError(t, err)
	require.NotZero(t, first.ID)
	require.Equal(t, "c1", first.ChannelID)
	require.Equal(t, "k1", first.ConversationID)

	again, err := repo.FindOrCreate(ctx, "c1", "k1")
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)

	other, err := repo.FindOrCreate(ctx, "c1", "k2")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, other.ID)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, got.ID)
	require.Equal(t, first.CreatedAt, got.CreatedAt)
}

func TestConversationRepository_Find(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewConversationRepository(db)

	insertConversation(t, db, "c1", "k1")
	insertConversation(t, db, "c1", "k2")
	insertConversation(t, db, "c2", "k1")

	convs, err := repo.Find(ctx, activity.ConversationFilter{ChannelID: "c1", ConversationID: "k1"})
	require.NoError(t, err)
	require.Len(t, convs, 1)

	convs, err = repo.Find(ctx, activity.ConversationFilter{ChannelID: "c1"})
	require.NoError(t, err)
	require.Len(t, convs, 2)

	convs, err = repo.Find(ctx, activity.ConversationFilter{ConversationID: "k1"})
	require.NoError(t, err)
	require.Len(t, convs, 2)

	convs, err = repo.Find(ctx, activity.ConversationFilter{ChannelID: "missing"})
	require.NoError(t, err)
	require.Empty(t, convs)
}

func TestConversationRepository_RemoveCascades(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	convs := NewConversationRepository(db)
	records := NewRecordRepository(db)

	conv, err := convs.FindOrCreate(ctx, "c1", "k1")
	require.NoError(t, err)
	require.NoError(t, records.Add(ctx, newRecord(conv.ID, "u1", 10)))
	require.NoError(t, records.Add(ctx, newRecord(conv.ID, "u2", 20)))

	require.NoError(t, convs.Remove(ctx, conv.ID))

	count, err := records.Count(ctx, conv.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	_, err = convs.Get(ctx, conv.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.ErrorIs(t, convs.Remove(ctx, conv.ID), repository.ErrNotFound)
}

func TestConversationRepository_RemoveEmpty(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	convs := NewConversationRepository(db)
	records := NewRecordRepository(db)

	busy, err := convs.FindOrCreate(ctx, "c1", "busy")
	require.NoError(t, err)
	require.NoError(t, records.Add(ctx, newRecord(busy.ID, "u1", 10)))
	_, err = convs.FindOrCreate(ctx, "c1", "idle")
	require.NoError(t, err)

	removed, err := convs.RemoveEmpty(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	left, err := convs.Find(ctx, activity.ConversationFilter{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	require.Equal(t, busy.ID, left[0].ID)
}

// missingLookup hides existing rows from the next lookups, as if another
// writer inserted the conversation after FindOrCreate looked for it.
type missingLookup struct {
	querier
	misses int
}

func (m *missingLookup) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if m.misses > 0 {
		m.misses--
		query += " AND 0 = 1"
	}
	return m.querier.QueryRowContext(ctx, query, args...)
}

func TestConversationRepository_FindOrCreateLosesInsertRace(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	existing := insertConversation(t, db, "c1", "k1")

	repo := NewConversationRepository(&missingLookup{querier: db, misses: 1})
	conv, err := repo.FindOrCreate(ctx, "c1", "k1")
	require.NoError(t, err)
	require.Equal(t, existing, conv.ID)
}

func TestConstraintErrorsAreTyped(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertConversation(t, db, "c1", "k1")

	_, err := db.ExecContext(ctx,
		`INSERT INTO conversations (channel_id, conversation_id, created_at) VALUES ('c1', 'k1', 0)`)
	require.Error(t, err)
	require.True(t, isUniqueViolation(err))
	require.False(t, isForeignKeyViolation(err))

	_, err = db.ExecContext(ctx,
		`INSERT INTO activities (conversation_row_id, occurred_at, version, from_id, recipient_id, payload)
		 VALUES (999, 0, 3.0, 'bot', 'u1', x'7b7d')`)
	require.Error(t, err)
	require.True(t, isForeignKeyViolation(err))
	require.False(t, isUniqueViolation(err))

	require.False(t, isUniqueViolation(errors.New("UNIQUE constraint failed: conversations.channel_id")))
	require.False(t, isForeignKeyViolation(nil))
}
