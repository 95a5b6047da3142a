package activity

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Visitor is called once per activity during a walk.
type Visitor func(ctx context.Context, act Activity) error

// Service is the activity log store. It logs activities, lists and walks them,
// and deletes them by conversation, by user or by age.
type Service struct {
	storage Storage
	opts    Options
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	pending Tx
}

// NewService creates a new activity service.
func NewService(storage Storage, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		storage: storage,
		opts:    opts.withDefaults(),
		logger:  logger,
		now:     time.Now,
	}
}

// Log stores an activity under its (channel, conversation) key, creating the
// conversation on first use. A missing ID or timestamp is filled in on act.
func (s *Service) Log(ctx context.Context, act *Activity) error {
	if err := ValidateActivity(act); err != nil {
		return err
	}
	if act.ID == "" {
		act.ID = uuid.NewString()
	}
	if act.Timestamp.IsZero() {
		act.Timestamp = s.now().UTC()
	}

	payload, err := s.opts.Codec.Marshal(act)
	if err != nil {
		return fmt.Errorf("%w: encode activity: %w", ErrInvalidInput, err)
	}

	return s.withTx(ctx, func(tx Tx) error {
		conv, err := tx.Conversations().FindOrCreate(ctx, act.ChannelID, act.Conversation.ID)
		if err != nil {
			return storageError("find or create conversation", err)
		}
		rec := &ActivityRecord{
			ConversationRowID: conv.ID,
			Timestamp:         act.Timestamp,
			Version:           SchemaVersion,
			From:              act.From.ID,
			Recipient:         act.Recipient.ID,
			Payload:           payload,
		}
		if err := tx.Records().Add(ctx, rec); err != nil {
			return storageError("add activity record", err)
		}
		return nil
	})
}

// ListActivities returns the activities of one conversation older than
// olderThan, ordered by timestamp. A zero olderThan returns all of them.
// An unknown conversation yields an empty slice.
func (s *Service) ListActivities(ctx context.Context, channelID, conversationID string, olderThan time.Time) ([]Activity, error) {
	if err := validateKey(channelID, conversationID); err != nil {
		return nil, err
	}
	before, ok := upperBound(olderThan)
	if !ok {
		return []Activity{}, nil
	}

	var records []ActivityRecord
	err := s.withTx(ctx, func(tx Tx) error {
		rowIDs, err := s.conversationRowIDs(ctx, tx, channelID, conversationID)
		if err != nil {
			return err
		}
		if len(rowIDs) == 0 {
			return nil
		}
		records, err = tx.Records().Query(ctx, RecordQuery{
			ConversationRowIDs: rowIDs,
			Before:             before,
		})
		if err != nil {
			return storageError("query activity records", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	activities := make([]Activity, 0, len(records))
	for _, rec := range records {
		act, err := s.decode(rec)
		if err != nil {
			return nil, err
		}
		activities = append(activities, act)
	}
	return activities, nil
}

// WalkActivities calls visit for every matching activity in timestamp order,
// reading storage one page at a time. The visitor runs outside any storage
// transaction, so it may call back into the Service. A visitor returning
// ErrStopWalk ends the walk with a nil error; any other error aborts it.
func (s *Service) WalkActivities(ctx context.Context, filter WalkFilter, visit Visitor) error {
	if visit == nil {
		return fmt.Errorf("%w: nil visitor", ErrInvalidInput)
	}
	before, ok := upperBound(filter.OlderThan)
	if !ok {
		return nil
	}

	var rowIDs []int64
	if filter.ChannelID != "" || filter.ConversationID != "" {
		err := s.withTx(ctx, func(tx Tx) error {
			var err error
			rowIDs, err = s.conversationRowIDs(ctx, tx, filter.ChannelID, filter.ConversationID)
			return err
		})
		if err != nil {
			return err
		}
		if len(rowIDs) == 0 {
			return nil
		}
	}

	var cursor *Cursor
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var page []ActivityRecord
		err := s.withTx(ctx, func(tx Tx) error {
			var err error
			page, err = tx.Records().Query(ctx, RecordQuery{
				ConversationRowIDs: rowIDs,
				Before:             before,
				After:              cursor,
				Limit:              s.opts.PageSize,
			})
			if err != nil {
				return storageError("query activity page", err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, rec := range page {
			if err := ctx.Err(); err != nil {
				return err
			}
			act, err := s.decode(rec)
			if err != nil {
				return err
			}
			if err := visit(ctx, act); err != nil {
				if errors.Is(err, ErrStopWalk) {
					return nil
				}
				return err
			}
		}

		if len(page) < s.opts.PageSize {
			return nil
		}
		last := page[len(page)-1]
		cursor = &Cursor{Timestamp: last.Timestamp, ID: last.ID}
	}
}

// Activities returns the walk as a lazy sequence. A failure is yielded once as
// the final element.
func (s *Service) Activities(ctx context.Context, filter WalkFilter) iter.Seq2[Activity, error] {
	return func(yield func(Activity, error) bool) {
		err := s.WalkActivities(ctx, filter, func(_ context.Context, act Activity) error {
			if !yield(act, nil) {
				return ErrStopWalk
			}
			return nil
		})
		if err != nil {
			yield(Activity{}, err)
		}
	}
}

// DeleteConversation removes the conversations matching the key together with
// their activities. Deleting a missing conversation is a no-op.
func (s *Service) DeleteConversation(ctx context.Context, channelID, conversationID string) error {
	if err := validateKey(channelID, conversationID); err != nil {
		return err
	}

	var removed int
	err := s.withTx(ctx, func(tx Tx) error {
		removed = 0
		rowIDs, err := s.conversationRowIDs(ctx, tx, channelID, conversationID)
		if err != nil {
			return err
		}
		for _, id := range rowIDs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := tx.Conversations().Remove(ctx, id); err != nil {
				return storageError("remove conversation", err)
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("conversation deleted", "channel_id", channelID, "conversation_id", conversationID, "removed", removed)
	return nil
}

// DeleteOlderThan removes every activity with a timestamp before oldest, then
// every conversation left without activities, in a single unit of work.
func (s *Service) DeleteOlderThan(ctx context.Context, oldest time.Time) (DeleteStats, error) {
	if oldest.IsZero() {
		return DeleteStats{}, fmt.Errorf("%w: cutoff time is required", ErrInvalidInput)
	}
	before, expire := upperBound(oldest)

	var stats DeleteStats
	err := s.withTx(ctx, func(tx Tx) error {
		stats = DeleteStats{}
		for expire {
			if err := ctx.Err(); err != nil {
				return err
			}
			page, err := tx.Records().Query(ctx, RecordQuery{Before: before, Limit: s.opts.PageSize})
			if err != nil {
				return storageError("query expired activities", err)
			}
			for _, rec := range page {
				if err := tx.Records().Remove(ctx, rec.ID); err != nil {
					return storageError("remove activity record", err)
				}
				stats.Activities++
			}
			if len(page) < s.opts.PageSize {
				break
			}
		}

		n, err := tx.Conversations().RemoveEmpty(ctx)
		if err != nil {
			return storageError("remove empty conversations", err)
		}
		stats.Conversations = n
		return nil
	})
	if err != nil {
		return DeleteStats{}, err
	}

	s.logger.Info("expired activities deleted", "before", oldest, "activities", stats.Activities, "conversations", stats.Conversations)
	return stats, nil
}

// DeleteUserActivities removes every activity addressed to userID and then
// every conversation those activities belonged to, including activities of
// other participants in them. With Options.ScopedUserDeletion only
// conversations left empty are removed.
//
// The work runs on its own goroutine. The returned channel receives the
// result once and is then closed.
func (s *Service) DeleteUserActivities(ctx context.Context, userID string) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- s.deleteUserActivities(ctx, userID)
	}()
	return done
}

func (s *Service) deleteUserActivities(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	var stats DeleteStats
	err := s.withTx(ctx, func(tx Tx) error {
		stats = DeleteStats{}

		// Collect the full match set before removing anything.
		matched, err := tx.Records().Query(ctx, RecordQuery{Recipient: userID})
		if err != nil {
			return storageError("query user activities", err)
		}

		var parents []int64
		seen := make(map[int64]struct{})
		for _, rec := range matched {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := tx.Records().Remove(ctx, rec.ID); err != nil {
				return storageError("remove activity record", err)
			}
			stats.Activities++
			if _, ok := seen[rec.ConversationRowID]; !ok {
				seen[rec.ConversationRowID] = struct{}{}
				parents = append(parents, rec.ConversationRowID)
			}
		}

		for _, id := range parents {
			if err := ctx.Err(); err != nil {
				return err
			}
			if s.opts.ScopedUserDeletion {
				remaining, err := tx.Records().Count(ctx, id)
				if err != nil {
					return storageError("count conversation activities", err)
				}
				if remaining > 0 {
					continue
				}
			}
			if err := tx.Conversations().Remove(ctx, id); err != nil {
				return storageError("remove conversation", err)
			}
			stats.Conversations++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("delete user activities failed", "user_id", userID, "error", err)
		return err
	}

	s.logger.Info("user activities deleted", "user_id", userID, "activities", stats.Activities, "conversations", stats.Conversations)
	return nil
}

// Flush commits the pending transaction. It is a no-op when nothing is pending.
func (s *Service) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return nil
	}
	tx := s.pending
	s.pending = nil
	if err := tx.Commit(); err != nil {
		return storageError("commit", err)
	}
	return nil
}

// Discard rolls back the pending transaction, dropping every unflushed change.
func (s *Service) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return nil
	}
	tx := s.pending
	s.pending = nil
	if err := tx.Rollback(); err != nil {
		return storageError("rollback", err)
	}
	return nil
}

// withTx runs fn in a unit of work. With AutoCommit the unit is committed on
// success and rolled back on failure. Otherwise fn joins the pending
// transaction; a failure rolls back and drops it.
func (s *Service) withTx(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !s.opts.AutoCommit {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.pending == nil {
			// The pending transaction outlives the call that opened it.
			tx, err := s.storage.Begin(context.WithoutCancel(ctx))
			if err != nil {
				return storageError("begin", err)
			}
			s.pending = tx
		}
		if err := fn(s.pending); err != nil {
			if rbErr := s.pending.Rollback(); rbErr != nil {
				s.logger.Warn("rollback of pending transaction failed", "error", rbErr)
			}
			s.pending = nil
			return err
		}
		return nil
	}

	tx, err := s.storage.Begin(ctx)
	if err != nil {
		return storageError("begin", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageError("commit", err)
	}
	return nil
}

func (s *Service) conversationRowIDs(ctx context.Context, tx Tx, channelID, conversationID string) ([]int64, error) {
	convs, err := tx.Conversations().Find(ctx, ConversationFilter{
		ChannelID:      channelID,
		ConversationID: conversationID,
	})
	if err != nil {
		return nil, storageError("find conversations", err)
	}
	ids := make([]int64, 0, len(convs))
	for _, conv := range convs {
		ids = append(ids, conv.ID)
	}
	return ids, nil
}

func (s *Service) decode(rec ActivityRecord) (Activity, error) {
	act, err := s.opts.Codec.Unmarshal(rec.Payload)
	if err != nil {
		return Activity{}, fmt.Errorf("%w: record %d: %w", ErrDeserialization, rec.ID, err)
	}
	return act, nil
}
