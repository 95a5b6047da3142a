// Package memstore keeps conversations and activity records in process
// memory. Each conversation holds the ids of the records it owns, so there are
// no back references to maintain.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/ganot/convlog/internal/domain/activity"
	"github.com/ganot/convlog/internal/repository"
)

type conversationKey struct {
	channelID      string
	conversationID string
}

type arena struct {
	conversations map[int64]activity.Conversation
	keys          map[conversationKey]int64
	records       map[int64]activity.ActivityRecord
	children      map[int64][]int64
}

func newArena() *arena {
	return &arena{
		conversations: make(map[int64]activity.Conversation),
		keys:          make(map[conversationKey]int64),
		records:       make(map[int64]activity.ActivityRecord),
		children:      make(map[int64][]int64),
	}
}

func (a *arena) clone() *arena {
	c := &arena{
		conversations: make(map[int64]activity.Conversation, len(a.conversations)),
		keys:          make(map[conversationKey]int64, len(a.keys)),
		records:       make(map[int64]activity.ActivityRecord, len(a.records)),
		children:      make(map[int64][]int64, len(a.children)),
	}
	for id, conv := range a.conversations {
		c.conversations[id] = conv
	}
	for key, id := range a.keys {
		c.keys[key] = id
	}
	for id, rec := range a.records {
		c.records[id] = rec
	}
	for id, ids := range a.children {
		c.children[id] = slices.Clone(ids)
	}
	return c
}

// Store is an in-memory activity.Storage. Transactions work on a private copy
// of the arena and are serialized: Begin waits until the previous transaction
// has finished.
type Store struct {
	slot   chan struct{}
	state  *arena
	nextID atomic.Int64
	now    func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		slot:  make(chan struct{}, 1),
		state: newArena(),
		now:   time.Now,
	}
}

// Begin starts a transaction, waiting for any running one to finish.
func (s *Store) Begin(ctx context.Context) (activity.Tx, error) {
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	work := s.state.clone()
	tx := &Tx{store: s, work: work}
	tx.conversations = &conversationRepository{tx: tx}
	tx.records = &recordRepository{tx: tx}
	return tx, nil
}

// Tx is a memstore transaction.
type Tx struct {
	store         *Store
	work          *arena
	done          bool
	conversations *conversationRepository
	records       *recordRepository
}

func (t *Tx) Conversations() activity.ConversationRepository { return t.conversations }

func (t *Tx) Records() activity.RecordRepository { return t.records }

// Commit publishes the transaction's arena as the store state.
func (t *Tx) Commit() error {
	if t.done {
		return repository.ErrTxDone
	}
	t.done = true
	t.store.state = t.work
	<-t.store.slot
	return nil
}

// Rollback drops the transaction's changes.
func (t *Tx) Rollback() error {
	if t.done {
		return repository.ErrTxDone
	}
	t.done = true
	<-t.store.slot
	return nil
}

func (t *Tx) check(ctx context.Context) error {
	if t.done {
		return repository.ErrTxDone
	}
	return ctx.Err()
}

type conversationRepository struct {
	tx *Tx
}

func (r *conversationRepository) Find(ctx context.Context, filter activity.ConversationFilter) ([]activity.Conversation, error) {
	if err := r.tx.check(ctx); err != nil {
		return nil, err
	}
	var convs []activity.Conversation
	for _, conv := range r.tx.work.conversations {
		if filter.ChannelID != "" && conv.ChannelID != filter.ChannelID {
			continue
		}
		if filter.ConversationID != "" && conv.ConversationID != filter.ConversationID {
			continue
		}
		convs = append(convs, conv)
	}
	slices.SortFunc(convs, func(a, b activity.Conversation) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return convs, nil
}

func (r *conversationRepository) FindOrCreate(ctx context.Context, channelID, conversationID string) (*activity.Conversation, error) {
	if err := r.tx.check(ctx); err != nil {
		return nil, err
	}
	work := r.tx.work
	key := conversationKey{channelID: channelID, conversationID: conversationID}
	if id, ok := work.keys[key]; ok {
		conv := work.conversations[id]
		return &conv, nil
	}

	conv := activity.Conversation{
		ID:             r.tx.store.nextID.Add(1),
		ChannelID:      channelID,
		ConversationID: conversationID,
		CreatedAt:      r.tx.store.now().UTC(),
	}
	work.conversations[conv.ID] = conv
	work.keys[key] = conv.ID
	return &conv, nil
}

func (r *conversationRepository) Get(ctx context.Context, id int64) (*activity.Conversation, error) {
	if err := r.tx.check(ctx); err != nil {
		return nil, err
	}
	conv, ok := r.tx.work.conversations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &conv, nil
}

func (r *conversationRepository) Remove(ctx context.Context, id int64) error {
	if err := r.tx.check(ctx); err != nil {
		return err
	}
	work := r.tx.work
	conv, ok := work.conversations[id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, recID := range work.children[id] {
		delete(work.records, recID)
	}
	delete(work.children, id)
	delete(work.keys, conversationKey{channelID: conv.ChannelID, conversationID: conv.ConversationID})
	delete(work.conversations, id)
	return nil
}

func (r *conversationRepository) RemoveEmpty(ctx context.Context) (int64, error) {
	if err := r.tx.check(ctx); err != nil {
		return 0, err
	}
	var removed int64
	for id := range r.tx.work.conversations {
		if len(r.tx.work.children[id]) > 0 {
			continue
		}
		if err := r.Remove(ctx, id); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

type recordRepository struct {
	tx *Tx
}

func (r *recordRepository) Add(ctx context.Context, rec *activity.ActivityRecord) error {
	if err := r.tx.check(ctx); err != nil {
		return err
	}
	if err := activity.CheckStorable(rec.Timestamp); err != nil {
		return err
	}
	work := r.tx.work
	if _, ok := work.conversations[rec.ConversationRowID]; !ok {
		return repository.ErrNotFound
	}
	rec.ID = r.tx.store.nextID.Add(1)
	stored := *rec
	stored.Payload = slices.Clone(rec.Payload)
	work.records[stored.ID] = stored
	work.children[stored.ConversationRowID] = append(work.children[stored.ConversationRowID], stored.ID)
	return nil
}

func (r *recordRepository) Query(ctx context.Context, q activity.RecordQuery) ([]activity.ActivityRecord, error) {
	if err := r.tx.check(ctx); err != nil {
		return nil, err
	}
	if !q.Before.IsZero() {
		if err := activity.CheckStorable(q.Before); err != nil {
			return nil, err
		}
	}
	work := r.tx.work

	var candidates []activity.ActivityRecord
	if q.ConversationRowIDs != nil {
		for _, convID := range q.ConversationRowIDs {
			for _, recID := range work.children[convID] {
				candidates = append(candidates, work.records[recID])
			}
		}
	} else {
		for _, rec := range work.records {
			candidates = append(candidates, rec)
		}
	}

	matched := candidates[:0]
	for _, rec := range candidates {
		if q.Recipient != "" && rec.Recipient != q.Recipient {
			continue
		}
		if !q.Before.IsZero() && !rec.Timestamp.Before(q.Before) {
			continue
		}
		if q.After != nil && compareRecord(rec, q.After.Timestamp, q.After.ID) <= 0 {
			continue
		}
		matched = append(matched, rec)
	}

	slices.SortFunc(matched, func(a, b activity.ActivityRecord) int {
		return compareRecord(a, b.Timestamp, b.ID)
	})
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	for i := range matched {
		matched[i].Payload = slices.Clone(matched[i].Payload)
	}
	return matched, nil
}

func (r *recordRepository) Remove(ctx context.Context, id int64) error {
	if err := r.tx.check(ctx); err != nil {
		return err
	}
	work := r.tx.work
	rec, ok := work.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	work.children[rec.ConversationRowID] = slices.DeleteFunc(work.children[rec.ConversationRowID], func(recID int64) bool {
		return recID == id
	})
	delete(work.records, id)
	return nil
}

func (r *recordRepository) Count(ctx context.Context, conversationRowID int64) (int64, error) {
	if err := r.tx.check(ctx); err != nil {
		return 0, err
	}
	return int64(len(r.tx.work.children[conversationRowID])), nil
}

func compareRecord(rec activity.ActivityRecord, ts time.Time, id int64) int {
	if c := rec.Timestamp.Compare(ts); c != 0 {
		return c
	}
	return cmp.Compare(rec.ID, id)
}
