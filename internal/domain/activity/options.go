package activity

import "time"

// DefaultPageSize bounds each storage round trip of walks and bulk deletes.
const DefaultPageSize = 100

// Options configures a Service.
type Options struct {
	// AutoCommit commits after every mutating call. When false, calls share a
	// pending transaction that the caller commits with Flush.
	AutoCommit bool
	PageSize   int
	// ScopedUserDeletion keeps conversations that still hold other users'
	// activities when deleting a user's activities.
	ScopedUserDeletion bool
	Codec              Codec
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.Codec == nil {
		o.Codec = JSONCodec{}
	}
	return o
}

// WalkFilter selects the activities visited by a walk. Empty ids match any
// conversation and a zero OlderThan means no upper bound.
type WalkFilter struct {
	ChannelID      string
	ConversationID string
	OlderThan      time.Time
}

// ConversationFilter selects conversations by key. Empty fields match anything.
type ConversationFilter struct {
	ChannelID      string
	ConversationID string
}

// Cursor is a keyset position in (timestamp, id) order.
type Cursor struct {
	Timestamp time.Time
	ID        int64
}

// RecordQuery provides filtering options for querying records.
type RecordQuery struct {
	// ConversationRowIDs restricts results to these conversations. Nil matches
	// every conversation; an empty non-nil slice matches none.
	ConversationRowIDs []int64
	Recipient          string
	// Before is an exclusive upper bound on the timestamp. Zero means unbounded.
	Before time.Time
	// After returns only records strictly after the cursor.
	After *Cursor
	Limit int
}
