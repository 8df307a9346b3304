package focus

import (
	"context"
	"time"
)

// Filter narrows SelectByUser and DeleteWhere to records matching every set
// condition. Nil fields mean "no constraint".
type Filter struct {
	ID             *string
	EndTimeNull    *bool
	StartTimeNull  *bool
	StartTimeAfter *time.Time
}

// Patch lists the mutable columns. Nil fields are left untouched.
// created_at is deliberately absent: it is set at insert and never mutated.
type Patch struct {
	StartTime       *time.Time
	EndTime         *time.Time
	DurationSeconds *int64
	LastHeartbeat   *time.Time
}

// Precondition guards an update: the named column must still be null (or
// not null) for the update to apply. This is the optimistic check that
// makes concurrent ends resolve to exactly one winner.
type Precondition struct {
	Column     string
	MustBeNull bool
}

// Columns accepted by SelectByUser ordering and Precondition.
const (
	ColumnCreatedAt = "created_at"
	ColumnStartTime = "start_time"
	ColumnEndTime   = "end_time"
)

// Store is the persistence contract consumed by the engine and the
// reconciler. Implementations are pure translation and carry no session
// policy. Lookups that match nothing return an empty slice and a nil error.
type Store interface {
	// Insert persists the record as given: a set CreatedAt, EndTime or
	// DurationSeconds is stored, a zero CreatedAt is stamped with now.
	Insert(ctx context.Context, rec SessionRecord) (*SessionRecord, error)

	SelectByUser(ctx context.Context, userID string, f Filter, orderBy string, descending bool, limit int) ([]SessionRecord, error)

	// UpdateByID reports false without error when the record is missing or
	// the precondition no longer holds.
	UpdateByID(ctx context.Context, id string, p Patch, pre *Precondition) (bool, error)

	// DeleteByID is idempotent: deleting an absent id is not an error.
	DeleteByID(ctx context.Context, id string) error

	DeleteWhere(ctx context.Context, userID string, f Filter) (int64, error)
}
