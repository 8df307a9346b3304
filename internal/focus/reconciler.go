package focus

import (
	"context"
	"fmt"
	"time"

	"github.com/pxy05/ownMi-websocket/internal/logger"
)

// Reconciler sweeps a user's records back toward the one-active-session
// target. Consistency here is eventual: races are accepted at write time
// and resolved by these passes.
type Reconciler struct {
	store  Store
	emit   *logger.Emitter
	window time.Duration
	now    func() time.Time
}

func NewReconciler(store Store, emit *logger.Emitter, window time.Duration) *Reconciler {
	return &Reconciler{
		store:  store,
		emit:   emit,
		window: window,
		now:    time.Now,
	}
}

// CleanupOrphans runs three independent deletion passes for one user:
// stale never-started duplicates, orphaned records, and just-ended records
// inside the suspicious trailing window. A failure in one pass does not
// block the others.
func (r *Reconciler) CleanupOrphans(ctx context.Context, userID string) {
	if userID == "" {
		return
	}

	r.cleanupStalePending(ctx, userID)
	r.cleanupOrphaned(ctx, userID)
	r.cleanupRecentEnded(ctx, userID)
}

// cleanupStalePending removes never-started duplicates, always sparing the
// most recently created one: it may be mid-start on another connection.
func (r *Reconciler) cleanupStalePending(ctx context.Context, userID string) {
	pending, err := r.store.SelectByUser(ctx, userID,
		Filter{EndTimeNull: boolp(true), StartTimeNull: boolp(true)},
		ColumnCreatedAt, true, 0)
	if err != nil {
		r.emit.EmitFor("cleanup: pending fetch failed: "+err.Error(), userID)
		return
	}

	if len(pending) <= 1 {
		return
	}

	deleted := 0
	for _, rec := range pending[1:] {
		if err := r.store.DeleteByID(ctx, rec.ID); err != nil {
			r.emit.EmitFor("cleanup: delete pending "+rec.ID+" failed: "+err.Error(), userID)
			continue
		}
		deleted++
	}

	r.emit.EmitFor(fmt.Sprintf("cleanup: removed %d stale pending sessions", deleted), userID)
}

// cleanupOrphaned removes records that ended without ever starting. These
// only exist through external mutation; there is nothing to salvage.
func (r *Reconciler) cleanupOrphaned(ctx context.Context, userID string) {
	n, err := r.store.DeleteWhere(ctx, userID,
		Filter{EndTimeNull: boolp(false), StartTimeNull: boolp(true)})
	if err != nil {
		r.emit.EmitFor("cleanup: orphan delete failed: "+err.Error(), userID)
		return
	}

	if n > 0 {
		r.emit.EmitFor(fmt.Sprintf("cleanup: removed %d orphaned sessions", n), userID)
	}
}

// cleanupRecentEnded removes ended records whose start falls inside the
// trailing window. This is a second net for suspicious durations, covering
// rows closed by code paths other than End.
func (r *Reconciler) cleanupRecentEnded(ctx context.Context, userID string) {
	cutoff := r.now().Add(-r.window)
	n, err := r.store.DeleteWhere(ctx, userID,
		Filter{EndTimeNull: boolp(false), StartTimeAfter: &cutoff})
	if err != nil {
		r.emit.EmitFor("cleanup: recent-ended delete failed: "+err.Error(), userID)
		return
	}

	if n > 0 {
		r.emit.EmitFor(fmt.Sprintf("cleanup: removed %d just-ended sessions inside the suspicious window", n), userID)
	}
}

// DeleteByID removes one record owned by the given user. An id that is
// already gone, or that belongs to someone else, deletes nothing and is
// not an error.
func (r *Reconciler) DeleteByID(ctx context.Context, id string, userID string) error {
	if userID == "" {
		return ErrEmptyUserID
	}

	n, err := r.store.DeleteWhere(ctx, userID, Filter{ID: &id})
	if err != nil {
		r.emit.EmitFor("deleteSession: delete of "+id+" failed: "+err.Error(), userID)
		return &StoreError{Op: "delete session", Err: err}
	}

	if n > 0 {
		r.emit.EmitFor("deleteSession: removed "+id, userID)
	}
	return nil
}
