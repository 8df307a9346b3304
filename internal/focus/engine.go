package focus

import (
	"context"
	"fmt"
	"time"

	"github.com/pxy05/ownMi-websocket/internal/logger"
)

// Policy bounds what counts as a believable session duration. Sessions
// ending outside [MinDuration, MaxDuration] are discarded rather than
// recorded: too short is an accidental tap, too long is a crashed client.
type Policy struct {
	MinDuration      time.Duration
	MaxDuration      time.Duration
	SuspiciousWindow time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MinDuration:      1 * time.Second,
		MaxDuration:      24 * time.Hour,
		SuspiciousWindow: 30 * time.Second,
	}
}

// Engine owns the session state machine: create, start, end, heartbeat,
// checkActive. It is stateless between calls; the store is the only shared
// resource, so consistency work lands on End's reconciliation and the
// cleanup sweep rather than on locks.
type Engine struct {
	store  Store
	emit   *logger.Emitter
	policy Policy
	now    func() time.Time
}

func NewEngine(store Store, emit *logger.Emitter, policy Policy) *Engine {
	return &Engine{
		store:  store,
		emit:   emit,
		policy: policy,
		now:    time.Now,
	}
}

// Create inserts a lifecycle-neutral record with no start time. Legacy
// entry point kept for older clients; the canonical flow is Start, which
// creates and starts in one insert.
func (e *Engine) Create(ctx context.Context, userID string, sessionType string, notes *string) (*SessionRecord, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if sessionType == "" {
		sessionType = DefaultSessionType
	}

	rec, err := e.store.Insert(ctx, SessionRecord{
		UserID:      userID,
		SessionType: sessionType,
		Notes:       notes,
		CreatedAt:   e.now(),
	})
	if err != nil {
		e.emit.EmitFor("createSession: insert failed: "+err.Error(), userID)
		return nil, &StoreError{Op: "create session", Err: err}
	}

	e.emit.EmitFor("createSession: created "+rec.ID, userID)
	return rec, nil
}

// Start inserts a new active record. It deliberately does not look for an
// existing active session first: duplicates are cheaper to reconcile on End
// than to prevent here.
func (e *Engine) Start(ctx context.Context, userID string) (*SessionRecord, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	now := e.now()
	rec, err := e.store.Insert(ctx, SessionRecord{
		UserID:        userID,
		SessionType:   DefaultSessionType,
		CreatedAt:     now,
		StartTime:     &now,
		LastHeartbeat: &now,
	})
	if err != nil {
		e.emit.EmitFor("startSession: insert failed: "+err.Error(), userID)
		return nil, &StoreError{Op: "start session", Err: err}
	}

	e.emit.EmitFor("startSession: started "+rec.ID, userID)
	return rec, nil
}

// End closes the user's active session. With several open candidates the
// most recent start wins; the rest are left for the cleanup sweep, which is
// what the returned reconcile flag requests. (nil, false, nil) means there
// was nothing to end, a normal outcome — and deliberately also what a
// suspicious-duration discard returns, so callers cannot tell the two
// apart without the log side channel.
func (e *Engine) End(ctx context.Context, userID string) (*SessionRecord, bool, error) {
	if userID == "" {
		return nil, false, ErrEmptyUserID
	}

	candidates, err := e.store.SelectByUser(ctx, userID,
		Filter{EndTimeNull: boolp(true)}, ColumnStartTime, true, 0)
	if err != nil {
		e.emit.EmitFor("endSession: fetch failed: "+err.Error(), userID)
		return nil, false, &StoreError{Op: "end session", Err: err}
	}

	if len(candidates) == 0 {
		e.emit.EmitFor("endSession: no active session", userID)
		return nil, false, nil
	}

	canonical := pickCanonical(candidates)
	reconcile := len(candidates) > 1

	if canonical.StartTime == nil {
		// degenerate: never started, nothing to measure
		if err := e.store.DeleteByID(ctx, canonical.ID); err != nil {
			e.emit.EmitFor("endSession: delete of unstarted session failed: "+err.Error(), userID)
			return nil, reconcile, &StoreError{Op: "end session", Err: err}
		}
		e.emit.EmitFor("endSession: deleted unstarted session "+canonical.ID, userID)
		return nil, reconcile, nil
	}

	now := e.now()
	duration := int64(now.Sub(*canonical.StartTime) / time.Second)

	// the bounds apply to the whole seconds that would be recorded, so an
	// end a fraction past the maximum still floors back inside the range
	if duration < int64(e.policy.MinDuration/time.Second) || duration > int64(e.policy.MaxDuration/time.Second) {
		if err := e.store.DeleteByID(ctx, canonical.ID); err != nil {
			e.emit.EmitFor("endSession: delete of suspicious session failed: "+err.Error(), userID)
			return nil, reconcile, &StoreError{Op: "end session", Err: err}
		}
		e.emit.EmitFor(fmt.Sprintf("endSession: discarded session %s with suspicious duration %ds", canonical.ID, duration), userID)
		return nil, reconcile, nil
	}

	updated, err := e.store.UpdateByID(ctx, canonical.ID,
		Patch{EndTime: &now, DurationSeconds: &duration},
		&Precondition{Column: ColumnEndTime, MustBeNull: true},
	)
	if err != nil {
		e.emit.EmitFor("endSession: update failed: "+err.Error(), userID)
		return nil, reconcile, &StoreError{Op: "end session", Err: err}
	}
	if !updated {
		// lost the race to a concurrent end; the session is already closed
		e.emit.EmitFor("endSession: session "+canonical.ID+" already ended", userID)
		return nil, reconcile, nil
	}

	canonical.EndTime = &now
	canonical.DurationSeconds = &duration
	e.emit.EmitFor(fmt.Sprintf("endSession: ended %s after %ds", canonical.ID, duration), userID)
	return &canonical, reconcile, nil
}

// Heartbeat stamps liveness on the most recently created open record.
// Absence of one is a logged no-op, and so is a fetch failure: the next
// heartbeat simply tries again.
func (e *Engine) Heartbeat(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptyUserID
	}

	recs, err := e.store.SelectByUser(ctx, userID,
		Filter{EndTimeNull: boolp(true)}, ColumnCreatedAt, true, 1)
	if err != nil {
		e.emit.EmitFor("heartbeat: fetch failed: "+err.Error(), userID)
		return nil
	}
	if len(recs) == 0 {
		e.emit.EmitFor("heartbeat: no open session", userID)
		return nil
	}

	now := e.now()
	if _, err := e.store.UpdateByID(ctx, recs[0].ID, Patch{LastHeartbeat: &now}, nil); err != nil {
		e.emit.EmitFor("heartbeat: update failed: "+err.Error(), userID)
		return &StoreError{Op: "heartbeat", Err: err}
	}

	return nil
}

// CheckActive reports whether the user has at least one open record. Pure
// read, no mutation.
func (e *Engine) CheckActive(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, ErrEmptyUserID
	}

	recs, err := e.store.SelectByUser(ctx, userID,
		Filter{EndTimeNull: boolp(true)}, ColumnCreatedAt, true, 1)
	if err != nil {
		e.emit.EmitFor("sessionCheck: fetch failed: "+err.Error(), userID)
		return false, &StoreError{Op: "check active", Err: err}
	}

	return len(recs) > 0, nil
}

// pickCanonical returns the candidate with the greatest start time. A
// record that never started loses to any started one; store NULL-ordering
// quirks therefore cannot influence the choice.
func pickCanonical(candidates []SessionRecord) SessionRecord {
	best := candidates[0]
	for _, c := range candidates[1:] {
		switch {
		case c.StartTime == nil:
		case best.StartTime == nil:
			best = c
		case c.StartTime.After(*best.StartTime):
			best = c
		}
	}
	return best
}
