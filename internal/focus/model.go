package focus

import "time"

// DefaultSessionType classifies sessions begun through the canonical start
// flow. The engine treats the value as an opaque tag.
const DefaultSessionType = "from_zero"

// State of a record, derived from timestamp presence. There is no persisted
// status column; the (StartTime, EndTime) pair is the single source of truth.
type State int

const (
	// StatePending means neither timestamp is set: created but never
	// started. Legitimate only transiently, between a bare create and the
	// start that claims it.
	StatePending State = iota
	// StateActive is the sole in-progress state: started, not ended.
	StateActive
	// StateEnded is terminal: both timestamps set.
	StateEnded
	// StateOrphan means ended without ever starting. Only external
	// tampering or partial failure produces it; always a deletion target.
	StateOrphan
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateEnded:
		return "ended"
	case StateOrphan:
		return "orphan"
	default:
		return "unknown"
	}
}

// SessionRecord is one focus_sessions row. The store owns every record; the
// engine only holds transient copies fetched per operation.
type SessionRecord struct {
	ID              string
	UserID          string
	SessionType     string
	Notes           *string
	CreatedAt       time.Time
	StartTime       *time.Time
	EndTime         *time.Time
	DurationSeconds *int64
	LastHeartbeat   *time.Time
}

func (r *SessionRecord) State() State {
	switch {
	case r.StartTime == nil && r.EndTime == nil:
		return StatePending
	case r.StartTime != nil && r.EndTime == nil:
		return StateActive
	case r.StartTime != nil && r.EndTime != nil:
		return StateEnded
	default:
		return StateOrphan
	}
}

func boolp(b bool) *bool { return &b }

func strp(s string) *string { return &s }
