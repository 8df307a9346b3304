package db

import (
	"context"
	"database/sql"
)

const focusSessionsMigration = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS focus_sessions (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id uuid NOT NULL,
    session_type character varying(20) NOT NULL,
    notes text,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    start_time timestamptz,
    end_time timestamptz,
    duration_seconds integer,
    last_heartbeat timestamptz
);

CREATE INDEX IF NOT EXISTS focus_sessions_user_id_idx
ON focus_sessions (user_id);

CREATE INDEX IF NOT EXISTS focus_sessions_active_idx
ON focus_sessions (user_id) WHERE end_time IS NULL;
`

// RunFocusMigration creates the focus_sessions table. The partial index on
// active rows accelerates lookups only; active-session uniqueness is
// reconciled after the fact, never enforced here.
func RunFocusMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, focusSessionsMigration)
	return err
}
