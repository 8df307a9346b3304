package focus

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pxy05/ownMi-websocket/internal/db"
)

// PGStore persists session records in the focus_sessions table.
type PGStore struct {
	db *db.DB
}

func NewPGStore(database *db.DB) *PGStore {
	return &PGStore{db: database}
}

func (s *PGStore) Insert(ctx context.Context, rec SessionRecord) (*SessionRecord, error) {

	// a zero CreatedAt defers to the column default
	var providedCreatedAt *time.Time
	if !rec.CreatedAt.IsZero() {
		providedCreatedAt = &rec.CreatedAt
	}

	var (
		id        uuid.UUID
		createdAt time.Time
	)

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO focus_sessions
			(user_id, session_type, notes, created_at,
			 start_time, end_time, duration_seconds, last_heartbeat)
		VALUES ($1, $2, $3, COALESCE($4, now()), $5, $6, $7, $8)
		RETURNING id, created_at
	`,
		rec.UserID,
		rec.SessionType,
		rec.Notes,
		providedCreatedAt,
		rec.StartTime,
		rec.EndTime,
		rec.DurationSeconds,
		rec.LastHeartbeat,
	).Scan(&id, &createdAt)

	if err != nil {
		return nil, err
	}

	rec.ID = id.String()
	rec.CreatedAt = createdAt
	return &rec, nil
}

func (s *PGStore) SelectByUser(
	ctx context.Context,
	userID string,
	f Filter,
	orderBy string,
	descending bool,
	limit int,
) ([]SessionRecord, error) {

	switch orderBy {
	case ColumnCreatedAt, ColumnStartTime:
	default:
		return nil, fmt.Errorf("focus: unsupported order column %q", orderBy)
	}

	args := []any{userID}
	query := `
		SELECT id, user_id, session_type, notes, created_at,
		       start_time, end_time, duration_seconds, last_heartbeat
		FROM focus_sessions
		WHERE user_id = $1` + filterClauses(f, &args)

	query += " ORDER BY " + orderBy
	if descending {
		query += " DESC"
	}
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []SessionRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (s *PGStore) UpdateByID(ctx context.Context, id string, p Patch, pre *Precondition) (bool, error) {

	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.StartTime != nil {
		add(ColumnStartTime, *p.StartTime)
	}
	if p.EndTime != nil {
		add(ColumnEndTime, *p.EndTime)
	}
	if p.DurationSeconds != nil {
		add("duration_seconds", *p.DurationSeconds)
	}
	if p.LastHeartbeat != nil {
		add("last_heartbeat", *p.LastHeartbeat)
	}

	if len(sets) == 0 {
		return false, nil
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE focus_sessions SET %s WHERE id = $%d",
		strings.Join(sets, ", "),
		len(args),
	)

	if pre != nil {
		if pre.MustBeNull {
			query += fmt.Sprintf(" AND %s IS NULL", pre.Column)
		} else {
			query += fmt.Sprintf(" AND %s IS NOT NULL", pre.Column)
		}
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (s *PGStore) DeleteByID(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM focus_sessions WHERE id = $1
	`, id)
	return err
}

func (s *PGStore) DeleteWhere(ctx context.Context, userID string, f Filter) (int64, error) {

	args := []any{userID}
	query := "DELETE FROM focus_sessions WHERE user_id = $1" + filterClauses(f, &args)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func filterClauses(f Filter, args *[]any) string {
	var b strings.Builder

	if f.ID != nil {
		*args = append(*args, *f.ID)
		fmt.Fprintf(&b, " AND id = $%d", len(*args))
	}

	if f.EndTimeNull != nil {
		if *f.EndTimeNull {
			b.WriteString(" AND end_time IS NULL")
		} else {
			b.WriteString(" AND end_time IS NOT NULL")
		}
	}

	if f.StartTimeNull != nil {
		if *f.StartTimeNull {
			b.WriteString(" AND start_time IS NULL")
		} else {
			b.WriteString(" AND start_time IS NOT NULL")
		}
	}

	if f.StartTimeAfter != nil {
		*args = append(*args, *f.StartTimeAfter)
		fmt.Fprintf(&b, " AND start_time > $%d", len(*args))
	}

	return b.String()
}

func scanRecord(rows *sql.Rows) (SessionRecord, error) {

	var (
		rec       SessionRecord
		id        uuid.UUID
		userID    uuid.UUID
		notes     sql.NullString
		start     sql.NullTime
		end       sql.NullTime
		duration  sql.NullInt64
		heartbeat sql.NullTime
	)

	err := rows.Scan(
		&id,
		&userID,
		&rec.SessionType,
		&notes,
		&rec.CreatedAt,
		&start,
		&end,
		&duration,
		&heartbeat,
	)
	if err != nil {
		return rec, err
	}

	rec.ID = id.String()
	rec.UserID = userID.String()
	if notes.Valid {
		rec.Notes = &notes.String
	}
	if start.Valid {
		rec.StartTime = &start.Time
	}
	if end.Valid {
		rec.EndTime = &end.Time
	}
	if duration.Valid {
		rec.DurationSeconds = &duration.Int64
	}
	if heartbeat.Valid {
		rec.LastHeartbeat = &heartbeat.Time
	}

	return rec, nil
}
