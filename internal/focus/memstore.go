package focus

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps records in memory behind a mutex. It backs tests and
// DSN-less local runs with the same contract as PGStore.
type MemoryStore struct {
	mu      sync.Mutex
	records []SessionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Insert(ctx context.Context, rec SessionRecord) (*SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = uuid.NewString()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	m.records = append(m.records, rec)
	out := rec
	return &out, nil
}

func (m *MemoryStore) SelectByUser(
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

	m.mu.Lock()
	defer m.mu.Unlock()

	matched := []SessionRecord{}
	for _, rec := range m.records {
		if rec.UserID == userID && matches(f, rec) {
			matched = append(matched, rec)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := orderValue(matched[i], orderBy), orderValue(matched[j], orderBy)
		if descending {
			return a.After(b)
		}
		return a.Before(b)
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

func (m *MemoryStore) UpdateByID(ctx context.Context, id string, p Patch, pre *Precondition) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		if m.records[i].ID != id {
			continue
		}

		if pre != nil {
			isNull, err := columnIsNull(m.records[i], pre.Column)
			if err != nil {
				return false, err
			}
			if isNull != pre.MustBeNull {
				return false, nil
			}
		}

		if p.StartTime != nil {
			t := *p.StartTime
			m.records[i].StartTime = &t
		}
		if p.EndTime != nil {
			t := *p.EndTime
			m.records[i].EndTime = &t
		}
		if p.DurationSeconds != nil {
			d := *p.DurationSeconds
			m.records[i].DurationSeconds = &d
		}
		if p.LastHeartbeat != nil {
			t := *p.LastHeartbeat
			m.records[i].LastHeartbeat = &t
		}

		return true, nil
	}

	return false, nil
}

func (m *MemoryStore) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	for _, rec := range m.records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	m.records = kept
	return nil
}

func (m *MemoryStore) DeleteWhere(ctx context.Context, userID string, f Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	kept := m.records[:0]
	for _, rec := range m.records {
		if rec.UserID == userID && matches(f, rec) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	m.records = kept
	return deleted, nil
}

// All returns a snapshot of every stored record, for tests.
func (m *MemoryStore) All() []SessionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SessionRecord(nil), m.records...)
}

func matches(f Filter, rec SessionRecord) bool {
	if f.ID != nil && rec.ID != *f.ID {
		return false
	}
	if f.EndTimeNull != nil && (rec.EndTime == nil) != *f.EndTimeNull {
		return false
	}
	if f.StartTimeNull != nil && (rec.StartTime == nil) != *f.StartTimeNull {
		return false
	}
	if f.StartTimeAfter != nil {
		if rec.StartTime == nil || !rec.StartTime.After(*f.StartTimeAfter) {
			return false
		}
	}
	return true
}

// orderValue treats an absent timestamp as the zero time, so never-started
// records sort to the bottom of a descending start_time scan.
func orderValue(rec SessionRecord, orderBy string) time.Time {
	if orderBy == ColumnStartTime {
		if rec.StartTime == nil {
			return time.Time{}
		}
		return *rec.StartTime
	}
	return rec.CreatedAt
}

func columnIsNull(rec SessionRecord, column string) (bool, error) {
	switch column {
	case ColumnStartTime:
		return rec.StartTime == nil, nil
	case ColumnEndTime:
		return rec.EndTime == nil, nil
	default:
		return false, fmt.Errorf("focus: unsupported precondition column %q", column)
	}
}
