package focus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pxy05/ownMi-websocket/internal/logger"
)

const testUserID = "cb095e4e-e945-42ee-bc87-b9158d3882c5"

func testEmitter() *logger.Emitter {
	return logger.NewEmitter(logger.EmitterOptions{Disabled: true})
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestEngine(t *testing.T) (*Engine, *MemoryStore, *fakeClock) {
	t.Helper()

	store := NewMemoryStore()
	clock := &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}

	engine := NewEngine(store, testEmitter(), DefaultPolicy())
	engine.now = clock.Now

	return engine, store, clock
}

func TestStartInsertsActiveRecord(t *testing.T) {
	engine, store, clock := newTestEngine(t)

	rec, err := engine.Start(context.Background(), testUserID)
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	require.Equal(t, testUserID, rec.UserID)
	require.Equal(t, DefaultSessionType, rec.SessionType)
	require.Equal(t, StateActive, rec.State())
	require.Equal(t, clock.Now(), *rec.StartTime)
	require.NotNil(t, rec.LastHeartbeat)
	require.Nil(t, rec.EndTime)
	require.Nil(t, rec.DurationSeconds)

	require.Len(t, store.All(), 1)
}

func TestStartRejectsEmptyUser(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.Start(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyUserID)
}

func TestStartDoesNotCheckForExistingActive(t *testing.T) {
	engine, store, clock := newTestEngine(t)

	_, err := engine.Start(context.Background(), testUserID)
	require.NoError(t, err)

	clock.Advance(time.Second)

	_, err = engine.Start(context.Background(), testUserID)
	require.NoError(t, err)

	// two concurrent starts are accepted; End reconciles later
	require.Len(t, store.All(), 2)
}

func TestEndComputesFlooredDuration(t *testing.T) {
	engine, _, clock := newTestEngine(t)

	started, err := engine.Start(context.Background(), testUserID)
	require.NoError(t, err)

	clock.Advance(2500 * time.Millisecond)

	ended, reconcile, err := engine.End(context.Background(), testUserID)
	require.NoError(t, err)
	require.False(t, reconcile)
	require.NotNil(t, ended)
	require.Equal(t, started.ID, ended.ID)
	require.Equal(t, StateEnded, ended.State())
	require.Equal(t, clock.Now(), *ended.EndTime)
	require.Equal(t, int64(2), *ended.DurationSeconds)
}

func TestEndWithNoActiveSession(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	rec, reconcile, err := engine.End(context.Background(), testUserID)
	require.NoError(t, err)
	require.False(t, reconcile)
	require.Nil(t, rec)
}

func TestEndDiscardsTooShortSession(t *testing.T) {
	engine, store, _ := newTestEngine(t)

	before := len(store.All())

	_, err := engine.Start(context.Background(), testUserID)
	require.NoError(t, err)

	// no time passes: elapsed 0s is below the 1s minimum
	rec, _, err := engine.End(context.Background(), testUserID)
	require.NoError(t, err)
	require.Nil(t, rec)

	require.Len(t, store.All(), before)
}

func TestEndDiscardsTooLongSession(t *testing.T) {
	engine, store, clock := newTestEngine(t)

	start := clock.Now().Add(-25 * time.Hour)
	_, err := store.Insert(context.Background(), SessionRecord{
		UserID:      testUserID,
		SessionType: DefaultSessionType,
		CreatedAt:   start,
		StartTime:   &start,
	})
	require.NoError(t, err)

	rec, _, err := engine.End(context.Background(), testUserID)
	require.NoError(t, err)
	require.Nil(t, rec)

	require.Empty(t, store.All())
}

func TestEndJustPastMaximumFloorsInsideRange(t *testing.T) {
	engine, store, clock := newTestEngine(t)

	// 24h plus a fraction of a second floors to exactly the 86400s cap
	start := clock.Now().Add(-24*time.Hour - 500*time.Millisecond)
	_, err := store.Insert(context.Background(), SessionRecord{
		UserID:      testUserID,
		SessionType: DefaultSessionType,
		CreatedAt:   start,
		StartTime:   &start,
	})
	require.NoError(t, err)

	rec, _, err := engine.End(context.Background(), testUserID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, int64(86400), *rec.DurationSeconds)

	require.Len(t, store.All(), 1)
}

func TestEndIsIdempotent(t *testing.T) {
	engine, store, clock := newTestEngine(t)

	_, err := engine.Start(context.Background(), testUserID)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)

	first, _, err := engine.End(context.Background(), testUserID)
	require.NoError(t, err)
	require.NotNil(t, first)

	clock.Advance(time.Minute)

	second, _, err := engine.End(context.Background(), testUserID)
	require.NoError(t, err)
	require.Nil(t, second)

	records := store.All()
	require.Len(t, records, 1)
	require.Equal(t, *first.EndTime, *records[0].EndTime)
	require.Equal(t, *first.DurationSeconds, *records[0].DurationSeconds)
}

func TestEndPicksMostRecentStart(t *testing.T) {
	engine, store, clock := newTestEngine(t)

	older, err := engine.Start(context.Background(), testUserID)
	require.NoError(t, err)

	clock.Advance(10 * time.Second)

	newer, err := engine.Start(context.Background(), testUserID)
	require.NoError(t, err)

	clock.Advance(5 * time.Second)

	ended, reconcile, err := engine.End(context.Background(), testUserID)
	require.NoError(t, err)
	require.True(t, reconcile)
	require.Equal(t, newer.ID, ended.ID)
	require.Equal(t, int64(5), *ended.DurationSeconds)

	// the losing record is left open for the cleanup sweep
	for _, rec := range store.All() {
		if rec.ID == older.ID {
			require.Equal(t, StateActive, rec.State())
		}
	}
}

func TestEndDeletesDegenerateCanonical(t *testing.T) {
	engine, store, clock := newTestEngine(t)

	_, err := store.Insert(context.Background(), SessionRecord{
		UserID:      testUserID,
		SessionType: DefaultSessionType,
		CreatedAt:   clock.Now(),
	})
	require.NoError(t, err)

	rec, _, err := engine.End(context.Background(), testUserID)
	require.NoError(t, err)
	require.Nil(t, rec)

	require.Empty(t, store.All())
}

// staleReadStore serves reads from a fixed snapshot while writes hit the
// backing store, reproducing an End whose candidate was closed by a
// concurrent End between fetch and update.
type staleReadStore struct {
	*MemoryStore
	snapshot []SessionRecord
}

func (s *staleReadStore) SelectByUser(ctx context.Context, userID string, f Filter, orderBy string, descending bool, limit int) ([]SessionRecord, error) {
	return append([]SessionRecord(nil), s.snapshot...), nil
}

func TestEndLosesOptimisticRaceGracefully(t *testing.T) {
	engine, store, clock := newTestEngine(t)

	started, err := engine.Start(context.Background(), testUserID)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)

	// a concurrent end closes the record after our candidate fetch
	end := clock.Now()
	duration := int64(2)
	updated, err := store.UpdateByID(context.Background(), started.ID,
		Patch{EndTime: &end, DurationSeconds: &duration}, nil)
	require.NoError(t, err)
	require.True(t, updated)

	racer := NewEngine(&staleReadStore{MemoryStore: store, snapshot: []SessionRecord{*started}}, testEmitter(), DefaultPolicy())
	racer.now = clock.Now

	clock.Advance(time.Minute)

	rec, _, err := racer.End(context.Background(), testUserID)
	require.NoError(t, err)
	require.Nil(t, rec)

	// the winner's timestamps are untouched
	records := store.All()
	require.Len(t, records, 1)
	require.Equal(t, end, *records[0].EndTime)
	require.Equal(t, duration, *records[0].DurationSeconds)
}

func TestCreateInsertsPendingRecord(t *testing.T) {
	engine, store, _ := newTestEngine(t)

	notes := "planning block"
	rec, err := engine.Create(context.Background(), testUserID, "", &notes)
	require.NoError(t, err)
	require.Equal(t, DefaultSessionType, rec.SessionType)
	require.Equal(t, StatePending, rec.State())
	require.Equal(t, &notes, rec.Notes)

	require.Len(t, store.All(), 1)
}

func TestHeartbeatNoOpWithoutRecords(t *testing.T) {
	engine, store, _ := newTestEngine(t)

	err := engine.Heartbeat(context.Background(), testUserID)
	require.NoError(t, err)
	require.Empty(t, store.All())
}

func TestHeartbeatStampsMostRecentOpenRecord(t *testing.T) {
	engine, store, clock := newTestEngine(t)

	started, err := engine.Start(context.Background(), testUserID)
	require.NoError(t, err)

	clock.Advance(30 * time.Second)

	require.NoError(t, engine.Heartbeat(context.Background(), testUserID))

	records := store.All()
	require.Len(t, records, 1)
	require.Equal(t, started.ID, records[0].ID)
	require.Equal(t, clock.Now(), *records[0].LastHeartbeat)

	// duration math is untouched by heartbeats
	require.Nil(t, records[0].EndTime)
	require.Nil(t, records[0].DurationSeconds)
}

func TestCheckActive(t *testing.T) {
	engine, _, clock := newTestEngine(t)

	active, err := engine.CheckActive(context.Background(), testUserID)
	require.NoError(t, err)
	require.False(t, active)

	_, err = engine.Start(context.Background(), testUserID)
	require.NoError(t, err)

	active, err = engine.CheckActive(context.Background(), testUserID)
	require.NoError(t, err)
	require.True(t, active)

	clock.Advance(2 * time.Second)
	_, _, err = engine.End(context.Background(), testUserID)
	require.NoError(t, err)

	active, err = engine.CheckActive(context.Background(), testUserID)
	require.NoError(t, err)
	require.False(t, active)
}

func TestFullSessionScenario(t *testing.T) {
	engine, store, clock := newTestEngine(t)

	started, err := engine.Start(context.Background(), testUserID)
	require.NoError(t, err)
	startTime := *started.StartTime

	clock.Advance(2 * time.Second)

	ended, _, err := engine.End(context.Background(), testUserID)
	require.NoError(t, err)
	require.Equal(t, started.ID, ended.ID)
	require.Equal(t, startTime.Add(2*time.Second), *ended.EndTime)
	require.Equal(t, int64(2), *ended.DurationSeconds)

	again, _, err := engine.End(context.Background(), testUserID)
	require.NoError(t, err)
	require.Nil(t, again)

	records := store.All()
	require.Len(t, records, 1)
	require.Equal(t, *ended.EndTime, *records[0].EndTime)
}
