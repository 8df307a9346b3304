package focus

import (
	"context"
	"time"
)

// Service is the facade the transport layer talks to. It maps intents 1:1
// onto the engine and schedules reconciliation; it adds no policy of its
// own.
type Service struct {
	engine         *Engine
	reconciler     *Reconciler
	cleanupTimeout time.Duration
}

func NewService(engine *Engine, reconciler *Reconciler) *Service {
	return &Service{
		engine:         engine,
		reconciler:     reconciler,
		cleanupTimeout: 10 * time.Second,
	}
}

func (s *Service) Create(ctx context.Context, userID string, sessionType string, notes *string) (*SessionRecord, error) {
	return s.engine.Create(ctx, userID, sessionType, notes)
}

func (s *Service) Start(ctx context.Context, userID string) (*SessionRecord, error) {
	return s.engine.Start(ctx, userID)
}

// End closes the active session. When the engine saw duplicate open
// records it fires the cleanup sweep as a follow-up the caller does not
// wait for.
func (s *Service) End(ctx context.Context, userID string) (*SessionRecord, error) {
	rec, reconcile, err := s.engine.End(ctx, userID)
	if reconcile {
		go func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
			defer cancel()
			s.reconciler.CleanupOrphans(cleanupCtx, userID)
		}()
	}
	return rec, err
}

func (s *Service) Heartbeat(ctx context.Context, userID string) error {
	return s.engine.Heartbeat(ctx, userID)
}

func (s *Service) CheckActive(ctx context.Context, userID string) (bool, error) {
	return s.engine.CheckActive(ctx, userID)
}

// Cleanup runs the reconciliation passes on demand.
func (s *Service) Cleanup(ctx context.Context, userID string) {
	s.reconciler.CleanupOrphans(ctx, userID)
}

// Delete removes one record by id.
func (s *Service) Delete(ctx context.Context, id string, userID string) error {
	return s.reconciler.DeleteByID(ctx, id, userID)
}
