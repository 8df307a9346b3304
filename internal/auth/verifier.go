package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken signals a credential that failed verification or expired.
var ErrInvalidToken = errors.New("invalid or expired token")

// Verifier resolves an opaque client credential to a stable user ID.
// Implementations return identity facts only; session decisions belong to
// the focus engine.
type Verifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}
