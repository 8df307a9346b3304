package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier validates bearer JWTs against an OIDC issuer and uses the
// subject claim as the user ID.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier initializes the verifier using issuer discovery.
func NewOIDCVerifier(ctx context.Context, issuer string, clientID string) (*OIDCVerifier, error) {

	if issuer == "" || clientID == "" {
		return nil, errors.New("oidc verifier config missing required fields")
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init oidc provider: %w", err)
	}

	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{
			ClientID: clientID,
		}),
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return "", ErrInvalidToken
	}

	if idToken.Subject == "" {
		return "", ErrInvalidToken
	}

	return idToken.Subject, nil
}
