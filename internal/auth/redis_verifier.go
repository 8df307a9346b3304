package auth

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type tokenSession struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RedisVerifier resolves tokens against session entries written by the
// service that issued them. The token itself is opaque: it is only ever
// used as a lookup key.
type RedisVerifier struct {
	client *goredis.Client
	prefix string
}

func NewRedisVerifier(client *goredis.Client) *RedisVerifier {
	return &RedisVerifier{
		client: client,
		prefix: "session:",
	}
}

func (v *RedisVerifier) key(token string) string {
	return v.prefix + token
}

func (v *RedisVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	val, err := v.client.Get(ctx, v.key(token)).Result()
	if err == goredis.Nil {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", err
	}

	var s tokenSession
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return "", ErrInvalidToken
	}

	if s.UserID == "" {
		return "", ErrInvalidToken
	}

	if !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt) {
		// expired entries are removed best-effort
		_ = v.client.Del(ctx, v.key(token)).Err()
		return "", ErrInvalidToken
	}

	return s.UserID, nil
}
