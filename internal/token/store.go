package token

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultKey well-known key the login flow writes the token under
const DefaultKey = "storefront:auth:token"

// Store reads the persisted auth token. A missing token is "" with no error.
type Store interface {
	Token(ctx context.Context) (string, error)
}

// RedisStore reads the token from a Redis string key.
// It never writes; the login flow owns the key.
type RedisStore struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

// NewRedisStore creates a RedisStore; an empty key means DefaultKey.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{
		client: client,
		key:    key,
		logger: slog.Default(),
	}
}

// Token returns the current token.
func (s *RedisStore) Token(ctx context.Context) (string, error) {
	tok, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		s.logger.Debug("No persisted auth token", "key", s.key)
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return tok, nil
}

// StaticStore a fixed token, e.g. from a flag or environment variable.
type StaticStore string

// Token returns the fixed token.
func (s StaticStore) Token(context.Context) (string, error) {
	return string(s), nil
}

// Fallback tries each store in order and returns the first non-empty token.
type Fallback []Store

// Token returns the first non-empty token. Errors from earlier stores are
// skipped when a later store has a token.
func (f Fallback) Token(ctx context.Context) (string, error) {
	var firstErr error
	for _, s := range f {
		tok, err := s.Token(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if tok != "" {
			return tok, nil
		}
	}
	return "", firstErr
}
