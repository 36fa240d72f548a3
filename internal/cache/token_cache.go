package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GTDGit/kbank_qr/pkg/kbankqr"
)

// tokenSkew is subtracted from the token lifetime so a cached token is never
// handed out in its last seconds.
const tokenSkew = 60 * time.Second

// Store is the key/value surface TokenCache needs. RedisClient satisfies it.
type Store interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
}

// TokenData is a cached access token.
type TokenData struct {
	Info     kbankqr.CustomerInfo `json:"info"`
	IssuedAt time.Time            `json:"issuedAt"`
}

// TokenCache stores access tokens per consumer and environment.
type TokenCache struct {
	store Store
	now   func() time.Time
}

// NewTokenCache creates a new TokenCache.
func NewTokenCache(store Store) *TokenCache {
	return &TokenCache{store: store, now: time.Now}
}

// keyFor returns the Redis key for a consumer's token on baseURL.
func (c *TokenCache) keyFor(baseURL, consumerID string) string {
	return fmt.Sprintf("kbank:token:%s:%s", baseURL, consumerID)
}

// ttlFor returns how long a token issued at issuedAt may still be served.
// Zero or less means it should not be cached.
func (c *TokenCache) ttlFor(info kbankqr.CustomerInfo, issuedAt time.Time) (time.Duration, error) {
	lifetime, err := info.Lifetime()
	if err != nil {
		return 0, err
	}
	return issuedAt.Add(lifetime - tokenSkew).Sub(c.now()), nil
}

// Set stores a token. Tokens too close to expiry are skipped.
func (c *TokenCache) Set(ctx context.Context, baseURL, consumerID string, data *TokenData) error {
	ttl, err := c.ttlFor(data.Info, data.IssuedAt)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal token data: %w", err)
	}

	if err := c.store.Set(ctx, c.keyFor(baseURL, consumerID), string(jsonData), ttl); err != nil {
		return fmt.Errorf("failed to set token: %w", err)
	}
	return nil
}

// Get retrieves a token. ErrMiss is returned when none is cached or the
// cached one is about to expire.
func (c *TokenCache) Get(ctx context.Context, baseURL, consumerID string) (*TokenData, error) {
	jsonData, err := c.store.Get(ctx, c.keyFor(baseURL, consumerID))
	if err != nil {
		return nil, err
	}

	var data TokenData
	if err := json.Unmarshal([]byte(jsonData), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token data: %w", err)
	}

	ttl, err := c.ttlFor(data.Info, data.IssuedAt)
	if err != nil || ttl <= 0 {
		return nil, ErrMiss
	}
	return &data, nil
}

// Delete removes a cached token.
func (c *TokenCache) Delete(ctx context.Context, baseURL, consumerID string) error {
	return c.store.Delete(ctx, c.keyFor(baseURL, consumerID))
}

// IsMiss reports whether err means the token was not cached.
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}
