package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type redisKV interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Exists(ctx context.Context, keys ...string) *goredis.IntCmd
}

// RevocationStore records revoked stream credentials until they would have
// expired anyway.
type RevocationStore struct {
	client redisKV
}

// NewRevocationStore creates a RevocationStore on client.
func NewRevocationStore(client redisKV) *RevocationStore {
	return &RevocationStore{client: client}
}

// Revoke marks tokenID revoked for ttl. A non-positive ttl is a no-op since
// the credential has already expired.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" {
		return ErrEmptyTokenID
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token %s: %w", tokenID, err)
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked.
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, ErrEmptyTokenID
	}
	n, err := s.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation of %s: %w", tokenID, err)
	}
	return n > 0, nil
}
