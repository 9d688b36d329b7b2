package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNoRedis is returned by operations that need Redis when none is configured.
var ErrNoRedis = errors.New("redis not configured")

// RevokeSession blacklists sessionID until expiresAt.
func (s *Store) RevokeSession(ctx context.Context, sessionID string, expiresAt time.Time) error {
	if !s.Enabled() {
		return ErrNoRedis
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, RevokedKey(sessionID), "1", ttl).Err()
}

// IsRevoked reports whether sessionID was blacklisted. Without Redis nothing is revoked.
func (s *Store) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	if !s.Enabled() || sessionID == "" {
		return false, nil
	}
	n, err := s.rdb.Exists(ctx, RevokedKey(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
