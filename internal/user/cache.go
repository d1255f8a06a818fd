package user

import (
	"context"
	"time"

	"verilist/internal/domain"
	platformredis "verilist/internal/platform/redis"
)

// CachedStatus serves verification status reads through Redis. Authorization
// middleware in the listings service hits this on every publish attempt, so
// reads must not touch PostgreSQL on the hot path. The cache is refreshed by
// the request and decision services after each committed status change and
// degrades to the backing store when Redis is not configured.
type CachedStatus struct {
	store Store
	redis *platformredis.Client
	ttl   time.Duration
}

func NewCachedStatus(store Store, redis *platformredis.Client, ttl time.Duration) *CachedStatus {
	return &CachedStatus{store: store, redis: redis, ttl: ttl}
}

func statusKey(userID string) string {
	return "verilist:status:" + userID
}

// Get returns the user's verification status, consulting Redis first.
func (c *CachedStatus) Get(ctx context.Context, userID string) (domain.UserVerificationStatus, error) {
	if c.redis != nil {
		if cached, err := c.redis.Get(ctx, statusKey(userID)).Result(); err == nil && cached != "" {
			return domain.UserVerificationStatus(cached), nil
		}
	}
	u, err := c.store.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	c.set(ctx, userID, u.VerificationStatus)
	return u.VerificationStatus, nil
}

// Refresh overwrites the cached status after a committed transition. A cache
// write failure is ignored; the next read falls through to the store.
func (c *CachedStatus) Refresh(ctx context.Context, userID string, status domain.UserVerificationStatus) {
	c.set(ctx, userID, status)
}

func (c *CachedStatus) set(ctx context.Context, userID string, status domain.UserVerificationStatus) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Set(ctx, statusKey(userID), string(status), c.ttl).Err()
}
