package keylock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultRedisTTL  = 30 * time.Second
	defaultRedisPoll = 25 * time.Millisecond
	releaseTimeout   = 2 * time.Second
)

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
	LockKey(name string) string
}

// Redis is a Locker shared by every API instance pointing at the same redis.
// Holds expire after ttl so a crashed holder cannot wedge a key forever.
type Redis struct {
	client redisStore
	ttl    time.Duration
	poll   time.Duration
}

func NewRedis(client redisStore, ttl, poll time.Duration) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client required for key locks")
	}
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	if poll <= 0 {
		poll = defaultRedisPoll
	}
	return &Redis{client: client, ttl: ttl, poll: poll}, nil
}

func (r *Redis) Lock(ctx context.Context, key string) (Release, error) {
	redisKey := r.client.LockKey(key)
	owner := uuid.NewString()

	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, redisKey, owner, r.ttl)
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be cancelled here.
			releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			_, _ = r.client.CompareAndDelete(releaseCtx, redisKey, owner)
		})
	}, nil
}
