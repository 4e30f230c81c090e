package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// Redis is the shared remote backend. Every operation round-trips and may
// fail; callers are expected to wrap it in a Failover.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the given address and verifies connectivity with a
// bounded ping.
func NewRedis(addr string, password string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Redis{client: client}, nil
}

func (r *Redis) PutSession(ctx context.Context, rec SessionRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return r.client.Set(ctx, sessionKeyPrefix+rec.SessionID, data, ttl).Err()
}

func (r *Redis) GetSession(ctx context.Context, sessionID string) (*SessionRecord, error) {
	val, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec SessionRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &rec, nil
}

func (r *Redis) TouchSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	return r.client.Expire(ctx, sessionKeyPrefix+sessionID, ttl).Err()
}

func (r *Redis) DeleteSession(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

// IncrWindow relies on INCR being atomic server-side. EXPIRE NX arms the
// window only on the hit that created the key, so two racing first hits
// cannot open duplicate windows.
func (r *Redis) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	pttl := pipe.PTTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	resetIn := pttl.Val()
	if resetIn <= 0 {
		resetIn = window
	}

	return incr.Val(), resetIn, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
