package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AvailabilityCache holds computed availability payloads in Redis. Keys embed
// a per-class version counter, so invalidating a class is a single INCR and
// stale entries age out via TTL instead of being scanned for.
type AvailabilityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// Key identifies one availability evaluation. Day is the evaluation's "today"
// in the schedule timezone; results are only valid for that calendar day.
type Key struct {
	FranchiseID    string
	ClassID        string
	Day            string
	ParticipantAge string
}

func New(rdb *redis.Client, ttl time.Duration) *AvailabilityCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AvailabilityCache{rdb: rdb, ttl: ttl}
}

func (c *AvailabilityCache) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	k, err := c.renderKey(ctx, key)
	if err != nil {
		return nil, false, err
	}
	payload, err := c.rdb.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (c *AvailabilityCache) Set(ctx context.Context, key Key, payload []byte) error {
	k, err := c.renderKey(ctx, key)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, k, payload, c.ttl).Err()
}

// InvalidateClass bumps the class's version counter, orphaning every cached
// entry for that class at once.
func (c *AvailabilityCache) InvalidateClass(ctx context.Context, classID string) error {
	return c.rdb.Incr(ctx, versionKey(classID)).Err()
}

func (c *AvailabilityCache) renderKey(ctx context.Context, key Key) (string, error) {
	ver, err := c.rdb.Get(ctx, versionKey(key.ClassID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	age := key.ParticipantAge
	if age == "" {
		age = "any"
	}
	return fmt.Sprintf("avail:v%d:%s:%s:%s:%s", ver, key.FranchiseID, key.ClassID, key.Day, age), nil
}

func versionKey(classID string) string {
	return "avail:ver:" + classID
}

func ReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if rdb == nil {
			return errors.New("redis not configured")
		}
		return rdb.Ping(ctx).Err()
	}
}
