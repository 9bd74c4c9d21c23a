package metrics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRecorder shares counters between instances. Totals are cumulative;
// per-day buckets expire after ttl.
type RedisRecorder struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

type RedisOption func(*RedisRecorder)

func WithPrefix(prefix string) RedisOption {
	return func(r *RedisRecorder) { r.prefix = strings.Trim(prefix, ":") }
}

func WithBucketTTL(d time.Duration) RedisOption {
	return func(r *RedisRecorder) { r.ttl = d }
}

func NewRedisRecorder(rdb *redis.Client, opts ...RedisOption) *RedisRecorder {
	r := &RedisRecorder{
		rdb:    rdb,
		prefix: "slot-booking:outcomes",
		ttl:    7 * 24 * time.Hour,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisRecorder) totalKey() string {
	return r.prefix + ":total"
}

func (r *RedisRecorder) Record(ctx context.Context, outcome Outcome) error {
	if r == nil || r.rdb == nil {
		return nil
	}

	dayKey := fmt.Sprintf("%s:day:%s", r.prefix, r.now().UTC().Format("20060102"))

	pipe := r.rdb.Pipeline()
	pipe.HIncrBy(ctx, r.totalKey(), string(outcome), 1)
	pipe.HIncrBy(ctx, dayKey, string(outcome), 1)
	if r.ttl > 0 {
		pipe.Expire(ctx, dayKey, r.ttl)
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisRecorder) Snapshot(ctx context.Context) (map[Outcome]int64, error) {
	out := make(map[Outcome]int64)
	if r == nil || r.rdb == nil {
		return out, nil
	}

	fields, err := r.rdb.HGetAll(ctx, r.totalKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("read outcome counters: %w", err)
	}

	for field, value := range fields {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse counter %s: %w", field, err)
		}
		out[Outcome(field)] = n
	}
	return out, nil
}
