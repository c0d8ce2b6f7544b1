package stores

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	fieldPositive = "positive"
	fieldNegative = "negative"
)

// ErrStatisticsRedisUnavailable wraps transport failures so callers can treat
// them as transient.
var ErrStatisticsRedisUnavailable = errors.New("statistics redis unavailable")

// clampScript applies one signed delta to a hash field atomically and floors
// the result at zero. HINCRBY alone would let a stale decrement drive a
// counter negative.
var clampScript = redis.NewScript(`
local v = redis.call('HINCRBY', KEYS[1], ARGV[1], ARGV[2])
if v < 0 then
  redis.call('HSET', KEYS[1], ARGV[1], 0)
  return 0
end
return v
`)

// Statistics keeps per-target aggregate rating counters. All mutations are
// atomic increment-by-delta on the redis side; concurrent deltas never lose
// updates.
type Statistics struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStatistics builds the store. An empty prefix defaults to "rst".
func NewStatistics(redisClient redis.UniversalClient, prefix string) *Statistics {
	if prefix == "" {
		prefix = "rst"
	}
	return &Statistics{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Statistics) key(targetID string) string {
	return s.prefix + ":" + targetID
}

// ApplyDelta adds the signed pair to the target's counters. Zero components
// are skipped; either counter is clamped at zero.
func (s *Statistics) ApplyDelta(ctx context.Context, targetID string, positive, negative int64) error {
	key := s.key(targetID)

	if positive != 0 {
		if err := clampScript.Run(ctx, s.redis, []string{key}, fieldPositive, positive).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrStatisticsRedisUnavailable, err)
		}
	}
	if negative != 0 {
		if err := clampScript.Run(ctx, s.redis, []string{key}, fieldNegative, negative).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrStatisticsRedisUnavailable, err)
		}
	}

	return nil
}

// Counters reads the current aggregate pair. Missing fields read as zero.
func (s *Statistics) Counters(ctx context.Context, targetID string) (positive, negative int64, err error) {
	values, err := s.redis.HMGet(ctx, s.key(targetID), fieldPositive, fieldNegative).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrStatisticsRedisUnavailable, err)
	}

	positive, err = parseCounter(values[0])
	if err != nil {
		return 0, 0, err
	}
	negative, err = parseCounter(values[1])
	if err != nil {
		return 0, 0, err
	}

	return positive, negative, nil
}

func parseCounter(v interface{}) (int64, error) {
	if v == nil {
		return 0, nil
	}
	str, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("%w: unexpected counter type %T", ErrStatisticsRedisUnavailable, v)
	}
	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad counter value %q", ErrStatisticsRedisUnavailable, str)
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}
