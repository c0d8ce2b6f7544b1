package stores

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ratingRecordVersionV1 = 1
	ratingRecordSize      = 1 + 1 + 8 // version, state, updatedAt
)

// Rating state wire values. RatingStateNone is never stored: setting it
// deletes the record instead.
const (
	RatingStateNone     uint8 = 0
	RatingStateNegative uint8 = 1
	RatingStatePositive uint8 = 2
)

var (
	// ErrRatingRedisUnavailable wraps transport failures so callers can treat
	// them as transient.
	ErrRatingRedisUnavailable = errors.New("rating state redis unavailable")
	// ErrRatingRecordCorrupt reports a stored record that does not decode.
	ErrRatingRecordCorrupt = errors.New("rating state record corrupt")
)

// RatingState persists one rating direction per (subject, target) pair as a
// compact versioned binary record under a per-subject hash.
type RatingState struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRatingState builds the store. An empty prefix defaults to "rrs".
func NewRatingState(redisClient redis.UniversalClient, prefix string) *RatingState {
	if prefix == "" {
		prefix = "rrs"
	}
	return &RatingState{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *RatingState) key(subjectID string) string {
	return s.prefix + ":" + subjectID
}

// Prior returns the stored state for (subjectID, targetID), or
// RatingStateNone when the subject has never rated the target.
func (s *RatingState) Prior(ctx context.Context, subjectID, targetID string) (uint8, error) {
	data, err := s.redis.HGet(ctx, s.key(subjectID), targetID).Bytes()
	if errors.Is(err, redis.Nil) {
		return RatingStateNone, nil
	}
	if err != nil {
		return RatingStateNone, fmt.Errorf("%w: %v", ErrRatingRedisUnavailable, err)
	}

	state, err := decodeRatingRecord(data)
	if err != nil {
		return RatingStateNone, err
	}
	return state, nil
}

// Set persists the new state. Setting RatingStateNone deletes the record, so
// a cleared rating is indistinguishable from one that never existed.
func (s *RatingState) Set(ctx context.Context, subjectID, targetID string, state uint8) error {
	if state == RatingStateNone {
		if err := s.redis.HDel(ctx, s.key(subjectID), targetID).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRatingRedisUnavailable, err)
		}
		return nil
	}
	if state != RatingStateNegative && state != RatingStatePositive {
		return fmt.Errorf("%w: unknown state %d", ErrRatingRecordCorrupt, state)
	}

	record := encodeRatingRecord(state, time.Now().Unix())
	if err := s.redis.HSet(ctx, s.key(subjectID), targetID, record).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRatingRedisUnavailable, err)
	}
	return nil
}

func encodeRatingRecord(state uint8, updatedAt int64) []byte {
	record := make([]byte, ratingRecordSize)
	record[0] = ratingRecordVersionV1
	record[1] = state
	binary.BigEndian.PutUint64(record[2:], uint64(updatedAt))
	return record
}

func decodeRatingRecord(data []byte) (uint8, error) {
	if len(data) != ratingRecordSize {
		return RatingStateNone, fmt.Errorf("%w: bad length %d", ErrRatingRecordCorrupt, len(data))
	}
	if data[0] != ratingRecordVersionV1 {
		return RatingStateNone, fmt.Errorf("%w: unknown version %d", ErrRatingRecordCorrupt, data[0])
	}
	state := data[1]
	if state != RatingStateNegative && state != RatingStatePositive {
		return RatingStateNone, fmt.Errorf("%w: unknown state %d", ErrRatingRecordCorrupt, state)
	}
	return state, nil
}
