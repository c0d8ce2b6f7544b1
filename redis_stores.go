package raveauth

import (
	"context"

	"github.com/raveboxhq/raveauth/internal/stores"
)

// Thin adapters lifting the primitive-typed bundled stores into the public
// collaborator interfaces.

type redisStatistics struct {
	inner *stores.Statistics
}

func (s redisStatistics) ApplyCounterDelta(ctx context.Context, targetID string, delta CounterDelta) error {
	return s.inner.ApplyDelta(ctx, targetID, delta.Positive, delta.Negative)
}

func (s redisStatistics) Counters(ctx context.Context, targetID string) (int64, int64, error) {
	return s.inner.Counters(ctx, targetID)
}

type redisRatingState struct {
	inner *stores.RatingState
}

func (s redisRatingState) PriorRating(ctx context.Context, subjectID, targetID string) (RatingState, error) {
	state, err := s.inner.Prior(ctx, subjectID, targetID)
	if err != nil {
		return RatingNone, err
	}
	return ratingStateFromWire(state), nil
}

func (s redisRatingState) SetRating(ctx context.Context, subjectID, targetID string, state RatingState) error {
	return s.inner.Set(ctx, subjectID, targetID, ratingStateToWire(state))
}

func ratingStateFromWire(v uint8) RatingState {
	switch v {
	case stores.RatingStatePositive:
		return RatingPositive
	case stores.RatingStateNegative:
		return RatingNegative
	default:
		return RatingNone
	}
}

func ratingStateToWire(s RatingState) uint8 {
	switch s {
	case RatingPositive:
		return stores.RatingStatePositive
	case RatingNegative:
		return stores.RatingStateNegative
	default:
		return stores.RatingStateNone
	}
}
