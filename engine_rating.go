package raveauth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// RatingResult reports one applied rating transition.
type RatingResult struct {
	SubjectID  string
	TargetID   string
	PriorState RatingState
	NewState   RatingState
	// Applied is the signed delta pair handed to the statistics store. Zero
	// for a same-state resubmission.
	Applied CounterDelta
}

// SubmitRating validates an engagement proof and applies the caller's rating
// transition to the target's aggregate counters.
//
// Steps 1–2 (token verify, watch-duration gate) are local and short-circuit
// before any store call. The duration gate is strictly exclusive: elapsed
// must be greater than the required duration, not equal.
//
// The prior-state read, delta computation, and counter write are not fenced
// by any lock or CAS: the store applies deltas atomically so concurrent
// submissions never lose updates, but a rapid double-flip can compute a delta
// from a stale prior state. That bounded inconsistency is an accepted
// tradeoff of this design.
func (e *Engine) SubmitRating(ctx context.Context, engagementToken string, claimed RatingState) (*RatingResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if claimed != RatingPositive && claimed != RatingNegative {
		e.metrics.Inc(MetricRatingRejected)
		return nil, fmt.Errorf("%w: %s", ErrInvalidRating, claimed)
	}

	proof, err := e.codec.VerifyEngagement(engagementToken)
	if err != nil {
		e.metrics.Inc(MetricRatingRejected)
		return nil, mapTokenErr(err)
	}
	if proof.IssuedAt == nil {
		e.metrics.Inc(MetricRatingRejected)
		return nil, fmt.Errorf("%w: missing issued-at claim", ErrTokenMalformed)
	}

	elapsed := time.Since(proof.IssuedAt.Time)
	required := time.Duration(proof.RequiredDuration) * time.Second
	if elapsed <= required {
		e.metrics.Inc(MetricRatingDurationNotMet)
		e.emit(ctx, AuditEvent{
			EventType: AuditRatingDurationNotMet,
			SubjectID: proof.SubjectID,
			TargetID:  proof.TargetID,
			Metadata: map[string]string{
				"elapsed_seconds":  strconv.FormatInt(int64(elapsed.Seconds()), 10),
				"required_seconds": strconv.FormatInt(proof.RequiredDuration, 10),
			},
		})
		return nil, fmt.Errorf("%w: watched %ds of %ds", ErrMinimumDurationNotMet,
			int64(elapsed.Seconds()), proof.RequiredDuration)
	}

	return e.applyTransition(ctx, proof.SubjectID, proof.TargetID, claimed)
}

// RemoveRating clears the subject's rating for the target, decrementing the
// matching counter. Removing an absent rating is a no-op success.
func (e *Engine) RemoveRating(ctx context.Context, subjectID, targetID string) (*RatingResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if subjectID == "" || targetID == "" {
		return nil, fmt.Errorf("%w: empty subject or target", ErrInvalidRating)
	}

	return e.applyTransition(ctx, subjectID, targetID, RatingNone)
}

// RatingSummary reads the target's current aggregate counters.
func (e *Engine) RatingSummary(ctx context.Context, targetID string) (positive, negative int64, err error) {
	if err := e.ready(); err != nil {
		return 0, 0, err
	}

	positive, negative, err = e.stats.Counters(ctx, targetID)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	return positive, negative, nil
}

func (e *Engine) applyTransition(ctx context.Context, subjectID, targetID string, next RatingState) (*RatingResult, error) {
	prior, err := e.ratings.PriorRating(ctx, subjectID, targetID)
	if err != nil {
		return nil, e.persistenceFailure(ctx, subjectID, targetID, "prior_rating", err)
	}

	result := &RatingResult{
		SubjectID:  subjectID,
		TargetID:   targetID,
		PriorState: prior,
		NewState:   next,
		Applied:    ratingDelta(prior, next),
	}

	// Same-state resubmission: success, nothing to persist.
	if prior == next {
		e.metrics.Inc(MetricRatingApplied)
		return result, nil
	}

	if err := e.stats.ApplyCounterDelta(ctx, targetID, result.Applied); err != nil {
		return nil, e.persistenceFailure(ctx, subjectID, targetID, "counter_delta", err)
	}
	if err := e.ratings.SetRating(ctx, subjectID, targetID, next); err != nil {
		return nil, e.persistenceFailure(ctx, subjectID, targetID, "set_rating", err)
	}

	e.metrics.Inc(MetricRatingApplied)
	e.emit(ctx, AuditEvent{
		EventType: AuditRatingApplied,
		SubjectID: subjectID,
		TargetID:  targetID,
		Success:   true,
		Metadata: map[string]string{
			"prior": prior.String(),
			"next":  next.String(),
		},
	})

	return result, nil
}

// ratingDelta is the transition table: the delta removes the prior state's
// counter contribution and adds the next state's.
//
//	None     -> Positive: (+1,  0)
//	None     -> Negative: ( 0, +1)
//	Positive -> Negative: (-1, +1)
//	Negative -> Positive: (+1, -1)
//	Positive -> None:     (-1,  0)
//	Negative -> None:     ( 0, -1)
//	X        -> X:        ( 0,  0)
func ratingDelta(prior, next RatingState) CounterDelta {
	if prior == next {
		return CounterDelta{}
	}

	var d CounterDelta
	switch prior {
	case RatingPositive:
		d.Positive--
	case RatingNegative:
		d.Negative--
	}
	switch next {
	case RatingPositive:
		d.Positive++
	case RatingNegative:
		d.Negative++
	}
	return d
}

func (e *Engine) persistenceFailure(ctx context.Context, subjectID, targetID, op string, err error) error {
	e.metrics.Inc(MetricRatingPersistenceFailed)
	e.emit(ctx, AuditEvent{
		EventType: AuditRatingPersistenceFail,
		SubjectID: subjectID,
		TargetID:  targetID,
		Error:     err.Error(),
		Metadata:  map[string]string{"op": op},
	})
	if errors.Is(err, ErrPersistenceFailed) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrPersistenceFailed, op, err)
}
