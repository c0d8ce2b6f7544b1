package raveauth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRatingDeltaTable(t *testing.T) {
	cases := []struct {
		prior RatingState
		next  RatingState
		want  CounterDelta
	}{
		{RatingNone, RatingPositive, CounterDelta{Positive: 1}},
		{RatingNone, RatingNegative, CounterDelta{Negative: 1}},
		{RatingPositive, RatingNegative, CounterDelta{Positive: -1, Negative: 1}},
		{RatingNegative, RatingPositive, CounterDelta{Positive: 1, Negative: -1}},
		{RatingPositive, RatingNone, CounterDelta{Positive: -1}},
		{RatingNegative, RatingNone, CounterDelta{Negative: -1}},
		{RatingNone, RatingNone, CounterDelta{}},
		{RatingPositive, RatingPositive, CounterDelta{}},
		{RatingNegative, RatingNegative, CounterDelta{}},
	}
	for _, tc := range cases {
		if got := ratingDelta(tc.prior, tc.next); got != tc.want {
			t.Errorf("ratingDelta(%s, %s) = %+v, want %+v", tc.prior, tc.next, got, tc.want)
		}
	}
}

func TestSubmitRatingDurationGate(t *testing.T) {
	engine, _, done := newTestEngine(t, nil)
	defer done()
	ctx := context.Background()

	// Watched 10s of a required 15s: rejected.
	early := signEngagementAt(t, time.Now().Add(-10*time.Second), "u1", "v1", 15)
	_, err := engine.SubmitRating(ctx, early, RatingPositive)
	if !errors.Is(err, ErrMinimumDurationNotMet) {
		t.Fatalf("expected ErrMinimumDurationNotMet, got %v", err)
	}

	// Watched 16s: accepted. The boundary is strictly exclusive.
	late := signEngagementAt(t, time.Now().Add(-16*time.Second), "u1", "v1", 15)
	result, err := engine.SubmitRating(ctx, late, RatingPositive)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.NewState != RatingPositive || result.PriorState != RatingNone {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := engine.metrics.Value(MetricRatingDurationNotMet); got != 1 {
		t.Fatalf("expected 1 duration rejection recorded, got %d", got)
	}
}

func TestSubmitRatingTransitions(t *testing.T) {
	engine, _, done := newTestEngine(t, nil)
	defer done()
	ctx := context.Background()

	proof := signEngagementAt(t, time.Now().Add(-30*time.Second), "u1", "v1", 15)

	// None -> Positive: (+1, 0).
	first, err := engine.SubmitRating(ctx, proof, RatingPositive)
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if first.Applied != (CounterDelta{Positive: 1}) {
		t.Fatalf("unexpected first delta: %+v", first.Applied)
	}

	// Positive -> Negative: (-1, +1). The proof is decoded, not consumed.
	second, err := engine.SubmitRating(ctx, proof, RatingNegative)
	if err != nil {
		t.Fatalf("second submit failed: %v", err)
	}
	if second.Applied != (CounterDelta{Positive: -1, Negative: 1}) {
		t.Fatalf("unexpected second delta: %+v", second.Applied)
	}

	pos, neg, err := engine.RatingSummary(ctx, "v1")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if pos != 0 || neg != 1 {
		t.Fatalf("expected aggregate (0, 1), got (%d, %d)", pos, neg)
	}

	// Negative -> Negative: idempotent no-op that still succeeds.
	third, err := engine.SubmitRating(ctx, proof, RatingNegative)
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if !third.Applied.IsZero() {
		t.Fatalf("expected no-op delta, got %+v", third.Applied)
	}

	pos, neg, err = engine.RatingSummary(ctx, "v1")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if pos != 0 || neg != 1 {
		t.Fatalf("no-op must not move counters, got (%d, %d)", pos, neg)
	}
}

func TestSubmitRatingRejectsBadTokens(t *testing.T) {
	engine, _, done := newTestEngine(t, nil)
	defer done()
	ctx := context.Background()

	if _, err := engine.SubmitRating(ctx, "garbage", RatingPositive); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}

	// A session token is not an engagement proof.
	sessionToken := signSessionAt(t, time.Now(), time.Hour, "u1", "user", "n")
	if _, err := engine.SubmitRating(ctx, sessionToken, RatingPositive); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed for wrong kind, got %v", err)
	}

	// A proof outside its 15 minute TTL is expired even if the watch
	// duration was met long ago.
	stale := signEngagementAt(t, time.Now().Add(-20*time.Minute), "u1", "v1", 15)
	if _, err := engine.SubmitRating(ctx, stale, RatingPositive); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	if _, err := engine.SubmitRating(ctx, "", RatingNone); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating, got %v", err)
	}
}

func TestSubmitRatingPersistenceFailure(t *testing.T) {
	engine, mr, done := newTestEngine(t, nil)
	defer done()
	ctx := context.Background()

	proof := signEngagementAt(t, time.Now().Add(-30*time.Second), "u1", "v1", 15)

	mr.Close()

	_, err := engine.SubmitRating(ctx, proof, RatingPositive)
	if !errors.Is(err, ErrPersistenceFailed) {
		t.Fatalf("expected ErrPersistenceFailed, got %v", err)
	}
	if got := engine.metrics.Value(MetricRatingPersistenceFailed); got != 1 {
		t.Fatalf("expected persistence failure recorded, got %d", got)
	}
}

func TestRemoveRating(t *testing.T) {
	engine, _, done := newTestEngine(t, nil)
	defer done()
	ctx := context.Background()

	proof := signEngagementAt(t, time.Now().Add(-30*time.Second), "u1", "v1", 15)
	if _, err := engine.SubmitRating(ctx, proof, RatingPositive); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	removed, err := engine.RemoveRating(ctx, "u1", "v1")
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if removed.Applied != (CounterDelta{Positive: -1}) {
		t.Fatalf("unexpected removal delta: %+v", removed.Applied)
	}

	pos, neg, err := engine.RatingSummary(ctx, "v1")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if pos != 0 || neg != 0 {
		t.Fatalf("expected cleared aggregate, got (%d, %d)", pos, neg)
	}

	// Removing an absent rating is a no-op success.
	again, err := engine.RemoveRating(ctx, "u1", "v1")
	if err != nil {
		t.Fatalf("second remove failed: %v", err)
	}
	if !again.Applied.IsZero() {
		t.Fatalf("expected no-op delta, got %+v", again.Applied)
	}
}

func TestIssueEngagementToken(t *testing.T) {
	engine, _, done := newTestEngine(t, func(cfg *Config) {
		cfg.Engagement.RequiredDurationByType = map[string]int64{"short": 5}
	})
	defer done()
	ctx := context.Background()

	// Authenticated subject binds as-is.
	signed, err := engine.IssueEngagementToken(ctx, "u1", "v1", "")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	claims, err := testCodec(t).VerifyEngagement(signed)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.SubjectID != "u1" || claims.TargetID != "v1" || claims.RequiredDuration != 15 {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// Anonymous callers get an explicit marker, and per-type policy applies.
	anon, err := engine.IssueEngagementToken(ctx, "", "v2", "short")
	if err != nil {
		t.Fatalf("anonymous issue failed: %v", err)
	}
	anonClaims, err := testCodec(t).VerifyEngagement(anon)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !strings.HasPrefix(anonClaims.SubjectID, "anon:") {
		t.Fatalf("expected anonymous marker, got %q", anonClaims.SubjectID)
	}
	if anonClaims.RequiredDuration != 5 {
		t.Fatalf("expected per-type duration 5, got %d", anonClaims.RequiredDuration)
	}

	if _, err := engine.IssueEngagementToken(ctx, "u1", "", ""); err == nil {
		t.Fatal("expected error for empty target")
	}
}
