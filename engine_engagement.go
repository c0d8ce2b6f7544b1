package raveauth

import (
	"context"
	"fmt"
	"strconv"

	"github.com/raveboxhq/raveauth/internal"
	"github.com/raveboxhq/raveauth/token"
)

// IssueEngagementToken mints a short-lived proof that a viewing session for
// targetID began now. No authentication is required: an empty subjectID is
// replaced with an explicit anonymous marker. The required watch duration is
// resolved from the per-content-type policy; the token TTL is fixed by
// configuration and deliberately independent of it. How long you must watch
// is not how long you have to submit.
func (e *Engine) IssueEngagementToken(ctx context.Context, subjectID, targetID, contentType string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if targetID == "" {
		return "", fmt.Errorf("%w: empty target id", ErrInvalidRating)
	}

	if subjectID == "" {
		subjectID = internal.NewAnonymousSubject()
	}

	required := e.config.Engagement.requiredDuration(contentType)

	signed, err := e.codec.SignEngagement(token.EngagementClaims{
		SubjectID:        subjectID,
		TargetID:         targetID,
		RequiredDuration: required,
	}, e.config.Engagement.TokenTTL)
	if err != nil {
		return "", err
	}

	e.metrics.Inc(MetricEngagementIssued)
	e.emit(ctx, AuditEvent{
		EventType: AuditEngagementIssued,
		SubjectID: subjectID,
		TargetID:  targetID,
		Success:   true,
		Metadata: map[string]string{
			"required_duration": strconv.FormatInt(required, 10),
			"anonymous":         strconv.FormatBool(internal.IsAnonymousSubject(subjectID)),
		},
	})

	return signed, nil
}
