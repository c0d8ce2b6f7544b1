package raveauth

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Audit event types emitted by the engine. CSRF rejections are split into
// missing-credential and mismatch so abuse monitoring can tell a broken
// client from a forgery attempt.
const (
	AuditSessionIssued          = "session_issued"
	AuditSessionRefreshed       = "session_refreshed"
	AuditLogout                 = "logout"
	AuditAuthSuccess            = "auth_success"
	AuditAuthExpired            = "auth_token_expired"
	AuditAuthInvalid            = "auth_token_invalid"
	AuditCSRFMissingCredential  = "csrf_missing_credential"
	AuditCSRFMismatch           = "csrf_mismatch"
	AuditImpersonationBegin     = "impersonation_begin"
	AuditImpersonationEnd       = "impersonation_end"
	AuditImpersonationForbidden = "impersonation_forbidden"
	AuditEngagementIssued       = "engagement_issued"
	AuditRatingApplied          = "rating_applied"
	AuditRatingDurationNotMet   = "rating_duration_not_met"
	AuditRatingPersistenceFail  = "rating_persistence_failed"
)

// AuditEvent is the structured record handed to the configured [AuditSink].
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	SubjectID string            `json:"subject_id,omitempty"`
	TargetID  string            `json:"target_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives emitted audit events.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink writes audit events into a buffered channel.
type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
