// Package audit records security-relevant events as structured entries.
// Transports are pluggable: the default sink writes JSON lines through the
// shared logger, tests use an in-memory writer, and deployments with a
// database route entries into the append-only audit_log table.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/obs"
)

// Event types the core emits. Handlers must not invent ad-hoc names.
const (
	EventLoginSuccess           = "LOGIN_SUCCESS"
	EventLoginFailed            = "LOGIN_FAILED"
	EventLogout                 = "LOGOUT"
	EventForceLogout            = "FORCE_LOGOUT"
	EventPasswordResetRequested = "PASSWORD_RESET_REQUESTED"
	EventPasswordResetSuccess   = "PASSWORD_RESET_SUCCESS"
	EventPasswordChanged        = "PASSWORD_CHANGED"
	EventRateLimitExceeded      = "RATE_LIMIT_EXCEEDED"
	EventAccessDenied           = "ACCESS_DENIED"
	EventLegacyTokenSubject     = "TOKEN_LEGACY_SUBJECT"
)

// Event is one audit record. Details must never contain password material or
// raw tokens; callers pass reason codes and identifiers only.
type Event struct {
	Time        time.Time      `json:"ts"`
	Type        string         `json:"event"`
	PrincipalID string         `json:"principal_id,omitempty"`
	Email       string         `json:"email,omitempty"`
	ClientIP    string         `json:"client_ip,omitempty"`
	UserAgent   string         `json:"user_agent,omitempty"`
	Success     bool           `json:"success"`
	Details     map[string]any `json:"details,omitempty"`
}

// Sink consumes audit events. Emit must preserve ordering within a process.
type Sink interface {
	Emit(ctx context.Context, e Event)
}

// LogSink writes one JSON line per event. The mutex keeps entries ordered
// when handlers emit concurrently.
type LogSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewLogSink returns a sink writing through the shared service logger.
func NewLogSink() *LogSink {
	return &LogSink{out: writerFunc(func(p []byte) (int, error) {
		obs.Logger().Print(string(p))
		return len(p), nil
	})}
}

// NewWriterSink returns a sink writing to w, one JSON line per event.
func NewWriterSink(w io.Writer) *LogSink {
	return &LogSink{out: w}
}

// Emit serializes and writes the event. A marshalling failure is swallowed;
// audit must never take a request down.
func (s *LogSink) Emit(_ context.Context, e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	data, err := json.Marshal(struct {
		Kind string `json:"type"`
		Event
	}{Kind: "audit", Event: e})
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.out.Write(append(data, '\n'))
}

// NopSink drops every event. Used when auditing is disabled by config.
type NopSink struct{}

func (NopSink) Emit(context.Context, Event) {}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
