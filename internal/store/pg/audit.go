package pg

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/audit"
	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/ids"
	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/obs"
)

// AuditSink persists audit events into the append-only audit_log table.
// Write failures fall back to the line logger so an event is never silently
// lost while the database is down.
type AuditSink struct {
	db       *sql.DB
	fallback audit.Sink
}

var _ audit.Sink = (*AuditSink)(nil)

// NewAuditSink constructs a database-backed audit sink.
func NewAuditSink(db *sql.DB) *AuditSink {
	return &AuditSink{db: db, fallback: audit.NewLogSink()}
}

// Emit appends one event. The audit path must never fail a request, so any
// error is logged and swallowed.
func (s *AuditSink) Emit(ctx context.Context, e audit.Event) {
	details := []byte("{}")
	if len(e.Details) > 0 {
		if data, err := json.Marshal(e.Details); err == nil {
			details = data
		}
	}
	_, err := s.db.ExecContext(ctx, `
		insert into audit_log (id, occurred_at, event, principal_id, email,
			client_ip, user_agent, success, details)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, ids.New(), e.Time, e.Type, e.PrincipalID, e.Email,
		e.ClientIP, e.UserAgent, e.Success, details)
	if err != nil {
		obs.LogRequest(map[string]any{
			"level": "error",
			"msg":   "audit append failed",
			"event": e.Type,
			"error": mapWriteError(err).Error(),
		})
		s.fallback.Emit(ctx, e)
	}
}
