package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/auth"
)

// Issue is the minimal issue row the listing endpoint returns. The full
// issue CRUD surface lives with the domain handlers; this store exists to
// honor the list-filter contract end to end.
type Issue struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	OwnerID    string    `json:"owner_id"`
	AssigneeID string    `json:"assignee_id,omitempty"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// IssueStore lists issues under a policy filter.
type IssueStore struct {
	db *sql.DB
}

// NewIssueStore constructs an IssueStore.
func NewIssueStore(db *sql.DB) *IssueStore { return &IssueStore{db: db} }

// List returns the issues matching the policy filter, newest first.
func (s *IssueStore) List(ctx context.Context, f auth.Filter) ([]Issue, error) {
	cond, args := ApplyFilter(f, "i", nil)
	rows, err := s.db.QueryContext(ctx, `
		select i.id, i.tenant_id, i.owner_id, coalesce(i.assignee_id, ''),
			i.title, i.status, i.created_at
		from issues i
		where `+cond+`
		order by i.created_at desc
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Issue
	for rows.Next() {
		var it Issue
		if err := rows.Scan(&it.ID, &it.TenantID, &it.OwnerID, &it.AssigneeID,
			&it.Title, &it.Status, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Get loads one issue row as a policy resource plus payload.
func (s *IssueStore) Get(ctx context.Context, id string) (*Issue, error) {
	var it Issue
	err := s.db.QueryRowContext(ctx, `
		select i.id, i.tenant_id, i.owner_id, coalesce(i.assignee_id, ''),
			i.title, i.status, i.created_at
		from issues i where i.id = $1
	`, id).Scan(&it.ID, &it.TenantID, &it.OwnerID, &it.AssigneeID,
		&it.Title, &it.Status, &it.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// Resource renders the issue as the descriptor the policy consumes.
func (it *Issue) Resource() auth.Resource {
	return auth.Resource{
		Kind:       auth.EntityIssue,
		TenantID:   it.TenantID,
		OwnerID:    it.OwnerID,
		AssigneeID: it.AssigneeID,
	}
}

// AssigneeLookup resolves a user's tenant for the admin letter widening.
type AssigneeLookup struct {
	db *sql.DB
}

var _ auth.AssigneeLookup = (*AssigneeLookup)(nil)

// NewAssigneeLookup constructs an AssigneeLookup.
func NewAssigneeLookup(db *sql.DB) *AssigneeLookup { return &AssigneeLookup{db: db} }

// TenantOf returns the tenant of the given user, or auth.ErrNotFound.
func (l *AssigneeLookup) TenantOf(ctx context.Context, userID string) (string, error) {
	var tenantID string
	err := l.db.QueryRowContext(ctx, `select tenant_id from users where id = $1`, userID).Scan(&tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", auth.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return tenantID, nil
}
