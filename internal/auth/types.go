package auth

import "time"

// Kind distinguishes the three identity stores a principal may come from.
// The value doubles as the subject prefix in minted tokens.
type Kind string

const (
	KindEndUser     Kind = "user"
	KindTenantAdmin Kind = "tenant"
	KindSuperAdmin  Kind = "superadmin"
)

// Principal statuses. Anything except active is treated as absent.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Principal is the authenticated subject of a request with its role resolved
// to a normalized tag and its permission set preloaded.
type Principal struct {
	ID          string
	Kind        Kind
	Email       string
	Name        string
	Status      string
	TenantID    string // empty for super admins
	RoleID      string // set for end users only
	Role        RoleTag
	Permissions map[string]struct{}
}

// HasPermission reports whether the principal carries the named permission.
func (p Principal) HasPermission(key string) bool {
	_, ok := p.Permissions[key]
	return ok
}

// IsActive reports whether the principal may authenticate at all.
func (p Principal) IsActive() bool {
	return p.Status == StatusActive
}

// UserRecord is an end-user row. End users always belong to a tenant and
// carry a role.
type UserRecord struct {
	ID           string
	TenantID     string
	RoleID       string
	RoleName     string
	Email        string
	Name         string
	PasswordHash string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TenantRecord is a tenant row. The tenant itself authenticates as the
// tenant admin, so the tenant id doubles as the principal id.
type TenantRecord struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SuperAdminRecord is a platform operator row. Super admins are tenantless.
type SuperAdminRecord struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoleRecord is a named permission bundle.
type RoleRecord struct {
	ID       string
	Name     string
	Scope    string // global, tenant or area
	IsSystem bool
	IsActive bool
}

// Permission is a fine-grained capability identified by a dotted key,
// e.g. "issue.view.tenant".
type Permission struct {
	ID       string
	Name     string
	Category string
	Scope    string
	IsActive bool
}

// Action is a mutation or read a handler asks the policy about.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionAssign Action = "assign"
)

// EntityKind names a domain table for policy purposes.
type EntityKind string

const (
	EntityIssue   EntityKind = "issue"
	EntityLetter  EntityKind = "letter"
	EntityMeeting EntityKind = "meeting"
	EntityVisit   EntityKind = "visit"
	EntityUser    EntityKind = "user"
	EntityTenant  EntityKind = "tenant"
	EntityArea    EntityKind = "area"
)

// Resource is the minimal row snapshot a handler passes to the policy.
// AssigneeTenantID is resolved by the persistence layer when the admin
// letter widening rule applies; it is never read from client input.
type Resource struct {
	Kind             EntityKind
	TenantID         string
	OwnerID          string
	AssigneeID       string
	AssigneeTenantID string
	Attrs            map[string]string
}

// Decision is the outcome of a single-row policy check. Reason and RuleID
// are short machine-readable tags consumed by the audit sink.
type Decision struct {
	Allowed bool
	Reason  string
	RuleID  string
}

// Allow constructs an allowing decision attributed to the given rule.
func Allow(ruleID string) Decision {
	return Decision{Allowed: true, RuleID: ruleID}
}

// Deny constructs a denying decision with a reason tag.
func Deny(reason, ruleID string) Decision {
	return Decision{Reason: reason, RuleID: ruleID}
}

// Filter is the abstract listing predicate returned by the policy. Clauses
// combine by OR; fields within a clause combine by AND. The zero Filter
// matches nothing.
type Filter struct {
	All     bool
	None    bool
	Clauses []FilterClause
}

// FilterClause restricts a listing. Empty fields do not participate.
type FilterClause struct {
	TenantID       string // tenant_id = value
	OwnerIs        string // owner_id = value
	AssigneeIs     string // assignee_id = value
	AssigneeTenant string // assignee belongs to tenant value
}

// MatchAll returns the unrestricted filter.
func MatchAll() Filter { return Filter{All: true} }

// MatchNone returns the always-false filter.
func MatchNone() Filter { return Filter{None: true} }

// IsNone reports whether the filter can never match a row. The zero Filter
// has no clauses and therefore matches nothing.
func (f Filter) IsNone() bool { return f.None || (!f.All && len(f.Clauses) == 0) }
