package auth

// Policy is the pure access decision core. It performs no I/O: everything it
// needs arrives in the Principal and the Resource, including the resolved
// assignee tenant for the admin letter widening rule.
type Policy struct {
	catalog *Catalog
}

// NewPolicy constructs a Policy over the permission catalog.
func NewPolicy(catalog *Catalog) *Policy {
	return &Policy{catalog: catalog}
}

// Deny reasons. These are machine-readable tags; the audit sink records them
// verbatim next to the rule id.
const (
	ReasonMalformedInput           = "malformed_input"
	ReasonNoMatchingRule           = "no_matching_rule"
	ReasonTenantMismatch           = "tenant_mismatch"
	ReasonNotOwner                 = "not_owner"
	ReasonNotOwnerOrAssignee       = "not_owner_or_assignee"
	ReasonMissingPermission        = "missing_permission"
	ReasonAgentCannotDeleteLetters = "field_agent_cannot_delete_letters"
)

func validAction(a Action) bool {
	switch a {
	case ActionView, ActionCreate, ActionEdit, ActionDelete, ActionAssign:
		return true
	}
	return false
}

// Decide answers a single-row authorization question. Rules are evaluated
// most-privileged-first and the first Allow wins. Malformed inputs collapse
// to a deny; Decide never panics.
func (p *Policy) Decide(pr Principal, action Action, r Resource) Decision {
	if pr.ID == "" || r.Kind == "" || !validAction(action) {
		return Deny(ReasonMalformedInput, "input")
	}

	if pr.Role == RoleSuperAdmin {
		return Allow("superadmin_all")
	}

	if action == ActionCreate {
		return p.decideCreate(pr, r.Kind)
	}
	if action == ActionAssign {
		return p.decideAssign(pr, r)
	}

	switch pr.Role {
	case RoleAdmin:
		return decideAdminRow(pr, r)
	case RoleFieldAgent, RoleAssistant:
		return decideAgentRow(pr, action, r)
	case RoleMember, RoleRegularUser:
		return decideMemberRow(pr, r)
	default:
		return Deny(ReasonNoMatchingRule, "unknown_role")
	}
}

// decideCreate enforces the cross-cutting create rule: creating any domain
// entity requires the matching "<kind>.create" permission, whether granted
// by the role defaults or loaded from the database.
func (p *Policy) decideCreate(pr Principal, kind EntityKind) Decision {
	perm := string(kind) + ".create"
	if pr.HasPermission(perm) || p.catalog.Has(pr.Role, perm) {
		return Allow("create_permission")
	}
	return Deny(ReasonMissingPermission, "create_permission")
}

func (p *Policy) decideAssign(pr Principal, r Resource) Decision {
	perm := string(r.Kind) + ".assign.tenant"
	if !pr.HasPermission(perm) && !p.catalog.Has(pr.Role, perm) {
		return Deny(ReasonMissingPermission, "assign_permission")
	}
	// Assignment stays inside the caller's tenant.
	if tenantsMatch(pr.TenantID, r.TenantID) {
		return Allow("assign_tenant")
	}
	return Deny(ReasonTenantMismatch, "assign_tenant")
}

// decideAdminRow grants admins their own tenant's rows. A letter additionally
// opens up when it is assigned to someone in the admin's tenant; the
// persistence layer resolves the assignee's tenant before the call.
func decideAdminRow(pr Principal, r Resource) Decision {
	if tenantsMatch(pr.TenantID, r.TenantID) {
		return Allow("admin_tenant")
	}
	if r.Kind == EntityLetter && r.AssigneeID != "" && tenantsMatch(pr.TenantID, r.AssigneeTenantID) {
		return Allow("admin_letter_assignee")
	}
	return Deny(ReasonTenantMismatch, "admin_tenant")
}

// decideAgentRow grants field agents and assistants rows they own or are
// assigned to, except deleting letters, which is always refused.
func decideAgentRow(pr Principal, action Action, r Resource) Decision {
	if action == ActionDelete && r.Kind == EntityLetter {
		return Deny(ReasonAgentCannotDeleteLetters, "agent_letter_delete")
	}
	if idMatches(r.OwnerID, pr.ID) || idMatches(r.AssigneeID, pr.ID) {
		return Allow("agent_own_or_assigned")
	}
	return Deny(ReasonNotOwnerOrAssignee, "agent_own_or_assigned")
}

func decideMemberRow(pr Principal, r Resource) Decision {
	if idMatches(r.OwnerID, pr.ID) {
		return Allow("member_own")
	}
	return Deny(ReasonNotOwner, "member_own")
}

// tenantsMatch compares tenant ids by exact string equality. A missing id on
// either side never matches, so admins have no cross-tenant reach even when
// a row carries no tenant at all.
func tenantsMatch(a, b string) bool {
	return a != "" && b != "" && a == b
}

// idMatches compares owner/assignee ids; an absent id never matches anyone.
func idMatches(id, me string) bool {
	return id != "" && me != "" && id == me
}

// ListFilter returns the predicate restricting a listing to the rows the
// principal may view. The result is the union of every rule that could allow
// a row: for any row r, r satisfies the filter exactly when
// Decide(principal, View, r) allows it.
func (p *Policy) ListFilter(pr Principal, kind EntityKind) Filter {
	if pr.ID == "" || kind == "" {
		return MatchNone()
	}
	switch pr.Role {
	case RoleSuperAdmin:
		return MatchAll()
	case RoleAdmin:
		if pr.TenantID == "" {
			return MatchNone()
		}
		clauses := []FilterClause{{TenantID: pr.TenantID}}
		if kind == EntityLetter {
			clauses = append(clauses, FilterClause{AssigneeTenant: pr.TenantID})
		}
		return Filter{Clauses: clauses}
	case RoleFieldAgent, RoleAssistant:
		return Filter{Clauses: []FilterClause{
			{OwnerIs: pr.ID},
			{AssigneeIs: pr.ID},
		}}
	case RoleMember, RoleRegularUser:
		return Filter{Clauses: []FilterClause{{OwnerIs: pr.ID}}}
	default:
		return MatchNone()
	}
}
