package pg

import (
	"fmt"
	"strings"

	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/auth"
)

// ApplyFilter renders a policy list filter into a SQL condition against the
// aliased target table. Clauses OR together; the fields of one clause AND
// together. The returned condition is complete ("true", "false" or a
// parenthesized expression) and the args extend the caller's slice, starting
// at placeholder $len(args)+1.
//
// The AssigneeTenant clause resolves the assignee's tenant with an EXISTS
// subquery against users, which is how the admin letter widening reaches
// rows assigned into the admin's tenant from elsewhere.
func ApplyFilter(f auth.Filter, alias string, args []any) (string, []any) {
	if f.All {
		return "true", args
	}
	if f.None || len(f.Clauses) == 0 {
		return "false", args
	}

	var parts []string
	for _, clause := range f.Clauses {
		var conds []string
		if clause.TenantID != "" {
			args = append(args, clause.TenantID)
			conds = append(conds, fmt.Sprintf("%s.tenant_id = $%d", alias, len(args)))
		}
		if clause.OwnerIs != "" {
			args = append(args, clause.OwnerIs)
			conds = append(conds, fmt.Sprintf("%s.owner_id = $%d", alias, len(args)))
		}
		if clause.AssigneeIs != "" {
			args = append(args, clause.AssigneeIs)
			conds = append(conds, fmt.Sprintf("%s.assignee_id = $%d", alias, len(args)))
		}
		if clause.AssigneeTenant != "" {
			args = append(args, clause.AssigneeTenant)
			conds = append(conds, fmt.Sprintf(
				"exists (select 1 from users au where au.id = %s.assignee_id and au.tenant_id = $%d)",
				alias, len(args)))
		}
		if len(conds) == 0 {
			// An empty clause would match everything; a filter that wants
			// that says so with All.
			continue
		}
		parts = append(parts, "("+strings.Join(conds, " and ")+")")
	}
	if len(parts) == 0 {
		return "false", args
	}
	return "(" + strings.Join(parts, " or ") + ")", args
}
