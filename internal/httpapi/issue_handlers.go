package httpapi

import (
	"net/http"

	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/auth"
)

// handleListIssues serves the row-scoped issue listing. The visibility filter
// is computed once per request from the caller's role and pushed down into the
// store query, so a caller never sees rows the policy would deny.
func (a *API) handleListIssues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthorized(w, "authentication required")
		return
	}
	if a.issues == nil {
		writeError(w, http.StatusServiceUnavailable, "issue store not configured")
		return
	}

	filter := a.policy.ListFilter(principal, auth.EntityIssue)
	if filter.IsNone() {
		a.observeDecision("deny", auth.EntityIssue)
		writeJSON(w, http.StatusOK, map[string]any{"issues": []any{}, "total": 0})
		return
	}

	rows, err := a.issues.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	a.observeDecision("allow", auth.EntityIssue)
	writeJSON(w, http.StatusOK, map[string]any{"issues": rows, "total": len(rows)})
}
