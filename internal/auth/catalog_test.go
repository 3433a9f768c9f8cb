package auth

import (
	"sort"
	"strings"
	"testing"
)

func TestCatalogIsClosed(t *testing.T) {
	c := NewCatalog()
	names := c.Names()
	if len(names) == 0 {
		t.Fatalf("empty catalog")
	}
	if !sort.StringsAreSorted(names) {
		t.Fatalf("Names must be sorted")
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			t.Fatalf("duplicate permission %q", n)
		}
		seen[n] = struct{}{}
		if strings.Count(n, ".") < 1 {
			t.Fatalf("permission %q is not dotted", n)
		}
	}
	if c.Has(RoleSuperAdmin, "issue.made.up") {
		t.Fatalf("unknown permission must not exist even for super admins")
	}
}

func TestSuperAdminHoldsEverything(t *testing.T) {
	c := NewCatalog()
	for _, name := range c.Names() {
		if !c.Has(RoleSuperAdmin, name) {
			t.Fatalf("super admin missing %q", name)
		}
	}
}

func TestDefaultGrants(t *testing.T) {
	c := NewCatalog()
	cases := []struct {
		tag  RoleTag
		name string
		want bool
	}{
		{RoleAdmin, "issue.view.tenant", true},
		{RoleAdmin, "issue.delete.tenant", true},
		{RoleAdmin, "user.create", true},
		{RoleAdmin, "issue.view.all", false},
		{RoleAdmin, "tenant.create", false},
		{RoleAdmin, "system.admin", false},
		{RoleFieldAgent, "issue.view.own", true},
		{RoleFieldAgent, "issue.delete.own", true},
		{RoleFieldAgent, "letter.edit.own", true},
		{RoleFieldAgent, "letter.delete.own", false},
		{RoleAssistant, "letter.delete.own", false},
		{RoleAssistant, "meeting.delete.own", true},
		{RoleMember, "issue.view.own", true},
		{RoleMember, "issue.create", true},
		{RoleMember, "issue.edit.own", false},
		{RoleRegularUser, "visit.view.own", true},
		{RoleRegularUser, "visit.delete.own", false},
		{RoleUnknown, "issue.view.own", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.tag, tc.name); got != tc.want {
			t.Fatalf("Has(%v, %q) = %v, want %v", tc.tag, tc.name, got, tc.want)
		}
	}
}

func TestRolesWithOrdersMostPrivilegedFirst(t *testing.T) {
	c := NewCatalog()
	tags := c.RolesWith("issue.view.own")
	if len(tags) == 0 || tags[0] != RoleSuperAdmin {
		t.Fatalf("expected super admin first, got %v", tags)
	}
	for i := 1; i < len(tags); i++ {
		if tags[i] > tags[i-1] {
			t.Fatalf("tags not ordered most privileged first: %v", tags)
		}
	}
	if got := c.RolesWith("nope.nope"); got != nil {
		t.Fatalf("unknown permission should yield nil, got %v", got)
	}
}

func TestGrantsForCopies(t *testing.T) {
	c := NewCatalog()
	grants := c.GrantsFor(RoleMember)
	if _, ok := grants["issue.view.own"]; !ok {
		t.Fatalf("member missing issue.view.own")
	}
	delete(grants, "issue.view.own")
	if !c.Has(RoleMember, "issue.view.own") {
		t.Fatalf("mutating the returned map must not affect the catalog")
	}
}
