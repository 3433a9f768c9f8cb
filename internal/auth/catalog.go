package auth

import "sort"

// Permission categories. The catalog is closed: the set below is everything
// the process knows, seeded into the database at bootstrap and never extended
// except through explicit admin mutation.
const (
	CategorySystem   = "system"
	CategoryTenant   = "tenant"
	CategoryUser     = "user"
	CategoryIssue    = "issue"
	CategoryVisit    = "visit"
	CategoryArea     = "area"
	CategoryReport   = "report"
	CategorySettings = "settings"
	CategoryLetter   = "letter"
	CategoryMeeting  = "meeting"
)

// rowEntities are the per-row scoped domain entities that get the full
// view/create/edit/delete/assign permission grid.
var rowEntities = []string{CategoryIssue, CategoryLetter, CategoryMeeting, CategoryVisit}

// Catalog enumerates permissions and the default role grants. It is built
// once at startup and read-only afterwards.
type Catalog struct {
	perms  []Permission
	byName map[string]Permission
	grants map[RoleTag]map[string]struct{}
}

// NewCatalog builds the full permission catalog with the default
// role-to-permission mappings.
func NewCatalog() *Catalog {
	c := &Catalog{
		byName: make(map[string]Permission),
		grants: make(map[RoleTag]map[string]struct{}),
	}

	add := func(name, category, scope string) {
		p := Permission{Name: name, Category: category, Scope: scope, IsActive: true}
		c.perms = append(c.perms, p)
		c.byName[name] = p
	}

	for _, e := range rowEntities {
		add(e+".view.all", e, "global")
		add(e+".view.tenant", e, "tenant")
		add(e+".view.own", e, "area")
		add(e+".create", e, "tenant")
		add(e+".edit.all", e, "global")
		add(e+".edit.tenant", e, "tenant")
		add(e+".edit.own", e, "area")
		add(e+".delete.all", e, "global")
		add(e+".delete.tenant", e, "tenant")
		add(e+".delete.own", e, "area")
		add(e+".assign.tenant", e, "tenant")
	}

	add("user.view.all", CategoryUser, "global")
	add("user.view.tenant", CategoryUser, "tenant")
	add("user.create", CategoryUser, "tenant")
	add("user.edit.tenant", CategoryUser, "tenant")
	add("user.delete.tenant", CategoryUser, "tenant")

	add("tenant.view.all", CategoryTenant, "global")
	add("tenant.view.own", CategoryTenant, "tenant")
	add("tenant.create", CategoryTenant, "global")
	add("tenant.edit.all", CategoryTenant, "global")
	add("tenant.edit.own", CategoryTenant, "tenant")
	add("tenant.delete.all", CategoryTenant, "global")

	add("area.view.tenant", CategoryArea, "tenant")
	add("area.create", CategoryArea, "tenant")
	add("area.edit.tenant", CategoryArea, "tenant")
	add("area.delete.tenant", CategoryArea, "tenant")

	add("report.view.all", CategoryReport, "global")
	add("report.view.tenant", CategoryReport, "tenant")
	add("report.view.own", CategoryReport, "area")

	add("settings.view.all", CategorySettings, "global")
	add("settings.edit.all", CategorySettings, "global")
	add("settings.view.tenant", CategorySettings, "tenant")
	add("settings.edit.tenant", CategorySettings, "tenant")

	add("system.admin", CategorySystem, "global")
	add("system.audit.view", CategorySystem, "global")

	c.seedGrants()
	return c
}

func (c *Catalog) seedGrants() {
	grant := func(tag RoleTag, names ...string) {
		set := c.grants[tag]
		if set == nil {
			set = make(map[string]struct{})
			c.grants[tag] = set
		}
		for _, n := range names {
			if _, known := c.byName[n]; known {
				set[n] = struct{}{}
			}
		}
	}

	// Admin: tenant-scoped CRUD plus user management within the tenant.
	for _, e := range rowEntities {
		grant(RoleAdmin,
			e+".view.tenant", e+".create", e+".edit.tenant",
			e+".delete.tenant", e+".assign.tenant")
	}
	grant(RoleAdmin,
		"user.view.tenant", "user.create", "user.edit.tenant", "user.delete.tenant",
		"tenant.view.own", "tenant.edit.own",
		"area.view.tenant", "area.create", "area.edit.tenant", "area.delete.tenant",
		"report.view.tenant",
		"settings.view.tenant", "settings.edit.tenant")

	// Field agents and assistants work the rows they own or are assigned.
	// Letters are the exception: they may never delete one.
	for _, tag := range []RoleTag{RoleFieldAgent, RoleAssistant} {
		for _, e := range rowEntities {
			grant(tag, e+".view.own", e+".create", e+".edit.own")
			if e != CategoryLetter {
				grant(tag, e+".delete.own")
			}
		}
		grant(tag, "report.view.own")
	}

	// Members and regular users only see and create their own rows.
	for _, tag := range []RoleTag{RoleMember, RoleRegularUser} {
		for _, e := range rowEntities {
			grant(tag, e+".view.own", e+".create")
		}
		grant(tag, "report.view.own")
	}
}

// Has reports whether the role's default grant includes the permission.
// Super admins hold the entire catalog.
func (c *Catalog) Has(tag RoleTag, name string) bool {
	if _, known := c.byName[name]; !known {
		return false
	}
	if tag == RoleSuperAdmin {
		return true
	}
	_, ok := c.grants[tag][name]
	return ok
}

// Catalog returns every permission in a stable order.
func (c *Catalog) Catalog() []Permission {
	out := make([]Permission, len(c.perms))
	copy(out, c.perms)
	return out
}

// RolesWith returns the role tags whose default grant includes the
// permission, most privileged first.
func (c *Catalog) RolesWith(name string) []RoleTag {
	if _, known := c.byName[name]; !known {
		return nil
	}
	tags := []RoleTag{RoleSuperAdmin}
	ordered := []RoleTag{RoleAdmin, RoleFieldAgent, RoleAssistant, RoleMember, RoleRegularUser}
	for _, t := range ordered {
		if _, ok := c.grants[t][name]; ok {
			tags = append(tags, t)
		}
	}
	return tags
}

// GrantsFor returns a copy of the default permission set for a role tag.
// Super admins get the whole catalog; unknown roles get nothing.
func (c *Catalog) GrantsFor(tag RoleTag) map[string]struct{} {
	out := make(map[string]struct{})
	if tag == RoleSuperAdmin {
		for name := range c.byName {
			out[name] = struct{}{}
		}
		return out
	}
	for name := range c.grants[tag] {
		out[name] = struct{}{}
	}
	return out
}

// Names returns every permission name, sorted. Used by seeding and by the
// /auth/me snapshot for super admins.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.byName))
	for name := range c.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
