package auth

import "strings"

// RoleTag is the normalized role the policy operates on. NormalizeRole is
// the single funnel that tolerates legacy role-name spellings; everything
// downstream uses the tag.
type RoleTag int

const (
	// RoleUnknown is the zero value, reserved for principals whose role
	// could not be resolved at all. The policy denies it everything.
	RoleUnknown RoleTag = iota
	RoleRegularUser
	RoleMember
	RoleAssistant
	RoleFieldAgent
	RoleAdmin
	RoleSuperAdmin
)

func (t RoleTag) String() string {
	switch t {
	case RoleRegularUser:
		return "RegularUser"
	case RoleMember:
		return "Member"
	case RoleAssistant:
		return "Assistant"
	case RoleFieldAgent:
		return "FieldAgent"
	case RoleAdmin:
		return "Admin"
	case RoleSuperAdmin:
		return "SuperAdmin"
	default:
		return "Unknown"
	}
}

// NormalizeRole maps a stored role name to its tag. Historic data carries
// several spellings per role ("super_admin", "SuperAdmin", "Super_admins");
// all of them collapse here. Unrecognized names land in the least-privileged
// bucket rather than RoleUnknown so that a typo in a seeded role never grants
// or removes more than member-level access.
func NormalizeRole(name string) RoleTag {
	folded := strings.ToLower(strings.TrimSpace(name))
	folded = strings.ReplaceAll(folded, "_", "")
	folded = strings.ReplaceAll(folded, "-", "")
	folded = strings.ReplaceAll(folded, " ", "")
	folded = strings.TrimSuffix(folded, "s")

	switch folded {
	case "superadmin":
		return RoleSuperAdmin
	case "admin", "tenantadmin":
		return RoleAdmin
	case "fieldagent", "agent":
		return RoleFieldAgent
	case "assistant":
		return RoleAssistant
	case "member":
		return RoleMember
	case "":
		return RoleUnknown
	default:
		return RoleRegularUser
	}
}
