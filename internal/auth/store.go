package auth

import "context"

// Store aggregates the persistence operations the auth subsystem needs.
// Implementations live in internal/store/pg; tests inject stubs.
type Store interface {
	Users(ctx context.Context) UserStore
	Tenants(ctx context.Context) TenantStore
	SuperAdmins(ctx context.Context) SuperAdminStore
	Roles(ctx context.Context) RoleStore
}

// UserStore reads and updates end-user rows.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*UserRecord, error)
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)
	SetPasswordHash(ctx context.Context, id, digest string) error
}

// TenantStore reads and updates tenant rows. Tenants authenticate directly
// as tenant admins.
type TenantStore interface {
	FindByID(ctx context.Context, id string) (*TenantRecord, error)
	FindByEmail(ctx context.Context, email string) (*TenantRecord, error)
	SetPasswordHash(ctx context.Context, id, digest string) error
}

// SuperAdminStore reads and updates platform operator rows.
type SuperAdminStore interface {
	FindByID(ctx context.Context, id string) (*SuperAdminRecord, error)
	FindByEmail(ctx context.Context, email string) (*SuperAdminRecord, error)
	SetPasswordHash(ctx context.Context, id, digest string) error
}

// RoleStore resolves roles and their permission grants.
type RoleStore interface {
	Find(ctx context.Context, id string) (*RoleRecord, error)
	PermissionsOfRole(ctx context.Context, roleID string) ([]string, error)
}

// AssigneeLookup resolves which tenant a user belongs to. The admin letter
// widening rule needs it before the policy can run.
type AssigneeLookup interface {
	TenantOf(ctx context.Context, userID string) (string, error)
}
