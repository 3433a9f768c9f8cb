package auth

import (
	"context"
	"errors"
	"strings"
)

// Resolver turns emails and token claims into Principals. It is the only
// component that knows there are three identity stores.
type Resolver struct {
	store   Store
	catalog *Catalog
}

// NewResolver constructs a Resolver over the store and catalog.
func NewResolver(store Store, catalog *Catalog) *Resolver {
	return &Resolver{store: store, catalog: catalog}
}

// FindByEmail searches the identity stores in priority order
// end user, tenant admin, super admin and returns the first active match
// along with its stored password digest. A missing or inactive row in one
// store does not stop the search in the next.
func (r *Resolver) FindByEmail(ctx context.Context, email string) (Principal, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return Principal{}, "", ErrInvalidInput
	}

	if u, err := r.store.Users(ctx).FindByEmail(ctx, email); err == nil && u.Status == StatusActive {
		p, err := r.principalFromUser(ctx, u)
		return p, u.PasswordHash, err
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return Principal{}, "", err
	}

	if t, err := r.store.Tenants(ctx).FindByEmail(ctx, email); err == nil && t.Status == StatusActive {
		return r.principalFromTenant(t), t.PasswordHash, nil
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return Principal{}, "", err
	}

	if sa, err := r.store.SuperAdmins(ctx).FindByEmail(ctx, email); err == nil && sa.Status == StatusActive {
		return r.principalFromSuperAdmin(sa), sa.PasswordHash, nil
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return Principal{}, "", err
	}

	return Principal{}, "", ErrNotFound
}

// LoadFromClaims resolves the principal a decoded token refers to. A row
// that disappeared or went inactive between mint and lookup yields
// ErrUnauthenticated, never a forbidden result.
func (r *Resolver) LoadFromClaims(ctx context.Context, claims *Claims) (Principal, error) {
	if claims == nil {
		return Principal{}, ErrUnauthenticated
	}
	ref, err := ParseSubject(claims.Subject)
	if err != nil {
		return Principal{}, ErrUnauthenticated
	}

	switch ref.Kind {
	case KindEndUser:
		u, err := r.store.Users(ctx).FindByID(ctx, ref.ID)
		if err != nil {
			return Principal{}, asUnauthenticated(err)
		}
		if u.Status != StatusActive {
			return Principal{}, ErrUnauthenticated
		}
		return r.principalFromUser(ctx, u)
	case KindTenantAdmin:
		t, err := r.store.Tenants(ctx).FindByID(ctx, ref.ID)
		if err != nil {
			return Principal{}, asUnauthenticated(err)
		}
		if t.Status != StatusActive {
			return Principal{}, ErrUnauthenticated
		}
		return r.principalFromTenant(t), nil
	case KindSuperAdmin:
		sa, err := r.store.SuperAdmins(ctx).FindByID(ctx, ref.ID)
		if err != nil {
			return Principal{}, asUnauthenticated(err)
		}
		if sa.Status != StatusActive {
			return Principal{}, ErrUnauthenticated
		}
		return r.principalFromSuperAdmin(sa), nil
	default:
		return Principal{}, ErrUnauthenticated
	}
}

// PermissionsFor resolves the effective permission set. End users get their
// role's stored grants merged over the catalog defaults for the tag; super
// admins get the full catalog; unknown roles get nothing.
func (r *Resolver) PermissionsFor(ctx context.Context, p Principal) (map[string]struct{}, error) {
	if p.Role == RoleSuperAdmin {
		return r.catalog.GrantsFor(RoleSuperAdmin), nil
	}
	set := r.catalog.GrantsFor(p.Role)
	if p.Kind == KindEndUser && p.RoleID != "" {
		stored, err := r.store.Roles(ctx).PermissionsOfRole(ctx, p.RoleID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		for _, name := range stored {
			set[name] = struct{}{}
		}
	}
	return set, nil
}

func (r *Resolver) principalFromUser(ctx context.Context, u *UserRecord) (Principal, error) {
	roleName := u.RoleName
	if roleName == "" && u.RoleID != "" {
		role, err := r.store.Roles(ctx).Find(ctx, u.RoleID)
		if err == nil && role.IsActive {
			roleName = role.Name
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return Principal{}, err
		}
	}
	p := Principal{
		ID:       u.ID,
		Kind:     KindEndUser,
		Email:    u.Email,
		Name:     u.Name,
		Status:   u.Status,
		TenantID: u.TenantID,
		RoleID:   u.RoleID,
		Role:     NormalizeRole(roleName),
	}
	perms, err := r.PermissionsFor(ctx, p)
	if err != nil {
		return Principal{}, err
	}
	p.Permissions = perms
	return p, nil
}

func (r *Resolver) principalFromTenant(t *TenantRecord) Principal {
	p := Principal{
		ID:       t.ID,
		Kind:     KindTenantAdmin,
		Email:    t.Email,
		Name:     t.Name,
		Status:   t.Status,
		TenantID: t.ID, // the tenant admin's tenant is itself
		Role:     RoleAdmin,
	}
	p.Permissions = r.catalog.GrantsFor(RoleAdmin)
	return p
}

func (r *Resolver) principalFromSuperAdmin(sa *SuperAdminRecord) Principal {
	p := Principal{
		ID:     sa.ID,
		Kind:   KindSuperAdmin,
		Email:  sa.Email,
		Name:   sa.Name,
		Status: sa.Status,
		Role:   RoleSuperAdmin,
	}
	p.Permissions = r.catalog.GrantsFor(RoleSuperAdmin)
	return p
}

func asUnauthenticated(err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrUnauthenticated
	}
	return err
}
