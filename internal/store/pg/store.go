// Package pg implements the auth persistence interfaces on PostgreSQL,
// using database/sql over the pgx stdlib driver.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/auth"
)

const (
	pgErrUniqueViolation = "23505"
)

// Store implements auth.Store.
type Store struct {
	db *sql.DB
}

var _ auth.Store = (*Store)(nil)

// Open connects to PostgreSQL and tunes the pool.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle. Tests pass a sqlmock connection.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Users(context.Context) auth.UserStore             { return &userStore{db: s.db} }
func (s *Store) Tenants(context.Context) auth.TenantStore         { return &tenantStore{db: s.db} }
func (s *Store) SuperAdmins(context.Context) auth.SuperAdminStore { return &superAdminStore{db: s.db} }
func (s *Store) Roles(context.Context) auth.RoleStore             { return &roleStore{db: s.db} }

// End users ----------------------------------------------------------------

type userStore struct{ db *sql.DB }

const userColumns = `u.id, u.tenant_id, u.role_id, coalesce(r.name, ''),
	u.email, u.name, u.password_hash, u.status, u.created_at, u.updated_at`

func scanUser(row *sql.Row) (*auth.UserRecord, error) {
	var (
		u      auth.UserRecord
		roleID sql.NullString
	)
	err := row.Scan(&u.ID, &u.TenantID, &roleID, &u.RoleName,
		&u.Email, &u.Name, &u.PasswordHash, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.RoleID = roleID.String
	return &u, nil
}

func (s *userStore) FindByID(ctx context.Context, id string) (*auth.UserRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+userColumns+`
		from users u
		left join roles r on r.id = u.role_id
		where u.id = $1
	`, id)
	return scanUser(row)
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*auth.UserRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+userColumns+`
		from users u
		left join roles r on r.id = u.role_id
		where lower(u.email) = lower($1)
	`, email)
	return scanUser(row)
}

func (s *userStore) SetPasswordHash(ctx context.Context, id, digest string) error {
	return execPasswordUpdate(ctx, s.db, `update users set password_hash = $2, updated_at = now() where id = $1`, id, digest)
}

// Tenant admins ------------------------------------------------------------

type tenantStore struct{ db *sql.DB }

func scanTenant(row *sql.Row) (*auth.TenantRecord, error) {
	var t auth.TenantRecord
	err := row.Scan(&t.ID, &t.Email, &t.Name, &t.PasswordHash, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *tenantStore) FindByID(ctx context.Context, id string) (*auth.TenantRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, email, name, password_hash, status, created_at, updated_at
		from tenants where id = $1
	`, id)
	return scanTenant(row)
}

func (s *tenantStore) FindByEmail(ctx context.Context, email string) (*auth.TenantRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, email, name, password_hash, status, created_at, updated_at
		from tenants where lower(email) = lower($1)
	`, email)
	return scanTenant(row)
}

func (s *tenantStore) SetPasswordHash(ctx context.Context, id, digest string) error {
	return execPasswordUpdate(ctx, s.db, `update tenants set password_hash = $2, updated_at = now() where id = $1`, id, digest)
}

// Super admins -------------------------------------------------------------

type superAdminStore struct{ db *sql.DB }

func scanSuperAdmin(row *sql.Row) (*auth.SuperAdminRecord, error) {
	var sa auth.SuperAdminRecord
	err := row.Scan(&sa.ID, &sa.Email, &sa.Name, &sa.PasswordHash, &sa.Status, &sa.CreatedAt, &sa.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sa, nil
}

func (s *superAdminStore) FindByID(ctx context.Context, id string) (*auth.SuperAdminRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, email, name, password_hash, status, created_at, updated_at
		from super_admins where id = $1
	`, id)
	return scanSuperAdmin(row)
}

func (s *superAdminStore) FindByEmail(ctx context.Context, email string) (*auth.SuperAdminRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, email, name, password_hash, status, created_at, updated_at
		from super_admins where lower(email) = lower($1)
	`, email)
	return scanSuperAdmin(row)
}

func (s *superAdminStore) SetPasswordHash(ctx context.Context, id, digest string) error {
	return execPasswordUpdate(ctx, s.db, `update super_admins set password_hash = $2, updated_at = now() where id = $1`, id, digest)
}

// Roles --------------------------------------------------------------------

type roleStore struct{ db *sql.DB }

func (s *roleStore) Find(ctx context.Context, id string) (*auth.RoleRecord, error) {
	var r auth.RoleRecord
	err := s.db.QueryRowContext(ctx, `
		select id, name, scope, is_system, is_active
		from roles where id = $1
	`, id).Scan(&r.ID, &r.Name, &r.Scope, &r.IsSystem, &r.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *roleStore) PermissionsOfRole(ctx context.Context, roleID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select p.name
		from role_permissions rp
		join permissions p on p.id = rp.permission_id
		where rp.role_id = $1 and p.is_active
		order by p.name
	`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// helpers ------------------------------------------------------------------

// execPasswordUpdate runs the single-row UPDATE used by every password
// write. Repeating it with the same digest is a no-op, so retries are safe.
func execPasswordUpdate(ctx context.Context, db *sql.DB, query, id, digest string) error {
	res, err := db.ExecContext(ctx, query, id, digest)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// mapWriteError normalizes driver errors for insert paths.
func mapWriteError(err error) error {
	if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
		return auth.ErrConflict
	}
	return err
}
