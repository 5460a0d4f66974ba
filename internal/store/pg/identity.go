package pg

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
)

// ─── UserRepository ───

type userRepo struct{ *repos }

func (r *userRepo) Get(ctx context.Context, id uuid.UUID) (*repository.User, error) {
	return r.loadUser(ctx, id)
}

func (r *repos) loadUser(ctx context.Context, id uuid.UUID) (*repository.User, error) {
	const q = `
		SELECT id, application_id, role_id, created_date, modified_date
		FROM users WHERE id = $1`

	var u repository.User
	if err := r.q.QueryRow(ctx, q, id).Scan(&u.ID, &u.ApplicationID, &u.RoleID, &u.CreatedDate, &u.ModifiedDate); err != nil {
		return nil, mapErr("get user", err)
	}
	if u.RoleID != nil {
		role, err := r.loadRole(ctx, *u.RoleID)
		if err != nil {
			return nil, err
		}
		u.Role = role
	}
	return &u, nil
}

func (r *userRepo) Save(ctx context.Context, u *repository.User) error {
	u.EnsureID()
	u.Touch(time.Now())

	// el rol tiene que ser de la misma application
	if u.RoleID != nil {
		var ok bool
		err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1 AND application_id = $2)`, *u.RoleID, u.ApplicationID).Scan(&ok)
		if err != nil {
			return mapErr("check user role", err)
		}
		if !ok {
			return mapErr("save user", errForeignRole)
		}
	}

	const q = `
		INSERT INTO users (id, application_id, role_id, created_date, modified_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			role_id = EXCLUDED.role_id,
			modified_date = EXCLUDED.modified_date`
	_, err := r.q.Exec(ctx, q, u.ID, u.ApplicationID, u.RoleID, u.CreatedDate, u.ModifiedDate)
	return mapErr("save user", err)
}

// ─── IdentityRepository ───

type identityRepo struct{ *repos }

const identityColumns = `i.id, i.user_id, i.type, i.remote_id, i.claims, COALESCE(i.password, ''), i.created_date, i.modified_date`

func (r *identityRepo) Get(ctx context.Context, id uuid.UUID) (*repository.UserIdentity, error) {
	return r.loadIdentity(ctx, `SELECT `+identityColumns+` FROM user_identities i WHERE i.id = $1`, id)
}

func (r *identityRepo) FindByRemoteID(ctx context.Context, applicationID uuid.UUID, typ, remoteID string) (*repository.UserIdentity, error) {
	return r.loadIdentity(ctx, `
		SELECT `+identityColumns+`
		FROM user_identities i
		JOIN users u ON u.id = i.user_id
		WHERE i.type = $1 AND i.remote_id = $2 AND u.application_id = $3`, typ, remoteID, applicationID)
}

func (r *repos) loadIdentity(ctx context.Context, q string, args ...any) (*repository.UserIdentity, error) {
	var ident repository.UserIdentity
	err := r.q.QueryRow(ctx, q, args...).Scan(&ident.ID, &ident.UserID, &ident.Type, &ident.RemoteID,
		&ident.Claims, &ident.Password, &ident.CreatedDate, &ident.ModifiedDate)
	if err != nil {
		return nil, mapErr("get identity", err)
	}
	user, err := r.loadUser(ctx, ident.UserID)
	if err != nil {
		return nil, err
	}
	ident.User = user
	return &ident, nil
}

func (r *identityRepo) Save(ctx context.Context, ident *repository.UserIdentity) error {
	ident.EnsureID()
	ident.Touch(time.Now())

	const q = `
		INSERT INTO user_identities (id, user_id, type, remote_id, claims, password, created_date, modified_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			remote_id = EXCLUDED.remote_id,
			claims = EXCLUDED.claims,
			password = EXCLUDED.password,
			modified_date = EXCLUDED.modified_date`
	_, err := r.q.Exec(ctx, q, ident.ID, ident.UserID, ident.Type, ident.RemoteID,
		emptyIfNil(ident.Claims), nullIfEmpty(ident.Password), ident.CreatedDate, ident.ModifiedDate)
	return mapErr("save identity", err)
}
