package pg

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
)

// ─── ApplicationRepository ───

type appRepo struct{ *repos }

func (r *appRepo) Get(ctx context.Context, id uuid.UUID) (*repository.Application, error) {
	const q = `
		SELECT id, name, default_role_id, created_date, modified_date
		FROM applications WHERE id = $1`

	var app repository.Application
	err := r.q.QueryRow(ctx, q, id).Scan(&app.ID, &app.Name, &app.DefaultRoleID, &app.CreatedDate, &app.ModifiedDate)
	if err != nil {
		return nil, mapErr("get application", err)
	}

	scopes, err := r.collectScopes(ctx, `
		SELECT id, application_id, name, created_date, modified_date
		FROM application_scopes WHERE application_id = $1 ORDER BY name`, id)
	if err != nil {
		return nil, err
	}
	app.Scopes = scopes
	return &app, nil
}

func (r *appRepo) Save(ctx context.Context, app *repository.Application) error {
	now := time.Now()
	app.EnsureID()
	app.Touch(now)

	const q = `
		INSERT INTO applications (id, name, default_role_id, created_date, modified_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			default_role_id = EXCLUDED.default_role_id,
			modified_date = EXCLUDED.modified_date`
	if _, err := r.q.Exec(ctx, q, app.ID, app.Name, app.DefaultRoleID, app.CreatedDate, app.ModifiedDate); err != nil {
		return mapErr("save application", err)
	}

	const qs = `
		INSERT INTO application_scopes (id, application_id, name, created_date, modified_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			modified_date = EXCLUDED.modified_date`
	for i := range app.Scopes {
		s := &app.Scopes[i]
		s.EnsureID()
		s.ApplicationID = app.ID
		s.Touch(now)
		if _, err := r.q.Exec(ctx, qs, s.ID, s.ApplicationID, s.Name, s.CreatedDate, s.ModifiedDate); err != nil {
			return mapErr("save scope "+s.Name, err)
		}
	}
	return nil
}

func (r *repos) collectScopes(ctx context.Context, q string, args ...any) ([]repository.ApplicationScope, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr("list scopes", err)
	}
	scopes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.ApplicationScope, error) {
		var s repository.ApplicationScope
		err := row.Scan(&s.ID, &s.ApplicationID, &s.Name, &s.CreatedDate, &s.ModifiedDate)
		return s, err
	})
	if err != nil {
		return nil, mapErr("scan scopes", err)
	}
	return scopes, nil
}

// ─── RoleRepository ───

type roleRepo struct{ *repos }

func (r *roleRepo) Get(ctx context.Context, id uuid.UUID) (*repository.Role, error) {
	return r.loadRole(ctx, id)
}

func (r *repos) loadRole(ctx context.Context, id uuid.UUID) (*repository.Role, error) {
	const q = `
		SELECT id, application_id, name, created_date, modified_date
		FROM roles WHERE id = $1`

	var role repository.Role
	err := r.q.QueryRow(ctx, q, id).Scan(&role.ID, &role.ApplicationID, &role.Name, &role.CreatedDate, &role.ModifiedDate)
	if err != nil {
		return nil, mapErr("get role", err)
	}

	scopes, err := r.collectScopes(ctx, `
		SELECT s.id, s.application_id, s.name, s.created_date, s.modified_date
		FROM role_scopes rs
		JOIN application_scopes s ON s.id = rs.scope_id
		WHERE rs.role_id = $1
		ORDER BY s.name`, id)
	if err != nil {
		return nil, err
	}
	role.Scopes = scopes
	return &role, nil
}

func (r *roleRepo) Save(ctx context.Context, role *repository.Role) error {
	role.EnsureID()
	role.Touch(time.Now())

	const q = `
		INSERT INTO roles (id, application_id, name, created_date, modified_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			modified_date = EXCLUDED.modified_date`
	if _, err := r.q.Exec(ctx, q, role.ID, role.ApplicationID, role.Name, role.CreatedDate, role.ModifiedDate); err != nil {
		return mapErr("save role", err)
	}

	if _, err := r.q.Exec(ctx, `DELETE FROM role_scopes WHERE role_id = $1`, role.ID); err != nil {
		return mapErr("clear role scopes", err)
	}
	// el subselect garantiza que el scope sea de la misma application
	const qs = `
		INSERT INTO role_scopes (role_id, scope_id)
		SELECT $1, s.id FROM application_scopes s
		WHERE s.id = $2 AND s.application_id = $3`
	for _, s := range role.Scopes {
		tag, err := r.q.Exec(ctx, qs, role.ID, s.ID, role.ApplicationID)
		if err != nil {
			return mapErr("save role scope", err)
		}
		if tag.RowsAffected() == 0 {
			return mapErr("save role scope "+s.Name, errForeignScope)
		}
	}
	return nil
}
