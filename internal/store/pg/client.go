package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
)

var (
	errForeignScope = fmt.Errorf("scope belongs to another application: %w", repository.ErrInvalidInput)
	errForeignRole  = fmt.Errorf("role belongs to another application: %w", repository.ErrInvalidInput)
)

// ─── ClientRepository ───

type clientRepo struct{ *repos }

func (r *clientRepo) Get(ctx context.Context, id uuid.UUID) (*repository.Client, error) {
	return r.loadClient(ctx, id)
}

func (r *repos) loadClient(ctx context.Context, id uuid.UUID) (*repository.Client, error) {
	const q = `
		SELECT id, application_id, name, type, COALESCE(secret, ''), configuration, created_date, modified_date
		FROM clients WHERE id = $1`

	var c repository.Client
	var typ string
	err := r.q.QueryRow(ctx, q, id).Scan(&c.ID, &c.ApplicationID, &c.Name, &typ, &c.Secret, &c.Configuration, &c.CreatedDate, &c.ModifiedDate)
	if err != nil {
		return nil, mapErr("get client", err)
	}
	c.Type = repository.ClientType(typ)

	if c.RedirectURIs, err = r.collectURIs(ctx, `SELECT uri FROM client_redirects WHERE client_id = $1 ORDER BY uri`, id); err != nil {
		return nil, err
	}
	if c.ReferrerURIs, err = r.collectURIs(ctx, `SELECT uri FROM client_referrers WHERE client_id = $1 ORDER BY uri`, id); err != nil {
		return nil, err
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, client_id, type, configuration, created_date, modified_date
		FROM authenticators WHERE client_id = $1 ORDER BY created_date, type`, id)
	if err != nil {
		return nil, mapErr("list authenticators", err)
	}
	c.Authenticators, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.Authenticator, error) {
		var a repository.Authenticator
		err := row.Scan(&a.ID, &a.ClientID, &a.Type, &a.Configuration, &a.CreatedDate, &a.ModifiedDate)
		return a, err
	})
	if err != nil {
		return nil, mapErr("scan authenticators", err)
	}

	c.Application, err = (&appRepo{r}).Get(ctx, c.ApplicationID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repos) collectURIs(ctx context.Context, q string, id uuid.UUID) ([]string, error) {
	rows, err := r.q.Query(ctx, q, id)
	if err != nil {
		return nil, mapErr("list uris", err)
	}
	uris, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, mapErr("scan uris", err)
	}
	return uris, nil
}

func (r *clientRepo) Save(ctx context.Context, c *repository.Client) error {
	if !c.Type.Valid() {
		return fmt.Errorf("pg: client type %q: %w", c.Type, repository.ErrInvalidInput)
	}
	now := time.Now()
	c.EnsureID()
	c.Touch(now)

	const q = `
		INSERT INTO clients (id, application_id, name, type, secret, configuration, created_date, modified_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			secret = EXCLUDED.secret,
			configuration = EXCLUDED.configuration,
			modified_date = EXCLUDED.modified_date`
	_, err := r.q.Exec(ctx, q, c.ID, c.ApplicationID, c.Name, string(c.Type), nullIfEmpty(c.Secret),
		emptyIfNil(c.Configuration), c.CreatedDate, c.ModifiedDate)
	if err != nil {
		return mapErr("save client", err)
	}

	if err := r.replaceURIs(ctx, "client_redirects", c.ID, c.RedirectURIs); err != nil {
		return err
	}
	if err := r.replaceURIs(ctx, "client_referrers", c.ID, c.ReferrerURIs); err != nil {
		return err
	}

	keep := make([]string, 0, len(c.Authenticators))
	const qa = `
		INSERT INTO authenticators (id, client_id, type, configuration, created_date, modified_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			configuration = EXCLUDED.configuration,
			modified_date = EXCLUDED.modified_date`
	for i := range c.Authenticators {
		a := &c.Authenticators[i]
		a.EnsureID()
		a.ClientID = c.ID
		a.Touch(now)
		if _, err := r.q.Exec(ctx, qa, a.ID, a.ClientID, a.Type, emptyIfNil(a.Configuration), a.CreatedDate, a.ModifiedDate); err != nil {
			return mapErr("save authenticator "+a.Type, err)
		}
		keep = append(keep, a.ID.String())
	}
	_, err = r.q.Exec(ctx, `DELETE FROM authenticators WHERE client_id = $1 AND NOT (id = ANY($2::uuid[]))`, c.ID, keep)
	return mapErr("prune authenticators", err)
}

// replaceURIs reemplaza el conjunto de URIs; table es una constante interna.
func (r *clientRepo) replaceURIs(ctx context.Context, table string, clientID uuid.UUID, uris []string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM `+table+` WHERE client_id = $1`, clientID); err != nil {
		return mapErr("clear "+table, err)
	}
	for _, u := range uris {
		_, err := r.q.Exec(ctx, `INSERT INTO `+table+` (client_id, uri) VALUES ($1, $2) ON CONFLICT DO NOTHING`, clientID, u)
		if err != nil {
			return mapErr("save "+table, err)
		}
	}
	return nil
}

func (r *clientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return mapErr("delete client", err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr("delete client", pgx.ErrNoRows)
	}
	return nil
}
