package pg

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
)

// ─── TokenRepository ───

type tokenRepo struct{ *repos }

func (r *tokenRepo) Get(ctx context.Context, id uuid.UUID) (*repository.OAuthToken, error) {
	const q = `
		SELECT id, token_type, client_id, identity_id, auth_token_id, expires_in,
		       COALESCE(redirect, ''), created_date, modified_date
		FROM oauth_tokens WHERE id = $1`

	var t repository.OAuthToken
	var typ string
	err := r.q.QueryRow(ctx, q, id).Scan(&t.ID, &typ, &t.ClientID, &t.IdentityID, &t.AuthTokenID,
		&t.ExpiresIn, &t.Redirect, &t.CreatedDate, &t.ModifiedDate)
	if err != nil {
		return nil, mapErr("get token", err)
	}
	t.Type = repository.TokenType(typ)

	if t.Client, err = r.loadClient(ctx, t.ClientID); err != nil {
		return nil, err
	}
	if t.IdentityID != nil {
		ident, err := (&identityRepo{r.repos}).Get(ctx, *t.IdentityID)
		if err != nil {
			return nil, err
		}
		t.Identity = ident
	}

	t.Scopes, err = r.collectScopes(ctx, `
		SELECT s.id, s.application_id, s.name, s.created_date, s.modified_date
		FROM oauth_token_scopes ts
		JOIN application_scopes s ON s.id = ts.scope_id
		WHERE ts.token_id = $1
		ORDER BY s.name`, id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepo) Save(ctx context.Context, t *repository.OAuthToken) error {
	t.EnsureID()
	t.Touch(time.Now())

	const q = `
		INSERT INTO oauth_tokens (id, token_type, client_id, identity_id, auth_token_id, expires_in, redirect, created_date, modified_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			expires_in = EXCLUDED.expires_in,
			redirect = EXCLUDED.redirect,
			modified_date = EXCLUDED.modified_date`
	_, err := r.q.Exec(ctx, q, t.ID, string(t.Type), t.ClientID, t.IdentityID, t.AuthTokenID,
		t.ExpiresIn, nullIfEmpty(t.Redirect), t.CreatedDate, t.ModifiedDate)
	if err != nil {
		return mapErr("save token", err)
	}

	if _, err := r.q.Exec(ctx, `DELETE FROM oauth_token_scopes WHERE token_id = $1`, t.ID); err != nil {
		return mapErr("clear token scopes", err)
	}
	if len(t.Scopes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, s := range t.Scopes {
		batch.Queue(`INSERT INTO oauth_token_scopes (token_id, scope_id) VALUES ($1, $2)`, t.ID, s.ID)
	}
	br := r.q.SendBatch(ctx, batch)
	for range t.Scopes {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return mapErr("save token scope", err)
		}
	}
	return mapErr("save token scopes", br.Close())
}

// Delete borra el token; la FK auth_token_id ON DELETE CASCADE se lleva los
// Refresh encadenados.
func (r *tokenRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM oauth_tokens WHERE id = $1`, id)
	if err != nil {
		return mapErr("delete token", err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr("delete token", pgx.ErrNoRows)
	}
	return nil
}
