package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
)

// stateRepo usa el pool directo (autocommit): un estado tiene que quedar
// consumido aunque la transacción del callback haga rollback.
type stateRepo struct {
	db querier
}

func (r *stateRepo) Save(ctx context.Context, s *repository.AuthenticatorState) error {
	now := time.Now().UTC()
	if s.ExpiresAt.IsZero() || !s.ExpiresAt.After(now) {
		return fmt.Errorf("pg: save state: %w", repository.ErrInvalidInput)
	}
	s.EnsureID()
	s.Touch(now)

	// limpieza oportunista de estados vencidos
	if _, err := r.db.Exec(ctx, `DELETE FROM authenticator_states WHERE expires_at < $1`, now); err != nil {
		return mapErr("purge states", err)
	}

	const q = `
		INSERT INTO authenticator_states
			(id, client_id, authenticator_id, client_redirect, client_state, client_scopes, response_type, created_date, modified_date, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, q, s.ID, s.ClientID, s.AuthenticatorID, s.ClientRedirect, s.ClientState,
		s.ClientScopes, s.ResponseType, s.CreatedDate, s.ModifiedDate, s.ExpiresAt)
	return mapErr("save state", err)
}

// Consume es un DELETE ... RETURNING: con dos callbacks concurrentes el
// segundo espera el lock de fila y no obtiene filas.
func (r *stateRepo) Consume(ctx context.Context, id uuid.UUID) (*repository.AuthenticatorState, error) {
	const q = `
		DELETE FROM authenticator_states WHERE id = $1
		RETURNING id, client_id, authenticator_id, client_redirect, client_state, client_scopes,
		          response_type, created_date, modified_date, expires_at`

	var s repository.AuthenticatorState
	err := r.db.QueryRow(ctx, q, id).Scan(&s.ID, &s.ClientID, &s.AuthenticatorID, &s.ClientRedirect,
		&s.ClientState, &s.ClientScopes, &s.ResponseType, &s.CreatedDate, &s.ModifiedDate, &s.ExpiresAt)
	if err != nil {
		return nil, mapErr("consume state", err)
	}
	if !time.Now().Before(s.ExpiresAt) {
		return nil, fmt.Errorf("pg: state %s expired: %w", id, repository.ErrNotFound)
	}
	return &s, nil
}
