package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuthenticatorState es el registro efímero que se crea al delegar un
// /authorize a un authenticator. Se consume una única vez en el callback.
type AuthenticatorState struct {
	Entity
	ClientID        uuid.UUID
	AuthenticatorID uuid.UUID

	ClientRedirect string
	ClientState    string
	ClientScopes   string
	ResponseType   string

	ExpiresAt time.Time
}

func (s *AuthenticatorState) Ref() Ref { return Ref{Kind: KindAuthenticatorState, ID: s.ID} }

// AuthenticatorStateRepository guarda estados fuera de la transacción del
// request: Consume tiene que ser atómico (first writer wins) por sí mismo.
type AuthenticatorStateRepository interface {
	Save(ctx context.Context, state *AuthenticatorState) error
	// Consume borra y devuelve el estado. Un estado expirado o ya consumido
	// devuelve ErrNotFound. Dos llamadas concurrentes con el mismo id: sólo
	// una obtiene el estado.
	Consume(ctx context.Context, id uuid.UUID) (*AuthenticatorState, error)
}
