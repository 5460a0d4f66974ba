package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenType es el tipo de credencial emitida.
type TokenType string

const (
	TokenTypeAuthorization TokenType = "Authorization"
	TokenTypeBearer        TokenType = "Bearer"
	TokenTypeRefresh       TokenType = "Refresh"
)

// OAuthToken es una credencial emitida. El ID es el valor opaco que ve el
// cliente.
type OAuthToken struct {
	Entity
	Type TokenType

	ClientID uuid.UUID
	Client   *Client

	// IdentityID es nil en tokens de client_credentials.
	IdentityID *uuid.UUID
	Identity   *UserIdentity

	// AuthTokenID apunta al Bearer que refresca (sólo tokens Refresh).
	AuthTokenID *uuid.UUID

	// ExpiresIn en segundos desde CreatedDate.
	ExpiresIn int64

	// Redirect es la URI a la que se ligó un código (sólo Authorization).
	Redirect string

	Scopes []ApplicationScope
}

func (t *OAuthToken) Ref() Ref { return Ref{Kind: KindOAuthToken, ID: t.ID} }

// ExpiresAt es CreatedDate + ExpiresIn, en UTC.
func (t *OAuthToken) ExpiresAt() time.Time {
	return t.CreatedDate.UTC().Add(time.Duration(t.ExpiresIn) * time.Second)
}

// ScopeNames devuelve los nombres de los scopes del token.
func (t *OAuthToken) ScopeNames() []string {
	out := make([]string, 0, len(t.Scopes))
	for _, s := range t.Scopes {
		out = append(out, s.Name)
	}
	return out
}

type TokenRepository interface {
	// Get carga el token con Client, Identity (con User y Role) y Scopes.
	Get(ctx context.Context, id uuid.UUID) (*OAuthToken, error)
	Save(ctx context.Context, token *OAuthToken) error
	// Delete borra el token y, recursivamente, los Refresh encadenados a él.
	// Devuelve ErrNotFound si el token ya no existe.
	Delete(ctx context.Context, id uuid.UUID) error
}
