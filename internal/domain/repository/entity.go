package repository

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifica el tipo de una entidad.
type Kind string

const (
	KindApplication        Kind = "application"
	KindApplicationScope   Kind = "application_scope"
	KindRole               Kind = "role"
	KindClient             Kind = "client"
	KindAuthenticator      Kind = "authenticator"
	KindAuthenticatorState Kind = "authenticator_state"
	KindUser               Kind = "user"
	KindUserIdentity       Kind = "user_identity"
	KindOAuthToken         Kind = "oauth_token"
)

// Entity agrupa los campos de identidad y auditoría que comparten todas las
// entidades. Se embebe por valor.
type Entity struct {
	ID           uuid.UUID
	CreatedDate  time.Time
	ModifiedDate time.Time
}

// Touch completa CreatedDate si está vacío y actualiza ModifiedDate.
func (e *Entity) Touch(now time.Time) {
	now = now.UTC()
	if e.CreatedDate.IsZero() {
		e.CreatedDate = now
	}
	e.ModifiedDate = now
}

// EnsureID asigna un id nuevo si la entidad todavía no tiene uno.
func (e *Entity) EnsureID() {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
}

// Ref es la identidad comparable de una entidad: dos entidades son iguales
// sii tienen el mismo Kind y el mismo ID. Sirve como clave de map.
type Ref struct {
	Kind Kind
	ID   uuid.UUID
}

func (r Ref) String() string { return string(r.Kind) + ":" + r.ID.String() }
