package repository

import (
	"context"

	"github.com/google/uuid"
)

// User agrupa una o más identidades verificadas dentro de una Application.
type User struct {
	Entity
	ApplicationID uuid.UUID
	// RoleID es el único rol del usuario en su Application (opcional).
	RoleID *uuid.UUID
	// Role se completa al cargar el usuario.
	Role *Role
}

func (u *User) Ref() Ref { return Ref{Kind: KindUser, ID: u.ID} }

// UserIdentity es la identidad de un usuario frente a un tipo de authenticator.
type UserIdentity struct {
	Entity
	UserID uuid.UUID
	// User se completa al cargar la identidad (con Role).
	User *User

	// Type es el tipo de authenticator que verificó la identidad.
	Type     string
	RemoteID string
	Claims   map[string]string

	// Password es el digest PHC, sólo para identidades del authenticator password.
	Password string
}

func (i *UserIdentity) Ref() Ref { return Ref{Kind: KindUserIdentity, ID: i.ID} }

type UserRepository interface {
	// Get carga el usuario con su Role.
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	Save(ctx context.Context, user *User) error
}

type IdentityRepository interface {
	// Get carga la identidad con su User.
	Get(ctx context.Context, id uuid.UUID) (*UserIdentity, error)
	// FindByRemoteID busca una identidad por (tipo, remoteId) entre los
	// usuarios de una Application.
	FindByRemoteID(ctx context.Context, applicationID uuid.UUID, typ, remoteID string) (*UserIdentity, error)
	Save(ctx context.Context, identity *UserIdentity) error
}
