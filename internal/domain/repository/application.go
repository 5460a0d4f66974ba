package repository

import (
	"context"

	"github.com/google/uuid"
)

// Application es el límite de tenant: dueña de clients, roles, scopes y users.
type Application struct {
	Entity
	Name string

	// DefaultRoleID es el rol que reciben los usuarios creados en el primer
	// login. Nil: los usuarios nuevos no tienen rol.
	DefaultRoleID *uuid.UUID

	// Scopes es el catálogo de la aplicación; los nombres son únicos.
	Scopes []ApplicationScope
}

func (a *Application) Ref() Ref { return Ref{Kind: KindApplication, ID: a.ID} }

// Scope busca un scope del catálogo por nombre.
func (a *Application) Scope(name string) (ApplicationScope, bool) {
	for _, s := range a.Scopes {
		if s.Name == name {
			return s, true
		}
	}
	return ApplicationScope{}, false
}

// ApplicationScope es una unidad de permiso con nombre, única dentro de su
// Application.
type ApplicationScope struct {
	Entity
	ApplicationID uuid.UUID
	Name          string
}

func (s *ApplicationScope) Ref() Ref { return Ref{Kind: KindApplicationScope, ID: s.ID} }

// Role pertenece a una Application y lista los scopes que permite.
type Role struct {
	Entity
	ApplicationID uuid.UUID
	Name          string
	Scopes        []ApplicationScope
}

func (r *Role) Ref() Ref { return Ref{Kind: KindRole, ID: r.ID} }

// Permits reporta si el rol incluye el scope con ese nombre.
func (r *Role) Permits(name string) bool {
	if r == nil {
		return false
	}
	for _, s := range r.Scopes {
		if s.Name == name {
			return true
		}
	}
	return false
}

// ApplicationRepository persiste applications junto con su catálogo de scopes.
type ApplicationRepository interface {
	// Get carga la application con Scopes.
	Get(ctx context.Context, id uuid.UUID) (*Application, error)
	// Save hace upsert de la application y de cada scope en app.Scopes.
	Save(ctx context.Context, app *Application) error
}

// RoleRepository persiste roles y su conjunto de scopes.
type RoleRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*Role, error)
	// Save reemplaza el conjunto de scopes del rol por role.Scopes.
	Save(ctx context.Context, role *Role) error
}
