package authenticators

import (
	"context"
	"fmt"
	"maps"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
)

// TxRunner es la parte de store.DataAccessLayer que usa Identities.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(repos repository.Repositories) error) error
}

// Identities resuelve (application, tipo, remoteId) a una UserIdentity.
type Identities struct {
	run func(ctx context.Context, fn func(repos repository.Repositories) error) error
}

// NewIdentities opera sobre repos de una transacción ya abierta.
func NewIdentities(repos repository.Repositories) *Identities {
	return &Identities{run: func(_ context.Context, fn func(repository.Repositories) error) error {
		return fn(repos)
	}}
}

// NewTxIdentities abre una transacción corta por operación. Authenticate
// corre fuera de toda transacción mientras espera al proveedor externo.
func NewTxIdentities(dal TxRunner) *Identities {
	return &Identities{run: dal.RunInTx}
}

// Find busca una identidad existente; inexistente es repository.ErrNotFound.
func (s *Identities) Find(ctx context.Context, client *repository.Client, typ, remoteID string) (*repository.UserIdentity, error) {
	var ident *repository.UserIdentity
	err := s.run(ctx, func(repos repository.Repositories) error {
		var err error
		ident, err = repos.Identities().FindByRemoteID(ctx, client.ApplicationID, typ, remoteID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ident, nil
}

// FindOrCreate devuelve la identidad existente (actualizando claims si
// cambiaron) o crea User + UserIdentity en la Application del client, con el
// rol por defecto de la Application.
func (s *Identities) FindOrCreate(ctx context.Context, client *repository.Client, typ, remoteID string, claims map[string]string) (*repository.UserIdentity, error) {
	if remoteID == "" {
		return nil, fmt.Errorf("authenticators: empty remote id: %w", repository.ErrInvalidInput)
	}
	var ident *repository.UserIdentity
	err := s.run(ctx, func(repos repository.Repositories) error {
		var err error
		ident, err = findOrCreate(ctx, repos, client, typ, remoteID, claims)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ident, nil
}

func findOrCreate(ctx context.Context, repos repository.Repositories, client *repository.Client, typ, remoteID string, claims map[string]string) (*repository.UserIdentity, error) {
	ident, err := repos.Identities().FindByRemoteID(ctx, client.ApplicationID, typ, remoteID)
	switch {
	case err == nil:
		if claims != nil && !maps.Equal(ident.Claims, claims) {
			ident.Claims = claims
			if err := repos.Identities().Save(ctx, ident); err != nil {
				return nil, fmt.Errorf("authenticators: update claims: %w", err)
			}
		}
		return ident, nil
	case !repository.IsNotFound(err):
		return nil, fmt.Errorf("authenticators: find identity: %w", err)
	}

	app := client.Application
	if app == nil {
		if app, err = repos.Applications().Get(ctx, client.ApplicationID); err != nil {
			return nil, fmt.Errorf("authenticators: load application: %w", err)
		}
	}

	user := &repository.User{ApplicationID: client.ApplicationID, RoleID: app.DefaultRoleID}
	if err := repos.Users().Save(ctx, user); err != nil {
		return nil, fmt.Errorf("authenticators: create user: %w", err)
	}
	ident = &repository.UserIdentity{UserID: user.ID, Type: typ, RemoteID: remoteID, Claims: claims}
	if err := repos.Identities().Save(ctx, ident); err != nil {
		return nil, fmt.Errorf("authenticators: create identity: %w", err)
	}
	// recarga para traer User y Role
	return repos.Identities().Get(ctx, ident.ID)
}
