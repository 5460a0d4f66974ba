package bootstrap

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	"github.com/dropDatabas3/kangaroo/internal/observability/logger"
	"github.com/dropDatabas3/kangaroo/internal/security/password"
	"github.com/dropDatabas3/kangaroo/internal/store"
)

// Result indexa lo creado por nombre: "app", "app/role", "app/client",
// "app/type/remote_id".
type Result struct {
	Applications map[string]*repository.Application
	Roles        map[string]*repository.Role
	Clients      map[string]*repository.Client
	Identities   map[string]*repository.UserIdentity
}

func (r *Result) Client(app, name string) *repository.Client { return r.Clients[app+"/"+name] }
func (r *Result) Role(app, name string) *repository.Role       { return r.Roles[app+"/"+name] }

// Apply valida y persiste el seed en una única transacción.
func Apply(ctx context.Context, dal store.DataAccessLayer, seed *Seed, opts Options) (*Result, error) {
	if err := seed.Validate(opts); err != nil {
		return nil, err
	}
	if opts.Hash == (password.Params{}) {
		opts.Hash = password.Default
	}
	log := logger.From(ctx).With(logger.Component("bootstrap"))

	var res *Result
	err := dal.RunInTx(ctx, func(repos repository.Repositories) error {
		res = &Result{
			Applications: map[string]*repository.Application{},
			Roles:        map[string]*repository.Role{},
			Clients:      map[string]*repository.Client{},
			Identities:   map[string]*repository.UserIdentity{},
		}
		for _, app := range seed.Applications {
			if err := applyApplication(ctx, repos, app, opts, res); err != nil {
				return fmt.Errorf("bootstrap: application %s: %w", app.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("seed applied",
		logger.Int("applications", len(res.Applications)),
		logger.Int("clients", len(res.Clients)),
		logger.Int("identities", len(res.Identities)),
	)
	return res, nil
}

func applyApplication(ctx context.Context, repos repository.Repositories, seed ApplicationSeed, opts Options, res *Result) error {
	id, _ := parseID(seed.ID)
	app := &repository.Application{Entity: repository.Entity{ID: id}, Name: seed.Name}
	if id != uuid.Nil {
		if existing, err := repos.Applications().Get(ctx, id); err == nil {
			app = existing
			app.Name = seed.Name
		} else if !repository.IsNotFound(err) {
			return err
		}
	}
	for _, name := range seed.Scopes {
		if _, ok := app.Scope(name); !ok {
			app.Scopes = append(app.Scopes, repository.ApplicationScope{Name: name})
		}
	}
	if err := repos.Applications().Save(ctx, app); err != nil {
		return err
	}
	res.Applications[seed.Name] = app

	roles := map[string]*repository.Role{}
	for _, rs := range seed.Roles {
		rid, _ := parseID(rs.ID)
		role := &repository.Role{Entity: repository.Entity{ID: rid}, ApplicationID: app.ID, Name: rs.Name}
		for _, name := range rs.Scopes {
			s, _ := app.Scope(name)
			role.Scopes = append(role.Scopes, s)
		}
		if err := repos.Roles().Save(ctx, role); err != nil {
			return fmt.Errorf("role %s: %w", rs.Name, err)
		}
		roles[rs.Name] = role
		res.Roles[seed.Name+"/"+rs.Name] = role
	}
	if seed.DefaultRole != "" {
		app.DefaultRoleID = &roles[seed.DefaultRole].ID
		if err := repos.Applications().Save(ctx, app); err != nil {
			return err
		}
	}

	for _, cs := range seed.Clients {
		client, err := buildClient(app, cs, opts)
		if err != nil {
			return err
		}
		if err := repos.Clients().Save(ctx, client); err != nil {
			return fmt.Errorf("client %s: %w", cs.Name, err)
		}
		client.Application = app
		res.Clients[seed.Name+"/"+cs.Name] = client
	}

	for _, us := range seed.Users {
		var roleID *uuid.UUID
		if us.Role != "" {
			roleID = &roles[us.Role].ID
		}
		if err := applyUser(ctx, repos, app, roleID, us, opts, res); err != nil {
			return err
		}
	}
	return nil
}

func buildClient(app *repository.Application, cs ClientSeed, opts Options) (*repository.Client, error) {
	id, _ := parseID(cs.ID)
	client := &repository.Client{
		Entity:        repository.Entity{ID: id},
		ApplicationID: app.ID,
		Name:          cs.Name,
		Type:          repository.ClientType(cs.Type),
		RedirectURIs:  cs.RedirectURIs,
		ReferrerURIs:  cs.ReferrerURIs,
		Configuration: cs.Configuration,
	}
	if cs.Secret != "" {
		digest, err := password.New(opts.Hash, cs.Secret)
		if err != nil {
			return nil, fmt.Errorf("client %s: %w", cs.Name, err)
		}
		client.Secret = digest
	}
	for _, as := range cs.Authenticators {
		client.Authenticators = append(client.Authenticators, repository.Authenticator{
			Type:          as.Type,
			Configuration: as.Configuration,
		})
	}
	return client, nil
}

func applyUser(ctx context.Context, repos repository.Repositories, app *repository.Application, roleID *uuid.UUID, us UserSeed, opts Options, res *Result) error {
	// si alguna identidad ya existe, se reutiliza su usuario
	var user *repository.User
	existing := map[int]*repository.UserIdentity{}
	for i, is := range us.Identities {
		ident, err := repos.Identities().FindByRemoteID(ctx, app.ID, is.Type, is.RemoteID)
		switch {
		case err == nil:
			existing[i] = ident
			if user == nil {
				user = ident.User
			}
		case !repository.IsNotFound(err):
			return err
		}
	}
	if user == nil {
		user = &repository.User{ApplicationID: app.ID}
	}
	user.RoleID = roleID
	user.Role = nil
	if err := repos.Users().Save(ctx, user); err != nil {
		return fmt.Errorf("user: %w", err)
	}

	for i, is := range us.Identities {
		ident := existing[i]
		if ident == nil {
			ident = &repository.UserIdentity{Type: is.Type, RemoteID: is.RemoteID}
		}
		ident.UserID = user.ID
		ident.Claims = is.Claims
		if is.Password != "" {
			digest, err := password.New(opts.Hash, is.Password)
			if err != nil {
				return err
			}
			ident.Password = digest
		}
		if err := repos.Identities().Save(ctx, ident); err != nil {
			return fmt.Errorf("identity %s/%s: %w", is.Type, is.RemoteID, err)
		}
		res.Identities[app.Name+"/"+is.Type+"/"+is.RemoteID] = ident
	}
	return nil
}
