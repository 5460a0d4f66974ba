package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
)

type repos struct {
	d   *data
	now func() time.Time
}

func (r *repos) Applications() repository.ApplicationRepository { return appRepo{r} }
func (r *repos) Roles() repository.RoleRepository               { return roleRepo{r} }
func (r *repos) Clients() repository.ClientRepository           { return clientRepo{r} }
func (r *repos) Users() repository.UserRepository               { return userRepo{r} }
func (r *repos) Identities() repository.IdentityRepository      { return identityRepo{r} }
func (r *repos) Tokens() repository.TokenRepository             { return tokenRepo{r} }

func notFound(k repository.Kind, id uuid.UUID) error {
	return fmt.Errorf("memory: %s %s: %w", k, id, repository.ErrNotFound)
}

// ─── applications ───

type appRepo struct{ *repos }

func (r appRepo) Get(_ context.Context, id uuid.UUID) (*repository.Application, error) {
	return r.loadApplication(id)
}

func (r *repos) loadApplication(id uuid.UUID) (*repository.Application, error) {
	app, ok := r.d.applications[id]
	if !ok {
		return nil, notFound(repository.KindApplication, id)
	}
	app.Scopes = nil
	for _, s := range r.d.scopes {
		if s.ApplicationID == id {
			app.Scopes = append(app.Scopes, s)
		}
	}
	sort.Slice(app.Scopes, func(i, j int) bool { return app.Scopes[i].Name < app.Scopes[j].Name })
	return &app, nil
}

func (r appRepo) Save(_ context.Context, app *repository.Application) error {
	app.EnsureID()
	app.Touch(r.now())

	for i := range app.Scopes {
		s := &app.Scopes[i]
		s.EnsureID()
		s.ApplicationID = app.ID
		s.Touch(r.now())
		for _, other := range r.d.scopes {
			if other.ApplicationID == app.ID && other.Name == s.Name && other.ID != s.ID {
				return fmt.Errorf("memory: scope %q: %w", s.Name, repository.ErrConflict)
			}
		}
		r.d.scopes[s.ID] = *s
	}

	stored := *app
	stored.Scopes = nil
	r.d.applications[app.ID] = stored
	return nil
}

// ─── roles ───

type roleRepo struct{ *repos }

func (r roleRepo) Get(_ context.Context, id uuid.UUID) (*repository.Role, error) {
	return r.loadRole(id)
}

func (r *repos) loadRole(id uuid.UUID) (*repository.Role, error) {
	row, ok := r.d.roles[id]
	if !ok {
		return nil, notFound(repository.KindRole, id)
	}
	role := row.role
	role.Scopes = nil
	for _, sid := range row.scopeIDs {
		if s, ok := r.d.scopes[sid]; ok {
			role.Scopes = append(role.Scopes, s)
		}
	}
	sort.Slice(role.Scopes, func(i, j int) bool { return role.Scopes[i].Name < role.Scopes[j].Name })
	return &role, nil
}

func (r roleRepo) Save(_ context.Context, role *repository.Role) error {
	if _, ok := r.d.applications[role.ApplicationID]; !ok {
		return fmt.Errorf("memory: role application %s: %w", role.ApplicationID, repository.ErrInvalidInput)
	}
	role.EnsureID()
	role.Touch(r.now())

	ids := make([]uuid.UUID, 0, len(role.Scopes))
	for _, s := range role.Scopes {
		stored, ok := r.d.scopes[s.ID]
		if !ok || stored.ApplicationID != role.ApplicationID {
			return fmt.Errorf("memory: role scope %q: %w", s.Name, repository.ErrInvalidInput)
		}
		ids = append(ids, s.ID)
	}

	stored := *role
	stored.Scopes = nil
	r.d.roles[role.ID] = roleRow{role: stored, scopeIDs: ids}
	return nil
}

// ─── clients ───

type clientRepo struct{ *repos }

func (r clientRepo) Get(_ context.Context, id uuid.UUID) (*repository.Client, error) {
	return r.loadClient(id)
}

func (r *repos) loadClient(id uuid.UUID) (*repository.Client, error) {
	stored, ok := r.d.clients[id]
	if !ok {
		return nil, notFound(repository.KindClient, id)
	}
	c := cloneClient(stored)
	app, err := r.loadApplication(c.ApplicationID)
	if err != nil {
		return nil, err
	}
	c.Application = app
	return &c, nil
}

func (r clientRepo) Save(_ context.Context, c *repository.Client) error {
	if _, ok := r.d.applications[c.ApplicationID]; !ok {
		return fmt.Errorf("memory: client application %s: %w", c.ApplicationID, repository.ErrInvalidInput)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("memory: client type %q: %w", c.Type, repository.ErrInvalidInput)
	}
	c.EnsureID()
	c.Touch(r.now())
	for i := range c.Authenticators {
		a := &c.Authenticators[i]
		a.EnsureID()
		a.ClientID = c.ID
		a.Touch(r.now())
	}

	stored := cloneClient(*c)
	stored.Application = nil
	r.d.clients[c.ID] = stored
	return nil
}

func (r clientRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.d.clients[id]; !ok {
		return notFound(repository.KindClient, id)
	}
	delete(r.d.clients, id)
	for tid, row := range r.d.tokens {
		if row.token.ClientID == id {
			r.deleteToken(tid)
		}
	}
	return nil
}

func cloneClient(c repository.Client) repository.Client {
	c.RedirectURIs = cloneStrings(c.RedirectURIs)
	c.ReferrerURIs = cloneStrings(c.ReferrerURIs)
	c.Configuration = cloneConfig(c.Configuration)
	auths := make([]repository.Authenticator, len(c.Authenticators))
	for i, a := range c.Authenticators {
		a.Configuration = cloneConfig(a.Configuration)
		auths[i] = a
	}
	c.Authenticators = auths
	return c
}

// ─── users / identities ───

type userRepo struct{ *repos }

func (r userRepo) Get(_ context.Context, id uuid.UUID) (*repository.User, error) {
	return r.loadUser(id)
}

func (r *repos) loadUser(id uuid.UUID) (*repository.User, error) {
	u, ok := r.d.users[id]
	if !ok {
		return nil, notFound(repository.KindUser, id)
	}
	if u.RoleID != nil {
		role, err := r.loadRole(*u.RoleID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, err
		}
		u.Role = role
	}
	return &u, nil
}

func (r userRepo) Save(_ context.Context, u *repository.User) error {
	if _, ok := r.d.applications[u.ApplicationID]; !ok {
		return fmt.Errorf("memory: user application %s: %w", u.ApplicationID, repository.ErrInvalidInput)
	}
	if u.RoleID != nil {
		row, ok := r.d.roles[*u.RoleID]
		if !ok || row.role.ApplicationID != u.ApplicationID {
			return fmt.Errorf("memory: user role %s: %w", *u.RoleID, repository.ErrInvalidInput)
		}
	}
	u.EnsureID()
	u.Touch(r.now())
	stored := *u
	stored.Role = nil
	r.d.users[u.ID] = stored
	return nil
}

type identityRepo struct{ *repos }

func (r identityRepo) Get(_ context.Context, id uuid.UUID) (*repository.UserIdentity, error) {
	return r.loadIdentity(id)
}

func (r *repos) loadIdentity(id uuid.UUID) (*repository.UserIdentity, error) {
	stored, ok := r.d.identities[id]
	if !ok {
		return nil, notFound(repository.KindUserIdentity, id)
	}
	ident := stored
	ident.Claims = cloneConfig(stored.Claims)
	user, err := r.loadUser(ident.UserID)
	if err != nil {
		return nil, err
	}
	ident.User = user
	return &ident, nil
}

func (r identityRepo) FindByRemoteID(_ context.Context, applicationID uuid.UUID, typ, remoteID string) (*repository.UserIdentity, error) {
	for id, ident := range r.d.identities {
		if ident.Type != typ || ident.RemoteID != remoteID {
			continue
		}
		if u, ok := r.d.users[ident.UserID]; ok && u.ApplicationID == applicationID {
			return r.loadIdentity(id)
		}
	}
	return nil, fmt.Errorf("memory: identity %s/%s: %w", typ, remoteID, repository.ErrNotFound)
}

func (r identityRepo) Save(_ context.Context, ident *repository.UserIdentity) error {
	if _, ok := r.d.users[ident.UserID]; !ok {
		return fmt.Errorf("memory: identity user %s: %w", ident.UserID, repository.ErrInvalidInput)
	}
	for _, other := range r.d.identities {
		if other.UserID == ident.UserID && other.Type == ident.Type && other.ID != ident.ID {
			return fmt.Errorf("memory: identity %s for user %s: %w", ident.Type, ident.UserID, repository.ErrConflict)
		}
	}
	ident.EnsureID()
	ident.Touch(r.now())
	stored := *ident
	stored.User = nil
	stored.Claims = cloneConfig(ident.Claims)
	r.d.identities[ident.ID] = stored
	return nil
}

// ─── tokens ───

type tokenRepo struct{ *repos }

func (r tokenRepo) Get(_ context.Context, id uuid.UUID) (*repository.OAuthToken, error) {
	row, ok := r.d.tokens[id]
	if !ok {
		return nil, notFound(repository.KindOAuthToken, id)
	}
	tok := row.token
	client, err := r.loadClient(tok.ClientID)
	if err != nil {
		return nil, err
	}
	tok.Client = client
	if tok.IdentityID != nil {
		ident, err := r.loadIdentity(*tok.IdentityID)
		if err != nil {
			return nil, err
		}
		tok.Identity = ident
	}
	tok.Scopes = nil
	for _, sid := range row.scopeIDs {
		if s, ok := r.d.scopes[sid]; ok {
			tok.Scopes = append(tok.Scopes, s)
		}
	}
	sort.Slice(tok.Scopes, func(i, j int) bool { return tok.Scopes[i].Name < tok.Scopes[j].Name })
	return &tok, nil
}

func (r tokenRepo) Save(_ context.Context, tok *repository.OAuthToken) error {
	if _, ok := r.d.clients[tok.ClientID]; !ok {
		return fmt.Errorf("memory: token client %s: %w", tok.ClientID, repository.ErrInvalidInput)
	}
	if tok.IdentityID != nil {
		if _, ok := r.d.identities[*tok.IdentityID]; !ok {
			return fmt.Errorf("memory: token identity %s: %w", *tok.IdentityID, repository.ErrInvalidInput)
		}
	}
	if tok.AuthTokenID != nil {
		if _, ok := r.d.tokens[*tok.AuthTokenID]; !ok {
			return fmt.Errorf("memory: token parent %s: %w", *tok.AuthTokenID, repository.ErrInvalidInput)
		}
	}
	tok.EnsureID()
	tok.Touch(r.now())

	ids := make([]uuid.UUID, 0, len(tok.Scopes))
	for _, s := range tok.Scopes {
		ids = append(ids, s.ID)
	}
	stored := *tok
	stored.Client, stored.Identity, stored.Scopes = nil, nil, nil
	r.d.tokens[tok.ID] = tokenRow{token: stored, scopeIDs: ids}
	return nil
}

func (r tokenRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.d.tokens[id]; !ok {
		return notFound(repository.KindOAuthToken, id)
	}
	r.deleteToken(id)
	return nil
}

// deleteToken borra id y recursivamente los tokens encadenados.
func (r *repos) deleteToken(id uuid.UUID) {
	delete(r.d.tokens, id)
	for cid, row := range r.d.tokens {
		if row.token.AuthTokenID != nil && *row.token.AuthTokenID == id {
			r.deleteToken(cid)
		}
	}
}
