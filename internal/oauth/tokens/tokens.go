// Package tokens implementa el ciclo de vida de los tokens OAuth2: emisión,
// expiración, encadenamiento Bearer → Refresh y revocación en cascada.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
)

// Claves de Client.Configuration que pisan los lifetimes por defecto.
const (
	ConfigAuthorizationCodeExpiresIn = "authorization_code_expires_in"
	ConfigAccessTokenExpiresIn       = "access_token_expires_in"
	ConfigRefreshTokenExpiresIn      = "refresh_token_expires_in"
)

// Lifetimes por defecto, en segundos.
const (
	DefaultAuthorizationCodeTTL int64 = 600
	DefaultAccessTokenTTL       int64 = 600
	DefaultRefreshTokenTTL      int64 = 30 * 24 * 60 * 60
)

// Invariantes de emisión. Violarlas es un error de programación del caller,
// no del cliente OAuth.
var (
	ErrNoClient          = errors.New("tokens: client is required")
	ErrIdentityRequired  = errors.New("tokens: identity is required for this client type")
	ErrIdentityForbidden = errors.New("tokens: client_credentials tokens cannot carry an identity")
	ErrInvalidParent     = errors.New("tokens: refresh tokens must chain to a bearer token")
	ErrUnexpectedParent  = errors.New("tokens: only refresh tokens have a parent")
	ErrMissingRedirect   = errors.New("tokens: authorization codes must be bound to a redirect")
	ErrNoRefresh         = errors.New("tokens: client_credentials clients never receive refresh tokens")
	ErrUnknownType       = errors.New("tokens: unknown token type")
)

// IssueRequest describe un token a emitir.
type IssueRequest struct {
	Client   *repository.Client
	Identity *repository.UserIdentity
	Type     repository.TokenType
	Scopes   []repository.ApplicationScope
	// Redirect sólo para códigos de autorización.
	Redirect string
	// Parent sólo para Refresh: el Bearer que refresca.
	Parent *repository.OAuthToken
}

// Manager emite y valida tokens. Es seguro para uso concurrente.
type Manager struct {
	now func() time.Time
}

type Option func(*Manager)

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Now es el reloj del manager, en UTC.
func (m *Manager) Now() time.Time { return m.now().UTC() }

// Issue valida las invariantes, construye el token y lo guarda con repo.
func (m *Manager) Issue(ctx context.Context, repo repository.TokenRepository, req IssueRequest) (*repository.OAuthToken, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	tok := &repository.OAuthToken{
		Entity:    repository.Entity{ID: uuid.New()},
		Type:      req.Type,
		ClientID:  req.Client.ID,
		Client:    req.Client,
		Identity:  req.Identity,
		ExpiresIn: Lifetime(req.Client, req.Type),
		Redirect:  req.Redirect,
		Scopes:    append([]repository.ApplicationScope(nil), req.Scopes...),
	}
	tok.Touch(m.Now())
	if req.Identity != nil {
		id := req.Identity.ID
		tok.IdentityID = &id
	}
	if req.Parent != nil {
		pid := req.Parent.ID
		tok.AuthTokenID = &pid
	}

	if err := repo.Save(ctx, tok); err != nil {
		return nil, fmt.Errorf("tokens: save %s: %w", req.Type, err)
	}
	return tok, nil
}

func validate(req IssueRequest) error {
	if req.Client == nil {
		return ErrNoClient
	}
	cc := req.Client.Type == repository.ClientTypeClientCredentials
	switch {
	case cc && req.Identity != nil:
		return ErrIdentityForbidden
	case !cc && req.Identity == nil:
		return ErrIdentityRequired
	}

	switch req.Type {
	case repository.TokenTypeAuthorization:
		if req.Redirect == "" {
			return ErrMissingRedirect
		}
	case repository.TokenTypeBearer:
	case repository.TokenTypeRefresh:
		if cc {
			return ErrNoRefresh
		}
		if req.Parent == nil || req.Parent.Type != repository.TokenTypeBearer {
			return ErrInvalidParent
		}
		return nil
	default:
		return ErrUnknownType
	}
	if req.Parent != nil {
		return ErrUnexpectedParent
	}
	return nil
}

// IsExpired se calcula en cada llamada: now > createdDate + expiresIn.
func (m *Manager) IsExpired(t *repository.OAuthToken) bool {
	return m.Now().After(t.ExpiresAt())
}

// ExpiresIn devuelve los segundos que le quedan al token (0 si expiró).
func (m *Manager) ExpiresIn(t *repository.OAuthToken) int64 {
	left := int64(t.ExpiresAt().Sub(m.Now()) / time.Second)
	if left < 0 {
		return 0
	}
	return left
}

// Revoke borra el token; el repositorio se encarga de la cascada sobre los
// Refresh encadenados. Devuelve ErrNotFound si ya no existía.
func (m *Manager) Revoke(ctx context.Context, repo repository.TokenRepository, t *repository.OAuthToken) error {
	if err := repo.Delete(ctx, t.ID); err != nil {
		return fmt.Errorf("tokens: revoke %s: %w", t.ID, err)
	}
	return nil
}

// Lifetime resuelve el lifetime (segundos) para typ desde la configuración
// del client. Un valor ausente, no numérico o no positivo cae al default.
func Lifetime(c *repository.Client, typ repository.TokenType) int64 {
	var key string
	var def int64
	switch typ {
	case repository.TokenTypeAuthorization:
		key, def = ConfigAuthorizationCodeExpiresIn, DefaultAuthorizationCodeTTL
	case repository.TokenTypeBearer:
		key, def = ConfigAccessTokenExpiresIn, DefaultAccessTokenTTL
	case repository.TokenTypeRefresh:
		key, def = ConfigRefreshTokenExpiresIn, DefaultRefreshTokenTTL
	default:
		return 0
	}
	if c == nil {
		return def
	}
	raw, ok := c.Configuration[key]
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
