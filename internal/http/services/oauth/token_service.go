package oauth

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	metrics "github.com/dropDatabas3/kangaroo/internal/http"
	dto "github.com/dropDatabas3/kangaroo/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/kangaroo/internal/http/errors"
	"github.com/dropDatabas3/kangaroo/internal/http/helpers"
	"github.com/dropDatabas3/kangaroo/internal/oauth/clientauth"
	"github.com/dropDatabas3/kangaroo/internal/oauth/scope"
	"github.com/dropDatabas3/kangaroo/internal/oauth/tokens"
	"github.com/dropDatabas3/kangaroo/internal/observability/logger"
	"github.com/dropDatabas3/kangaroo/internal/store"
)

// TokenService implementa POST /token.
type TokenService interface {
	Exchange(ctx context.Context, req TokenRequest) (*dto.TokenResponse, error)
}

// TokenRequest: credenciales por cualquier canal de clientauth y el form.
type TokenRequest struct {
	Auth clientauth.Request
	Form url.Values
}

// TokenDeps contiene las dependencias del service.
type TokenDeps struct {
	DAL      store.DataAccessLayer
	Tokens   *tokens.Manager
	Resolver *clientauth.Resolver
}

type tokenService struct {
	deps TokenDeps
}

func NewTokenService(deps TokenDeps) TokenService {
	if deps.Tokens == nil {
		deps.Tokens = tokens.NewManager()
	}
	if deps.Resolver == nil {
		deps.Resolver = clientauth.NewResolver(deps.Tokens)
	}
	return &tokenService{deps: deps}
}

// Exchange: ParseRequest → ResolveClient → DispatchGrantType → Validate →
// IssueResult, todo en una transacción.
func (s *tokenService) Exchange(ctx context.Context, req TokenRequest) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.token"),
		logger.Op("Exchange"),
	)

	grant, ok, dup := helpers.Single(req.Form, "grant_type")
	switch {
	case dup:
		return nil, httperrors.ErrInvalidRequest.WithDetail("duplicate grant_type")
	case !ok:
		return nil, httperrors.ErrInvalidRequest.WithDetail("grant_type is required")
	}
	state, _, dup := helpers.Single(req.Form, dto.ParamState)
	if dup {
		return nil, httperrors.ErrInvalidRequest.WithDetail("duplicate state")
	}
	log = log.With(logger.GrantType(grant))

	var resp *dto.TokenResponse
	err := s.deps.DAL.RunInTx(ctx, func(repos repository.Repositories) error {
		principal, err := s.deps.Resolver.Resolve(ctx, repos, req.Auth, clientauth.TokenEndpoint)
		if err != nil {
			return err
		}
		client := principal.Client

		switch grant {
		case dto.GrantAuthorizationCode:
			resp, err = s.authorizationCode(ctx, repos, client, req.Form)
		case dto.GrantClientCredentials:
			resp, err = s.clientCredentials(ctx, repos, client, req.Form)
		case dto.GrantPassword, dto.GrantRefreshToken:
			err = httperrors.ErrInvalidGrant.WithDetail("grant_type " + grant + " is not supported by this server")
		default:
			err = httperrors.ErrInvalidGrant.WithDetail("unknown grant_type")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	resp.State = state
	log.Info("token issued")
	return resp, nil
}

// authorizationCode canjea un código (RFC 6749 §4.1.3). El redirect se
// compara exacto contra el capturado al emitir el código.
func (s *tokenService) authorizationCode(ctx context.Context, repos repository.Repositories, client *repository.Client, form url.Values) (*dto.TokenResponse, error) {
	if client.Type != repository.ClientTypeAuthorizationGrant {
		return nil, httperrors.ErrUnauthorizedClient.WithDetail("client cannot use grant_type=authorization_code")
	}

	rawCode, ok, dup := helpers.Single(form, "code")
	switch {
	case dup:
		return nil, httperrors.ErrInvalidGrant.WithDetail("duplicate code")
	case !ok:
		return nil, httperrors.ErrInvalidGrant.WithDetail("code is required")
	}
	redirectURI, ok, dup := helpers.Single(form, dto.ParamRedirectURI)
	switch {
	case dup:
		return nil, httperrors.ErrInvalidRequest.WithDetail("duplicate redirect_uri")
	case !ok:
		return nil, httperrors.ErrInvalidRequest.WithDetail("redirect_uri is required")
	}
	codeID, err := uuid.Parse(rawCode)
	if err != nil {
		return nil, httperrors.ErrInvalidGrant.WithDetail("malformed code")
	}

	code, err := repos.Tokens().Get(ctx, codeID)
	if repository.IsNotFound(err) {
		return nil, httperrors.ErrInvalidGrant
	}
	if err != nil {
		return nil, httperrors.ErrServerError.WithCause(err)
	}
	switch {
	case code.Type != repository.TokenTypeAuthorization:
		return nil, httperrors.ErrInvalidGrant
	case code.ClientID != client.ID:
		return nil, httperrors.ErrInvalidGrant
	case s.deps.Tokens.IsExpired(code):
		return nil, httperrors.ErrInvalidGrant.WithDetail("authorization code expired")
	case code.Redirect != redirectURI:
		return nil, httperrors.ErrInvalidGrant.WithDetail("redirect_uri does not match the authorization request")
	}

	// un código se canjea una sola vez
	if err := s.deps.Tokens.Revoke(ctx, repos.Tokens(), code); err != nil {
		if repository.IsNotFound(err) {
			return nil, httperrors.ErrInvalidGrant
		}
		return nil, httperrors.ErrServerError.WithCause(err)
	}

	access, err := s.deps.Tokens.Issue(ctx, repos.Tokens(), tokens.IssueRequest{
		Client:   client,
		Identity: code.Identity,
		Type:     repository.TokenTypeBearer,
		Scopes:   code.Scopes,
	})
	if err != nil {
		return nil, httperrors.ErrServerError.WithCause(err)
	}
	refresh, err := s.deps.Tokens.Issue(ctx, repos.Tokens(), tokens.IssueRequest{
		Client:   client,
		Identity: code.Identity,
		Type:     repository.TokenTypeRefresh,
		Scopes:   code.Scopes,
		Parent:   access,
	})
	if err != nil {
		return nil, httperrors.ErrServerError.WithCause(err)
	}
	metrics.RecordTokenIssued(dto.GrantAuthorizationCode, string(access.Type))
	metrics.RecordTokenIssued(dto.GrantAuthorizationCode, string(refresh.Type))

	resp := tokenResponse(access)
	resp.RefreshToken = refresh.ID.String()
	return resp, nil
}

// clientCredentials (RFC 6749 §4.4): client privado de tipo
// ClientCredentials, sin identidad ni rol, sin refresh token.
func (s *tokenService) clientCredentials(ctx context.Context, repos repository.Repositories, client *repository.Client, form url.Values) (*dto.TokenResponse, error) {
	if client.Type != repository.ClientTypeClientCredentials {
		return nil, httperrors.ErrUnauthorizedClient.WithDetail("client cannot use grant_type=client_credentials")
	}
	if !client.IsPrivate() {
		return nil, httperrors.ErrInvalidClient.WithDetail("client_credentials requires a confidential client")
	}
	requested, _, dup := helpers.Single(form, dto.ParamScope)
	if dup {
		return nil, httperrors.ErrInvalidRequest.WithDetail("duplicate scope")
	}
	if client.Application == nil {
		return nil, httperrors.ErrServerError.WithDetail("client has no application")
	}
	granted, err := scope.Resolve(client.Application, nil, requested)
	if err != nil {
		return nil, err
	}

	access, err := s.deps.Tokens.Issue(ctx, repos.Tokens(), tokens.IssueRequest{
		Client: client,
		Type:   repository.TokenTypeBearer,
		Scopes: granted,
	})
	if err != nil {
		return nil, httperrors.ErrServerError.WithCause(err)
	}
	metrics.RecordTokenIssued(dto.GrantClientCredentials, string(access.Type))
	return tokenResponse(access), nil
}

func tokenResponse(t *repository.OAuthToken) *dto.TokenResponse {
	return &dto.TokenResponse{
		AccessToken: t.ID.String(),
		TokenType:   string(repository.TokenTypeBearer),
		ExpiresIn:   t.ExpiresIn,
		Scope:       scope.Join(t.Scopes),
	}
}
