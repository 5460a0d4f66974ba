package oauth

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	metrics "github.com/dropDatabas3/kangaroo/internal/http"
	dto "github.com/dropDatabas3/kangaroo/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/kangaroo/internal/http/errors"
	"github.com/dropDatabas3/kangaroo/internal/http/helpers"
	"github.com/dropDatabas3/kangaroo/internal/oauth/authenticators"
	"github.com/dropDatabas3/kangaroo/internal/oauth/clientauth"
	"github.com/dropDatabas3/kangaroo/internal/oauth/redirect"
	"github.com/dropDatabas3/kangaroo/internal/oauth/scope"
	"github.com/dropDatabas3/kangaroo/internal/oauth/tokens"
	"github.com/dropDatabas3/kangaroo/internal/observability/logger"
	"github.com/dropDatabas3/kangaroo/internal/store"
)

// AuthorizeService implementa /authorize (RFC 6749 §4.1 y §4.2) y el
// callback de los authenticators.
//
// Errores: mientras el client y el redirect no están resueltos se devuelve
// un *httperrors.AppError (respuesta directa). A partir de ahí todo error es
// un *RedirectError.
type AuthorizeService interface {
	// Authorize resuelve client y redirect, valida el pedido y delega en el
	// authenticator del client. Location apunta al authenticator.
	Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error)
	// Callback consume el AuthenticatorState, autentica al usuario y emite
	// el código o el token. Location apunta al redirect del client.
	Callback(ctx context.Context, req CallbackRequest) (*AuthorizeResult, error)
}

// AuthorizeRequest son los parámetros crudos de /authorize (query en GET,
// form en POST) más los headers Authorization.
type AuthorizeRequest struct {
	Params        url.Values
	Authorization []string
}

// CallbackRequest son los parámetros del callback (query + form).
type CallbackRequest struct {
	Params url.Values
}

type AuthorizeResult struct {
	Location string
}

// AuthorizeDeps contiene las dependencias del service.
type AuthorizeDeps struct {
	DAL                  store.DataAccessLayer
	Tokens               *tokens.Manager
	Authenticators       *authenticators.Registry
	BaseURL              string
	StateTTL             time.Duration
	AuthenticatorTimeout time.Duration
}

type authorizeService struct {
	deps AuthorizeDeps
}

// NewAuthorizeService crea el service. Authenticators nil equivale a un
// registry vacío: todo /authorize falla con invalid_request.
func NewAuthorizeService(deps AuthorizeDeps) AuthorizeService {
	if deps.Tokens == nil {
		deps.Tokens = tokens.NewManager()
	}
	if deps.Authenticators == nil {
		deps.Authenticators = authenticators.NewRegistry(authenticators.Deps{})
	}
	if deps.StateTTL <= 0 {
		deps.StateTTL = DefaultStateTTL
	}
	if deps.AuthenticatorTimeout <= 0 {
		deps.AuthenticatorTimeout = DefaultAuthenticatorTimeout
	}
	deps.BaseURL = strings.TrimRight(deps.BaseURL, "/")
	return &authorizeService{deps: deps}
}

// assertion es la identidad de client que afirma el pedido.
type assertion struct {
	id     uuid.UUID
	secret string
	basic  bool
}

// assertClient: client_id es obligatorio; el header Basic, si está,
// corrobora (mismo id y secreto válido) pero nunca alcanza solo.
func assertClient(req AuthorizeRequest) (assertion, error) {
	header, hasBasic, err := clientauth.BasicHeader(req.Authorization)
	if err != nil {
		return assertion{}, err
	}
	raw, ok, dup := helpers.Single(req.Params, dto.ParamClientID)
	if dup {
		return assertion{}, httperrors.ErrInvalidRequest.WithDetail("duplicate client_id")
	}
	if !ok {
		return assertion{}, httperrors.ErrInvalidClient.WithDetail("client_id is required")
	}
	id, err := clientauth.ParseID(raw)
	if err != nil {
		return assertion{}, err
	}

	a := assertion{id: id}
	if hasBasic {
		basicID, secret, err := clientauth.ParseBasic(header)
		if err != nil {
			return assertion{}, err
		}
		if basicID != id {
			return assertion{}, httperrors.ErrInvalidClient.WithDetail("client_id does not match the Authorization header")
		}
		a.secret, a.basic = secret, true
	}
	return a, nil
}

func (s *authorizeService) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.authorize"),
		logger.Op("Authorize"),
	)

	// ResolveClient
	asserted, err := assertClient(req)
	if err != nil {
		return nil, err
	}
	requested, _, dup := helpers.Single(req.Params, dto.ParamRedirectURI)
	if dup {
		return nil, httperrors.ErrInvalidRequest.WithDetail("duplicate redirect_uri")
	}

	// ResolveRedirect
	var client *repository.Client
	var redirectURI string
	err = s.deps.DAL.RunInTx(ctx, func(repos repository.Repositories) error {
		c, err := clientauth.LoadClient(ctx, repos.Clients(), asserted.id)
		if err != nil {
			return err
		}
		if asserted.basic {
			if err := clientauth.VerifySecret(c, asserted.secret); err != nil {
				return err
			}
		}
		redirectURI, err = redirect.Resolve(c, requested)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	if client.Application == nil {
		return nil, httperrors.ErrServerError.WithCause(errors.New("client loaded without application"))
	}
	log = log.With(logger.ClientID(client.ID.String()))

	// desde acá los errores viajan en el redirect
	state, _, stateDup := helpers.Single(req.Params, dto.ParamState)
	responseType, _, rtDup := helpers.Single(req.Params, dto.ParamResponseType)
	fragment := responseType == dto.ResponseTypeToken && !rtDup
	fail := func(err error) (*AuthorizeResult, error) {
		return nil, redirectErr(redirectURI, fragment, state, err)
	}

	switch {
	case stateDup:
		return fail(httperrors.ErrInvalidRequest.WithDetail("duplicate state"))
	case rtDup:
		return fail(httperrors.ErrInvalidRequest.WithDetail("duplicate response_type"))
	case responseType != dto.ResponseTypeCode && responseType != dto.ResponseTypeToken:
		return fail(httperrors.ErrUnsupportedResponseType)
	}
	if err := checkResponseType(client, responseType); err != nil {
		return fail(err)
	}

	scopes, _, dup := helpers.Single(req.Params, dto.ParamScope)
	if dup {
		return fail(httperrors.ErrInvalidRequest.WithDetail("duplicate scope"))
	}
	// el rol recién se conoce en el callback; acá sólo el catálogo
	for _, name := range scope.Parse(scopes) {
		if _, ok := client.Application.Scope(name); !ok {
			return fail(httperrors.ErrInvalidScope.WithDetail("unknown scope: " + name))
		}
	}

	cfg, plugin, err := s.selectAuthenticator(client, req.Params)
	if err != nil {
		return fail(err)
	}
	log = log.With(logger.Authenticator(cfg.Type), logger.ResponseType(responseType))

	st := &repository.AuthenticatorState{
		ClientID:        client.ID,
		AuthenticatorID: cfg.ID,
		ClientRedirect:  redirectURI,
		ClientState:     state,
		ClientScopes:    scopes,
		ResponseType:    responseType,
		ExpiresAt:       s.deps.Tokens.Now().Add(s.deps.StateTTL),
	}
	if err := s.deps.DAL.States().Save(ctx, st); err != nil {
		log.Error("failed to save authenticator state", logger.Err(err))
		return fail(httperrors.ErrServerError.WithCause(err))
	}

	callback, err := s.callbackURL(st.ID)
	if err != nil {
		return fail(httperrors.ErrServerError.WithCause(err))
	}
	dctx, cancel := context.WithTimeout(ctx, s.deps.AuthenticatorTimeout)
	location, err := plugin.Delegate(dctx, cfg, callback)
	cancel()
	if err != nil {
		log.Error("authenticator delegate failed", logger.Err(err))
		return fail(httperrors.ErrServerError.WithCause(err))
	}

	log.Info("authorization delegated")
	return &AuthorizeResult{Location: location}, nil
}

// checkResponseType: code exige un client AuthorizationGrant, token uno
// Implicit.
func checkResponseType(c *repository.Client, responseType string) error {
	want := repository.ClientTypeAuthorizationGrant
	if responseType == dto.ResponseTypeToken {
		want = repository.ClientTypeImplicit
	}
	if c.Type != want {
		return httperrors.ErrUnauthorizedClient.WithDetail("client type " + string(c.Type) + " cannot use response_type=" + responseType)
	}
	return nil
}

// selectAuthenticator elige el authenticator: el pedido por parámetro, o el
// único configurado.
func (s *authorizeService) selectAuthenticator(client *repository.Client, params url.Values) (*repository.Authenticator, authenticators.Authenticator, error) {
	typ, _, dup := helpers.Single(params, dto.ParamAuthenticator)
	if dup {
		return nil, nil, httperrors.ErrInvalidRequest.WithDetail("duplicate authenticator")
	}

	var cfg *repository.Authenticator
	switch {
	case len(client.Authenticators) == 0:
		return nil, nil, httperrors.ErrInvalidRequest.WithDetail("client has no authenticator configured")
	case typ != "":
		var ok bool
		if cfg, ok = client.Authenticator(typ); !ok {
			return nil, nil, httperrors.ErrInvalidRequest.WithDetail("authenticator not configured for this client")
		}
	case len(client.Authenticators) == 1:
		cfg = &client.Authenticators[0]
	default:
		return nil, nil, httperrors.ErrInvalidRequest.WithDetail("authenticator is required when the client has several")
	}

	plugin, err := s.deps.Authenticators.Get(cfg.Type)
	if errors.Is(err, authenticators.ErrUnknownType) {
		return nil, nil, httperrors.ErrInvalidRequest.WithDetail("unsupported authenticator: " + cfg.Type)
	}
	if err != nil {
		return nil, nil, httperrors.ErrServerError.WithCause(err)
	}
	return cfg, plugin, nil
}

func (s *authorizeService) callbackURL(stateID uuid.UUID) (*url.URL, error) {
	return url.Parse(s.deps.BaseURL + CallbackPath + "?" + url.Values{dto.ParamState: {stateID.String()}}.Encode())
}

func (s *authorizeService) Callback(ctx context.Context, req CallbackRequest) (*AuthorizeResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.authorize"),
		logger.Op("Callback"),
	)

	raw, ok, dup := helpers.Single(req.Params, dto.ParamState)
	switch {
	case dup:
		return nil, httperrors.ErrInvalidRequest.WithDetail("duplicate state")
	case !ok:
		return nil, httperrors.ErrInvalidRequest.WithDetail("state is required")
	}
	stateID, err := uuid.Parse(raw)
	if err != nil {
		return nil, httperrors.ErrInvalidRequest.WithDetail("malformed state")
	}

	// se consume antes de todo: single-use aunque lo que sigue falle
	st, err := s.deps.DAL.States().Consume(ctx, stateID)
	if repository.IsNotFound(err) {
		return nil, httperrors.ErrInvalidRequest.WithDetail("unknown or expired state")
	}
	if err != nil {
		return nil, httperrors.ErrServerError.WithCause(err)
	}

	fragment := st.ResponseType == dto.ResponseTypeToken
	fail := func(err error) error {
		return redirectErr(st.ClientRedirect, fragment, st.ClientState, err)
	}
	log = log.With(logger.ClientID(st.ClientID.String()), logger.ResponseType(st.ResponseType))

	// 1) client + authenticator
	var (
		client *repository.Client
		cfg    *repository.Authenticator
		plugin authenticators.Authenticator
	)
	err = s.deps.DAL.RunInTx(ctx, func(repos repository.Repositories) error {
		var err error
		if client, err = clientauth.LoadClient(ctx, repos.Clients(), st.ClientID); err != nil {
			return err
		}
		var ok bool
		if cfg, ok = client.AuthenticatorByID(st.AuthenticatorID); !ok {
			return fail(httperrors.ErrInvalidRequest.WithDetail("authenticator no longer configured"))
		}
		if plugin, err = s.deps.Authenticators.Get(cfg.Type); err != nil {
			return fail(httperrors.ErrInvalidRequest.WithDetail("unsupported authenticator: " + cfg.Type))
		}
		return nil
	})
	if err != nil {
		return nil, callbackErr(err, fail)
	}
	callback, err := s.callbackURL(st.ID)
	if err != nil {
		return nil, fail(httperrors.ErrServerError.WithCause(err))
	}

	// 2) plugin, fuera de la transacción; sólo lo acota AuthenticatorTimeout
	actx, cancel := context.WithTimeout(ctx, s.deps.AuthenticatorTimeout)
	identity, err := plugin.Authenticate(actx, authenticators.CallbackRequest{
		Client:     client,
		Config:     cfg,
		Callback:   callback,
		Params:     req.Params,
		Identities: authenticators.NewTxIdentities(s.deps.DAL),
	})
	cancel()
	switch {
	case errors.Is(err, authenticators.ErrAccessDenied):
		log.Info("authentication denied", logger.Authenticator(cfg.Type))
		return nil, fail(httperrors.ErrAccessDenied)
	case err != nil:
		log.Error("authenticator failed", logger.Authenticator(cfg.Type), logger.Err(err))
		return nil, fail(httperrors.ErrServerError.WithCause(err))
	}

	// 3) scope + emisión
	var role *repository.Role
	if identity.User != nil {
		role = identity.User.Role
	}
	granted, err := scope.Resolve(client.Application, role, st.ClientScopes)
	if err != nil {
		return nil, fail(err)
	}

	var result *AuthorizeResult
	err = s.deps.DAL.RunInTx(ctx, func(repos repository.Repositories) error {
		var err error
		result, err = s.issue(ctx, repos, client, identity, st, granted)
		if err != nil {
			log.Error("issue failed", logger.Err(err))
			return fail(httperrors.ErrServerError.WithCause(err))
		}
		return nil
	})
	if err != nil {
		return nil, callbackErr(err, fail)
	}
	return result, nil
}

// callbackErr deja pasar los errores ya clasificados; el resto (begin o
// commit fallidos) viaja al redirect como server_error.
func callbackErr(err error, fail func(error) error) error {
	var appErr *httperrors.AppError
	if _, ok := AsRedirectError(err); ok || errors.As(err, &appErr) {
		return err
	}
	return fail(httperrors.ErrServerError.WithCause(err))
}

// issue emite el código (flujo code) o el access token (flujo implícito) y
// arma el redirect final.
func (s *authorizeService) issue(ctx context.Context, repos repository.Repositories, client *repository.Client, identity *repository.UserIdentity, st *repository.AuthenticatorState, granted []repository.ApplicationScope) (*AuthorizeResult, error) {
	params := url.Values{}
	if st.ResponseType == dto.ResponseTypeCode {
		code, err := s.deps.Tokens.Issue(ctx, repos.Tokens(), tokens.IssueRequest{
			Client:   client,
			Identity: identity,
			Type:     repository.TokenTypeAuthorization,
			Scopes:   granted,
			Redirect: st.ClientRedirect,
		})
		if err != nil {
			return nil, err
		}
		metrics.RecordTokenIssued(dto.GrantAuthorizationCode, string(code.Type))
		params.Set("code", code.ID.String())
	} else {
		// implícito: nunca lleva refresh token
		access, err := s.deps.Tokens.Issue(ctx, repos.Tokens(), tokens.IssueRequest{
			Client:   client,
			Identity: identity,
			Type:     repository.TokenTypeBearer,
			Scopes:   granted,
		})
		if err != nil {
			return nil, err
		}
		metrics.RecordTokenIssued("implicit", string(access.Type))
		params.Set("access_token", access.ID.String())
		params.Set("token_type", string(repository.TokenTypeBearer))
		params.Set("expires_in", strconv.FormatInt(access.ExpiresIn, 10))
		if sc := scope.Join(access.Scopes); sc != "" {
			params.Set("scope", sc)
		}
	}
	if st.ClientState != "" {
		params.Set("state", st.ClientState)
	}

	location, err := helpers.BuildRedirect(st.ClientRedirect, st.ResponseType == dto.ResponseTypeToken, params)
	if err != nil {
		return nil, err
	}
	return &AuthorizeResult{Location: location}, nil
}
