package oauth

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	httperrors "github.com/dropDatabas3/kangaroo/internal/http/errors"
	"github.com/dropDatabas3/kangaroo/internal/http/helpers"
	"github.com/dropDatabas3/kangaroo/internal/oauth/clientauth"
	"github.com/dropDatabas3/kangaroo/internal/oauth/tokens"
	"github.com/dropDatabas3/kangaroo/internal/observability/logger"
	"github.com/dropDatabas3/kangaroo/internal/store"
)

// RevokeService implementa POST /revoke (RFC 7009).
type RevokeService interface {
	// Revoke borra el token si pertenece al client autenticado. Un token
	// inexistente, malformado o ajeno no es error.
	Revoke(ctx context.Context, req RevokeRequest) error
}

type RevokeRequest struct {
	Auth clientauth.Request
	Form url.Values
}

// RevokeDeps contiene las dependencias del service.
type RevokeDeps struct {
	DAL      store.DataAccessLayer
	Tokens   *tokens.Manager
	Resolver *clientauth.Resolver
}

type revokeService struct {
	deps RevokeDeps
}

func NewRevokeService(deps RevokeDeps) RevokeService {
	if deps.Tokens == nil {
		deps.Tokens = tokens.NewManager()
	}
	if deps.Resolver == nil {
		deps.Resolver = clientauth.NewResolver(deps.Tokens)
	}
	return &revokeService{deps: deps}
}

func (s *revokeService) Revoke(ctx context.Context, req RevokeRequest) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.revoke"),
		logger.Op("Revoke"),
	)

	raw, ok, dup := helpers.Single(req.Form, "token")
	switch {
	case dup:
		return httperrors.ErrInvalidRequest.WithDetail("duplicate token")
	case !ok:
		return httperrors.ErrInvalidRequest.WithDetail("token is required")
	}

	return s.deps.DAL.RunInTx(ctx, func(repos repository.Repositories) error {
		principal, err := s.deps.Resolver.Resolve(ctx, repos, req.Auth, clientauth.TokenEndpoint)
		if err != nil {
			return err
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			log.Debug("malformed token (idempotent success)")
			return nil
		}
		tok, err := repos.Tokens().Get(ctx, id)
		if repository.IsNotFound(err) {
			log.Debug("token not found (idempotent success)")
			return nil
		}
		if err != nil {
			return httperrors.ErrServerError.WithCause(err)
		}
		if tok.ClientID != principal.Client.ID {
			log.Warn("token belongs to another client", logger.ClientID(principal.Client.ID.String()))
			return nil
		}

		if err := s.deps.Tokens.Revoke(ctx, repos.Tokens(), tok); err != nil && !repository.IsNotFound(err) {
			return httperrors.ErrServerError.WithCause(err)
		}
		log.Info("token revoked", logger.TokenID(tok.ID.String()), logger.TokenType(string(tok.Type)))
		return nil
	})
}
