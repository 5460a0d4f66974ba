package oauth

import (
	"context"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	dto "github.com/dropDatabas3/kangaroo/internal/http/dto/oauth"
	"github.com/dropDatabas3/kangaroo/internal/oauth/clientauth"
	"github.com/dropDatabas3/kangaroo/internal/oauth/scope"
	"github.com/dropDatabas3/kangaroo/internal/oauth/tokens"
	"github.com/dropDatabas3/kangaroo/internal/store"
)

// TokenInfoService describe el Bearer con el que se autentica el request.
type TokenInfoService interface {
	Info(ctx context.Context, auth clientauth.Request) (*dto.TokenInfoResponse, error)
}

type TokenInfoDeps struct {
	DAL      store.DataAccessLayer
	Tokens   *tokens.Manager
	Resolver *clientauth.Resolver
}

type tokenInfoService struct {
	deps TokenInfoDeps
}

func NewTokenInfoService(deps TokenInfoDeps) TokenInfoService {
	if deps.Tokens == nil {
		deps.Tokens = tokens.NewManager()
	}
	if deps.Resolver == nil {
		deps.Resolver = clientauth.NewResolver(deps.Tokens)
	}
	return &tokenInfoService{deps: deps}
}

func (s *tokenInfoService) Info(ctx context.Context, auth clientauth.Request) (*dto.TokenInfoResponse, error) {
	var out *dto.TokenInfoResponse
	err := s.deps.DAL.RunInTx(ctx, func(repos repository.Repositories) error {
		principal, err := s.deps.Resolver.Resolve(ctx, repos, auth, clientauth.ResourceAccess)
		if err != nil {
			return err
		}
		tok := principal.Token
		out = &dto.TokenInfoResponse{
			ClientID:  tok.ClientID.String(),
			TokenType: string(tok.Type),
			ExpiresIn: s.deps.Tokens.ExpiresIn(tok),
			Scope:     scope.Join(tok.Scopes),
		}
		if tok.Identity != nil {
			out.UserID = tok.Identity.UserID.String()
			out.Claims = tok.Identity.Claims
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
