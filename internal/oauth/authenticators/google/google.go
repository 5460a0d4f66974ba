// Package google autentica usuarios con Google (OpenID Connect): discovery,
// authorization code y verificación del id_token contra el JWKS del issuer.
package google

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	"github.com/dropDatabas3/kangaroo/internal/oauth/authenticators"
)

const Type = "google"

// Claves de configuración del Authenticator.
const (
	KeyClientID     = "client_id"
	KeyClientSecret = "client_secret"
	KeyScopes       = "scopes"
	KeyIssuer       = "issuer"
	// KeyHostedDomain restringe a cuentas de un dominio de Workspace (claim hd).
	KeyHostedDomain = "hosted_domain"
)

const (
	DefaultIssuer = "https://accounts.google.com"
	defaultScopes = "openid email profile"
	clockSkew     = 30 * time.Second
)

type Authenticator struct {
	http *http.Client
	now  func() time.Time
	meta *metadata
}

type Option func(*Authenticator)

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

func New(httpClient *http.Client, opts ...Option) *Authenticator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	a := &Authenticator{http: httpClient, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	a.meta = newMetadata(httpClient, a.now)
	return a
}

func Factory(deps authenticators.Deps) (authenticators.Authenticator, error) {
	return New(deps.HTTPClient), nil
}

func (*Authenticator) Type() string { return Type }

// nonce se deriva del state: el state ya es de un solo uso, así el id_token
// queda atado a este intercambio sin guardar nada más.
func nonce(state string) string {
	sum := sha256.Sum256([]byte("nonce:" + state))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func (a *Authenticator) config(ctx context.Context, cfg *repository.Authenticator, redirect string) (*oauth2.Config, *discoveryDoc, error) {
	clientID, err := authenticators.Require(cfg, KeyClientID)
	if err != nil {
		return nil, nil, err
	}
	secret, err := authenticators.Require(cfg, KeyClientSecret)
	if err != nil {
		return nil, nil, err
	}
	disc, err := a.meta.discovery(ctx, authenticators.Setting(cfg, KeyIssuer, DefaultIssuer))
	if err != nil {
		return nil, nil, err
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: secret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   disc.AuthEndpoint,
			TokenURL:  disc.TokenEndpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: redirect,
		Scopes:      strings.Fields(authenticators.Setting(cfg, KeyScopes, defaultScopes)),
	}, disc, nil
}

func (a *Authenticator) Delegate(ctx context.Context, cfg *repository.Authenticator, callback *url.URL) (string, error) {
	redirect, state := authenticators.SplitCallback(callback)
	conf, _, err := a.config(ctx, cfg, redirect)
	if err != nil {
		return "", err
	}
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("nonce", nonce(state)),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	}
	if hd := authenticators.Setting(cfg, KeyHostedDomain, ""); hd != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", hd))
	}
	return conf.AuthCodeURL(state, opts...), nil
}

func (a *Authenticator) Authenticate(ctx context.Context, req authenticators.CallbackRequest) (*repository.UserIdentity, error) {
	if e := req.Params.Get("error"); e != "" {
		if e == "access_denied" {
			return nil, authenticators.ErrAccessDenied
		}
		return nil, fmt.Errorf("google: authorization error: %s", e)
	}
	code := req.Params.Get("code")
	if code == "" {
		return nil, errors.New("google: callback without code")
	}

	redirect, state := authenticators.SplitCallback(req.Callback)
	conf, disc, err := a.config(ctx, req.Config, redirect)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.http)
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.ErrorCode == "invalid_grant" {
			return nil, authenticators.ErrAccessDenied
		}
		return nil, fmt.Errorf("google: exchange code: %w", err)
	}
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return nil, errors.New("google: token response without id_token")
	}

	claims, err := a.verify(ctx, raw, disc, conf.ClientID, nonce(state))
	if err != nil {
		return nil, err
	}
	if hd := authenticators.Setting(req.Config, KeyHostedDomain, ""); hd != "" && claims.str("hd") != hd {
		return nil, authenticators.ErrAccessDenied
	}

	out := map[string]string{}
	for _, k := range []string{"email", "name", "given_name", "family_name", "picture", "locale", "hd"} {
		if v := claims.str(k); v != "" {
			out[k] = v
		}
	}
	if v, ok := claims["email_verified"].(bool); ok {
		out["email_verified"] = strconv.FormatBool(v)
	}
	return req.Identities.FindOrCreate(ctx, req.Client, Type, claims.str("sub"), out)
}

func issuerHost(issuer string) string {
	u, err := url.Parse(issuer)
	if err != nil {
		return ""
	}
	return u.Host
}

type idClaims jwtv5.MapClaims

func (c idClaims) str(k string) string {
	s, _ := c[k].(string)
	return s
}

// verify valida firma (RS256 contra el JWKS), iss, aud, exp y nonce.
func (a *Authenticator) verify(ctx context.Context, raw string, disc *discoveryDoc, clientID, expectedNonce string) (idClaims, error) {
	tok, err := jwtv5.Parse(raw, func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return a.meta.key(ctx, disc.JWKSURI, kid)
	},
		jwtv5.WithValidMethods([]string{"RS256"}),
		jwtv5.WithAudience(clientID),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithLeeway(clockSkew),
		jwtv5.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("google: invalid id_token: %w", err)
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, errors.New("google: id_token claims type")
	}

	// Google emite iss con y sin esquema.
	iss, _ := claims["iss"].(string)
	if iss != disc.Issuer && (iss == "" || iss != issuerHost(disc.Issuer)) {
		return nil, fmt.Errorf("google: bad iss %q", iss)
	}
	if got, _ := claims["nonce"].(string); got != expectedNonce {
		return nil, errors.New("google: bad nonce")
	}
	if sub, _ := claims["sub"].(string); sub == "" {
		return nil, errors.New("google: id_token without sub")
	}
	return idClaims(claims), nil
}
