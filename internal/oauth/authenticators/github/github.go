// Package github autentica usuarios con GitHub OAuth 2.0. GitHub no emite
// ID tokens: después del intercambio del code se consulta la API de usuario
// (y la de emails si el email es privado).
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	"github.com/dropDatabas3/kangaroo/internal/oauth/authenticators"
)

const Type = "github"

// Claves de configuración del Authenticator.
const (
	KeyClientID     = "client_id"
	KeyClientSecret = "client_secret"
	KeyScopes       = "scopes"
	// Overrides de endpoints (GitHub Enterprise, tests).
	KeyAuthURL  = "auth_url"
	KeyTokenURL = "token_url"
	KeyAPIURL   = "api_url"
)

const (
	defaultScopes = "read:user user:email"
	defaultAPIURL = "https://api.github.com"
)

type Authenticator struct {
	http *http.Client
}

func New(httpClient *http.Client) *Authenticator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Authenticator{http: httpClient}
}

func Factory(deps authenticators.Deps) (authenticators.Authenticator, error) {
	return New(deps.HTTPClient), nil
}

func (*Authenticator) Type() string { return Type }

func (a *Authenticator) config(cfg *repository.Authenticator, redirect string) (*oauth2.Config, error) {
	clientID, err := authenticators.Require(cfg, KeyClientID)
	if err != nil {
		return nil, err
	}
	secret, err := authenticators.Require(cfg, KeyClientSecret)
	if err != nil {
		return nil, err
	}
	ep := endpoints.GitHub
	ep.AuthURL = authenticators.Setting(cfg, KeyAuthURL, ep.AuthURL)
	ep.TokenURL = authenticators.Setting(cfg, KeyTokenURL, ep.TokenURL)
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: secret,
		Endpoint:     ep,
		RedirectURL:  redirect,
		Scopes:       strings.Fields(authenticators.Setting(cfg, KeyScopes, defaultScopes)),
	}, nil
}

func (a *Authenticator) Delegate(_ context.Context, cfg *repository.Authenticator, callback *url.URL) (string, error) {
	redirect, state := authenticators.SplitCallback(callback)
	conf, err := a.config(cfg, redirect)
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL(state, oauth2.SetAuthURLParam("allow_signup", "true")), nil
}

func (a *Authenticator) Authenticate(ctx context.Context, req authenticators.CallbackRequest) (*repository.UserIdentity, error) {
	if e := req.Params.Get("error"); e != "" {
		if e == "access_denied" {
			return nil, authenticators.ErrAccessDenied
		}
		return nil, fmt.Errorf("github: authorization error: %s", e)
	}
	code := req.Params.Get("code")
	if code == "" {
		return nil, errors.New("github: callback without code")
	}

	redirect, _ := authenticators.SplitCallback(req.Callback)
	conf, err := a.config(req.Config, redirect)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.http)
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.ErrorCode == "bad_verification_code" {
			return nil, authenticators.ErrAccessDenied
		}
		return nil, fmt.Errorf("github: exchange code: %w", err)
	}

	api := strings.TrimRight(authenticators.Setting(req.Config, KeyAPIURL, defaultAPIURL), "/")
	client := conf.Client(ctx, tok)
	info, err := userWithEmail(ctx, client, api)
	if err != nil {
		return nil, err
	}

	claims := map[string]string{"login": info.Login}
	for k, v := range map[string]string{"name": info.Name, "email": info.Email, "picture": info.AvatarURL} {
		if v != "" {
			claims[k] = v
		}
	}
	return req.Identities.FindOrCreate(ctx, req.Client, Type, strconv.FormatInt(info.ID, 10), claims)
}

// ─── API de GitHub ───

type userInfo struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type emailInfo struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api %s: status %d", endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("github api %s: decode: %w", endpoint, err)
	}
	return nil
}

// userWithEmail trae el usuario y, si el email es privado, el primario
// verificado de /user/emails.
func userWithEmail(ctx context.Context, client *http.Client, api string) (*userInfo, error) {
	var info userInfo
	if err := getJSON(ctx, client, api+"/user", &info); err != nil {
		return nil, err
	}
	if info.ID == 0 {
		return nil, errors.New("github: user without id")
	}
	if info.Email != "" {
		return &info, nil
	}

	var emails []emailInfo
	if err := getJSON(ctx, client, api+"/user/emails", &emails); err != nil {
		// sin scope user:email; seguimos sin email
		return &info, nil
	}
	info.Email = pickEmail(emails)
	return &info, nil
}

func pickEmail(emails []emailInfo) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email
		}
	}
	return ""
}
