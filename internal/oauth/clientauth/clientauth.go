// Package clientauth resuelve la identidad del llamador a partir de los
// cuatro canales posibles: header Basic, client_id/client_secret en el body,
// los mismos en la query, o header Bearer.
//
// Reglas, en orden:
//  1. Un solo canal por request; dos o más es invalid_client. Un header
//     Authorization con esquema desconocido cuenta como canal.
//  2. Parámetros duplicados dentro del canal son invalid_request.
//  3. Identificadores malformados son invalid_request, antes de ir al store.
//  4. Client/token inexistente o secreto incorrecto es invalid_client (401).
//  5. Client privado exige secreto; client público no puede mandar uno.
//  6. Bearer sólo acepta tokens Bearer no expirados.
package clientauth

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	httperrors "github.com/dropDatabas3/kangaroo/internal/http/errors"
	"github.com/dropDatabas3/kangaroo/internal/http/helpers"
	"github.com/dropDatabas3/kangaroo/internal/oauth/tokens"
	"github.com/dropDatabas3/kangaroo/internal/security/password"
)

// Channel es el canal por el que llegaron las credenciales.
type Channel int

const (
	ChannelNone Channel = iota
	ChannelBasic
	ChannelBody
	ChannelQuery
	ChannelBearer
)

func (c Channel) String() string {
	switch c {
	case ChannelBasic:
		return "basic"
	case ChannelBody:
		return "body"
	case ChannelQuery:
		return "query"
	case ChannelBearer:
		return "bearer"
	}
	return "none"
}

// Visibility restringe qué clase de client acepta una ruta.
type Visibility int

const (
	AnyClient Visibility = iota
	PrivateOnly
	PublicOnly
)

// Policy dice qué canales acepta una ruta.
type Policy struct {
	AllowClient bool // basic, body, query
	AllowBearer bool
	Visibility  Visibility
}

var (
	// TokenEndpoint: credenciales de client por cualquier canal de client.
	TokenEndpoint = Policy{AllowClient: true}
	// ResourceAccess: sólo Bearer.
	ResourceAccess = Policy{AllowBearer: true}
)

// Request son las partes del request HTTP que miran las reglas.
type Request struct {
	Authorization []string
	Body          url.Values
	Query         url.Values
}

// FromHTTP arma un Request; r.ParseForm ya tiene que haber corrido.
func FromHTTP(r *http.Request) Request {
	return Request{
		Authorization: r.Header.Values("Authorization"),
		Body:          r.PostForm,
		Query:         r.URL.Query(),
	}
}

// Principal es el resultado de una resolución exitosa.
type Principal struct {
	Channel Channel
	Client  *repository.Client
	// Token sólo en ChannelBearer.
	Token *repository.OAuthToken
}

// Loader es lo que el resolver necesita del store.
type Loader interface {
	Clients() repository.ClientRepository
	Tokens() repository.TokenRepository
}

type Resolver struct {
	tokens *tokens.Manager
}

func NewResolver(tm *tokens.Manager) *Resolver {
	return &Resolver{tokens: tm}
}

// Resolve aplica las reglas del paquete y devuelve un único principal.
func (r *Resolver) Resolve(ctx context.Context, repos Loader, req Request, p Policy) (*Principal, error) {
	channel, header, err := detect(req)
	if err != nil {
		return nil, err
	}

	switch channel {
	case ChannelNone:
		return nil, httperrors.ErrInvalidClient.WithDetail("client authentication required")
	case ChannelBearer:
		if !p.AllowBearer {
			return nil, httperrors.ErrInvalidClient.WithDetail("bearer authentication is not accepted here")
		}
		return r.resolveBearer(ctx, repos, header, p)
	}
	if !p.AllowClient {
		return nil, httperrors.ErrInvalidClient.WithDetail("client credentials are not accepted here")
	}

	var id uuid.UUID
	var secret string
	switch channel {
	case ChannelBasic:
		id, secret, err = ParseBasic(header)
	case ChannelBody:
		id, secret, err = parseParams(req.Body)
	case ChannelQuery:
		id, secret, err = parseParams(req.Query)
	}
	if err != nil {
		return nil, err
	}

	client, err := LoadClient(ctx, repos.Clients(), id)
	if err != nil {
		return nil, err
	}
	if err := VerifySecret(client, secret); err != nil {
		return nil, err
	}
	if err := checkVisibility(client, p.Visibility); err != nil {
		return nil, err
	}
	return &Principal{Channel: channel, Client: client}, nil
}

// detect cuenta los canales presentes. Devuelve el valor crudo del header
// Authorization (sin esquema) para Basic/Bearer.
func detect(req Request) (Channel, string, error) {
	if len(req.Authorization) > 1 {
		return ChannelNone, "", httperrors.ErrInvalidRequest.WithDetail("multiple Authorization headers")
	}

	var found []Channel
	var header string
	unsupported := false
	if len(req.Authorization) == 1 {
		scheme, rest, _ := strings.Cut(strings.TrimSpace(req.Authorization[0]), " ")
		switch {
		case strings.EqualFold(scheme, "Basic"):
			found = append(found, ChannelBasic)
		case strings.EqualFold(scheme, "Bearer"):
			found = append(found, ChannelBearer)
		default:
			unsupported = true
			found = append(found, ChannelNone)
		}
		header = strings.TrimSpace(rest)
	}
	if hasClientParams(req.Body) {
		found = append(found, ChannelBody)
	}
	if hasClientParams(req.Query) {
		found = append(found, ChannelQuery)
	}

	switch len(found) {
	case 0:
		return ChannelNone, "", nil
	case 1:
		if unsupported {
			return ChannelNone, "", httperrors.ErrInvalidRequest.WithDetail("unsupported Authorization scheme")
		}
		return found[0], header, nil
	}
	return ChannelNone, "", httperrors.ErrInvalidClient.WithDetail("multiple client authentication methods used")
}

func hasClientParams(v url.Values) bool {
	if v == nil {
		return false
	}
	_, id := v["client_id"]
	_, secret := v["client_secret"]
	return id || secret
}

// ParseBasic decodifica credenciales Basic (RFC 6749 §2.3.1: id y secreto
// form-urlencoded antes del base64). Cualquier problema de forma es
// invalid_request.
func ParseBasic(credentials string) (uuid.UUID, string, error) {
	bad := httperrors.ErrInvalidRequest.WithDetail("malformed basic credentials")
	raw, err := base64.StdEncoding.DecodeString(credentials)
	if err != nil {
		return uuid.Nil, "", bad
	}
	rawID, rawSecret, ok := strings.Cut(string(raw), ":")
	if !ok {
		return uuid.Nil, "", bad
	}
	idStr, err := url.QueryUnescape(rawID)
	if err != nil {
		return uuid.Nil, "", bad
	}
	secret, err := url.QueryUnescape(rawSecret)
	if err != nil {
		return uuid.Nil, "", bad
	}
	id, err := ParseID(idStr)
	if err != nil {
		return uuid.Nil, "", err
	}
	return id, secret, nil
}

// BasicHeader devuelve el valor crudo de un header Basic (sin el esquema)
// o "" si el request no trae uno. Más de un header es invalid_request.
func BasicHeader(values []string) (string, bool, error) {
	if len(values) > 1 {
		return "", false, httperrors.ErrInvalidRequest.WithDetail("multiple Authorization headers")
	}
	if len(values) == 0 {
		return "", false, nil
	}
	scheme, rest, _ := strings.Cut(strings.TrimSpace(values[0]), " ")
	if !strings.EqualFold(scheme, "Basic") {
		return "", false, httperrors.ErrInvalidRequest.WithDetail("unsupported Authorization scheme")
	}
	return strings.TrimSpace(rest), true, nil
}

func parseParams(v url.Values) (uuid.UUID, string, error) {
	rawID, ok, dup := helpers.Single(v, "client_id")
	if dup {
		return uuid.Nil, "", httperrors.ErrInvalidRequest.WithDetail("duplicate client_id")
	}
	if !ok {
		return uuid.Nil, "", httperrors.ErrInvalidRequest.WithDetail("client_id is required")
	}
	secret, _, dup := helpers.Single(v, "client_secret")
	if dup {
		return uuid.Nil, "", httperrors.ErrInvalidRequest.WithDetail("duplicate client_secret")
	}
	id, err := ParseID(rawID)
	if err != nil {
		return uuid.Nil, "", err
	}
	return id, secret, nil
}

// ParseID valida la forma de un client_id.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, httperrors.ErrInvalidRequest.WithDetail("malformed client_id")
	}
	return id, nil
}

// LoadClient carga el client; inexistente es invalid_client.
func LoadClient(ctx context.Context, clients repository.ClientRepository, id uuid.UUID) (*repository.Client, error) {
	client, err := clients.Get(ctx, id)
	if repository.IsNotFound(err) {
		return nil, httperrors.ErrInvalidClient.WithDetail("unknown client")
	}
	if err != nil {
		return nil, httperrors.ErrServerError.WithCause(err)
	}
	return client, nil
}

// VerifySecret exige secreto correcto a clients privados y ningún secreto a
// los públicos.
func VerifySecret(client *repository.Client, secret string) error {
	if !client.IsPrivate() {
		if secret != "" {
			return httperrors.ErrInvalidClient.WithDetail("public clients must not send a secret")
		}
		return nil
	}
	if secret == "" {
		return httperrors.ErrInvalidClient.WithDetail("client secret required")
	}
	if !password.Verify(secret, client.Secret) {
		return httperrors.ErrInvalidClient.WithDetail("client authentication failed")
	}
	return nil
}

func checkVisibility(client *repository.Client, v Visibility) error {
	switch {
	case v == PrivateOnly && !client.IsPrivate():
		return httperrors.ErrInvalidClient.WithDetail("this route requires a confidential client")
	case v == PublicOnly && client.IsPrivate():
		return httperrors.ErrInvalidClient.WithDetail("this route requires a public client")
	}
	return nil
}

func (r *Resolver) resolveBearer(ctx context.Context, repos Loader, raw string, p Policy) (*Principal, error) {
	if raw == "" {
		return nil, httperrors.ErrInvalidRequest.WithDetail("empty bearer token")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, httperrors.ErrInvalidRequest.WithDetail("malformed bearer token")
	}

	tok, err := repos.Tokens().Get(ctx, id)
	if repository.IsNotFound(err) {
		return nil, httperrors.ErrInvalidClient.WithDetail("unknown token")
	}
	if err != nil {
		return nil, httperrors.ErrServerError.WithCause(err)
	}
	if tok.Type != repository.TokenTypeBearer {
		return nil, httperrors.ErrInvalidClient.WithDetail("token type not accepted")
	}
	if r.tokens.IsExpired(tok) {
		return nil, httperrors.ErrInvalidClient.WithDetail("token expired")
	}
	if err := checkVisibility(tok.Client, p.Visibility); err != nil {
		return nil, err
	}
	return &Principal{Channel: ChannelBearer, Client: tok.Client, Token: tok}, nil
}
