package repository

import (
	"context"

	"github.com/google/uuid"
)

// ClientType determina qué grants y response types puede usar un client.
type ClientType string

const (
	ClientTypeAuthorizationGrant ClientType = "AuthorizationGrant"
	ClientTypeImplicit           ClientType = "Implicit"
	ClientTypeClientCredentials  ClientType = "ClientCredentials"
	ClientTypeOwnerCredentials   ClientType = "OwnerCredentials"
)

// Valid reporta si t es uno de los tipos conocidos.
func (t ClientType) Valid() bool {
	switch t {
	case ClientTypeAuthorizationGrant, ClientTypeImplicit, ClientTypeClientCredentials, ClientTypeOwnerCredentials:
		return true
	}
	return false
}

// Client es un cliente registrado de una Application.
type Client struct {
	Entity
	ApplicationID uuid.UUID
	// Application se completa al cargar el client (incluye Scopes).
	Application *Application

	Name string
	Type ClientType

	// Secret es el digest PHC del secreto. Vacío = client público.
	Secret string

	RedirectURIs []string
	ReferrerURIs []string

	// Configuration guarda overrides por client (ej: lifetimes de tokens).
	Configuration map[string]string

	Authenticators []Authenticator
}

func (c *Client) Ref() Ref { return Ref{Kind: KindClient, ID: c.ID} }

// IsPrivate reporta si el client tiene secreto almacenado.
func (c *Client) IsPrivate() bool { return c.Secret != "" }

// Authenticator busca un authenticator configurado por tipo.
func (c *Client) Authenticator(typ string) (*Authenticator, bool) {
	for i := range c.Authenticators {
		if c.Authenticators[i].Type == typ {
			return &c.Authenticators[i], true
		}
	}
	return nil, false
}

// AuthenticatorByID busca un authenticator configurado por id.
func (c *Client) AuthenticatorByID(id uuid.UUID) (*Authenticator, bool) {
	for i := range c.Authenticators {
		if c.Authenticators[i].ID == id {
			return &c.Authenticators[i], true
		}
	}
	return nil, false
}

// Authenticator configura una estrategia de verificación de identidad para
// un client: un tipo (que elige el plugin) y su configuración opaca.
type Authenticator struct {
	Entity
	ClientID      uuid.UUID
	Type          string
	Configuration map[string]string
}

func (a *Authenticator) Ref() Ref { return Ref{Kind: KindAuthenticator, ID: a.ID} }

// ClientRepository persiste clients con redirects, referrers y authenticators.
type ClientRepository interface {
	// Get carga el client con su Application y sus Authenticators.
	Get(ctx context.Context, id uuid.UUID) (*Client, error)
	// Save reemplaza redirects, referrers y authenticators del client.
	Save(ctx context.Context, client *Client) error
	// Delete borra el client y en cascada sus authenticators y tokens.
	Delete(ctx context.Context, id uuid.UUID) error
}
