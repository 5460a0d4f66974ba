// Package bootstrap carga datos iniciales (applications, scopes, roles,
// clients, authenticators, usuarios) desde un archivo YAML.
//
// Los ids son opcionales. Con id, volver a aplicar el seed actualiza la
// entidad; sin id, cada corrida crea una nueva. Las identidades se resuelven
// por (application, tipo, remote_id) así que siempre son idempotentes.
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	"github.com/dropDatabas3/kangaroo/internal/security/password"
	"github.com/dropDatabas3/kangaroo/internal/validation"
)

// ErrInvalidSeed envuelve todos los errores de forma del archivo.
var ErrInvalidSeed = errors.New("bootstrap: invalid seed")

type Seed struct {
	Applications []ApplicationSeed `yaml:"applications"`
}

type ApplicationSeed struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Scopes      []string     `yaml:"scopes"`
	Roles       []RoleSeed   `yaml:"roles"`
	DefaultRole string       `yaml:"default_role"`
	Clients     []ClientSeed `yaml:"clients"`
	Users       []UserSeed   `yaml:"users"`
}

type RoleSeed struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Scopes []string `yaml:"scopes"`
}

type ClientSeed struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	// Secret en claro; se guarda como argon2id. Vacío = client público.
	Secret         string              `yaml:"secret"`
	RedirectURIs   []string            `yaml:"redirect_uris"`
	ReferrerURIs   []string            `yaml:"referrer_uris"`
	Configuration  map[string]string   `yaml:"configuration"`
	Authenticators []AuthenticatorSeed `yaml:"authenticators"`
}

type AuthenticatorSeed struct {
	Type          string            `yaml:"type"`
	Configuration map[string]string `yaml:"configuration"`
}

type UserSeed struct {
	Role       string         `yaml:"role"`
	Identities []IdentitySeed `yaml:"identities"`
}

type IdentitySeed struct {
	Type     string            `yaml:"type"`
	RemoteID string            `yaml:"remote_id"`
	Password string            `yaml:"password"`
	Claims   map[string]string `yaml:"claims"`
}

// Options controla la validación y el hash de secretos.
type Options struct {
	// Hash son los parámetros argon2id; cero = password.Default.
	Hash password.Params
	// Policy se aplica a secretos de clients y passwords; nil = sin chequeo.
	Policy *password.Policy
	// Authenticators son los tipos habilitados; vacío = cualquiera.
	Authenticators []string
}

// Load lee y parsea un archivo de seed.
func Load(path string) (*Seed, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	return &s, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSeed, fmt.Sprintf(format, args...))
}

func parseID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalid("bad id %q", raw)
	}
	return id, nil
}

// Validate chequea la forma del seed sin tocar el store.
func (s *Seed) Validate(opts Options) error {
	for _, app := range s.Applications {
		if app.Name == "" {
			return invalid("application without name")
		}
		if _, err := parseID(app.ID); err != nil {
			return err
		}
		for _, sc := range app.Scopes {
			if !validation.ValidScopeName(sc) {
				return invalid("application %s: bad scope name %q", app.Name, sc)
			}
		}
		roles := map[string]bool{}
		for _, r := range app.Roles {
			if r.Name == "" || roles[r.Name] {
				return invalid("application %s: role name empty or duplicated", app.Name)
			}
			roles[r.Name] = true
			if _, err := parseID(r.ID); err != nil {
				return err
			}
			for _, sc := range r.Scopes {
				if !slices.Contains(app.Scopes, sc) {
					return invalid("role %s: unknown scope %q", r.Name, sc)
				}
			}
		}
		if app.DefaultRole != "" && !roles[app.DefaultRole] {
			return invalid("application %s: unknown default_role %q", app.Name, app.DefaultRole)
		}

		clients := map[string]bool{}
		for _, c := range app.Clients {
			if err := c.validate(opts); err != nil {
				return fmt.Errorf("client %s: %w", c.Name, err)
			}
			if clients[c.Name] {
				return invalid("application %s: duplicated client %q", app.Name, c.Name)
			}
			clients[c.Name] = true
		}

		for _, u := range app.Users {
			if u.Role != "" && !roles[u.Role] {
				return invalid("user: unknown role %q", u.Role)
			}
			for _, ident := range u.Identities {
				if ident.Type == "" || ident.RemoteID == "" {
					return invalid("identity without type or remote_id")
				}
				if ident.Password != "" && opts.Policy != nil {
					if err := opts.Policy.Check(ident.Password); err != nil {
						return fmt.Errorf("identity %s: %w", ident.RemoteID, err)
					}
				}
			}
		}
	}
	return nil
}

func (c ClientSeed) validate(opts Options) error {
	if c.Name == "" {
		return invalid("client without name")
	}
	if _, err := parseID(c.ID); err != nil {
		return err
	}
	if !repository.ClientType(c.Type).Valid() {
		return invalid("unknown type %q", c.Type)
	}
	for _, uri := range c.RedirectURIs {
		if err := validation.ValidateRedirectURI(uri); err != nil {
			return invalid("redirect %q: %v", uri, err)
		}
	}
	if c.Secret != "" && opts.Policy != nil {
		if err := opts.Policy.Check(c.Secret); err != nil {
			return err
		}
	}
	seen := map[string]bool{}
	for _, a := range c.Authenticators {
		if a.Type == "" || seen[a.Type] {
			return invalid("authenticator type empty or duplicated")
		}
		seen[a.Type] = true
		if len(opts.Authenticators) > 0 && !slices.Contains(opts.Authenticators, a.Type) {
			return invalid("authenticator %q is not enabled", a.Type)
		}
	}
	return nil
}
