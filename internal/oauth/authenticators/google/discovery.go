package google

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	discoveryTTL = 24 * time.Hour
	jwksTTL      = time.Hour
	// jwksMinRefresh limita los refetch por kid desconocido (rotación).
	jwksMinRefresh = time.Minute
)

type discoveryDoc struct {
	Issuer        string `json:"issuer"`
	AuthEndpoint  string `json:"authorization_endpoint"`
	TokenEndpoint string `json:"token_endpoint"`
	JWKSURI       string `json:"jwks_uri"`
}

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"` // base64url
	E   string `json:"e"` // base64url
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

type cachedDoc struct {
	doc *discoveryDoc
	at  time.Time
}

type cachedKeys struct {
	keys map[string]*rsa.PublicKey
	etag string
	at   time.Time
}

// metadata cachea discovery y JWKS por issuer. Los fetch concurrentes del
// mismo recurso se colapsan con singleflight.
type metadata struct {
	http *http.Client
	now  func() time.Time

	group singleflight.Group
	mu    sync.RWMutex
	docs  map[string]cachedDoc
	keys  map[string]cachedKeys
}

func newMetadata(httpClient *http.Client, now func() time.Time) *metadata {
	return &metadata{
		http: httpClient,
		now:  now,
		docs: make(map[string]cachedDoc),
		keys: make(map[string]cachedKeys),
	}
}

func (m *metadata) discovery(ctx context.Context, issuer string) (*discoveryDoc, error) {
	m.mu.RLock()
	c, ok := m.docs[issuer]
	m.mu.RUnlock()
	if ok && m.now().Sub(c.at) < discoveryTTL {
		return c.doc, nil
	}

	v, err, _ := m.group.Do("disc:"+issuer, func() (any, error) {
		endpoint := strings.TrimRight(issuer, "/") + "/.well-known/openid-configuration"
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		resp, err := m.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			return nil, fmt.Errorf("discovery http %d", resp.StatusCode)
		}

		var dd discoveryDoc
		if err := json.NewDecoder(resp.Body).Decode(&dd); err != nil {
			return nil, fmt.Errorf("discovery decode: %w", err)
		}
		if dd.AuthEndpoint == "" || dd.TokenEndpoint == "" || dd.JWKSURI == "" {
			return nil, errors.New("discovery document incomplete")
		}

		m.mu.Lock()
		m.docs[issuer] = cachedDoc{doc: &dd, at: m.now()}
		m.mu.Unlock()
		return &dd, nil
	})
	if err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}
	return v.(*discoveryDoc), nil
}

// key devuelve la clave RSA para kid. Un kid desconocido fuerza un refetch
// (rotación de claves), a lo sumo una vez por jwksMinRefresh.
func (m *metadata) key(ctx context.Context, uri, kid string) (*rsa.PublicKey, error) {
	m.mu.RLock()
	c, ok := m.keys[uri]
	m.mu.RUnlock()

	age := m.now().Sub(c.at)
	if ok && age < jwksTTL {
		if k, found := c.keys[kid]; found {
			return k, nil
		}
		if age < jwksMinRefresh {
			return nil, fmt.Errorf("google: kid %q not found", kid)
		}
	}

	v, err, _ := m.group.Do("jwks:"+uri, func() (any, error) {
		return m.fetchKeys(ctx, uri, c.etag)
	})
	if err != nil {
		return nil, fmt.Errorf("google: jwks: %w", err)
	}
	if k, found := v.(cachedKeys).keys[kid]; found {
		return k, nil
	}
	return nil, fmt.Errorf("google: kid %q not found", kid)
}

func (m *metadata) fetchKeys(ctx context.Context, uri, etag string) (cachedKeys, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return cachedKeys{}, err
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return cachedKeys{}, err
	}
	defer resp.Body.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	if resp.StatusCode == http.StatusNotModified {
		c := m.keys[uri]
		c.at = m.now()
		m.keys[uri] = c
		return c, nil
	}
	if resp.StatusCode/100 != 2 {
		return cachedKeys{}, fmt.Errorf("http %d", resp.StatusCode)
	}

	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return cachedKeys{}, err
	}
	c := cachedKeys{keys: make(map[string]*rsa.PublicKey, len(set.Keys)), etag: resp.Header.Get("ETag"), at: m.now()}
	for _, k := range set.Keys {
		if !strings.EqualFold(k.Kty, "RSA") {
			continue
		}
		pub, err := rsaKey(k)
		if err != nil {
			continue
		}
		c.keys[k.Kid] = pub
	}
	m.keys[uri] = c
	return c, nil
}

func rsaKey(k jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}
	e := 65537
	if len(eb) > 0 {
		// big-endian
		e = 0
		for _, b := range eb {
			e = e<<8 | int(b)
		}
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}
