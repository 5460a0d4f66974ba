// Package password hashea secretos de clients y passwords de identidades con
// argon2id. Los digests se guardan como PHC strings autocontenidos:
//
//	$argon2id$v=19$m=65536,t=3,p=1$<salt b64>$<key b64>
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
	SaltLen     uint32
}

var Default = Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, KeyLen: 32, SaltLen: 16}

var (
	ErrEmptySecret = errors.New("password: empty secret")
	ErrMalformed   = errors.New("password: malformed digest")
)

// CreateSalt genera un salt aleatorio de p.SaltLen bytes.
func CreateSalt(p Params) ([]byte, error) {
	n := p.SaltLen
	if n == 0 {
		n = 16
	}
	salt := make([]byte, n)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("password: read salt: %w", err)
	}
	return salt, nil
}

// Hash deriva el digest PHC de secret con el salt dado.
func Hash(p Params, secret string, salt []byte) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	key := argon2.IDKey([]byte(secret), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// New es CreateSalt + Hash.
func New(p Params, secret string) (string, error) {
	salt, err := CreateSalt(p)
	if err != nil {
		return "", err
	}
	return Hash(p, secret, salt)
}

// Verify compara secret contra un digest PHC en tiempo constante. Un digest
// malformado nunca verifica.
func Verify(secret, phc string) bool {
	p, salt, key, err := decode(phc)
	if err != nil || secret == "" {
		return false
	}
	got := argon2.IDKey([]byte(secret), salt, p.Time, p.Memory, p.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(got, key) == 1
}

// decode parsea "$argon2id$v=19$m=..,t=..,p=..$salt$key".
func decode(phc string) (Params, []byte, []byte, error) {
	var p Params
	parts := strings.Split(phc, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, ErrMalformed
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return p, nil, nil, ErrMalformed
	}

	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return p, nil, nil, ErrMalformed
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			return p, nil, nil, ErrMalformed
		}
		switch k {
		case "m":
			p.Memory = uint32(n)
		case "t":
			p.Time = uint32(n)
		case "p":
			if n > 255 {
				return p, nil, nil, ErrMalformed
			}
			p.Parallelism = uint8(n)
		default:
			return p, nil, nil, ErrMalformed
		}
	}
	if p.Memory == 0 || p.Time == 0 || p.Parallelism == 0 {
		return p, nil, nil, ErrMalformed
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, ErrMalformed
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrMalformed
	}
	return p, salt, key, nil
}
