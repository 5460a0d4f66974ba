package validation

import (
	"errors"
	"net/url"
	"strings"
)

var (
	ErrRedirectNotAbsolute = errors.New("redirect uri must be absolute")
	ErrRedirectFragment    = errors.New("redirect uri must not contain a fragment")
	ErrRedirectScheme      = errors.New("redirect uri scheme not allowed")
)

// ValidateRedirectURI chequea la forma de un redirect registrado
// (RFC 6749 §3.1.2): absoluto, sin fragmento. Se aceptan esquemas custom
// para apps nativas pero nunca javascript:, data: ni file:.
func ValidateRedirectURI(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() {
		return ErrRedirectNotAbsolute
	}
	if u.Fragment != "" || strings.Contains(raw, "#") {
		return ErrRedirectFragment
	}
	switch strings.ToLower(u.Scheme) {
	case "javascript", "data", "file", "vbscript":
		return ErrRedirectScheme
	case "http", "https":
		if u.Host == "" {
			return ErrRedirectNotAbsolute
		}
	}
	return nil
}
