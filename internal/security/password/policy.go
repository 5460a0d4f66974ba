package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrWeak se devuelve cuando un secreto no cumple la Policy.
var ErrWeak = errors.New("password: secret does not meet policy")

// Policy son las reglas mínimas para secretos de clients e identidades
// password al cargarlos por seed.
type Policy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
	// Blacklist opcional de secretos comunes.
	Blacklist *Blacklist
}

// DefaultPolicy: largo mínimo y blacklist vacía.
var DefaultPolicy = Policy{MinLength: 10}

func (p Policy) Validate(s string) (ok bool, reasons []string) {
	if len([]rune(s)) < p.MinLength {
		reasons = append(reasons, "too_short")
	}
	var hasU, hasL, hasD, hasS bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasU = true
		case unicode.IsLower(r):
			hasL = true
		case unicode.IsDigit(r):
			hasD = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasS = true
		}
	}
	if p.RequireUpper && !hasU {
		reasons = append(reasons, "missing_upper")
	}
	if p.RequireLower && !hasL {
		reasons = append(reasons, "missing_lower")
	}
	if p.RequireDigit && !hasD {
		reasons = append(reasons, "missing_digit")
	}
	if p.RequireSymbol && !hasS {
		reasons = append(reasons, "missing_symbol")
	}
	if p.Blacklist.Contains(s) {
		reasons = append(reasons, "blacklisted")
	}
	return len(reasons) == 0, reasons
}

// Check es Validate como error (envuelve ErrWeak con los motivos).
func (p Policy) Check(s string) error {
	if ok, reasons := p.Validate(s); !ok {
		return fmt.Errorf("%w: %s", ErrWeak, strings.Join(reasons, ","))
	}
	return nil
}
