package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidScopeName(t *testing.T) {
	valid := []string{
		"a",
		"ab",
		"debug",
		"profile:read",
		"email:read:e2e123",
		"a_b-c.d:scope2",
		strings.Repeat("a", 63) + "b", // 64
	}
	for _, v := range valid {
		require.True(t, ValidScopeName(v), v)
	}

	invalid := []string{
		"",
		":lead",
		"trail:",
		"bad space",
		"UPPER",
		"semicolon;hack",
		strings.Repeat("a", 65),
	}
	for _, v := range invalid {
		require.False(t, ValidScopeName(v), v)
	}
}

func TestValidateRedirectURI(t *testing.T) {
	tests := map[string]error{
		"http://valid.example.com/redirect":    nil,
		"https://valid.example.com/cb?foo=bar": nil,
		"com.example.app:/oauth2redirect":      nil,
		"/relative":                            ErrRedirectNotAbsolute,
		"valid.example.com/redirect":           ErrRedirectNotAbsolute,
		"http:///nohost":                       ErrRedirectNotAbsolute,
		"https://valid.example.com/cb#frag":    ErrRedirectFragment,
		"javascript:alert(1)":                  ErrRedirectScheme,
		"file:///etc/passwd":                   ErrRedirectScheme,
	}
	for raw, want := range tests {
		t.Run(raw, func(t *testing.T) {
			err := ValidateRedirectURI(raw)
			if want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, want)
		})
	}
}
