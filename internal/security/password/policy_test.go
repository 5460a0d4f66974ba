package password

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPolicy_Validate(t *testing.T) {
	p := Policy{MinLength: 8, RequireUpper: true, RequireDigit: true, Blacklist: NewBlacklist("Password123")}

	ok, reasons := p.Validate("Str0ngEnough")
	require.True(t, ok)
	require.Empty(t, reasons)

	ok, reasons = p.Validate("short")
	require.False(t, ok)
	require.ElementsMatch(t, []string{"too_short", "missing_upper", "missing_digit"}, reasons)

	ok, reasons = p.Validate("password123")
	require.False(t, ok)
	require.Contains(t, reasons, "blacklisted")

	require.ErrorIs(t, p.Check("short"), ErrWeak)
	require.NoError(t, p.Check("Str0ngEnough"))
}

func TestLoadBlacklist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bl.txt")
	require.NoError(t, os.WriteFile(path, []byte("# comunes\nqwerty123\n\n  LetMeIn  \n"), 0o600))

	bl, err := LoadBlacklist(path)
	require.NoError(t, err)
	require.True(t, bl.Contains("QWERTY123"))
	require.True(t, bl.Contains("letmein"))
	require.False(t, bl.Contains("# comunes"))

	empty, err := LoadBlacklist("")
	require.NoError(t, err)
	require.False(t, empty.Contains("qwerty123"))

	var nilList *Blacklist
	require.False(t, nilList.Contains("x"))
}
