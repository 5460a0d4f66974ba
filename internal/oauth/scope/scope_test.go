package scope

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	httperrors "github.com/dropDatabas3/kangaroo/internal/http/errors"
)

func catalog(names ...string) *repository.Application {
	app := &repository.Application{Entity: repository.Entity{ID: uuid.New()}}
	for _, n := range names {
		app.Scopes = append(app.Scopes, repository.ApplicationScope{Entity: repository.Entity{ID: uuid.New()}, ApplicationID: app.ID, Name: n})
	}
	return app
}

func roleWith(app *repository.Application, names ...string) *repository.Role {
	r := &repository.Role{Entity: repository.Entity{ID: uuid.New()}, ApplicationID: app.ID, Name: "test"}
	for _, n := range names {
		s, _ := app.Scope(n)
		r.Scopes = append(r.Scopes, s)
	}
	return r
}

func TestResolve_EmptyRequestReturnsRoleSet(t *testing.T) {
	app := catalog("debug", "admin", "read")
	role := roleWith(app, "read", "debug")

	for _, requested := range []string{"", "   ", "\t\n"} {
		got, err := Resolve(app, role, requested)
		require.NoError(t, err)
		require.Equal(t, "debug read", Join(got))
		require.Equal(t, "debug", got[0].Name)
	}
}

func TestResolve_EmptyRequestWithoutRoleIsEmpty(t *testing.T) {
	got, err := Resolve(catalog("debug"), nil, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestResolve_Explicit(t *testing.T) {
	app := catalog("debug", "admin", "read")
	role := roleWith(app, "read", "debug")

	got, err := Resolve(app, role, "read  debug read")
	require.NoError(t, err)
	require.Equal(t, "debug read", Join(got))
}

func TestResolve_Failures(t *testing.T) {
	app := catalog("debug", "admin")
	role := roleWith(app, "debug")
	foreign := roleWith(catalog("debug"), "debug")

	tests := []struct {
		name      string
		role      *repository.Role
		requested string
	}{
		{name: "in catalog but not in role", role: role, requested: "admin"},
		{name: "not in catalog", role: role, requested: "nope"},
		{name: "one bad name fails all", role: role, requested: "debug admin"},
		{name: "no role", role: nil, requested: "debug"},
		{name: "role of another application", role: foreign, requested: "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(app, tt.role, tt.requested)
			require.ErrorIs(t, err, httperrors.ErrInvalidScope)
		})
	}
}

func TestParse(t *testing.T) {
	require.Nil(t, Parse(""))
	require.Equal(t, []string{"a", "b"}, Parse(" b a  b "))
}
