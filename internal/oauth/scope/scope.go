// Package scope resuelve un scope pedido contra el catálogo de una
// Application y el conjunto que permite un Role.
package scope

import (
	"sort"
	"strings"

	"github.com/dropDatabas3/kangaroo/internal/domain/repository"
	httperrors "github.com/dropDatabas3/kangaroo/internal/http/errors"
)

// Resolve devuelve los scopes concedidos, ordenados por nombre.
//
// Sin pedido explícito devuelve todo lo que permite el rol (puede ser vacío).
// Con pedido, cada nombre tiene que existir en el catálogo y estar en el rol;
// un solo nombre inválido hace fallar todo. role nil = sin rol. Un rol de otra
// Application cuenta como sin rol.
func Resolve(app *repository.Application, role *repository.Role, requested string) ([]repository.ApplicationScope, error) {
	if role != nil && role.ApplicationID != app.ID {
		role = nil
	}

	names := Parse(requested)
	if len(names) == 0 {
		if role == nil {
			return []repository.ApplicationScope{}, nil
		}
		return sorted(role.Scopes), nil
	}

	out := make([]repository.ApplicationScope, 0, len(names))
	for _, name := range names {
		s, ok := app.Scope(name)
		if !ok {
			return nil, httperrors.ErrInvalidScope.WithDetail("unknown scope: " + name)
		}
		if !role.Permits(name) {
			return nil, httperrors.ErrInvalidScope.WithDetail("scope not permitted: " + name)
		}
		out = append(out, s)
	}
	return out, nil
}

// Parse parte un scope string en nombres únicos ordenados.
func Parse(s string) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Join serializa scopes como string separado por espacios.
func Join(scopes []repository.ApplicationScope) string {
	names := make([]string, 0, len(scopes))
	for _, s := range scopes {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return strings.Join(names, " ")
}

func sorted(in []repository.ApplicationScope) []repository.ApplicationScope {
	out := append([]repository.ApplicationScope(nil), in...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
