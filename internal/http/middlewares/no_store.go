package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/kangaroo/internal/http/helpers"
)

// WithNoStore marca toda respuesta como no cacheable (Cache-Control: no-store
// y Pragma: no-cache), también las de error y los redirects.
func WithNoStore() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			helpers.NoStore(w)
			next.ServeHTTP(w, r)
		})
	}
}
