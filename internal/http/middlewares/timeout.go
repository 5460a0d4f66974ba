package middlewares

import (
	"context"
	"net/http"
	"time"
)

// WithTimeout acota el contexto del request. Los services y los plugins de
// authenticators lo respetan; el handler sigue siendo quien escribe la
// respuesta (no es http.TimeoutHandler).
func WithTimeout(d time.Duration) Middleware {
	if d <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
