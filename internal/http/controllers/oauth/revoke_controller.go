package oauth

import (
	"net/http"

	"github.com/dropDatabas3/kangaroo/internal/http/helpers"
	svc "github.com/dropDatabas3/kangaroo/internal/http/services/oauth"
	"github.com/dropDatabas3/kangaroo/internal/oauth/clientauth"
)

// RevokeController maneja POST /revoke.
type RevokeController struct {
	service svc.RevokeService
}

func NewRevokeController(s svc.RevokeService) *RevokeController {
	return &RevokeController{service: s}
}

// Revoke responde 200 vacío aunque el token no exista (RFC 7009 §2.2).
func (c *RevokeController) Revoke(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		writeError(w, r, "revoke", err)
		return
	}

	err := c.service.Revoke(r.Context(), svc.RevokeRequest{
		Auth: clientauth.FromHTTP(r),
		Form: r.PostForm,
	})
	if err != nil {
		writeError(w, r, "revoke", err)
		return
	}
	helpers.NoStore(w)
	w.WriteHeader(http.StatusOK)
}
