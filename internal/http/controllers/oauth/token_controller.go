package oauth

import (
	"net/http"

	"github.com/dropDatabas3/kangaroo/internal/http/helpers"
	svc "github.com/dropDatabas3/kangaroo/internal/http/services/oauth"
	"github.com/dropDatabas3/kangaroo/internal/oauth/clientauth"
)

// TokenController maneja POST /token.
type TokenController struct {
	service svc.TokenService
}

func NewTokenController(s svc.TokenService) *TokenController {
	return &TokenController{service: s}
}

func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		writeError(w, r, "token", err)
		return
	}

	resp, err := c.service.Exchange(r.Context(), svc.TokenRequest{
		Auth: clientauth.FromHTTP(r),
		Form: r.PostForm,
	})
	if err != nil {
		writeError(w, r, "token", err)
		return
	}
	helpers.NoStore(w)
	helpers.WriteJSON(w, http.StatusOK, resp)
}
