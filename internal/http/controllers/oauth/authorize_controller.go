package oauth

import (
	"net/http"

	"github.com/dropDatabas3/kangaroo/internal/http/helpers"
	svc "github.com/dropDatabas3/kangaroo/internal/http/services/oauth"
)

// AuthorizeController maneja /authorize y /authorize/callback.
type AuthorizeController struct {
	service svc.AuthorizeService
}

func NewAuthorizeController(s svc.AuthorizeService) *AuthorizeController {
	return &AuthorizeController{service: s}
}

// Authorize maneja GET|POST /authorize. En POST los parámetros vienen del
// body form-encoded.
func (c *AuthorizeController) Authorize(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		writeError(w, r, "authorize", err)
		return
	}
	params := r.URL.Query()
	if r.Method == http.MethodPost {
		params = r.PostForm
	}

	res, err := c.service.Authorize(r.Context(), svc.AuthorizeRequest{
		Params:        params,
		Authorization: r.Header.Values("Authorization"),
	})
	if err != nil {
		writeError(w, r, "authorize", err)
		return
	}
	helpers.NoStore(w)
	http.Redirect(w, r, res.Location, http.StatusFound)
}

// Callback maneja GET|POST /authorize/callback. Los parámetros son query y
// form juntos: los proveedores externos vuelven por GET, los formularios de
// login por POST.
func (c *AuthorizeController) Callback(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		writeError(w, r, "authorize.callback", err)
		return
	}

	res, err := c.service.Callback(r.Context(), svc.CallbackRequest{Params: r.Form})
	if err != nil {
		writeError(w, r, "authorize.callback", err)
		return
	}
	helpers.NoStore(w)
	http.Redirect(w, r, res.Location, http.StatusFound)
}
