package helpers

import (
	"net/http"
	"net/url"
	"strings"
)

// BuildRedirect agrega params a redirect: en la query (preservando los
// parámetros existentes) o en el fragment para el flujo implícito.
func BuildRedirect(redirect string, fragment bool, params url.Values) (string, error) {
	u, err := url.Parse(redirect)
	if err != nil {
		return "", err
	}
	if fragment {
		u.Fragment = ""
		u.RawFragment = ""
		return u.String() + "#" + params.Encode(), nil
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Redirect hace un 302 no cacheable a redirect con params.
func Redirect(w http.ResponseWriter, r *http.Request, redirect string, fragment bool, params url.Values) error {
	loc, err := BuildRedirect(redirect, fragment, params)
	if err != nil {
		return err
	}
	NoStore(w)
	http.Redirect(w, r, loc, http.StatusFound)
	return nil
}

// FormValues devuelve los valores de key en form (nil si no está). A
// diferencia de r.FormValue no colapsa duplicados: el caller decide.
func FormValues(form url.Values, key string) []string {
	if form == nil {
		return nil
	}
	return form[key]
}

// Single devuelve el único valor de key. ok=false si falta; dup=true si hay
// más de uno. Valores vacíos cuentan como ausentes.
func Single(form url.Values, key string) (v string, ok bool, dup bool) {
	vals := FormValues(form, key)
	switch {
	case len(vals) > 1:
		return "", false, true
	case len(vals) == 0 || strings.TrimSpace(vals[0]) == "":
		return "", false, false
	}
	return vals[0], true, false
}
