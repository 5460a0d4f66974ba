package errors

import (
	"net/http"
	"net/url"

	"github.com/dropDatabas3/kangaroo/internal/http/helpers"
)

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteError escribe err como JSON {error, error_description}. Un
// server_error nunca lleva la descripción de la causa.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)
	helpers.NoStore(w)
	if appErr.HTTPStatus == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
		w.Header().Set("WWW-Authenticate", `Basic realm="kangaroo"`)
	}
	helpers.WriteJSON(w, appErr.HTTPStatus, errorResponse{
		Error:       appErr.Code,
		Description: appErr.Description,
	})
}

// RedirectError codifica err en el redirect del cliente: query para el flujo
// de código, fragment para el implícito. state se incluye si no está vacío.
func RedirectError(w http.ResponseWriter, r *http.Request, redirect string, fragment bool, err error, state string) {
	appErr := FromError(err)
	params := url.Values{}
	params.Set("error", appErr.Code)
	if appErr.Description != "" {
		params.Set("error_description", appErr.Description)
	}
	if state != "" {
		params.Set("state", state)
	}
	if rerr := helpers.Redirect(w, r, redirect, fragment, params); rerr != nil {
		// el redirect ya fue validado; si igual no parsea, error directo
		WriteError(w, ErrServerError.WithCause(rerr))
	}
}
