// Package errors define la taxonomía de errores OAuth2 (RFC 6749 §5.2) y su
// codificación: JSON directo o parámetros en el redirect del cliente.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError es un error OAuth2 listo para serializar.
type AppError struct {
	Code        string // error
	Description string // error_description
	HTTPStatus  int
	Err         error // causa interna, nunca se expone
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.Err)
	}
	return e.Code + ": " + e.Description
}

func (e *AppError) Unwrap() error { return e.Err }

// Is compara por código, así errors.Is(err, ErrInvalidGrant) funciona con
// copias creadas por WithDetail.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithDetail devuelve una copia con otra descripción.
func (e *AppError) WithDetail(description string) *AppError {
	c := *e
	c.Description = description
	return &c
}

// WithCause devuelve una copia con la causa adjunta.
func (e *AppError) WithCause(err error) *AppError {
	c := *e
	c.Err = err
	return &c
}

// WithStatus devuelve una copia con otro status HTTP.
func (e *AppError) WithStatus(status int) *AppError {
	c := *e
	c.HTTPStatus = status
	return &c
}

// FromError convierte cualquier error en *AppError; lo desconocido es
// server_error sin detalle.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrServerError.WithCause(err)
}

// ─── taxonomía ───

var (
	ErrInvalidRequest = &AppError{
		Code:        "invalid_request",
		Description: "The request is missing a required parameter or is otherwise malformed.",
		HTTPStatus:  http.StatusBadRequest,
	}

	ErrInvalidClient = &AppError{
		Code:        "invalid_client",
		Description: "Client authentication failed.",
		HTTPStatus:  http.StatusUnauthorized,
	}

	ErrInvalidGrant = &AppError{
		Code:        "invalid_grant",
		Description: "The provided authorization grant is invalid, expired or was issued to another client.",
		HTTPStatus:  http.StatusBadRequest,
	}

	ErrInvalidScope = &AppError{
		Code:        "invalid_scope",
		Description: "The requested scope is invalid or exceeds the granted scope.",
		HTTPStatus:  http.StatusBadRequest,
	}

	ErrUnsupportedResponseType = &AppError{
		Code:        "unsupported_response_type",
		Description: "The authorization server does not support this response type.",
		HTTPStatus:  http.StatusBadRequest,
	}

	ErrUnauthorizedClient = &AppError{
		Code:        "unauthorized_client",
		Description: "The client is not authorized to use this grant or response type.",
		HTTPStatus:  http.StatusBadRequest,
	}

	ErrAccessDenied = &AppError{
		Code:        "access_denied",
		Description: "The resource owner or authorization server denied the request.",
		HTTPStatus:  http.StatusForbidden,
	}

	ErrServerError = &AppError{
		Code:        "server_error",
		Description: "The authorization server encountered an unexpected condition.",
		HTTPStatus:  http.StatusInternalServerError,
	}
)

// Errores de transporte que no son parte de RFC 6749.
var (
	ErrNotFound = &AppError{
		Code:        "not_found",
		Description: "Resource not found.",
		HTTPStatus:  http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:        "method_not_allowed",
		Description: "Method not allowed.",
		HTTPStatus:  http.StatusMethodNotAllowed,
	}

	ErrRateLimited = &AppError{
		Code:        "rate_limit_exceeded",
		Description: "Too many requests.",
		HTTPStatus:  http.StatusTooManyRequests,
	}

	ErrBodyTooLarge = &AppError{
		Code:        "invalid_request",
		Description: "Request body too large.",
		HTTPStatus:  http.StatusRequestEntityTooLarge,
	}
)
