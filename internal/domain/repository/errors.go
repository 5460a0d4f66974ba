package repository

import "errors"

var (
	// ErrNotFound indica que la entidad no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica un duplicado o una violación de constraint.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indica datos de entrada inválidos.
	ErrInvalidInput = errors.New("invalid input")
)

// IsNotFound reporta si err es (o envuelve) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reporta si err es (o envuelve) ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
