package store

import "github.com/dropDatabas3/kangaroo/internal/domain/repository"

// WithStates devuelve dal con otro store de AuthenticatorState (memory o
// redis) en lugar del propio del motor. El resto delega en dal.
func WithStates(dal DataAccessLayer, states repository.AuthenticatorStateRepository) DataAccessLayer {
	if states == nil {
		return dal
	}
	return &withStates{DataAccessLayer: dal, states: states}
}

type withStates struct {
	DataAccessLayer
	states repository.AuthenticatorStateRepository
}

func (w *withStates) States() repository.AuthenticatorStateRepository { return w.states }
