package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dropDatabas3/kangaroo/internal/store"
	"github.com/dropDatabas3/kangaroo/internal/store/memory"
	"github.com/dropDatabas3/kangaroo/internal/store/state"
)

func TestWithStates(t *testing.T) {
	dal := memory.New()
	assert.Same(t, dal, store.WithStates(dal, nil))

	states := state.NewMemory()
	wrapped := store.WithStates(dal, states)
	assert.Same(t, states, wrapped.States())
	assert.Equal(t, "memory", wrapped.Name())
}
