package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/kangaroo/internal/config"
	"github.com/dropDatabas3/kangaroo/internal/store/state"
)

func TestVersionCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--env-file", filepath.Join(t.TempDir(), "none.env"), "version"})
	// un --env-file explícito que no existe es error
	require.Error(t, root.Execute())

	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "kangaroo dev")
}

func TestBuildRegistry(t *testing.T) {
	cfg := &config.Config{}
	cfg.OAuth.Authenticators = []string{"password", "github"}
	reg, err := buildRegistry(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"github", "password"}, reg.Available())

	cfg.OAuth.Authenticators = []string{"ldap"}
	_, err = buildRegistry(cfg)
	assert.Error(t, err)
}

func TestStateStore(t *testing.T) {
	cfg := &config.Config{}

	cfg.OAuth.StateStore = "storage"
	repo, err := stateStore(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, repo)

	cfg.OAuth.StateStore = "memory"
	repo, err = stateStore(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &state.Memory{}, repo)

	cfg.OAuth.StateStore = "redis"
	_, err = stateStore(cfg, nil)
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	repo, err = stateStore(cfg, rdb)
	require.NoError(t, err)
	assert.IsType(t, &state.Redis{}, repo)
}
