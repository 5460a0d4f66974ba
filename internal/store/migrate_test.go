package store

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/kangaroo/migrations/postgres"
)

func TestMigrator_ParseOrdersAndSkipsForeignFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_second.sql": {Data: []byte("SELECT 2;")},
		"m/0001_init.sql":   {Data: []byte("SELECT 1;")},
		"m/README.md":       {Data: []byte("docs")},
	}

	migs, err := NewMigrator(fsys, "m").Parse()
	require.NoError(t, err)
	require.Len(t, migs, 2)
	require.Equal(t, 1, migs[0].Version)
	require.Equal(t, "init", migs[0].Name)
	require.Equal(t, "SELECT 2;", migs[1].SQL)
}

func TestMigrator_ParseRejectsDuplicateVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0001_a.sql": {Data: []byte("SELECT 1;")},
		"m/0001_b.sql": {Data: []byte("SELECT 1;")},
	}
	_, err := NewMigrator(fsys, "m").Parse()
	require.Error(t, err)
}

func TestMigrator_EmbeddedSchemaParses(t *testing.T) {
	migs, err := NewMigrator(postgres.FS, postgres.Dir).Parse()
	require.NoError(t, err)
	require.NotEmpty(t, migs)
	require.Equal(t, 1, migs[0].Version)
	require.Contains(t, migs[0].SQL, "CREATE TABLE IF NOT EXISTS oauth_tokens")
}

func TestOpen_UnknownAdapter(t *testing.T) {
	_, err := Open(context.Background(), AdapterConfig{Name: "cassandra"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown adapter")
}
