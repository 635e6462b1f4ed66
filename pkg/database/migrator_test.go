package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreGooseFiles(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		raw, err := migrationsFS.ReadFile(name)
		require.NoError(t, err)
		body := string(raw)
		assert.Contains(t, body, "-- +goose Up", name)
		assert.Contains(t, body, "-- +goose Down", name)
	}
}

func TestSchemaDeclaresLifecycleTables(t *testing.T) {
	raw, err := migrationsFS.ReadFile("migrations/00001_demand_desk.sql")
	require.NoError(t, err)
	schema := string(raw)

	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS demands")
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS demand_status_logs")
	for _, status := range []string{"PENDING", "FOLLOWING_UP", "MATCHED", "CLOSED"} {
		assert.True(t, strings.Contains(schema, "'"+status+"'"), status)
	}
}
