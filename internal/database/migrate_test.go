package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		b, err := migrationsFS.ReadFile(f)
		require.NoError(t, err)
		body := string(b)
		assert.Contains(t, body, "-- +goose Up", f)
		assert.Contains(t, body, "-- +goose Down", f)
	}
}

func TestInitialSchemaConstraints(t *testing.T) {
	b, err := migrationsFS.ReadFile("migrations/001_initial_schema.sql")
	require.NoError(t, err)
	schema := string(b)

	assert.Contains(t, schema, "CONSTRAINT users_email_key UNIQUE (email)")
	assert.Contains(t, schema, "last_streak_date DATE")
	assert.Contains(t, schema, "CHECK (correct_answer BETWEEN 1 AND 4)")
	assert.Contains(t, schema, "CHECK (level IN ('EASY', 'MEDIUM', 'HARD'))")

	// children are dropped before the tables they reference
	down := schema[strings.Index(schema, "-- +goose Down"):]
	assert.Less(t, strings.Index(down, "questions"), strings.Index(down, "tests"))
	assert.Less(t, strings.Index(down, "tests"), strings.Index(down, "subjects"))
}
