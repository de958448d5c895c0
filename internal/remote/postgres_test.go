package remote

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunDB builds statements without connecting to a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=aads dbname=aads sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestPostgres_UpsertStatement(t *testing.T) {
	db := dryRunDB(t)

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	row := PlayerRow{ID: 3, Name: "Alice", Province: "NB", Status: "Winner", CreatedAt: created, UpdatedAt: created}

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Clauses(upsertClause()).Create(&row)
	})

	assert.Contains(t, sql, `INSERT INTO "players"`)
	assert.Contains(t, sql, `ON CONFLICT ("id") DO UPDATE SET`)
	assert.Contains(t, sql, `"status"="excluded"."status"`)
	assert.Contains(t, sql, `"created_at"="excluded"."created_at"`)
}

func TestPostgres_TableNames(t *testing.T) {
	assert.Equal(t, "players", PlayerRow{}.TableName())
	assert.Equal(t, "events", EventRow{}.TableName())
	assert.Equal(t, "event_participants", ParticipantRow{}.TableName())
	assert.Equal(t, "sync_metadata", SyncMetadata{}.TableName())
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(Schema())
	require.NotEmpty(t, stmts)

	for _, stmt := range stmts {
		assert.True(t, strings.HasSuffix(stmt, ";"), "statement not terminated: %q", stmt)
		assert.NotContains(t, stmt, "--")
	}

	var tables []string
	for _, stmt := range stmts {
		if strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS ") {
			name := strings.Fields(strings.TrimPrefix(stmt, "CREATE TABLE IF NOT EXISTS "))[0]
			tables = append(tables, name)
		}
	}
	assert.Equal(t, []string{"players", "events", "event_participants", "sync_metadata"}, tables)
	assert.True(t, strings.HasPrefix(stmts[len(stmts)-1], "INSERT INTO sync_metadata"))
}

func TestSplitStatements_TrailingStatementWithoutSemicolon(t *testing.T) {
	stmts := splitStatements("SELECT 1;\n-- note\nSELECT 2")
	assert.Equal(t, []string{"SELECT 1;", "SELECT 2"}, stmts)
}
