package remote

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

//go:embed remote_schema.sql
var schemaSQL string

// Schema returns the DDL for the remote tables. Supabase users paste it
// into the SQL editor; the postgres driver applies it with EnsureSchema.
func Schema() string {
	return schemaSQL
}

// Postgres is a remote store on a direct PostgreSQL connection.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres prepares a connection pool for dsn. No connection is made
// until the first query.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	return NewPostgres(db), nil
}

// NewPostgres wraps an existing gorm handle.
func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the remote tables if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range splitStatements(schemaSQL) {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("postgres: apply schema: %w", err)
			}
		}
		return nil
	})
}

func (p *Postgres) UpsertPlayer(ctx context.Context, row PlayerRow) error {
	return p.upsert(ctx, &row)
}

func (p *Postgres) UpsertEvent(ctx context.Context, row EventRow) error {
	return p.upsert(ctx, &row)
}

func (p *Postgres) UpsertParticipant(ctx context.Context, row ParticipantRow) error {
	return p.upsert(ctx, &row)
}

func (p *Postgres) SelectPlayers(ctx context.Context) ([]PlayerRow, error) {
	rows := []PlayerRow{}
	if err := p.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("postgres: select %s: %w", TablePlayers, err)
	}
	return rows, nil
}

func (p *Postgres) SelectEvents(ctx context.Context) ([]EventRow, error) {
	rows := []EventRow{}
	if err := p.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("postgres: select %s: %w", TableEvents, err)
	}
	return rows, nil
}

func (p *Postgres) SelectParticipants(ctx context.Context) ([]ParticipantRow, error) {
	rows := []ParticipantRow{}
	if err := p.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("postgres: select %s: %w", TableParticipants, err)
	}
	return rows, nil
}

func (p *Postgres) UpdateSyncMetadata(ctx context.Context, meta SyncMetadata) error {
	meta.ID = SyncMetadataID
	return p.upsert(ctx, &meta)
}

func (p *Postgres) SelectSyncMetadata(ctx context.Context) (SyncMetadata, bool, error) {
	var meta SyncMetadata
	err := p.db.WithContext(ctx).Where("id = ?", SyncMetadataID).Take(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return SyncMetadata{}, false, nil
	}
	if err != nil {
		return SyncMetadata{}, false, fmt.Errorf("postgres: select %s: %w", TableSyncMetadata, err)
	}
	return meta, true, nil
}

func (p *Postgres) CountPlayers(ctx context.Context) (int64, error) {
	var n int64
	if err := p.db.WithContext(ctx).Model(&PlayerRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("postgres: count %s: %w", TablePlayers, err)
	}
	return n, nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return fmt.Errorf("postgres: close: %w", err)
	}
	return sqlDB.Close()
}

// upsertClause overwrites every non-key column when the primary key exists.
func upsertClause() clause.OnConflict {
	return clause.OnConflict{UpdateAll: true}
}

func (p *Postgres) upsert(ctx context.Context, row any) error {
	if err := p.db.WithContext(ctx).Clauses(upsertClause()).Create(row).Error; err != nil {
		return fmt.Errorf("postgres: upsert: %w", err)
	}
	return nil
}

// splitStatements breaks the schema into single statements. Comment lines
// are dropped; the DDL has no semicolons inside literals.
func splitStatements(script string) []string {
	var (
		stmts   []string
		current strings.Builder
	)
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			stmts = append(stmts, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts
}
