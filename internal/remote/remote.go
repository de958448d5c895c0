// Package remote adapts hosted relational stores for the sync engine.
//
// The sync engine needs four primitives from a remote store: an upsert by
// primary key per table, a select-all per table, a point update of the
// singleton sync_metadata row, and a player count. Store exposes exactly
// those, so drivers stay thin:
//   - supabase: the PostgREST HTTP API of a Supabase project
//   - postgres: a direct PostgreSQL connection through gorm
//   - memory: in-process tables, used by tests and dry runs
//
// Missing credentials are not an error condition for callers: Open returns
// ErrNotConfigured and the caller treats sync as disabled.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Driver names accepted by Open.
const (
	DriverSupabase = "supabase"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Drivers lists every driver name Open understands.
var Drivers = []string{DriverSupabase, DriverPostgres, DriverMemory}

// DefaultTimeout bounds a single HTTP request when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// ErrNotConfigured is returned by Open when no driver is selected or the
// selected driver lacks credentials.
var ErrNotConfigured = errors.New("remote store is not configured")

// Store is the contract the sync engine depends on.
type Store interface {
	UpsertPlayer(ctx context.Context, row PlayerRow) error
	UpsertEvent(ctx context.Context, row EventRow) error
	UpsertParticipant(ctx context.Context, row ParticipantRow) error

	SelectPlayers(ctx context.Context) ([]PlayerRow, error)
	SelectEvents(ctx context.Context) ([]EventRow, error)
	SelectParticipants(ctx context.Context) ([]ParticipantRow, error)

	UpdateSyncMetadata(ctx context.Context, meta SyncMetadata) error
	SelectSyncMetadata(ctx context.Context) (SyncMetadata, bool, error)

	CountPlayers(ctx context.Context) (int64, error)
	Close() error
}

// Config selects and configures a driver.
type Config struct {
	Driver string

	// URL and Key address a Supabase project.
	URL string
	Key string

	// DSN is a PostgreSQL connection string for the postgres driver.
	DSN string

	// Timeout bounds each request. Zero uses DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the client used by the supabase driver.
	HTTPClient *http.Client
}

// Open returns the configured driver. It does not contact the remote;
// use CountPlayers as a connectivity probe.
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case "":
		return nil, ErrNotConfigured
	case DriverSupabase:
		if cfg.URL == "" || cfg.Key == "" {
			return nil, fmt.Errorf("%w: supabase needs a url and a key", ErrNotConfigured)
		}
		return NewSupabase(cfg.URL, cfg.Key, cfg.httpClient()), nil
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("%w: postgres needs a dsn", ErrNotConfigured)
		}
		pg, err := OpenPostgres(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown remote driver %q", cfg.Driver)
	}
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
