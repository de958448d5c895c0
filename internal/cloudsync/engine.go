package cloudsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/aads/internal/metrics"
	"github.com/roach88/aads/internal/model"
	"github.com/roach88/aads/internal/remote"
	"github.com/roach88/aads/internal/store"
)

// DisabledCause is the Result cause of every operation on an engine without
// a remote store.
const DisabledCause = "cloud sync is not enabled"

// Op names a sync operation.
type Op string

const (
	OpPush  Op = "push"
	OpPull  Op = "pull"
	OpProbe Op = "probe"
)

// Local is the local side of a sync. *store.Store implements it.
type Local interface {
	ReadSnapshot(ctx context.Context) (model.Snapshot, error)
	ImportSnapshot(ctx context.Context, snap model.Snapshot) (store.ImportStats, error)
}

// Result reports the outcome of one sync operation. Operations never return
// errors; a failure is OK=false with the cause as text.
type Result struct {
	Op            Op        `json:"op"`
	RunID         string    `json:"run_id,omitempty"`
	OK            bool      `json:"ok"`
	Cause         string    `json:"cause,omitempty"`
	Players       int       `json:"players"`
	Events        int       `json:"events"`
	Participants  int       `json:"participants"`
	Attempts      int       `json:"attempts,omitempty"`
	RemotePlayers int64     `json:"remote_players,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Status describes the sync configuration and the last recorded push.
type Status struct {
	Enabled  bool       `json:"enabled"`
	AutoSync bool       `json:"auto_sync"`
	LastSync *time.Time `json:"last_sync,omitempty"`
	Message  string     `json:"message"`
}

// Engine moves full snapshots between the local store and a remote store.
// It is not safe for concurrent use; the local store has a single writer.
type Engine struct {
	local        Local
	remote       remote.Store
	autoSync     bool
	pushAttempts int
	now          func() time.Time
	runIDs       RunIDGenerator
	metrics      *metrics.Manager
}

// Option configures an Engine.
type Option func(*Engine)

// WithAutoSync makes AutoPush push after mutating commands.
func WithAutoSync(enabled bool) Option {
	return func(e *Engine) { e.autoSync = enabled }
}

// WithPushAttempts sets how many times a failed push is re-run as a whole.
// Values below 1 are treated as 1.
func WithPushAttempts(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.pushAttempts = n
	}
}

// WithClock overrides the time source for run timestamps and last_sync.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRunIDs overrides the run ID generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(e *Engine) { e.runIDs = g }
}

// WithMetrics records every run on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an engine. A nil rs disables sync.
func New(local Local, rs remote.Store, opts ...Option) *Engine {
	e := &Engine{
		local:        local,
		remote:       rs,
		pushAttempts: 1,
		now:          func() time.Time { return time.Now().UTC() },
		runIDs:       UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enabled reports whether a remote store is configured.
func (e *Engine) Enabled() bool {
	return e.remote != nil
}

// AutoSync reports whether mutating commands should push afterwards.
func (e *Engine) AutoSync() bool {
	return e.autoSync
}

// Close releases the remote store.
func (e *Engine) Close() error {
	if e.remote == nil {
		return nil
	}
	return e.remote.Close()
}

// Push uploads the whole local snapshot: players, then events, then
// participants, one upsert per row. The first failing row aborts the
// remaining phases; rows already sent stay on the remote. On success the
// remote sync metadata is stamped with the current time.
//
// A failed push is re-run from the start up to the configured number of
// attempts. Upserts make the re-run safe. A rejected key is not retried.
func (e *Engine) Push(ctx context.Context) Result {
	res, ok := e.begin(OpPush)
	if !ok {
		return res
	}

	snap, err := e.local.ReadSnapshot(ctx)
	if err != nil {
		return e.finish(res, err)
	}

	for attempt := 1; attempt <= e.pushAttempts; attempt++ {
		res.Attempts = attempt
		if attempt > 1 {
			e.metrics.RecordRetry(string(OpPush))
			slog.Warn("retrying push", "run_id", res.RunID, "attempt", attempt, "cause", err)
		}
		err = e.pushOnce(ctx, snap, &res)
		if err == nil || ctx.Err() != nil || remote.IsUnauthorized(err) {
			break
		}
	}
	if err == nil {
		e.metrics.AddRows(string(OpPush), remote.TablePlayers, res.Players)
		e.metrics.AddRows(string(OpPush), remote.TableEvents, res.Events)
		e.metrics.AddRows(string(OpPush), remote.TableParticipants, res.Participants)
	}
	return e.finish(res, err)
}

func (e *Engine) pushOnce(ctx context.Context, snap model.Snapshot, res *Result) error {
	res.Players, res.Events, res.Participants = 0, 0, 0

	for _, p := range snap.Players {
		if err := e.remote.UpsertPlayer(ctx, playerToRow(p)); err != nil {
			return fmt.Errorf("push player %d: %w", p.ID, err)
		}
		res.Players++
	}
	slog.Info("pushed players", "run_id", res.RunID, "count", res.Players)

	for _, ev := range snap.Events {
		if err := e.remote.UpsertEvent(ctx, eventToRow(ev)); err != nil {
			return fmt.Errorf("push event %d: %w", ev.ID, err)
		}
		res.Events++
	}
	slog.Info("pushed events", "run_id", res.RunID, "count", res.Events)

	for _, ep := range snap.Participants {
		if err := e.remote.UpsertParticipant(ctx, participationToRow(ep)); err != nil {
			return fmt.Errorf("push participant %d: %w", ep.ID, err)
		}
		res.Participants++
	}
	slog.Info("pushed participants", "run_id", res.RunID, "count", res.Participants)

	lastSync := e.now().UTC()
	meta := remote.SyncMetadata{ID: remote.SyncMetadataID, LastSync: &lastSync, LocalChanges: 0}
	if err := e.remote.UpdateSyncMetadata(ctx, meta); err != nil {
		return fmt.Errorf("update sync metadata: %w", err)
	}
	return nil
}

// Pull downloads the three remote tables and imports them into the local
// store in one transaction. If any remote read or local write fails, the
// local store is left unchanged.
func (e *Engine) Pull(ctx context.Context) Result {
	res, ok := e.begin(OpPull)
	if !ok {
		return res
	}

	players, err := e.remote.SelectPlayers(ctx)
	if err != nil {
		return e.finish(res, fmt.Errorf("pull players: %w", err))
	}
	events, err := e.remote.SelectEvents(ctx)
	if err != nil {
		return e.finish(res, fmt.Errorf("pull events: %w", err))
	}
	participants, err := e.remote.SelectParticipants(ctx)
	if err != nil {
		return e.finish(res, fmt.Errorf("pull participants: %w", err))
	}
	slog.Info("fetched remote rows", "run_id", res.RunID,
		"players", len(players), "events", len(events), "participants", len(participants))

	stats, err := e.local.ImportSnapshot(ctx, toSnapshot(players, events, participants))
	if err != nil {
		return e.finish(res, err)
	}
	res.Players, res.Events, res.Participants = stats.Players, stats.Events, stats.Participants
	e.metrics.AddRows(string(OpPull), remote.TablePlayers, res.Players)
	e.metrics.AddRows(string(OpPull), remote.TableEvents, res.Events)
	e.metrics.AddRows(string(OpPull), remote.TableParticipants, res.Participants)
	return e.finish(res, nil)
}

// Probe checks connectivity with a single player count.
func (e *Engine) Probe(ctx context.Context) Result {
	res, ok := e.begin(OpProbe)
	if !ok {
		return res
	}
	n, err := e.remote.CountPlayers(ctx)
	if err != nil {
		return e.finish(res, fmt.Errorf("count players: %w", err))
	}
	res.RemotePlayers = n
	e.metrics.SetRemotePlayers(n)
	return e.finish(res, nil)
}

// Status reports whether sync is enabled and when the last push finished.
// A remote read failure is reported in Message, not as an error.
func (e *Engine) Status(ctx context.Context) Status {
	st := Status{Enabled: e.Enabled(), AutoSync: e.autoSync}
	if !st.Enabled {
		st.Message = DisabledCause
		return st
	}
	meta, ok, err := e.remote.SelectSyncMetadata(ctx)
	switch {
	case err != nil:
		st.Message = fmt.Sprintf("could not read sync metadata: %v", err)
	case !ok || meta.LastSync == nil:
		st.Message = "never synced"
	default:
		last := meta.LastSync.UTC()
		st.LastSync = &last
		st.Message = "last sync " + last.Format(time.RFC3339)
	}
	return st
}

// AutoPush pushes when sync is enabled and auto-sync is on. The bool
// reports whether a push was attempted.
func (e *Engine) AutoPush(ctx context.Context) (Result, bool) {
	if !e.Enabled() || !e.autoSync {
		return Result{}, false
	}
	return e.Push(ctx), true
}

// begin stamps a new run. It returns false with a finished disabled result
// when no remote store is configured; nothing is logged or recorded then.
func (e *Engine) begin(op Op) (Result, bool) {
	res := Result{Op: op, StartedAt: e.now().UTC()}
	if !e.Enabled() {
		res.Cause = DisabledCause
		res.FinishedAt = res.StartedAt
		return res, false
	}
	res.RunID = e.runIDs.Generate()
	slog.Info("sync started", "op", op, "run_id", res.RunID)
	return res, true
}

func (e *Engine) finish(res Result, err error) Result {
	res.FinishedAt = e.now().UTC()
	res.OK = err == nil
	if err != nil {
		res.Cause = err.Error()
		if remote.IsUnauthorized(err) {
			res.Cause += " (check remote_key)"
		}
		slog.Warn("sync failed", "op", res.Op, "run_id", res.RunID, "cause", res.Cause)
	} else {
		slog.Info("sync finished", "op", res.Op, "run_id", res.RunID,
			"players", res.Players, "events", res.Events, "participants", res.Participants)
	}
	e.metrics.RecordRun(string(res.Op), res.OK, res.StartedAt, res.FinishedAt)
	return res
}
