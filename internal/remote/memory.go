package remote

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Op names a Store method for fault injection and call counting.
type Op string

const (
	OpUpsertPlayer       Op = "upsert_player"
	OpUpsertEvent        Op = "upsert_event"
	OpUpsertParticipant  Op = "upsert_participant"
	OpSelectPlayers      Op = "select_players"
	OpSelectEvents       Op = "select_events"
	OpSelectParticipants Op = "select_participants"
	OpUpdateSyncMetadata Op = "update_sync_metadata"
	OpSelectSyncMetadata Op = "select_sync_metadata"
	OpCountPlayers       Op = "count_players"
)

type fault struct {
	after int // successful calls allowed before failing
	times int // failures remaining; -1 fails forever
	err   error
}

// Memory is an in-process remote store.
//
// It enforces the same keys as the remote schema: unique player names,
// unique (event, player) pairs and references from events and participants
// to existing rows. Faults can be injected per operation.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Memory struct {
	mu           sync.Mutex
	players      map[int64]PlayerRow
	events       map[int64]EventRow
	participants map[int64]ParticipantRow
	meta         *SyncMetadata
	calls        map[Op]int
	faults       map[Op]*fault
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		players:      map[int64]PlayerRow{},
		events:       map[int64]EventRow{},
		participants: map[int64]ParticipantRow{},
		calls:        map[Op]int{},
		faults:       map[Op]*fault{},
	}
}

// FailAfter makes op return err once it has succeeded after times. The
// fault stays armed until Heal.
func (m *Memory) FailAfter(op Op, after int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[op] = &fault{after: after, times: -1, err: err}
}

// FailTimes makes the next n calls of op return err, after which op
// succeeds again.
func (m *Memory) FailTimes(op Op, n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[op] = &fault{times: n, err: err}
}

// Heal removes every injected fault.
func (m *Memory) Heal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults = map[Op]*fault{}
}

// Calls returns how many times op was invoked, failed calls included.
func (m *Memory) Calls(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// enter records a call and returns the injected error, if any.
// Caller must hold m.mu.
func (m *Memory) enter(ctx context.Context, op Op) error {
	m.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	f, ok := m.faults[op]
	if !ok {
		return nil
	}
	if f.after > 0 {
		f.after--
		return nil
	}
	if f.times == 0 {
		return nil
	}
	if f.times > 0 {
		f.times--
	}
	return f.err
}

func (m *Memory) UpsertPlayer(ctx context.Context, row PlayerRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpUpsertPlayer); err != nil {
		return err
	}
	for id, p := range m.players {
		if p.Name == row.Name && id != row.ID {
			return fmt.Errorf("memory: duplicate player name %q (id %d)", row.Name, id)
		}
	}
	m.players[row.ID] = row
	return nil
}

func (m *Memory) UpsertEvent(ctx context.Context, row EventRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpUpsertEvent); err != nil {
		return err
	}
	if row.WinnerID != nil {
		if _, ok := m.players[*row.WinnerID]; !ok {
			return fmt.Errorf("memory: event %d references unknown winner %d", row.ID, *row.WinnerID)
		}
	}
	m.events[row.ID] = row
	return nil
}

func (m *Memory) UpsertParticipant(ctx context.Context, row ParticipantRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpUpsertParticipant); err != nil {
		return err
	}
	if _, ok := m.events[row.EventID]; !ok {
		return fmt.Errorf("memory: participant %d references unknown event %d", row.ID, row.EventID)
	}
	if _, ok := m.players[row.PlayerID]; !ok {
		return fmt.Errorf("memory: participant %d references unknown player %d", row.ID, row.PlayerID)
	}
	for id, ep := range m.participants {
		if ep.EventID == row.EventID && ep.PlayerID == row.PlayerID && id != row.ID {
			return fmt.Errorf("memory: duplicate participant (%d, %d)", row.EventID, row.PlayerID)
		}
	}
	m.participants[row.ID] = row
	return nil
}

func (m *Memory) SelectPlayers(ctx context.Context) ([]PlayerRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpSelectPlayers); err != nil {
		return nil, err
	}
	return sortedRows(m.players), nil
}

func (m *Memory) SelectEvents(ctx context.Context) ([]EventRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpSelectEvents); err != nil {
		return nil, err
	}
	return sortedRows(m.events), nil
}

func (m *Memory) SelectParticipants(ctx context.Context) ([]ParticipantRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpSelectParticipants); err != nil {
		return nil, err
	}
	return sortedRows(m.participants), nil
}

func (m *Memory) UpdateSyncMetadata(ctx context.Context, meta SyncMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpUpdateSyncMetadata); err != nil {
		return err
	}
	meta.ID = SyncMetadataID
	m.meta = &meta
	return nil
}

func (m *Memory) SelectSyncMetadata(ctx context.Context) (SyncMetadata, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpSelectSyncMetadata); err != nil {
		return SyncMetadata{}, false, err
	}
	if m.meta == nil {
		return SyncMetadata{}, false, nil
	}
	return *m.meta, true, nil
}

func (m *Memory) CountPlayers(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(ctx, OpCountPlayers); err != nil {
		return 0, err
	}
	return int64(len(m.players)), nil
}

func (m *Memory) Close() error {
	return nil
}

func sortedRows[T any](rows map[int64]T) []T {
	ids := make([]int64, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, rows[id])
	}
	return out
}
