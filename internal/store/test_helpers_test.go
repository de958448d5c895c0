package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/aads/internal/model"
	"github.com/roach88/aads/internal/testutil"
)

// createTestStore creates a fresh store in a temp dir with a stepping clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	clock := testutil.NewSteppingClock(testutil.Epoch, time.Second)
	s, err := Open(path, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testEvents mirrors the shape of the real series: invitationals then a TOC.
func testEvents() []model.Event {
	return []model.Event{
		{ID: 1, Name: "Invitational 1", Type: model.EventInvitational},
		{ID: 2, Name: "Invitational 2", Type: model.EventInvitational},
		{ID: 3, Name: "Invitational 3", Type: model.EventInvitational},
		{ID: 7, Name: "Tournament of Champions", Type: model.EventTOC},
	}
}

// createSeededStore returns a store holding testEvents.
func createSeededStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	n, err := s.InitializeEvents(context.Background(), testEvents())
	require.NoError(t, err)
	require.Equal(t, len(testEvents()), n)
	return s
}

// mustPlayer loads a player by name or fails the test.
func mustPlayer(t *testing.T, s *Store, name string) model.Player {
	t.Helper()
	p, ok, err := s.Player(context.Background(), name)
	require.NoError(t, err)
	require.True(t, ok, "player %q not found", name)
	return p
}

// participationCount counts the rows of a player across all events.
func participationCount(t *testing.T, s *Store, playerID int64) int {
	t.Helper()
	var n int
	err := s.db.QueryRow(`SELECT COUNT(DISTINCT event_id) FROM event_participants WHERE player_id = ?`, playerID).Scan(&n)
	require.NoError(t, err)
	return n
}

func rowCount(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
