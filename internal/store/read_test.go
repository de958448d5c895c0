package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aads/internal/model"
)

// seedQueryFixture builds a small series:
//
//	event 1: Alice(NB), Bob(NS), Dana(PEI)   winner Alice
//	event 2: Bob(NS), Erin(NB)
//	prospects: Carol(NS), Frank(NB)
func seedQueryFixture(t *testing.T) *Store {
	t.Helper()
	s := createSeededStore(t)
	ctx := context.Background()

	roster := []struct {
		event    int
		name     string
		province model.Province
	}{
		{1, "Alice", model.ProvinceNB},
		{1, "Bob", model.ProvinceNS},
		{1, "Dana", model.ProvincePEI},
		{2, "Bob", model.ProvinceNS},
		{2, "Erin", model.ProvinceNB},
	}
	for _, r := range roster {
		_, err := s.AddPlayerToEvent(ctx, r.event, r.name, r.province)
		require.NoError(t, err)
	}
	for _, p := range []struct {
		name     string
		province model.Province
	}{{"Carol", model.ProvinceNS}, {"Frank", model.ProvinceNB}} {
		_, _, err := s.AddPlayer(ctx, p.name, p.province)
		require.NoError(t, err)
	}

	res, err := s.SetEventWinner(ctx, 1, "Alice")
	require.NoError(t, err)
	require.True(t, res.OK())
	return s
}

func playerNames(players []model.Player) []string {
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	return names
}

func TestPlayers_EmptyStore(t *testing.T) {
	s := createTestStore(t)

	players, err := s.Players(context.Background(), SortByName)
	require.NoError(t, err)
	assert.NotNil(t, players)
	assert.Empty(t, players)
}

func TestPlayers_Sorting(t *testing.T) {
	s := seedQueryFixture(t)
	ctx := context.Background()

	tests := []struct {
		sort PlayerSort
		want []string
	}{
		{SortByName, []string{"Alice", "Bob", "Carol", "Dana", "Erin", "Frank"}},
		{SortByProvince, []string{"Alice", "Erin", "Frank", "Bob", "Carol", "Dana"}},
		{SortByParticipation, []string{"Alice", "Bob", "Dana", "Erin", "Carol", "Frank"}},
		{SortByStatus, []string{"Bob", "Dana", "Erin", "Carol", "Frank", "Alice"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			players, err := s.Players(ctx, tt.sort)
			require.NoError(t, err)
			assert.Equal(t, tt.want, playerNames(players))
		})
	}
}

func TestParsePlayerSort(t *testing.T) {
	sort, err := ParsePlayerSort("")
	require.NoError(t, err)
	assert.Equal(t, SortByName, sort)

	sort, err = ParsePlayerSort("participation")
	require.NoError(t, err)
	assert.Equal(t, SortByParticipation, sort)

	_, err = ParsePlayerSort("name; DROP TABLE players")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPlayersByProvince(t *testing.T) {
	s := seedQueryFixture(t)

	players, err := s.PlayersByProvince(context.Background(), model.ProvinceNB)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Erin", "Frank"}, playerNames(players))
}

func TestInviteCandidates(t *testing.T) {
	s := seedQueryFixture(t)

	// Absent from event 2 with at least one event: Alice (2 events, NB) and
	// Dana (1 event, PEI). Prospects are never candidates.
	players, err := s.InviteCandidates(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Dana"}, playerNames(players))
}

func TestInviteCandidates_OrderedByParticipationWithinProvince(t *testing.T) {
	s := seedQueryFixture(t)
	ctx := context.Background()

	_, err := s.AddPlayerToEvent(ctx, 3, "Zed", model.ProvinceNB)
	require.NoError(t, err)

	// Alice is already in the TOC. Ties inside a province fall back to name.
	players, err := s.InviteCandidates(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"Erin", "Zed", "Bob", "Dana"}, playerNames(players))
}

func TestProspects(t *testing.T) {
	s := seedQueryFixture(t)

	players, err := s.Prospects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Frank", "Carol"}, playerNames(players))
	for _, p := range players {
		assert.Equal(t, model.StatusProspect, p.Status)
		assert.Zero(t, p.TotalEvents)
	}
}

func TestPlayer_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, ok, err := s.Player(context.Background(), "Nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEventRoster_OrderedByName(t *testing.T) {
	s := seedQueryFixture(t)

	roster, err := s.EventRoster(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, roster, 3)
	assert.Equal(t, "Alice", roster[0].Name)
	assert.Equal(t, "Bob", roster[1].Name)
	assert.Equal(t, "Dana", roster[2].Name)
	assert.Equal(t, model.StatusWinner, roster[0].Status)
}

func TestEventRoster_UnknownEvent(t *testing.T) {
	s := seedQueryFixture(t)

	roster, err := s.EventRoster(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, roster)
}

func TestEventDetails(t *testing.T) {
	s := seedQueryFixture(t)
	ctx := context.Background()

	ev, ok, err := s.EventDetails(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Invitational 1", ev.Name)
	assert.Equal(t, model.EventInvitational, ev.Type)
	assert.Equal(t, 3, ev.ParticipantCount)
	require.NotNil(t, ev.WinnerName)
	assert.Equal(t, "Alice", *ev.WinnerName)

	ev, ok, err = s.EventDetails(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, ev.WinnerName)
	assert.Equal(t, model.EventPending, ev.Status)

	_, ok, err = s.EventDetails(ctx, 99)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEventsSummary(t *testing.T) {
	s := seedQueryFixture(t)

	events, err := s.EventsSummary(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 4)

	counts := map[int]int{}
	for _, e := range events {
		counts[e.ID] = e.ParticipantCount
	}
	assert.Equal(t, map[int]int{1: 3, 2: 2, 3: 0, 7: 1}, counts)
	assert.Equal(t, []int{1, 2, 3, 7}, []int{events[0].ID, events[1].ID, events[2].ID, events[3].ID})
}

func TestPlayerHistory(t *testing.T) {
	s := seedQueryFixture(t)

	h, ok, err := s.PlayerHistory(context.Background(), "Alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Alice", h.Name)
	assert.Equal(t, 2, h.TotalEvents)
	assert.Equal(t, []model.HistoryEntry{
		{EventID: 1, EventName: "Invitational 1", IsDebut: true, Won: true},
		{EventID: 7, EventName: "Tournament of Champions", IsDebut: false, Won: false},
	}, h.Events)
}

func TestPlayerHistory_Prospect(t *testing.T) {
	s := seedQueryFixture(t)

	h, ok, err := s.PlayerHistory(context.Background(), "Carol")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, h.Events)
	assert.Empty(t, h.Events)
}

func TestPlayerHistory_Unknown(t *testing.T) {
	s := seedQueryFixture(t)

	_, ok, err := s.PlayerHistory(context.Background(), "Nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChampionshipEventID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, ok, err := s.ChampionshipEventID(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.InitializeEvents(ctx, testEvents())
	require.NoError(t, err)

	id, ok, err := s.ChampionshipEventID(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, id)
}
