package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aads/internal/model"
	"github.com/roach88/aads/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "aads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	def, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "Atlantic Armwrestling Development Series", def.Name)
	assert.Equal(t, 10, def.Capacity)
	require.Len(t, def.Events, 7)

	championships := 0
	for i, ev := range def.Events {
		assert.Equal(t, i+1, ev.ID)
		if ev.Type == "TOC" {
			championships++
		}
		if ev.ID <= 5 {
			assert.Len(t, ev.Roster, 10, "event %d", ev.ID)
			assert.Equal(t, "Completed", ev.Status)
		}
	}
	assert.Equal(t, 1, championships)
	assert.Equal(t, "Active", def.Events[5].Status)
	assert.Equal(t, "Pending", def.Events[6].Status)
	assert.Empty(t, def.Events[6].Roster)
}

func TestApply_DefaultSeries(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	def, err := Default()
	require.NoError(t, err)

	rep, err := Apply(ctx, s, def, ApplyOptions{})
	require.NoError(t, err)

	distinct := map[string]bool{}
	for _, ev := range def.Events {
		for _, e := range ev.Roster {
			distinct[e.Name] = true
		}
	}
	assert.Equal(t, 7, rep.EventsCreated)
	assert.Equal(t, 50, rep.Enrollments)
	assert.Equal(t, len(distinct), rep.PlayersCreated)
	assert.Zero(t, rep.Winners)

	players, err := s.Players(ctx, store.SortByName)
	require.NoError(t, err)
	assert.Len(t, players, len(distinct))

	leger, ok, err := s.Player(ctx, "Micheal Léger")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, leger.TotalEvents)
	assert.Equal(t, model.StatusActive, leger.Status)

	// Event 2's roster marks returning players as veterans.
	roster, err := s.EventRoster(ctx, 2)
	require.NoError(t, err)
	require.Len(t, roster, 10)
	veterans := 0
	for _, r := range roster {
		if r.IsVeteran {
			veterans++
		}
	}
	assert.Equal(t, 6, veterans)
}

func TestApply_Idempotent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	def, err := Default()
	require.NoError(t, err)

	_, err = Apply(ctx, s, def, ApplyOptions{})
	require.NoError(t, err)
	before, err := s.ReadSnapshot(ctx)
	require.NoError(t, err)

	rep, err := Apply(ctx, s, def, ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, Report{}, rep)

	after, err := s.ReadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(before.Players), len(after.Players))
	assert.Equal(t, len(before.Participants), len(after.Participants))
}

func TestApply_EventsOnly(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	def, err := Default()
	require.NoError(t, err)

	rep, err := Apply(ctx, s, def, ApplyOptions{EventsOnly: true})
	require.NoError(t, err)
	assert.Equal(t, Report{EventsCreated: 7}, rep)

	players, err := s.Players(ctx, store.SortByName)
	require.NoError(t, err)
	assert.Empty(t, players)
}

func TestLoad_YAML(t *testing.T) {
	def, err := Load(filepath.Join("testdata", "small_series.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Spring Pulls", def.Name)
	assert.Equal(t, 4, def.Capacity)
	require.Len(t, def.Events, 3)
	require.NotNil(t, def.Events[0].Date)
	assert.Equal(t, "2025-04-12", *def.Events[0].Date)
	assert.Equal(t, "Pending", def.Events[1].Status, "status defaults to Pending")
	assert.Equal(t, "Alice Arsenault", def.Events[0].Winner)
	require.Len(t, def.Prospects, 1)
}

func TestApply_YAMLWithWinner(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	def, err := Load(filepath.Join("testdata", "small_series.yaml"))
	require.NoError(t, err)

	rep, err := Apply(ctx, s, def, ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, Report{EventsCreated: 3, PlayersCreated: 5, Enrollments: 5, Winners: 1}, rep)

	alice, ok, err := s.Player(ctx, "Alice Arsenault")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.StatusWinner, alice.Status)
	assert.True(t, alice.TOCQualified)

	toc, err := s.EventRoster(ctx, 9)
	require.NoError(t, err)
	require.Len(t, toc, 1)
	assert.Equal(t, "Alice Arsenault", toc[0].Name)

	prospects, err := s.Prospects(ctx)
	require.NoError(t, err)
	require.Len(t, prospects, 1)
	assert.Equal(t, "Carol Comeau", prospects[0].Name)

	// Re-applying leaves the winner in place.
	rep, err = Apply(ctx, s, def, ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, Report{}, rep)
}

func TestLoad_CUEFile(t *testing.T) {
	path := writeFile(t, "series.cue", `
capacity: 2
events: [{
	id:   1
	name: "Open"
	type: "Invitational"
	roster: [{name: "Alice", province: "NB"}]
}, {
	id:   2
	name: "Finals"
	type: "TOC"
}]
`)
	def, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Atlantic Armwrestling Development Series", def.Name)
	assert.Equal(t, 2, def.Capacity)
	assert.Empty(t, def.Prospects)
	assert.Len(t, def.ModelEvents(), 2)
	assert.Equal(t, model.EventTOC, def.ModelEvents()[1].Type)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "no championship",
			file: "a.yaml",
			content: `
events:
  - {id: 1, name: Open, type: Invitational}
`,
		},
		{
			name: "unknown province",
			file: "b.yaml",
			content: `
events:
  - id: 1
    name: Open
    type: Invitational
    roster: [{name: Alice, province: QC}]
  - {id: 2, name: Finals, type: TOC}
`,
		},
		{
			name: "unknown field",
			file: "c.yaml",
			content: `
venue: Moncton
events:
  - {id: 2, name: Finals, type: TOC}
`,
		},
		{
			name: "bad status",
			file: "d.yaml",
			content: `
events:
  - {id: 2, name: Finals, type: TOC, status: Cancelled}
`,
		},
		{
			name: "duplicate event id",
			file: "e.yaml",
			content: `
events:
  - {id: 1, name: Open, type: Invitational}
  - {id: 1, name: Finals, type: TOC}
`,
		},
		{
			name: "roster over capacity",
			file: "f.yaml",
			content: `
capacity: 1
events:
  - id: 1
    name: Open
    type: Invitational
    roster: [{name: Alice, province: NB}, {name: Bob, province: NS}]
  - {id: 2, name: Finals, type: TOC}
`,
		},
		{
			name: "unknown winner",
			file: "g.yaml",
			content: `
events:
  - {id: 1, name: Open, type: Invitational, winner: Zed}
  - {id: 2, name: Finals, type: TOC}
`,
		},
		{
			name: "listed championship roster",
			file: "h.yaml",
			content: `
events:
  - id: 2
    name: Finals
    type: TOC
    roster: [{name: Alice, province: NB}]
`,
		},
		{
			name: "entrant listed twice",
			file: "i.yaml",
			content: `
events:
  - id: 1
    name: Open
    type: Invitational
    roster: [{name: Alice, province: NB}, {name: " Alice ", province: NB}]
  - {id: 2, name: Finals, type: TOC}
`,
		},
		{
			name:    "unsupported extension",
			file:    "j.json",
			content: `{}`,
		},
		{
			name:    "malformed yaml",
			file:    "k.yaml",
			content: "events: [",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestLoad_TwoChampionshipsReportsPosition(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "two_championships.cue"))
	require.ErrorIs(t, err, ErrInvalidDefinition)
	assert.Contains(t, err.Error(), "two_championships.cue")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidDefinition)
}
