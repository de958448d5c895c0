package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/aads/internal/model"
)

// PlayerSort selects the ordering of Players.
type PlayerSort string

const (
	SortByName          PlayerSort = "name"
	SortByProvince      PlayerSort = "province"
	SortByParticipation PlayerSort = "participation"
	SortByStatus        PlayerSort = "status"
)

// playerOrder maps each sort to a fixed ORDER BY clause. Only these literals
// are ever interpolated into SQL.
var playerOrder = map[PlayerSort]string{
	SortByName:          "name",
	SortByProvince:      "province, name",
	SortByParticipation: "total_events DESC, name",
	SortByStatus:        "status, name",
}

// ParsePlayerSort validates a sort key. Empty selects SortByName.
func ParsePlayerSort(s string) (PlayerSort, error) {
	if s == "" {
		return SortByName, nil
	}
	if _, ok := playerOrder[PlayerSort(s)]; !ok {
		return "", fmt.Errorf("%w: sort %q must be name, province, participation or status", ErrInvalidInput, s)
	}
	return PlayerSort(s), nil
}

const playerColumns = `id, name, province, status, total_events, toc_qualified, created_at, updated_at`

// Players returns the master list in the requested order.
// Returns an empty slice (not nil) when there are no players.
func (s *Store) Players(ctx context.Context, sortBy PlayerSort) ([]model.Player, error) {
	order, ok := playerOrder[sortBy]
	if !ok {
		order = playerOrder[SortByName]
	}
	return s.queryPlayers(ctx, `SELECT `+playerColumns+` FROM players ORDER BY `+order)
}

// PlayersByProvince returns the players of one province ordered by name.
func (s *Store) PlayersByProvince(ctx context.Context, province model.Province) ([]model.Player, error) {
	return s.queryPlayers(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE province = ?
		ORDER BY name
	`, string(province))
}

// InviteCandidates returns players who did not take part in eventID but have
// competed at least once, ordered by province then most events first.
func (s *Store) InviteCandidates(ctx context.Context, eventID int) ([]model.Player, error) {
	return s.queryPlayers(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE id NOT IN (
			SELECT player_id FROM event_participants WHERE event_id = ?
		)
		AND total_events > 0
		ORDER BY province, total_events DESC, name
	`, eventID)
}

// Prospects returns players who have never competed, by province then name.
func (s *Store) Prospects(ctx context.Context) ([]model.Player, error) {
	return s.queryPlayers(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE total_events = 0
		ORDER BY province, name
	`)
}

// Player returns a single player by name.
func (s *Store) Player(ctx context.Context, name string) (model.Player, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE name = ?
	`, model.NormalizeName(name))

	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Player{}, false, nil
	}
	if err != nil {
		return model.Player{}, false, err
	}
	return p, true, nil
}

// EventRoster returns the participants of an event ordered by player name.
func (s *Store) EventRoster(ctx context.Context, eventID int) ([]model.RosterEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.province, p.status, p.total_events,
		       ep.is_debut, ep.is_veteran, ep.placement
		FROM event_participants ep
		JOIN players p ON ep.player_id = p.id
		WHERE ep.event_id = ?
		ORDER BY p.name
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	roster := []model.RosterEntry{}
	for rows.Next() {
		var (
			e         model.RosterEntry
			province  string
			status    string
			placement sql.NullInt64
		)
		if err := rows.Scan(&e.PlayerID, &e.Name, &province, &status, &e.TotalEvents,
			&e.IsDebut, &e.IsVeteran, &placement); err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		e.Province = model.Province(province)
		e.Status = model.PlayerStatus(status)
		e.Placement = intPtr(placement)
		roster = append(roster, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster: %w", err)
	}
	return roster, nil
}

const eventSummaryQuery = `
	SELECT e.id, e.name, e.event_type, e.status, e.event_date, p.name,
	       (SELECT COUNT(*) FROM event_participants WHERE event_id = e.id)
	FROM events e
	LEFT JOIN players p ON e.winner_id = p.id
`

// EventDetails returns one event with its participant count and winner name.
func (s *Store) EventDetails(ctx context.Context, eventID int) (model.EventSummary, bool, error) {
	row := s.db.QueryRowContext(ctx, eventSummaryQuery+` WHERE e.id = ?`, eventID)
	summary, err := scanEventSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.EventSummary{}, false, nil
	}
	if err != nil {
		return model.EventSummary{}, false, err
	}
	return summary, true, nil
}

// EventsSummary returns every event ordered by id.
func (s *Store) EventsSummary(ctx context.Context) ([]model.EventSummary, error) {
	rows, err := s.db.QueryContext(ctx, eventSummaryQuery+` ORDER BY e.id`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []model.EventSummary{}
	for rows.Next() {
		summary, err := scanEventSummary(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// PlayerHistory returns a player's profile and every event attended,
// ordered by event id. The bool is false when the name is unknown.
func (s *Store) PlayerHistory(ctx context.Context, name string) (model.PlayerHistory, bool, error) {
	player, ok, err := s.Player(ctx, name)
	if err != nil || !ok {
		return model.PlayerHistory{}, ok, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.name, ep.is_debut, COALESCE(e.winner_id = ep.player_id, 0)
		FROM event_participants ep
		JOIN events e ON ep.event_id = e.id
		WHERE ep.player_id = ?
		ORDER BY e.id
	`, player.ID)
	if err != nil {
		return model.PlayerHistory{}, false, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	history := model.PlayerHistory{Player: player, Events: []model.HistoryEntry{}}
	for rows.Next() {
		var h model.HistoryEntry
		if err := rows.Scan(&h.EventID, &h.EventName, &h.IsDebut, &h.Won); err != nil {
			return model.PlayerHistory{}, false, fmt.Errorf("scan history: %w", err)
		}
		history.Events = append(history.Events, h)
	}
	if err := rows.Err(); err != nil {
		return model.PlayerHistory{}, false, fmt.Errorf("iterate history: %w", err)
	}
	return history, true, nil
}

// ChampionshipEventID returns the id of the TOC event.
func (s *Store) ChampionshipEventID(ctx context.Context) (int, bool, error) {
	return championshipEventID(ctx, s.db)
}

func (s *Store) queryPlayers(ctx context.Context, query string, args ...any) ([]model.Player, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	players := []model.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row scanner) (model.Player, error) {
	var (
		p         model.Player
		province  string
		status    string
		qualified bool
		created   time.Time
		updated   time.Time
	)
	if err := row.Scan(&p.ID, &p.Name, &province, &status, &p.TotalEvents, &qualified, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Player{}, err
		}
		return model.Player{}, fmt.Errorf("scan player: %w", err)
	}
	p.Province = model.Province(province)
	p.Status = model.PlayerStatus(status)
	p.TOCQualified = qualified
	p.CreatedAt = created.UTC()
	p.UpdatedAt = updated.UTC()
	return p, nil
}

func scanEvent(row scanner) (model.Event, error) {
	var (
		ev        model.Event
		eventType string
		status    string
		date      sql.NullString
		winner    sql.NullInt64
	)
	if err := row.Scan(&ev.ID, &ev.Name, &eventType, &date, &winner, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, err
		}
		return model.Event{}, fmt.Errorf("scan event: %w", err)
	}
	ev.Type = model.EventType(eventType)
	ev.Status = model.EventStatus(status)
	ev.Date = stringPtr(date)
	ev.WinnerID = int64Ptr(winner)
	return ev, nil
}

func scanEventSummary(row scanner) (model.EventSummary, error) {
	var (
		e         model.EventSummary
		eventType string
		status    string
		date      sql.NullString
		winner    sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Name, &eventType, &status, &date, &winner, &e.ParticipantCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.EventSummary{}, err
		}
		return model.EventSummary{}, fmt.Errorf("scan event summary: %w", err)
	}
	e.Type = model.EventType(eventType)
	e.Status = model.EventStatus(status)
	e.Date = stringPtr(date)
	e.WinnerName = stringPtr(winner)
	return e, nil
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
