package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/aads/internal/model"
)

// Enrollment is the result of AddPlayerToEvent.
type Enrollment struct {
	PlayerID      int64   `json:"player_id"`
	PlayerCreated bool    `json:"player_created"`
	Outcome       Outcome `json:"outcome"`
	IsDebut       bool    `json:"is_debut"`
}

// WinnerResult is the result of SetEventWinner.
type WinnerResult struct {
	Outcome  WinnerOutcome `json:"outcome"`
	PlayerID int64         `json:"player_id,omitempty"`

	// ChampionshipEventID is the TOC event the winner was enrolled in.
	// Zero when the event is itself the TOC or no TOC event exists.
	ChampionshipEventID int `json:"championship_event_id,omitempty"`

	// Qualified is true when this call created the TOC participation row.
	Qualified bool `json:"qualified"`
}

// OK reports whether the winner is recorded after the call.
func (r WinnerResult) OK() bool {
	return r.Outcome == WinnerSet || r.Outcome == WinnerUnchanged
}

// AddPlayer adds a Prospect to the master list.
// If the name already exists the existing id is returned with AlreadyExists.
func (s *Store) AddPlayer(ctx context.Context, name string, province model.Province) (int64, Outcome, error) {
	name, err := validatePlayer(name, province)
	if err != nil {
		return 0, 0, fmt.Errorf("add player: %w", err)
	}

	var (
		id      int64
		outcome Outcome
	)
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		id, outcome, err = insertPlayer(ctx, tx, name, province, s.timestamp())
		return err
	})
	if err != nil {
		return 0, 0, fmt.Errorf("add player: %w", err)
	}

	if outcome == AlreadyExists {
		slog.Info("player already exists", "player", name, "player_id", id)
	}
	return id, outcome, nil
}

// GetOrCreatePlayer returns the id of the named player, creating a Prospect
// when the name is unknown. The province is only used on creation.
func (s *Store) GetOrCreatePlayer(ctx context.Context, name string, province model.Province) (int64, error) {
	name, err := validatePlayer(name, province)
	if err != nil {
		return 0, fmt.Errorf("get or create player: %w", err)
	}

	var id int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		id, _, err = getOrCreatePlayer(ctx, tx, name, province, s.timestamp())
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("get or create player: %w", err)
	}
	return id, nil
}

// AddPlayerToEvent adds a player to an event roster, creating the player if
// needed.
//
// The participation is a debut when the player had no earlier participation
// in any event. Afterward total_events is recomputed and a Prospect becomes
// Active. Adding the same player to the same event twice is a no-op
// reported as AlreadyExists.
//
// Everything happens in one transaction. Returns ErrEventNotFound for an
// unknown event id.
func (s *Store) AddPlayerToEvent(ctx context.Context, eventID int, name string, province model.Province) (Enrollment, error) {
	name, err := validatePlayer(name, province)
	if err != nil {
		return Enrollment{}, fmt.Errorf("add player to event: %w", err)
	}

	var enr Enrollment
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, ok, err := getEvent(ctx, tx, eventID); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
		}

		now := s.timestamp()
		id, created, err := getOrCreatePlayer(ctx, tx, name, province, now)
		if err != nil {
			return err
		}
		enr.PlayerID = id
		enr.PlayerCreated = created

		enr.Outcome, enr.IsDebut, err = enroll(ctx, tx, eventID, id, false, now)
		if err != nil {
			return err
		}
		if enr.Outcome == AlreadyExists {
			return nil
		}

		return refreshPlayer(ctx, tx, id, model.StatusActive, false, now)
	})
	if err != nil {
		return Enrollment{}, fmt.Errorf("add player to event: %w", err)
	}

	if enr.Outcome == AlreadyExists {
		slog.Warn("player is already in event", "player", name, "event_id", eventID)
	} else {
		slog.Debug("player added to event", "player", name, "event_id", eventID, "debut", enr.IsDebut)
	}
	return enr, nil
}

// SetEventWinner records name as the winner of an event.
//
// On success the event becomes Completed, the player becomes a Winner with
// toc_qualified set, and - unless the event is the championship itself - the
// player is enrolled in the championship (TOC) event as a veteran.
//
// Unknown players, unknown events and an already different winner are
// reported through WinnerResult.Outcome and leave every row untouched.
func (s *Store) SetEventWinner(ctx context.Context, eventID int, name string) (WinnerResult, error) {
	name = model.NormalizeName(name)

	var res WinnerResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ev, ok, err := getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if !ok {
			res.Outcome = WinnerEventNotFound
			return nil
		}

		playerID, ok, err := lookupPlayerID(ctx, tx, name)
		if err != nil {
			return err
		}
		if !ok {
			res.Outcome = WinnerPlayerNotFound
			return nil
		}
		res.PlayerID = playerID

		switch {
		case ev.WinnerID == nil:
			res.Outcome = WinnerSet
		case *ev.WinnerID == playerID:
			res.Outcome = WinnerUnchanged
		default:
			res.Outcome = WinnerConflict
			return nil
		}

		now := s.timestamp()
		if _, err := tx.ExecContext(ctx, `
			UPDATE events
			SET winner_id = ?, status = 'Completed'
			WHERE id = ?
		`, playerID, eventID); err != nil {
			return fmt.Errorf("update event: %w", err)
		}

		if !ev.IsChampionship() {
			tocID, ok, err := championshipEventID(ctx, tx)
			if err != nil {
				return err
			}
			if ok {
				outcome, _, err := enroll(ctx, tx, tocID, playerID, true, now)
				if err != nil {
					return err
				}
				res.ChampionshipEventID = tocID
				res.Qualified = outcome == Inserted
			} else {
				slog.Warn("no championship event defined, winner not enrolled", "event_id", eventID)
			}
		}

		return refreshPlayer(ctx, tx, playerID, model.StatusWinner, true, now)
	})
	if err != nil {
		return WinnerResult{}, fmt.Errorf("set event winner: %w", err)
	}

	switch res.Outcome {
	case WinnerPlayerNotFound:
		slog.Warn("winner not found", "player", name, "event_id", eventID)
	case WinnerConflict:
		slog.Warn("event already has a different winner", "player", name, "event_id", eventID)
	case WinnerSet:
		slog.Info("event winner set", "player", name, "event_id", eventID, "toc_event_id", res.ChampionshipEventID)
	}
	return res, nil
}

// InitializeEvents inserts the predefined series events. Events whose id
// already exists are left untouched. Returns the number of events inserted.
func (s *Store) InitializeEvents(ctx context.Context, events []model.Event) (int, error) {
	for _, ev := range events {
		if err := validateEvent(ev); err != nil {
			return 0, fmt.Errorf("initialize events: %w", err)
		}
	}

	inserted := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, ev := range events {
			status := ev.Status
			if status == "" {
				status = model.EventPending
			}
			result, err := tx.ExecContext(ctx, `
				INSERT INTO events (id, name, event_type, event_date, status)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(id) DO NOTHING
			`, ev.ID, ev.Name, string(ev.Type), nullString(ev.Date), string(status))
			if err != nil {
				return fmt.Errorf("insert event %d: %w", ev.ID, err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("initialize events: %w", err)
	}
	return inserted, nil
}

// SetEventStatus moves an event forward to status. Returns false when the
// event already has that status and ErrStatusRegression for a backward move.
func (s *Store) SetEventStatus(ctx context.Context, eventID int, status model.EventStatus) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("set event status: %w: status %q", ErrInvalidInput, status)
	}

	changed := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ev, ok, err := getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
		}
		if status.Rank() < ev.Status.Rank() {
			return fmt.Errorf("%w: %s -> %s", ErrStatusRegression, ev.Status, status)
		}
		if status == ev.Status {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `UPDATE events SET status = ? WHERE id = ?`, string(status), eventID); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("set event status: %w", err)
	}
	return changed, nil
}

// SetEventDate sets or clears (empty date) the event date.
func (s *Store) SetEventDate(ctx context.Context, eventID int, date string) error {
	var value *string
	if date != "" {
		value = &date
	}

	result, err := s.db.ExecContext(ctx, `UPDATE events SET event_date = ? WHERE id = ?`, nullString(value), eventID)
	if err != nil {
		return fmt.Errorf("set event date: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set event date: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("set event date: %w: %d", ErrEventNotFound, eventID)
	}
	return nil
}

// SetPlacement records a final placement for a player in an event.
// Returns false when the player is not on that event's roster.
func (s *Store) SetPlacement(ctx context.Context, eventID int, name string, placement int) (bool, error) {
	if placement <= 0 {
		return false, fmt.Errorf("set placement: %w: placement must be positive", ErrInvalidInput)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE event_participants
		SET placement = ?
		WHERE event_id = ?
		  AND player_id = (SELECT id FROM players WHERE name = ?)
	`, placement, eventID, model.NormalizeName(name))
	if err != nil {
		return false, fmt.Errorf("set placement: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set placement: rows affected: %w", err)
	}
	return n > 0, nil
}

// insertPlayer inserts a Prospect. On a name conflict the existing id is
// returned with AlreadyExists.
func insertPlayer(ctx context.Context, q querier, name string, province model.Province, now time.Time) (int64, Outcome, error) {
	result, err := q.ExecContext(ctx, `
		INSERT INTO players
		(name, province, status, total_events, toc_qualified, created_at, updated_at)
		VALUES (?, ?, 'Prospect', 0, 0, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, string(province), now, now)
	if err != nil {
		return 0, 0, fmt.Errorf("insert player: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("insert player: rows affected: %w", err)
	}
	if n > 0 {
		id, err := result.LastInsertId()
		if err != nil {
			return 0, 0, fmt.Errorf("insert player: last insert id: %w", err)
		}
		return id, Inserted, nil
	}

	id, ok, err := lookupPlayerID(ctx, q, name)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return 0, 0, fmt.Errorf("insert player: conflicting row for %q vanished", name)
	}
	return id, AlreadyExists, nil
}

// getOrCreatePlayer looks the player up by name and inserts it when absent.
func getOrCreatePlayer(ctx context.Context, q querier, name string, province model.Province, now time.Time) (int64, bool, error) {
	id, ok, err := lookupPlayerID(ctx, q, name)
	if err != nil {
		return 0, false, err
	}
	if ok {
		return id, false, nil
	}

	id, outcome, err := insertPlayer(ctx, q, name, province, now)
	if err != nil {
		return 0, false, err
	}
	return id, outcome == Inserted, nil
}

// enroll inserts the (event, player) participation row. The debut flag is
// derived from the player's participation count before the insert, unless
// veteran forces a veteran row.
func enroll(ctx context.Context, q querier, eventID int, playerID int64, veteran bool, now time.Time) (Outcome, bool, error) {
	var prior int
	if err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM event_participants WHERE player_id = ?
	`, playerID).Scan(&prior); err != nil {
		return 0, false, fmt.Errorf("count prior events: %w", err)
	}

	debut := prior == 0 && !veteran
	result, err := q.ExecContext(ctx, `
		INSERT INTO event_participants
		(event_id, player_id, is_debut, is_veteran, added_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(event_id, player_id) DO NOTHING
	`, eventID, playerID, boolInt(debut), boolInt(!debut), now)
	if err != nil {
		return 0, false, fmt.Errorf("insert participation: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("insert participation: rows affected: %w", err)
	}
	if n == 0 {
		return AlreadyExists, false, nil
	}
	return Inserted, debut, nil
}

// refreshPlayer recomputes total_events and moves the status forward to at
// least promote. qualify sets toc_qualified; it is never cleared here.
func refreshPlayer(ctx context.Context, q querier, playerID int64, promote model.PlayerStatus, qualify bool, now time.Time) error {
	var current string
	if err := q.QueryRowContext(ctx, `SELECT status FROM players WHERE id = ?`, playerID).Scan(&current); err != nil {
		return fmt.Errorf("read player status: %w", err)
	}
	next := model.PlayerStatus(current).Advance(promote)

	_, err := q.ExecContext(ctx, `
		UPDATE players
		SET status = ?,
		    total_events = (SELECT COUNT(DISTINCT event_id) FROM event_participants WHERE player_id = ?),
		    toc_qualified = CASE WHEN ? = 1 THEN 1 ELSE toc_qualified END,
		    updated_at = ?
		WHERE id = ?
	`, string(next), playerID, boolInt(qualify), now, playerID)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	return nil
}

// lookupPlayerID returns the id of the named player.
func lookupPlayerID(ctx context.Context, q querier, name string) (int64, bool, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM players WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup player: %w", err)
	}
	return id, true, nil
}

// getEvent loads a single event row.
func getEvent(ctx context.Context, q querier, eventID int) (model.Event, bool, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, event_type, event_date, winner_id, status
		FROM events
		WHERE id = ?
	`, eventID)

	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, false, nil
	}
	if err != nil {
		return model.Event{}, false, err
	}
	return ev, true, nil
}

// championshipEventID returns the id of the single TOC event.
func championshipEventID(ctx context.Context, q querier) (int, bool, error) {
	var id int
	err := q.QueryRowContext(ctx, `SELECT id FROM events WHERE event_type = 'TOC' ORDER BY id LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup championship event: %w", err)
	}
	return id, true, nil
}

func validatePlayer(name string, province model.Province) (string, error) {
	name = model.NormalizeName(name)
	if name == "" {
		return "", fmt.Errorf("%w: player name is empty", ErrInvalidInput)
	}
	if !province.Valid() {
		return "", fmt.Errorf("%w: province %q", ErrInvalidInput, province)
	}
	return name, nil
}

func validateEvent(ev model.Event) error {
	if ev.ID < 1 {
		return fmt.Errorf("%w: event id %d", ErrInvalidInput, ev.ID)
	}
	if ev.Name == "" {
		return fmt.Errorf("%w: event %d has no name", ErrInvalidInput, ev.ID)
	}
	if !ev.Type.Valid() {
		return fmt.Errorf("%w: event %d type %q", ErrInvalidInput, ev.ID, ev.Type)
	}
	if ev.Status != "" && !ev.Status.Valid() {
		return fmt.Errorf("%w: event %d status %q", ErrInvalidInput, ev.ID, ev.Status)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
