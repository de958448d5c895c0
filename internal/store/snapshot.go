package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/aads/internal/model"
)

// ImportStats counts the rows written by ImportSnapshot.
type ImportStats struct {
	Players      int `json:"players"`
	Events       int `json:"events"`
	Participants int `json:"participants"`
}

// ReadSnapshot returns every row of the three series tables ordered by
// primary key. Used as the source of a push.
func (s *Store) ReadSnapshot(ctx context.Context) (model.Snapshot, error) {
	players, err := s.queryPlayers(ctx, `SELECT `+playerColumns+` FROM players ORDER BY id`)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	events, err := s.readAllEvents(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	participants, err := s.readAllParticipants(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	return model.Snapshot{
		Players:      players,
		Events:       events,
		Participants: participants,
	}, nil
}

// ImportSnapshot upserts every row of snap by primary key, in dependency
// order players → events → participants, inside one transaction.
//
// Rows sharing a primary key with a local row overwrite it entirely. Local
// rows absent from snap are kept, and total_events is recomputed afterward
// so it still counts them. If any row fails (for example a name that
// belongs to a different local id), nothing is written.
func (s *Store) ImportSnapshot(ctx context.Context, snap model.Snapshot) (ImportStats, error) {
	var stats ImportStats
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, p := range snap.Players {
			if err := upsertPlayer(ctx, tx, p); err != nil {
				return err
			}
			stats.Players++
		}
		for _, ev := range snap.Events {
			if err := upsertEvent(ctx, tx, ev); err != nil {
				return err
			}
			stats.Events++
		}
		for _, ep := range snap.Participants {
			if err := upsertParticipation(ctx, tx, ep); err != nil {
				return err
			}
			stats.Participants++
		}
		return recountEvents(ctx, tx)
	})
	if err != nil {
		return ImportStats{}, fmt.Errorf("import snapshot: %w", err)
	}
	return stats, nil
}

// recountEvents recomputes total_events for every player. Imported player
// rows carry the remote count, which misses participations that exist only
// locally. A Prospect who now has events becomes Active.
func recountEvents(ctx context.Context, q querier) error {
	_, err := q.ExecContext(ctx, `
		UPDATE players
		SET total_events = (
			SELECT COUNT(DISTINCT event_id) FROM event_participants WHERE player_id = players.id
		)
	`)
	if err != nil {
		return fmt.Errorf("recount events: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		UPDATE players
		SET status = ?
		WHERE status = ? AND total_events > 0
	`, string(model.StatusActive), string(model.StatusProspect))
	if err != nil {
		return fmt.Errorf("promote prospects: %w", err)
	}
	return nil
}

func upsertPlayer(ctx context.Context, q querier, p model.Player) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO players
		(id, name, province, status, total_events, toc_qualified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			province = excluded.province,
			status = excluded.status,
			total_events = excluded.total_events,
			toc_qualified = excluded.toc_qualified,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, p.ID, p.Name, string(p.Province), string(p.Status), p.TotalEvents,
		boolInt(p.TOCQualified), p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert player %d: %w", p.ID, err)
	}
	return nil
}

func upsertEvent(ctx context.Context, q querier, ev model.Event) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO events
		(id, name, event_type, event_date, winner_id, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			event_type = excluded.event_type,
			event_date = excluded.event_date,
			winner_id = excluded.winner_id,
			status = excluded.status
	`, ev.ID, ev.Name, string(ev.Type), nullString(ev.Date), nullInt64(ev.WinnerID), string(ev.Status))
	if err != nil {
		return fmt.Errorf("upsert event %d: %w", ev.ID, err)
	}
	return nil
}

func upsertParticipation(ctx context.Context, q querier, ep model.Participation) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO event_participants
		(id, event_id, player_id, is_debut, is_veteran, placement, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			event_id = excluded.event_id,
			player_id = excluded.player_id,
			is_debut = excluded.is_debut,
			is_veteran = excluded.is_veteran,
			placement = excluded.placement,
			added_at = excluded.added_at
	`, ep.ID, ep.EventID, ep.PlayerID, boolInt(ep.IsDebut), boolInt(ep.IsVeteran),
		nullInt(ep.Placement), ep.AddedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert participation %d: %w", ep.ID, err)
	}
	return nil
}

func (s *Store) readAllEvents(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, event_type, event_date, winner_id, status
		FROM events
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func (s *Store) readAllParticipants(ctx context.Context) ([]model.Participation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, player_id, is_debut, is_veteran, placement, added_at
		FROM event_participants
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	participants := []model.Participation{}
	for rows.Next() {
		var (
			ep        model.Participation
			placement sql.NullInt64
		)
		if err := rows.Scan(&ep.ID, &ep.EventID, &ep.PlayerID, &ep.IsDebut, &ep.IsVeteran, &placement, &ep.AddedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		ep.Placement = intPtr(placement)
		ep.AddedAt = ep.AddedAt.UTC()
		participants = append(participants, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return participants, nil
}
