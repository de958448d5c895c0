package cloudsync

import (
	"github.com/roach88/aads/internal/model"
	"github.com/roach88/aads/internal/remote"
)

// Local rows store flags as 0/1 integers and ids as SQLite integers; the
// model carries them as bools and Go ints. Remote rows widen every id to
// 64 bits and keep native booleans.

func playerToRow(p model.Player) remote.PlayerRow {
	return remote.PlayerRow{
		ID:           p.ID,
		Name:         p.Name,
		Province:     string(p.Province),
		Status:       string(p.Status),
		TotalEvents:  int64(p.TotalEvents),
		TOCQualified: p.TOCQualified,
		CreatedAt:    p.CreatedAt.UTC(),
		UpdatedAt:    p.UpdatedAt.UTC(),
	}
}

func rowToPlayer(r remote.PlayerRow) model.Player {
	return model.Player{
		ID:           r.ID,
		Name:         r.Name,
		Province:     model.Province(r.Province),
		Status:       model.PlayerStatus(r.Status),
		TotalEvents:  int(r.TotalEvents),
		TOCQualified: r.TOCQualified,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func eventToRow(e model.Event) remote.EventRow {
	return remote.EventRow{
		ID:        int64(e.ID),
		Name:      e.Name,
		EventType: string(e.Type),
		EventDate: e.Date,
		WinnerID:  e.WinnerID,
		Status:    string(e.Status),
	}
}

func rowToEvent(r remote.EventRow) model.Event {
	return model.Event{
		ID:       int(r.ID),
		Name:     r.Name,
		Type:     model.EventType(r.EventType),
		Date:     r.EventDate,
		WinnerID: r.WinnerID,
		Status:   model.EventStatus(r.Status),
	}
}

func participationToRow(p model.Participation) remote.ParticipantRow {
	row := remote.ParticipantRow{
		ID:        p.ID,
		EventID:   int64(p.EventID),
		PlayerID:  p.PlayerID,
		IsDebut:   p.IsDebut,
		IsVeteran: p.IsVeteran,
		AddedAt:   p.AddedAt.UTC(),
	}
	if p.Placement != nil {
		placement := int64(*p.Placement)
		row.Placement = &placement
	}
	return row
}

func rowToParticipation(r remote.ParticipantRow) model.Participation {
	p := model.Participation{
		ID:        r.ID,
		EventID:   int(r.EventID),
		PlayerID:  r.PlayerID,
		IsDebut:   r.IsDebut,
		IsVeteran: r.IsVeteran,
		AddedAt:   r.AddedAt.UTC(),
	}
	if r.Placement != nil {
		placement := int(*r.Placement)
		p.Placement = &placement
	}
	return p
}

// toSnapshot converts the three remote row sets into a local snapshot.
func toSnapshot(players []remote.PlayerRow, events []remote.EventRow, participants []remote.ParticipantRow) model.Snapshot {
	snap := model.Snapshot{
		Players:      make([]model.Player, 0, len(players)),
		Events:       make([]model.Event, 0, len(events)),
		Participants: make([]model.Participation, 0, len(participants)),
	}
	for _, r := range players {
		snap.Players = append(snap.Players, rowToPlayer(r))
	}
	for _, r := range events {
		snap.Events = append(snap.Events, rowToEvent(r))
	}
	for _, r := range participants {
		snap.Participants = append(snap.Participants, rowToParticipation(r))
	}
	return snap
}
