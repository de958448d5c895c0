package model

import "time"

// Player is a competitor in the series.
type Player struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Province     Province     `json:"province"`
	Status       PlayerStatus `json:"status"`
	TotalEvents  int          `json:"total_events"`
	TOCQualified bool         `json:"toc_qualified"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Event is one of the predefined series events.
type Event struct {
	ID       int         `json:"id"`
	Name     string      `json:"name"`
	Type     EventType   `json:"event_type"`
	Date     *string     `json:"event_date,omitempty"`
	WinnerID *int64      `json:"winner_id,omitempty"`
	Status   EventStatus `json:"status"`
}

// IsChampionship reports whether e is the Tournament of Champions.
func (e Event) IsChampionship() bool {
	return e.Type == EventTOC
}

// Participation links a player to an event.
type Participation struct {
	ID        int64     `json:"id"`
	EventID   int       `json:"event_id"`
	PlayerID  int64     `json:"player_id"`
	IsDebut   bool      `json:"is_debut"`
	IsVeteran bool      `json:"is_veteran"`
	Placement *int      `json:"placement,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

// Snapshot is the complete content of the three series tables.
// Rows are ordered by primary key.
type Snapshot struct {
	Players      []Player        `json:"players"`
	Events       []Event         `json:"events"`
	Participants []Participation `json:"participants"`
}
