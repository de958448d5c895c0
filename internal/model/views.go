package model

// RosterEntry is one line of an event roster.
type RosterEntry struct {
	PlayerID    int64        `json:"player_id"`
	Name        string       `json:"name"`
	Province    Province     `json:"province"`
	Status      PlayerStatus `json:"status"`
	TotalEvents int          `json:"total_events"`
	IsDebut     bool         `json:"is_debut"`
	IsVeteran   bool         `json:"is_veteran"`
	Placement   *int         `json:"placement,omitempty"`
}

// EventSummary describes an event with its derived participant count and
// the winner's name.
type EventSummary struct {
	ID               int         `json:"id"`
	Name             string      `json:"name"`
	Type             EventType   `json:"event_type"`
	Status           EventStatus `json:"status"`
	Date             *string     `json:"event_date,omitempty"`
	WinnerName       *string     `json:"winner_name,omitempty"`
	ParticipantCount int         `json:"participant_count"`
}

// HistoryEntry is one event in a player's history.
type HistoryEntry struct {
	EventID   int    `json:"event_id"`
	EventName string `json:"event_name"`
	IsDebut   bool   `json:"is_debut"`
	Won       bool   `json:"won"`
}

// PlayerHistory is a player profile plus every event attended, ordered by
// event id.
type PlayerHistory struct {
	Player
	Events []HistoryEntry `json:"events"`
}
