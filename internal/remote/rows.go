package remote

import "time"

// Table names shared by every driver.
const (
	TablePlayers      = "players"
	TableEvents       = "events"
	TableParticipants = "event_participants"
	TableSyncMetadata = "sync_metadata"
)

// SyncMetadataID is the primary key of the singleton sync_metadata row.
const SyncMetadataID = 1

// PlayerRow is a players row in the remote schema. Flags are booleans and
// ids are 64-bit.
type PlayerRow struct {
	ID           int64     `json:"id" gorm:"column:id;primaryKey;autoIncrement:false"`
	Name         string    `json:"name" gorm:"column:name"`
	Province     string    `json:"province" gorm:"column:province"`
	Status       string    `json:"status" gorm:"column:status"`
	TotalEvents  int64     `json:"total_events" gorm:"column:total_events"`
	TOCQualified bool      `json:"toc_qualified" gorm:"column:toc_qualified"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:false"`
}

func (PlayerRow) TableName() string { return TablePlayers }

// EventRow is an events row in the remote schema.
type EventRow struct {
	ID        int64   `json:"id" gorm:"column:id;primaryKey;autoIncrement:false"`
	Name      string  `json:"name" gorm:"column:name"`
	EventType string  `json:"event_type" gorm:"column:event_type"`
	EventDate *string `json:"event_date" gorm:"column:event_date"`
	WinnerID  *int64  `json:"winner_id" gorm:"column:winner_id"`
	Status    string  `json:"status" gorm:"column:status"`
}

func (EventRow) TableName() string { return TableEvents }

// ParticipantRow is an event_participants row in the remote schema.
type ParticipantRow struct {
	ID        int64     `json:"id" gorm:"column:id;primaryKey;autoIncrement:false"`
	EventID   int64     `json:"event_id" gorm:"column:event_id"`
	PlayerID  int64     `json:"player_id" gorm:"column:player_id"`
	IsDebut   bool      `json:"is_debut" gorm:"column:is_debut"`
	IsVeteran bool      `json:"is_veteran" gorm:"column:is_veteran"`
	Placement *int64    `json:"placement" gorm:"column:placement"`
	AddedAt   time.Time `json:"added_at" gorm:"column:added_at"`
}

func (ParticipantRow) TableName() string { return TableParticipants }

// SyncMetadata is the singleton row recording the last successful push.
type SyncMetadata struct {
	ID           int64      `json:"id" gorm:"column:id;primaryKey;autoIncrement:false"`
	LastSync     *time.Time `json:"last_sync" gorm:"column:last_sync"`
	LocalChanges int64      `json:"local_changes" gorm:"column:local_changes"`
}

func (SyncMetadata) TableName() string { return TableSyncMetadata }
