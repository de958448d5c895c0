package store

import "errors"

// Sentinel errors. Callers match them with errors.Is.
var (
	// ErrInvalidInput is returned for empty names, unknown provinces and
	// similar input that the schema's CHECK constraints would reject.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEventNotFound is returned when a command references an event id
	// that was never initialized.
	ErrEventNotFound = errors.New("event not found")

	// ErrStatusRegression is returned when an event status change would
	// move the event backward (e.g. Completed → Active).
	ErrStatusRegression = errors.New("event status cannot move backward")
)

// Outcome reports what an idempotent insert did.
type Outcome int

const (
	// Inserted means a new row was written.
	Inserted Outcome = iota + 1
	// AlreadyExists means the unique key was already present and nothing
	// was written.
	AlreadyExists
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case AlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome by name so JSON output reads "inserted"
// rather than a number.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// WinnerOutcome reports the result of SetEventWinner.
type WinnerOutcome int

const (
	// WinnerSet means the event had no winner and now has one.
	WinnerSet WinnerOutcome = iota + 1
	// WinnerUnchanged means the same player was already the winner; derived
	// state was re-applied.
	WinnerUnchanged
	// WinnerPlayerNotFound means no player has the given name. Nothing changed.
	WinnerPlayerNotFound
	// WinnerEventNotFound means the event id is unknown. Nothing changed.
	WinnerEventNotFound
	// WinnerConflict means a different player already won the event.
	// Nothing changed.
	WinnerConflict
)

func (o WinnerOutcome) String() string {
	switch o {
	case WinnerSet:
		return "winner_set"
	case WinnerUnchanged:
		return "winner_unchanged"
	case WinnerPlayerNotFound:
		return "player_not_found"
	case WinnerEventNotFound:
		return "event_not_found"
	case WinnerConflict:
		return "winner_conflict"
	default:
		return "unknown"
	}
}

func (o WinnerOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
