// Package store provides the SQLite-backed Domain Store for the AADS series.
//
// The store owns three tables:
//   - players: master scouting list, unique by name
//   - events: the predefined series events, exactly one of type TOC
//   - event_participants: one row per (event, player) pair
//
// # Derived State
//
// Joining an event and winning an event update derived player state:
//   - total_events is always COUNT(DISTINCT event_id) over the player's rows
//   - status only moves forward (Prospect → Active → Winner)
//   - toc_qualified flips to true once and stays true
//   - every winner of a non-championship event is enrolled in the
//     championship (TOC) event
//
// Each command that touches more than one row runs inside a single scoped
// transaction (withTx), so a partially applied command is never visible.
//
// # Result Variants
//
// Duplicate inserts are not errors. Commands report Inserted or
// AlreadyExists through Outcome, and winner assignment reports a
// WinnerOutcome. Errors are reserved for I/O and invalid input.
//
// # Database Configuration
//
//   - WAL mode
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
//   - one pooled connection (single local writer)
package store
