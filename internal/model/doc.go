// Package model defines the domain types of the AADS series tracker.
//
// The series has three entities:
//   - Player: a competitor, unique by name, created as a Prospect
//   - Event: one of a fixed, predefined set of events; exactly one is the
//     Tournament of Champions (TOC)
//   - Participation: the (event, player) join row with debut/veteran flags
//
// # Lifecycle Rules
//
// Player status only moves forward (see PlayerStatus.Rank). The TOC flag
// flips false→true and never back. Event status moves Pending → Active →
// Completed and a winner assignment forces Completed.
//
// Exactly one of Participation.IsDebut and Participation.IsVeteran is true.
package model
