// Package seed loads series definitions and applies them to the store.
//
// A definition lists the series events, their rosters and winners, and
// prospects that have not yet competed. It is written in CUE or YAML and
// validated against an embedded CUE schema before anything touches the
// database.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/aads/internal/model"
	"github.com/roach88/aads/internal/store"
)

//go:embed schema.cue
var schemaSource string

//go:embed default_series.cue
var defaultSource []byte

// ErrInvalidDefinition is returned when a definition fails validation.
var ErrInvalidDefinition = errors.New("invalid series definition")

// Definition is a validated series definition.
type Definition struct {
	Name      string     `json:"name"`
	Capacity  int        `json:"capacity"`
	Events    []EventDef `json:"events"`
	Prospects []Entrant  `json:"prospects"`
}

// EventDef is one event with its roster and optional winner.
type EventDef struct {
	ID     int       `json:"id"`
	Name   string    `json:"name"`
	Type   string    `json:"type"`
	Date   *string   `json:"date,omitempty"`
	Status string    `json:"status"`
	Roster []Entrant `json:"roster"`
	Winner string    `json:"winner,omitempty"`
}

// Entrant names a player and their province.
type Entrant struct {
	Name     string `json:"name"`
	Province string `json:"province"`
}

// ModelEvents converts the definition events to model events.
func (d Definition) ModelEvents() []model.Event {
	events := make([]model.Event, 0, len(d.Events))
	for _, ev := range d.Events {
		events = append(events, model.Event{
			ID:     ev.ID,
			Name:   ev.Name,
			Type:   model.EventType(ev.Type),
			Date:   ev.Date,
			Status: model.EventStatus(ev.Status),
		})
	}
	return events
}

// ValidationError carries the source position of a schema violation.
type ValidationError struct {
	Source  string
	Line    int
	Column  int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Source, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDefinition
}

// Default returns the embedded definition of the original series.
func Default() (Definition, error) {
	return Parse("default_series.cue", defaultSource)
}

// Load reads a definition file. The format is chosen by extension:
// .cue, .yaml or .yml.
func Load(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read series definition: %w", err)
	}
	return Parse(path, data)
}

// Parse validates data as a definition. name selects the format by its
// extension and appears in error messages.
func Parse(name string, data []byte) (Definition, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Definition{}, fmt.Errorf("compile series schema: %w", err)
	}
	series := schema.LookupPath(cue.ParsePath("#Series"))

	var value cue.Value
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".cue":
		value = ctx.CompileBytes(data, cue.Filename(name))
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Definition{}, fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, name, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
		value = ctx.Encode(plainDates(doc))
	default:
		return Definition{}, fmt.Errorf("%w: %s: unsupported extension %q (want .cue, .yaml or .yml)", ErrInvalidDefinition, name, ext)
	}
	if err := value.Err(); err != nil {
		return Definition{}, validationError(name, err)
	}

	unified := series.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Definition{}, validationError(name, err)
	}

	var def Definition
	if err := unified.Decode(&def); err != nil {
		return Definition{}, fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, name, err)
	}
	if err := def.check(); err != nil {
		return Definition{}, fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, name, err)
	}
	return def, nil
}

// plainDates turns YAML timestamps such as an unquoted 2025-03-01 back into
// date strings.
func plainDates(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, item := range v {
			v[k] = plainDates(item)
		}
	case []any:
		for i, item := range v {
			v[i] = plainDates(item)
		}
	case time.Time:
		return v.Format(time.DateOnly)
	}
	return v
}

// validationError extracts the first positioned CUE error.
func validationError(source string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, source, err)
	}
	first := errs[0]
	verr := &ValidationError{Source: source, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 && positions[0].IsValid() {
		verr.Line = positions[0].Line()
		verr.Column = positions[0].Column()
	}
	return verr
}

// check enforces the rules the schema cannot express: unique event ids,
// roster capacity, no duplicate entrants and winners that are defined
// players.
func (d Definition) check() error {
	known := map[string]bool{}
	for _, p := range d.Prospects {
		known[model.NormalizeName(p.Name)] = true
	}

	ids := map[int]bool{}
	for _, ev := range d.Events {
		if ids[ev.ID] {
			return fmt.Errorf("event id %d defined twice", ev.ID)
		}
		ids[ev.ID] = true

		if ev.Type == string(model.EventTOC) && len(ev.Roster) > 0 {
			return fmt.Errorf("event %d: the championship roster is filled by winners, not listed", ev.ID)
		}
		if len(ev.Roster) > d.Capacity {
			return fmt.Errorf("event %d: roster has %d players, capacity is %d", ev.ID, len(ev.Roster), d.Capacity)
		}

		seen := map[string]bool{}
		for _, e := range ev.Roster {
			name := model.NormalizeName(e.Name)
			if seen[name] {
				return fmt.Errorf("event %d: %s listed twice", ev.ID, name)
			}
			seen[name] = true
			known[name] = true
		}
	}

	for _, ev := range d.Events {
		if ev.Winner != "" && !known[model.NormalizeName(ev.Winner)] {
			return fmt.Errorf("event %d: winner %q is not on any roster or prospect list", ev.ID, ev.Winner)
		}
	}
	return nil
}

// Target is the store surface Apply writes through. *store.Store
// implements it.
type Target interface {
	InitializeEvents(ctx context.Context, events []model.Event) (int, error)
	AddPlayer(ctx context.Context, name string, province model.Province) (int64, store.Outcome, error)
	AddPlayerToEvent(ctx context.Context, eventID int, name string, province model.Province) (store.Enrollment, error)
	SetEventWinner(ctx context.Context, eventID int, name string) (store.WinnerResult, error)
}

// Report counts what Apply changed. Re-applying a definition reports only
// the rows that were missing.
type Report struct {
	EventsCreated  int `json:"events_created"`
	PlayersCreated int `json:"players_created"`
	Enrollments    int `json:"enrollments"`
	Winners        int `json:"winners"`
}

// ApplyOptions selects which parts of a definition Apply loads.
type ApplyOptions struct {
	// EventsOnly skips rosters, winners and prospects.
	EventsOnly bool
}

// Apply loads def through the store's own commands: events first, then
// prospects, then each roster in event order, then winners. Every step is
// idempotent, so applying the same definition twice changes nothing.
func Apply(ctx context.Context, t Target, def Definition, opts ApplyOptions) (Report, error) {
	var rep Report

	n, err := t.InitializeEvents(ctx, def.ModelEvents())
	if err != nil {
		return rep, err
	}
	rep.EventsCreated = n
	if opts.EventsOnly {
		return rep, nil
	}

	for _, p := range def.Prospects {
		_, outcome, err := t.AddPlayer(ctx, p.Name, model.Province(p.Province))
		if err != nil {
			return rep, fmt.Errorf("prospect %s: %w", p.Name, err)
		}
		if outcome == store.Inserted {
			rep.PlayersCreated++
		}
	}

	for _, ev := range def.Events {
		for _, e := range ev.Roster {
			enr, err := t.AddPlayerToEvent(ctx, ev.ID, e.Name, model.Province(e.Province))
			if err != nil {
				return rep, fmt.Errorf("event %d roster: %w", ev.ID, err)
			}
			if enr.PlayerCreated {
				rep.PlayersCreated++
			}
			if enr.Outcome == store.Inserted {
				rep.Enrollments++
			}
		}
	}

	for _, ev := range def.Events {
		if ev.Winner == "" {
			continue
		}
		res, err := t.SetEventWinner(ctx, ev.ID, ev.Winner)
		if err != nil {
			return rep, fmt.Errorf("event %d winner: %w", ev.ID, err)
		}
		switch res.Outcome {
		case store.WinnerSet:
			rep.Winners++
		case store.WinnerUnchanged:
		default:
			return rep, fmt.Errorf("event %d winner %s: %s", ev.ID, ev.Winner, res.Outcome)
		}
	}
	return rep, nil
}
