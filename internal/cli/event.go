package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/aads/internal/model"
	"github.com/roach88/aads/internal/store"
)

// RosterCapacity is the largest roster an invitational takes from the CLI.
const RosterCapacity = 10

// EventDetailsResult is the payload of event show.
type EventDetailsResult struct {
	model.EventSummary
	Roster []model.RosterEntry `json:"roster"`
}

// EnrollResult is the payload of event add-player.
type EnrollResult struct {
	EventID int    `json:"event_id"`
	Name    string `json:"name"`
	store.Enrollment
}

// WinnerResult is the payload of event winner.
type WinnerResult struct {
	EventID int    `json:"event_id"`
	Name    string `json:"name"`
	store.WinnerResult
}

// EventChange is the payload of the event status, placement and date
// commands.
type EventChange struct {
	EventID int    `json:"event_id"`
	Changed bool   `json:"changed"`
	Message string `json:"message"`
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "events",
		Short:         "List the series events",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			events, err := a.store.EventsSummary(context.Background())
			if err != nil {
				return a.storeFailure("failed to list events", err)
			}
			return a.out.Render(events, func(w io.Writer) { outputEventsText(w, events) })
		},
	}
}

func outputEventsText(w io.Writer, events []model.EventSummary) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found. Run 'aads init' first.")
		return
	}
	t := &table{widths: []int{3, 35, 13, 10, 8}, header: []string{"ID", "Event", "Type", "Status", "Players", "Winner"}}
	for _, ev := range events {
		t.add(strconv.Itoa(ev.ID), ev.Name, string(ev.Type), string(ev.Status),
			strconv.Itoa(ev.ParticipantCount), valueOr(ev.WinnerName, ""))
	}
	t.render(w)
}

// NewEventCommand creates the event command group.
func NewEventCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Show and update one event",
	}
	cmd.AddCommand(newEventShowCommand(rootOpts))
	cmd.AddCommand(newEventAddPlayerCommand(rootOpts))
	cmd.AddCommand(newEventWinnerCommand(rootOpts))
	cmd.AddCommand(newEventStatusCommand(rootOpts))
	cmd.AddCommand(newEventPlacementCommand(rootOpts))
	cmd.AddCommand(newEventDateCommand(rootOpts))
	return cmd
}

func newEventShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <event-id>",
		Short:         "Show an event and its roster",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			eventID, err := parseEventID(args[0])
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid event id", err)
			}

			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := context.Background()
			summary, ok, err := a.store.EventDetails(ctx, eventID)
			if err != nil {
				return a.storeFailure("failed to read event", err)
			}
			if !ok {
				return formatter.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("event %d not found", eventID), nil)
			}
			roster, err := a.store.EventRoster(ctx, eventID)
			if err != nil {
				return a.storeFailure("failed to read roster", err)
			}

			result := EventDetailsResult{EventSummary: summary, Roster: roster}
			return formatter.Render(result, func(w io.Writer) { outputEventText(w, result) })
		},
	}
}

func outputEventText(w io.Writer, r EventDetailsResult) {
	fmt.Fprintf(w, "Event %d: %s\n", r.ID, r.Name)
	fmt.Fprintf(w, "Type: %s\n", r.Type)
	fmt.Fprintf(w, "Status: %s\n", r.Status)
	fmt.Fprintf(w, "Date: %s\n", valueOr(r.Date, "TBD"))
	fmt.Fprintf(w, "Winner: %s\n", valueOr(r.WinnerName, "-"))
	fmt.Fprintf(w, "Players: %d\n", r.ParticipantCount)
	fmt.Fprintln(w)

	if len(r.Roster) == 0 {
		fmt.Fprintln(w, "No players on the roster.")
		return
	}
	t := &table{widths: []int{25, 10, 15, 10}, header: []string{"Name", "Province", "Status", "Type", "Place"}}
	for _, e := range r.Roster {
		place := ""
		if e.Placement != nil {
			place = strconv.Itoa(*e.Placement)
		}
		t.add(e.Name, string(e.Province), string(e.Status), debutLabel(e.IsDebut), place)
	}
	t.render(w)
}

func newEventAddPlayerCommand(rootOpts *RootOptions) *cobra.Command {
	var province string

	cmd := &cobra.Command{
		Use:   "add-player <event-id> <name>",
		Short: "Add a player to an event roster",
		Long: `Add a player to an invitational roster, creating the player when the
name is new. A roster holds at most 10 players. The Tournament of Champions
roster is filled only by recording invitational winners.

Examples:
  aads event add-player 6 "Micheal Léger" --province NB`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventAddPlayer(rootOpts, cmd, args[0], args[1], province)
		},
	}

	cmd.Flags().StringVarP(&province, "province", "p", "", "home province: NB, NS or PEI (required)")
	_ = cmd.MarkFlagRequired("province")

	return cmd
}

func runEventAddPlayer(opts *RootOptions, cmd *cobra.Command, eventArg, name, provinceArg string) error {
	ctx := context.Background()
	formatter := newFormatter(opts, cmd)

	eventID, err := parseEventID(eventArg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid event id", err)
	}
	province, err := model.ParseProvince(provinceArg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid province", err)
	}
	name = model.NormalizeName(name)

	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	summary, ok, err := a.store.EventDetails(ctx, eventID)
	if err != nil {
		return a.storeFailure("failed to read event", err)
	}
	if !ok {
		return formatter.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("event %d not found", eventID), nil)
	}
	if summary.Type == model.EventTOC {
		return formatter.Fail(ExitFailure, ErrCodeRefused,
			"the Tournament of Champions roster is filled by recording invitational winners", nil)
	}
	if summary.ParticipantCount >= RosterCapacity {
		enrolled, err := onRoster(ctx, a.store, eventID, name)
		if err != nil {
			return a.storeFailure("failed to read roster", err)
		}
		if !enrolled {
			return formatter.Fail(ExitFailure, ErrCodeRefused,
				fmt.Sprintf("event %d is full (%d/%d players)", eventID, summary.ParticipantCount, RosterCapacity), nil)
		}
	}

	enr, err := a.store.AddPlayerToEvent(ctx, eventID, name, province)
	if err != nil {
		return a.storeFailure("failed to add player to event", err)
	}

	result := EnrollResult{EventID: eventID, Name: name, Enrollment: enr}
	err = formatter.Render(result, func(w io.Writer) {
		if enr.Outcome == store.AlreadyExists {
			fmt.Fprintf(w, "%s is already on the roster of event %d\n", name, eventID)
			return
		}
		if enr.PlayerCreated {
			fmt.Fprintf(w, "Added %s (%s) to the master list\n", name, province)
		}
		fmt.Fprintf(w, "Added %s to event %d (%s)\n", name, eventID, debutLabel(enr.IsDebut))
	})
	if err != nil {
		return err
	}
	if enr.Outcome == store.Inserted {
		a.autoPush(ctx)
	}
	return nil
}

func onRoster(ctx context.Context, st *store.Store, eventID int, name string) (bool, error) {
	roster, err := st.EventRoster(ctx, eventID)
	if err != nil {
		return false, err
	}
	for _, e := range roster {
		if e.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func newEventWinnerCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "winner <event-id> <name>",
		Short: "Record the winner of an event",
		Long: `Record the winner of an event. The event becomes Completed and the
winner qualifies for the Tournament of Champions.

An event's winner cannot be changed once recorded.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventWinner(rootOpts, cmd, args[0], args[1])
		},
	}
}

func runEventWinner(opts *RootOptions, cmd *cobra.Command, eventArg, name string) error {
	ctx := context.Background()
	formatter := newFormatter(opts, cmd)

	eventID, err := parseEventID(eventArg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid event id", err)
	}
	name = model.NormalizeName(name)

	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.store.SetEventWinner(ctx, eventID, name)
	if err != nil {
		return a.storeFailure("failed to set winner", err)
	}

	switch res.Outcome {
	case store.WinnerEventNotFound:
		return formatter.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("event %d not found", eventID), nil)
	case store.WinnerPlayerNotFound:
		return formatter.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("player %q not found", name), nil)
	case store.WinnerConflict:
		return formatter.Fail(ExitFailure, ErrCodeRefused, fmt.Sprintf("event %d already has a different winner", eventID), nil)
	}

	result := WinnerResult{EventID: eventID, Name: name, WinnerResult: res}
	err = formatter.Render(result, func(w io.Writer) {
		if res.Outcome == store.WinnerUnchanged {
			fmt.Fprintf(w, "%s is already the winner of event %d\n", name, eventID)
			return
		}
		fmt.Fprintf(w, "%s won event %d\n", name, eventID)
		if res.Qualified {
			fmt.Fprintf(w, "%s qualified for the Tournament of Champions (event %d)\n", name, res.ChampionshipEventID)
		}
	})
	if err != nil {
		return err
	}
	if res.Outcome == store.WinnerSet {
		a.autoPush(ctx)
	}
	return nil
}

func newEventStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status <event-id> <Pending|Active|Completed>",
		Short:         "Move an event forward to a new status",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			eventID, err := parseEventID(args[0])
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid event id", err)
			}
			status, err := model.ParseEventStatus(args[1])
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid status", err)
			}

			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := context.Background()
			changed, err := a.store.SetEventStatus(ctx, eventID, status)
			if err != nil {
				return a.storeFailure("failed to set status", err)
			}
			msg := fmt.Sprintf("Event %d is now %s", eventID, status)
			if !changed {
				msg = fmt.Sprintf("Event %d is already %s", eventID, status)
			}
			return a.renderChange(ctx, EventChange{EventID: eventID, Changed: changed, Message: msg})
		},
	}
}

func newEventPlacementCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "placement <event-id> <name> <place>",
		Short:         "Record a player's final placement in an event",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			eventID, err := parseEventID(args[0])
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid event id", err)
			}
			name := model.NormalizeName(args[1])
			place, err := strconv.Atoi(args[2])
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid placement", err)
			}

			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := context.Background()
			ok, err := a.store.SetPlacement(ctx, eventID, name, place)
			if err != nil {
				return a.storeFailure("failed to set placement", err)
			}
			if !ok {
				return formatter.Fail(ExitFailure, ErrCodeNotFound,
					fmt.Sprintf("%s is not on the roster of event %d", name, eventID), nil)
			}
			return a.renderChange(ctx, EventChange{
				EventID: eventID,
				Changed: true,
				Message: fmt.Sprintf("%s placed %d in event %d", name, place, eventID),
			})
		},
	}
}

func newEventDateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "date <event-id> [YYYY-MM-DD]",
		Short: "Set or clear the date of an event",
		Long: `Set the date of an event. Without a date the event date is cleared.

Examples:
  aads event date 6 2025-06-14
  aads event date 6`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			eventID, err := parseEventID(args[0])
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid event id", err)
			}
			var date string
			if len(args) == 2 {
				if _, err := time.Parse(time.DateOnly, args[1]); err != nil {
					return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid date", err)
				}
				date = args[1]
			}

			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := context.Background()
			if err := a.store.SetEventDate(ctx, eventID, date); err != nil {
				return a.storeFailure("failed to set date", err)
			}
			msg := fmt.Sprintf("Event %d date set to %s", eventID, date)
			if date == "" {
				msg = fmt.Sprintf("Event %d date cleared", eventID)
			}
			return a.renderChange(ctx, EventChange{EventID: eventID, Changed: true, Message: msg})
		},
	}
}

// renderChange prints a one-line change report and auto-pushes when
// something changed.
func (a *app) renderChange(ctx context.Context, c EventChange) error {
	if err := a.out.Render(c, func(w io.Writer) { fmt.Fprintln(w, c.Message) }); err != nil {
		return err
	}
	if c.Changed {
		a.autoPush(ctx)
	}
	return nil
}

func parseEventID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("event id must be a positive integer, got %q", s)
	}
	return id, nil
}

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
