package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/aads/internal/model"
	"github.com/roach88/aads/internal/store"
)

// AddPlayerResult is the outcome of player add.
type AddPlayerResult struct {
	PlayerID int64          `json:"player_id"`
	Name     string         `json:"name"`
	Province model.Province `json:"province"`
	Outcome  string         `json:"outcome"`
}

// NewPlayerCommand creates the player command group.
func NewPlayerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Add players and show their history",
	}
	cmd.AddCommand(newPlayerAddCommand(rootOpts))
	cmd.AddCommand(newPlayerHistoryCommand(rootOpts))
	return cmd
}

func newPlayerAddCommand(rootOpts *RootOptions) *cobra.Command {
	var province string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a prospect to the master list",
		Long: `Add a player to the master scouting list as a Prospect.

Adding a name that is already listed changes nothing.

Examples:
  aads player add "Micheal Léger" --province NB`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlayerAdd(rootOpts, cmd, args[0], province)
		},
	}

	cmd.Flags().StringVarP(&province, "province", "p", "", "home province: NB, NS or PEI (required)")
	_ = cmd.MarkFlagRequired("province")

	return cmd
}

func runPlayerAdd(opts *RootOptions, cmd *cobra.Command, name, provinceArg string) error {
	ctx := context.Background()
	formatter := newFormatter(opts, cmd)

	province, err := model.ParseProvince(provinceArg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid province", err)
	}

	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	id, outcome, err := a.store.AddPlayer(ctx, name, province)
	if err != nil {
		return a.storeFailure("failed to add player", err)
	}

	result := AddPlayerResult{
		PlayerID: id,
		Name:     model.NormalizeName(name),
		Province: province,
		Outcome:  outcome.String(),
	}
	err = formatter.Render(result, func(w io.Writer) {
		if outcome == store.Inserted {
			fmt.Fprintf(w, "Added %s (%s) to the master list as a Prospect\n", result.Name, province)
		} else {
			fmt.Fprintf(w, "%s is already on the master list\n", result.Name)
		}
	})
	if err != nil {
		return err
	}
	if outcome == store.Inserted {
		a.autoPush(ctx)
	}
	return nil
}

func newPlayerHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "history <name>",
		Short:         "Show a player's profile and event history",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlayerHistory(rootOpts, cmd, args[0])
		},
	}
}

func runPlayerHistory(opts *RootOptions, cmd *cobra.Command, name string) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	history, ok, err := a.store.PlayerHistory(context.Background(), name)
	if err != nil {
		return a.storeFailure("failed to read player history", err)
	}
	if !ok {
		return a.out.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("player %q not found", model.NormalizeName(name)), nil)
	}
	return a.out.Render(history, func(w io.Writer) { outputHistoryText(w, history) })
}

func outputHistoryText(w io.Writer, h model.PlayerHistory) {
	fmt.Fprintf(w, "Player Profile: %s\n", h.Name)
	fmt.Fprintf(w, "Province: %s (%s)\n", h.Province, h.Province.FullName())
	fmt.Fprintf(w, "Status: %s\n", h.Status)
	fmt.Fprintf(w, "Total Events: %d\n", h.TotalEvents)
	fmt.Fprintf(w, "TOC Qualified: %s\n", yesNo(h.TOCQualified))
	fmt.Fprintln(w)

	if len(h.Events) == 0 {
		fmt.Fprintln(w, "No event history (Prospect)")
		return
	}
	t := &table{widths: []int{35, 10}, header: []string{"Event", "Type", "Won"}}
	for _, ev := range h.Events {
		won := ""
		if ev.Won {
			won = "WINNER"
		}
		t.add(ev.EventName, debutLabel(ev.IsDebut), won)
	}
	t.render(w)
}

// NewPlayersCommand creates the players command.
func NewPlayersCommand(rootOpts *RootOptions) *cobra.Command {
	var sortBy, province string

	cmd := &cobra.Command{
		Use:   "players",
		Short: "List the master scouting list",
		Long: `List every player on the master scouting list.

Examples:
  aads players
  aads players --sort participation
  aads players --province PEI`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlayers(rootOpts, cmd, sortBy, province)
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "name", "sort by name, province, participation or status")
	cmd.Flags().StringVar(&province, "province", "", "only list players from this province")

	return cmd
}

func runPlayers(opts *RootOptions, cmd *cobra.Command, sortArg, provinceArg string) error {
	ctx := context.Background()
	formatter := newFormatter(opts, cmd)

	sortBy, err := store.ParsePlayerSort(sortArg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid sort", err)
	}
	var province model.Province
	if provinceArg != "" {
		if province, err = model.ParseProvince(provinceArg); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "invalid province", err)
		}
	}

	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	var players []model.Player
	if province != "" {
		players, err = a.store.PlayersByProvince(ctx, province)
	} else {
		players, err = a.store.Players(ctx, sortBy)
	}
	if err != nil {
		return a.storeFailure("failed to list players", err)
	}
	return formatter.Render(players, func(w io.Writer) { outputPlayersText(w, players) })
}

// NewProspectsCommand creates the prospects command.
func NewProspectsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "prospects",
		Short:         "List players who have never competed",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			prospects, err := a.store.Prospects(context.Background())
			if err != nil {
				return a.storeFailure("failed to list prospects", err)
			}
			return a.out.Render(prospects, func(w io.Writer) {
				fmt.Fprintf(w, "Total Prospects: %d\n\n", len(prospects))
				if len(prospects) == 0 {
					fmt.Fprintln(w, "No players found.")
					return
				}
				t := &table{widths: []int{25, 10}, header: []string{"Name", "Province", "Status"}}
				for _, p := range prospects {
					t.add(p.Name, string(p.Province), string(p.Status))
				}
				t.render(w)
			})
		},
	}
}

// NewCandidatesCommand creates the candidates command.
func NewCandidatesCommand(rootOpts *RootOptions) *cobra.Command {
	var eventID int

	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "Suggest players to invite to an event",
		Long: `List players who are not yet on the roster of an event, fewest events
first, so newer players get invited before regulars.

Examples:
  aads candidates --event 6`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCandidates(rootOpts, cmd, eventID)
		},
	}

	cmd.Flags().IntVar(&eventID, "event", 0, "event id (required)")
	_ = cmd.MarkFlagRequired("event")

	return cmd
}

func runCandidates(opts *RootOptions, cmd *cobra.Command, eventID int) error {
	ctx := context.Background()

	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if _, ok, err := a.store.EventDetails(ctx, eventID); err != nil {
		return a.storeFailure("failed to read event", err)
	} else if !ok {
		return a.out.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("event %d not found", eventID), nil)
	}

	candidates, err := a.store.InviteCandidates(ctx, eventID)
	if err != nil {
		return a.storeFailure("failed to list candidates", err)
	}
	return a.out.Render(candidates, func(w io.Writer) { outputPlayersText(w, candidates) })
}

func outputPlayersText(w io.Writer, players []model.Player) {
	if len(players) == 0 {
		fmt.Fprintln(w, "No players found.")
		return
	}
	t := &table{widths: []int{25, 10, 15, 8}, header: []string{"Name", "Province", "Status", "Events", "TOC"}}
	for _, p := range players {
		toc := ""
		if p.TOCQualified {
			toc = "yes"
		}
		t.add(p.Name, string(p.Province), string(p.Status), strconv.Itoa(p.TotalEvents), toc)
	}
	t.render(w)
}

func debutLabel(debut bool) string {
	if debut {
		return "DEBUT"
	}
	return "VETERAN"
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
