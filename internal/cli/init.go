package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/aads/internal/seed"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Series     string
	EventsOnly bool
}

// InitResult is the outcome of loading a series definition.
type InitResult struct {
	Series string `json:"series"`
	seed.Report
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the series events and load rosters",
		Long: `Create the series events and load their rosters, winners and prospects.

Without --series the built-in definition of the original seven-event series
is loaded. Re-running init only adds what is missing.

Examples:
  aads init
  aads init --events-only
  aads init --series ./series-2026.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Series, "series", "", "series definition file (.cue, .yaml or .yml)")
	cmd.Flags().BoolVar(&opts.EventsOnly, "events-only", false, "create the events without rosters, winners or prospects")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	var (
		def seed.Definition
		err error
	)
	if opts.Series == "" {
		def, err = seed.Default()
	} else {
		def, err = seed.Load(opts.Series)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSeries, "failed to load series definition", err)
	}
	formatter.VerboseLog("Loaded %q: %d event(s), %d prospect(s)", def.Name, len(def.Events), len(def.Prospects))

	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	rep, err := seed.Apply(ctx, a.store, def, seed.ApplyOptions{EventsOnly: opts.EventsOnly})
	if err != nil {
		return a.storeFailure("failed to initialize series", err)
	}

	result := InitResult{Series: def.Name, Report: rep}
	if err := formatter.Render(result, func(w io.Writer) { outputInitText(w, result) }); err != nil {
		return err
	}
	a.autoPush(ctx)
	return nil
}

func outputInitText(w io.Writer, r InitResult) {
	fmt.Fprintf(w, "Initialized %s\n", r.Series)
	fmt.Fprintf(w, "  Events created:  %d\n", r.EventsCreated)
	fmt.Fprintf(w, "  Players created: %d\n", r.PlayersCreated)
	fmt.Fprintf(w, "  Enrollments:     %d\n", r.Enrollments)
	fmt.Fprintf(w, "  Winners:         %d\n", r.Winners)
}
