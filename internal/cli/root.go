package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/aads/internal/cloudsync"
	"github.com/roach88/aads/internal/config"
	"github.com/roach88/aads/internal/remote"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	ConfigPath  string
	Database    string
	MetricsFile string

	// Config is loaded before any subcommand runs.
	Config *config.Config

	// Hooks replaced in tests. Nil selects the production behavior.
	openRemote func(remote.Config) (remote.Store, error)
	now        func() time.Time
	runIDs     cloudsync.RunIDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the aads CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aads",
		Short: "AADS - Atlantic Armwrestling Development Series",
		Long: `Track players, events and results for the Atlantic Armwrestling
Development Series, and mirror the records to a cloud database.`,
		SilenceUsage:  true,
		SilenceErrors: true, // main prints errors that were not already reported
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return loadConfig(opts, cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file (default $AADS_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides db_path)")
	cmd.PersistentFlags().StringVar(&opts.MetricsFile, "metrics-file", "", "write sync metrics to this file (overrides metrics_file)")

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewPlayerCommand(opts))
	cmd.AddCommand(NewPlayersCommand(opts))
	cmd.AddCommand(NewProspectsCommand(opts))
	cmd.AddCommand(NewCandidatesCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewEventCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))

	return cmd
}

// loadConfig reads the layered configuration, applies flag overrides and
// installs the default logger on stderr.
func loadConfig(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return newFormatter(opts, cmd).Fail(ExitCommandError, ErrCodeConfig, "failed to load configuration", err)
	}
	if opts.Database != "" {
		cfg.DBPath = opts.Database
	}
	if opts.MetricsFile != "" {
		cfg.MetricsFile = opts.MetricsFile
	}
	opts.Config = cfg

	level := cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Diagnostics go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
