// Package cli implements the scribe command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scribedb/scribe/internal/store"
)

// Options holds the global CLI options shared by all commands.
type Options struct {
	DB      string // Database path (sqlite) or DSN (postgres)
	Driver  string // "sqlite" or "postgres"
	Format  string // "text" or "json"
	Verbose bool
}

// NewRootCommand creates the root scribe command with all subcommands.
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "scribe",
		Short: "Transactional audit capture for relational data",
		Long: `scribe installs capture rules against relational entities and mirrors
row changes into append-only event tables. Rules are content-addressed:
reinstalling an identical rule is a no-op, and stored state that no longer
matches its hash is reported as drift.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q (must be text or json)", opts.Format))
			}
			switch opts.Driver {
			case "sqlite", "postgres":
			default:
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid driver %q (must be sqlite or postgres)", opts.Driver))
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.DB, "db", "scribe.db",
		"database path (sqlite) or connection string (postgres)")
	rootCmd.PersistentFlags().StringVar(&opts.Driver, "driver", "sqlite",
		"database driver (sqlite or postgres)")
	rootCmd.PersistentFlags().StringVar(&opts.Format, "format", "text",
		"output format (text or json)")
	rootCmd.PersistentFlags().BoolVar(&opts.Verbose, "verbose", false,
		"enable verbose output")

	rootCmd.AddCommand(newInstallCommand(opts))
	rootCmd.AddCommand(newUninstallCommand(opts))
	rootCmd.AddCommand(newVerifyCommand(opts))
	rootCmd.AddCommand(newListCommand(opts))
	rootCmd.AddCommand(newEventsCommand(opts))

	return rootCmd
}

// openStore opens the store named by the global options.
func openStore(opts *Options) (*store.Store, error) {
	var (
		st  *store.Store
		err error
	)
	switch opts.Driver {
	case "postgres":
		st, err = store.OpenPostgres(opts.DB)
	default:
		st, err = store.Open(opts.DB)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return st, nil
}

func formatterFor(cmd *cobra.Command, opts *Options) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
