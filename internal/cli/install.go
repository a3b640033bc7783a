package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scribedb/scribe/internal/installer"
	"github.com/scribedb/scribe/internal/rule"
)

func newInstallCommand(opts *Options) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install capture rules from a definition file",
		Long: `Install reads rule definitions from a YAML file, creates the event
tables they target, and records each rule in the catalog keyed by its
content hash. Reinstalling an unchanged rule is a no-op; a changed rule
replaces the previous version in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := formatterFor(cmd, opts)

			defs, err := rule.Load(file)
			if err != nil {
				formatter.Error("INVALID_DEFINITION", err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to load definitions", err)
			}
			formatter.VerboseLog("Loaded %d rule definition(s) from %s", len(defs), file)

			st, err := openStore(opts)
			if err != nil {
				formatter.Error("STORE_ERROR", err.Error(), nil)
				return err
			}
			defer st.Close()

			inst := installer.New(st)
			statuses, err := inst.InstallAll(cmd.Context(), defs)
			if err != nil {
				var instErr *installer.InstallError
				if errors.As(err, &instErr) {
					formatter.Error(string(instErr.Code), instErr.Message, instErr.Details)
				} else {
					formatter.Error("INSTALL_ERROR", err.Error(), nil)
				}
				return WrapExitError(ExitFailure, "installation failed", err)
			}

			if opts.Format == "json" {
				return formatter.Success(statuses)
			}
			return formatter.Success(formatStatuses(statuses))
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the rule definition file (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func formatStatuses[V ~string](statuses map[string]V) string {
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %s\n", name, statuses[name])
	}
	return strings.TrimRight(b.String(), "\n")
}
