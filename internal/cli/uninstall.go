package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scribedb/scribe/internal/installer"
	"github.com/scribedb/scribe/internal/store"
)

func newUninstallCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall <rule-name>",
		Short: "Remove an installed capture rule",
		Long: `Uninstall removes a rule from the catalog, disarming its capture.
Previously captured events and the event table itself are preserved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			formatter := formatterFor(cmd, opts)

			st, err := openStore(opts)
			if err != nil {
				formatter.Error("STORE_ERROR", err.Error(), nil)
				return err
			}
			defer st.Close()

			inst := installer.New(st)
			if err := inst.Uninstall(cmd.Context(), name); err != nil {
				if errors.Is(err, store.ErrRuleNotFound) {
					formatter.Error("RULE_NOT_FOUND",
						fmt.Sprintf("rule %q is not installed", name), nil)
					return WrapExitError(ExitCommandError, "rule not found", err)
				}
				formatter.Error("UNINSTALL_ERROR", err.Error(), nil)
				return WrapExitError(ExitFailure, "uninstall failed", err)
			}

			if opts.Format == "json" {
				return formatter.Success(map[string]string{"rule": name, "result": "uninstalled"})
			}
			return formatter.Success(fmt.Sprintf("%s: uninstalled", name))
		},
	}

	return cmd
}
