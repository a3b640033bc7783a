package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scribedb/scribe/internal/installer"
	"github.com/scribedb/scribe/internal/rule"
)

func newVerifyCommand(opts *Options) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "verify [rule-name]",
		Short: "Check installed rules against their content hashes",
		Long: `Verify re-hashes each installed rule's definition and compares the
result to the hash recorded at install time. A mismatch means the catalog
was edited out-of-band and is reported as drift, never repaired.

With --file, installed rules are additionally compared to the declared
definitions, catching a catalog that is internally consistent but stale.
Without arguments, every installed rule is verified.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := formatterFor(cmd, opts)

			st, err := openStore(opts)
			if err != nil {
				formatter.Error("STORE_ERROR", err.Error(), nil)
				return err
			}
			defer st.Close()

			inst := installer.New(st)

			results := map[string]installer.VerifyState{}
			switch {
			case file != "":
				defs, err := rule.Load(file)
				if err != nil {
					formatter.Error("INVALID_DEFINITION", err.Error(), nil)
					return WrapExitError(ExitCommandError, "failed to load definitions", err)
				}
				for _, def := range defs {
					state, err := inst.VerifyAgainst(cmd.Context(), def)
					if err != nil {
						formatter.Error("VERIFY_ERROR", err.Error(), nil)
						return WrapExitError(ExitFailure, "verify failed", err)
					}
					results[def.Name] = state
				}
			case len(args) == 1:
				state, err := inst.Verify(cmd.Context(), args[0])
				if err != nil {
					formatter.Error("VERIFY_ERROR", err.Error(), nil)
					return WrapExitError(ExitFailure, "verify failed", err)
				}
				results[args[0]] = state
			default:
				installed, err := inst.List(cmd.Context())
				if err != nil {
					formatter.Error("VERIFY_ERROR", err.Error(), nil)
					return WrapExitError(ExitFailure, "verify failed", err)
				}
				for _, r := range installed {
					state, err := inst.Verify(cmd.Context(), r.Name)
					if err != nil {
						formatter.Error("VERIFY_ERROR", err.Error(), nil)
						return WrapExitError(ExitFailure, "verify failed", err)
					}
					results[r.Name] = state
				}
			}

			if opts.Format == "json" {
				if err := formatter.Success(results); err != nil {
					return err
				}
			} else {
				if err := formatter.Success(formatStatuses(results)); err != nil {
					return err
				}
			}

			return verifyExitError(results)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "",
		"definition file to verify installed rules against")

	return cmd
}

// verifyExitError maps verify results to the command's exit status: drift is
// a domain failure, an absent rule is a command error, matches exit clean.
func verifyExitError(results map[string]installer.VerifyState) error {
	absent := 0
	for name, state := range results {
		if state == installer.VerifyDrifted {
			return NewExitError(ExitFailure, fmt.Sprintf("rule %q has drifted", name))
		}
		if state == installer.VerifyAbsent {
			absent++
		}
	}
	if absent > 0 {
		return NewExitError(ExitCommandError, "one or more rules are not installed")
	}
	return nil
}
