package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/scribedb/scribe/internal/installer"
	"github.com/scribedb/scribe/internal/store"
)

// listedRule is the JSON projection of a catalog row.
type listedRule struct {
	Name        string   `json:"name"`
	ContentHash string   `json:"content_hash"`
	Entity      string   `json:"entity"`
	Operation   string   `json:"operation"`
	Watch       []string `json:"watch,omitempty"`
	Label       string   `json:"label"`
	InstalledAt string   `json:"installed_at"`
}

func newListCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed capture rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := formatterFor(cmd, opts)

			st, err := openStore(opts)
			if err != nil {
				formatter.Error("STORE_ERROR", err.Error(), nil)
				return err
			}
			defer st.Close()

			installed, err := installer.New(st).List(cmd.Context())
			if err != nil {
				formatter.Error("LIST_ERROR", err.Error(), nil)
				return WrapExitError(ExitFailure, "list failed", err)
			}

			if opts.Format == "json" {
				rules := make([]listedRule, 0, len(installed))
				for _, r := range installed {
					rules = append(rules, projectRule(r))
				}
				return formatter.Success(rules)
			}
			return formatter.Success(formatRules(installed))
		},
	}

	return cmd
}

func projectRule(r store.InstalledRule) listedRule {
	return listedRule{
		Name:        r.Name,
		ContentHash: r.ContentHash,
		Entity:      r.Entity,
		Operation:   string(r.Operation),
		Watch:       r.WatchSet,
		Label:       r.Label,
		InstalledAt: r.InstalledAt.UTC().Format(time.RFC3339),
	}
}

func formatRules(installed []store.InstalledRule) string {
	if len(installed) == 0 {
		return "no rules installed"
	}
	var b strings.Builder
	for _, r := range installed {
		fmt.Fprintf(&b, "%s  %s/%s", r.Name, r.Entity, r.Operation)
		if len(r.WatchSet) > 0 {
			fmt.Fprintf(&b, "  watch=%s", strings.Join(r.WatchSet, ","))
		}
		fmt.Fprintf(&b, "  label=%s  hash=%s\n", r.Label, shortHash(r.ContentHash))
	}
	return strings.TrimRight(b.String(), "\n")
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
