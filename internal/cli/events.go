package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/scribedb/scribe/internal/capture"
)

// listedEvent is the JSON projection of a captured event.
type listedEvent struct {
	EventID   int64             `json:"event_id"`
	Row       map[string]any    `json:"row"`
	Label     string            `json:"label"`
	CreatedAt string            `json:"created_at"`
	ContextID string            `json:"context_id,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
}

func newEventsCommand(opts *Options) *cobra.Command {
	var withContext bool

	cmd := &cobra.Command{
		Use:   "events <entity>",
		Short: "Dump captured events for an entity",
		Long: `Events reads an entity's event table and prints every captured row
image in insertion order, with its label, timestamp, and context id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity := args[0]
			formatter := formatterFor(cmd, opts)

			st, err := openStore(opts)
			if err != nil {
				formatter.Error("STORE_ERROR", err.Error(), nil)
				return err
			}
			defer st.Close()

			engine := capture.NewEngine(st)
			events, err := engine.Events(cmd.Context(), entity)
			if err != nil {
				formatter.Error("EVENTS_ERROR", err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to read events", err)
			}

			listed := make([]listedEvent, 0, len(events))
			for _, ev := range events {
				le := listedEvent{
					EventID:   ev.EventID,
					Row:       ev.Row,
					Label:     ev.Label,
					CreatedAt: ev.CreatedAt.UTC().Format(time.RFC3339Nano),
					ContextID: ev.ContextID,
				}
				if withContext && ev.ContextID != "" {
					meta, err := st.GetContextMetadata(cmd.Context(), st.DB(), ev.ContextID)
					if err != nil {
						formatter.Error("EVENTS_ERROR", err.Error(), nil)
						return WrapExitError(ExitFailure, "failed to read context", err)
					}
					le.Context = meta
				}
				listed = append(listed, le)
			}

			if opts.Format == "json" {
				return formatter.Success(listed)
			}
			return formatter.Success(formatEvents(listed))
		},
	}

	cmd.Flags().BoolVar(&withContext, "with-context", false,
		"resolve and include context metadata for each event")

	return cmd
}

func formatEvents(events []listedEvent) string {
	if len(events) == 0 {
		return "no events captured"
	}
	var b strings.Builder
	for _, ev := range events {
		fmt.Fprintf(&b, "#%d  %s  %s", ev.EventID, ev.Label, ev.CreatedAt)
		if ev.ContextID != "" {
			fmt.Fprintf(&b, "  context=%s", ev.ContextID)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "    %s\n", formatRow(ev.Row))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRow(row map[string]any) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, row[k]))
	}
	return strings.Join(parts, " ")
}
