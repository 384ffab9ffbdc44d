package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/persistorai/conceptmap/client"
)

func newEventsCmd() *cobra.Command {
	var since uint64

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow article ingestion events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			w := cmd.OutOrStdout()
			err := apiClient.WatchEvents(ctx, since, func(e *client.Event) error {
				return printEvent(w, e)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("events: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&since, "since", 0, "Replay buffered events after this event ID first")
	return cmd
}

// printEvent writes one line per event: compact JSON, a tab-separated row in
// table mode, or the event ID in quiet mode.
func printEvent(w io.Writer, e *client.Event) error {
	switch flagFmt {
	case "quiet":
		if e.ID != 0 {
			fmt.Fprintln(w, e.ID)
		}
		return nil
	case "table":
		detail := string(e.Data)
		if detail == "" {
			detail = e.Reason + e.Message
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", e.ID, e.Type, detail)
		return nil
	case "json", "":
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(w, string(b))
		return nil
	default:
		return fmt.Errorf("unknown format %q (want json, table or quiet)", flagFmt)
	}
}
