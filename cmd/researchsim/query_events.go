package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"researchsim/internal/store"
)

func queryEventsCmd() *cobra.Command {
	var filter store.EventFilter
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List recorded events with optional filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if filter.ToDay > 0 && filter.FromDay > filter.ToDay {
				return fmt.Errorf("--from must not exceed --to")
			}
			filter.RunID = queryRunID
			return runQueryEvents(cmd, filter, asJSON)
		},
	}
	cmd.Flags().StringVar(&filter.Kind, "kind", "", "Event kind filter")
	cmd.Flags().StringVar(&filter.Technology, "technology", "", "Technology id filter")
	cmd.Flags().StringVar(&filter.Actor, "agent", "", "Agent involved as actor or subject")
	cmd.Flags().IntVar(&filter.FromDay, "from", 0, "First day, inclusive")
	cmd.Flags().IntVar(&filter.ToDay, "to", 0, "Last day, inclusive")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "Maximum number of events (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print events as JSON")
	return cmd
}

func runQueryEvents(cmd *cobra.Command, filter store.EventFilter, asJSON bool) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, db, err := openQuery(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	events, err := svc.Events(ctx, filter)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(events)
	}
	if len(events) == 0 {
		fmt.Fprintln(os.Stdout, "No events found.")
		return nil
	}
	for _, e := range events {
		text := e.Text
		if text == "" {
			text = e.Technology
		}
		fmt.Fprintf(os.Stdout, "[day %d] %-32s %s\n", e.Day, e.Kind, text)
	}
	return nil
}
