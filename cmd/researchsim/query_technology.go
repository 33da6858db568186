package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func queryTechnologyCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "technology <id>",
		Short: "Show a technology with its discovery state and holders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			detail, err := svc.Technology(ctx, queryRunID, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(detail)
			}

			state := detail.State
			fmt.Fprintf(os.Stdout, "%s (%s)\n", state.Name, state.ID)
			fmt.Fprintf(os.Stdout, "  Category: %s\n", state.Category)
			if len(state.Prerequisites) > 0 {
				fmt.Fprintf(os.Stdout, "  Requires: %s\n", strings.Join(state.Prerequisites, ", "))
			}
			if len(detail.Unlocks) > 0 {
				fmt.Fprintf(os.Stdout, "  Unlocks:  %s\n", strings.Join(detail.Unlocks, ", "))
			}
			if state.Discovered && state.DiscoveryDay != nil {
				fmt.Fprintf(os.Stdout, "  Discovered on day %d by %s\n", *state.DiscoveryDay, state.Discoverer)
			} else {
				fmt.Fprintln(os.Stdout, "  Undiscovered")
			}
			if len(detail.Holders) > 0 {
				fmt.Fprintf(os.Stdout, "  Known by (%d):\n", len(detail.Holders))
				for _, h := range detail.Holders {
					fmt.Fprintf(os.Stdout, "    %-20s %.2f\n", h.Agent, h.Level)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
