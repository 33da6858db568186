package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func queryKnowledgeCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "knowledge [agent]",
		Short: "Show knowledge levels of an agent, or of every agent",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			agent := ""
			if len(args) == 1 {
				agent = args[0]
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, db, err := openQuery(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close(ctx)

			records, err := svc.Knowledge(ctx, queryRunID, agent)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(records)
			}
			if len(records) == 0 {
				fmt.Fprintln(os.Stdout, "No knowledge recorded.")
				return nil
			}
			for _, r := range records {
				fmt.Fprintf(os.Stdout, "%-20s %-28s %.2f\n", r.Agent, r.Technology, r.Level)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
