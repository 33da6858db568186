package main

import (
	"os"

	"github.com/spf13/cobra"
)

func querySummaryCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the technology summary of a run",
		Args:  cobra.NoArgs,
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

			run, err := svc.Run(ctx, queryRunID)
			if err != nil {
				return err
			}
			summary, err := svc.Summary(ctx, run.ID)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(summary)
			}
			printRunSummary(os.Stdout, &runResult{
				RunID:   run.ID,
				Seed:    run.Seed,
				Days:    run.FinalDay,
				Events:  run.Events,
				Summary: *summary,
			})
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}
