package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func queryRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE:  runQueryRuns,
	}
}

func runQueryRuns(cmd *cobra.Command, args []string) error {
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

	runs, err := svc.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "No runs recorded.")
		return nil
	}
	for _, run := range runs {
		status := "unfinished"
		if run.FinishedAt != nil {
			status = fmt.Sprintf("day %d", run.FinalDay)
		}
		fmt.Fprintf(os.Stdout, "%s  %s  seed=%d  %s  events=%d  faults=%d\n",
			run.ID, run.StartedAt.Format(time.RFC3339), run.Seed, status, run.Events, run.Faults)
	}
	return nil
}
