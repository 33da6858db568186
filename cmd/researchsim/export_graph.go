package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"researchsim/internal/graph"
	"researchsim/internal/store"
)

func exportGraphCmd() *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "export-graph",
		Short: "Push the technology DAG and a run's discovery state to Neo4j",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			catalogFile, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			db, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close(ctx)

			var states []store.TechnologyState
			var knowledge []store.KnowledgeRecord
			run, err := db.GetRun(ctx, runID)
			if err != nil {
				return err
			}
			switch {
			case run != nil:
				if states, err = db.GetTechnologyStates(ctx, run.ID); err != nil {
					return err
				}
				if knowledge, err = db.GetKnowledge(ctx, run.ID, ""); err != nil {
					return err
				}
			case runID != "":
				return fmt.Errorf("run %s not found", runID)
			}

			client, err := openGraph(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Close(ctx)

			result, err := graph.Export(ctx, client, catalogFile.Technologies, states, knowledge)
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, "Export complete.")
			if run != nil {
				fmt.Fprintf(os.Stdout, "  Run:                  %s\n", run.ID)
			}
			fmt.Fprintf(os.Stdout, "  Technologies:         %d\n", result.Technologies)
			fmt.Fprintf(os.Stdout, "  Prerequisite edges:   %d\n", result.Prerequisites)
			fmt.Fprintf(os.Stdout, "  Discoveries:          %d\n", result.Discoveries)
			fmt.Fprintf(os.Stdout, "  Knowledge edges:      %d\n", result.Knowledge)
			fmt.Fprintf(os.Stdout, "  Stale nodes removed:  %d\n", result.Removed)

			if len(result.Errors) > 0 {
				fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(result.Errors))
				for _, item := range result.Errors {
					fmt.Fprintf(os.Stdout, "  - %v\n", item)
				}
				return fmt.Errorf("export completed with errors")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Run id (default: latest run)")
	return cmd
}
