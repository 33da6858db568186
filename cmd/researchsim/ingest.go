package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"researchsim/internal/config"
	"researchsim/internal/ingest"
)

func ingestCmd() *cobra.Command {
	var full bool
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Compile markdown technologies into the catalog file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, full, dryRun)
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Force full re-ingestion (ignore incremental hashes)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be compiled without writing the catalog")
	return cmd
}

func runIngest(cmd *cobra.Command, full, dryRun bool) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	result, err := ingest.Run(ctx, cfg, db, ingest.Options{Full: full})
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Ingestion complete.")
	fmt.Fprintf(os.Stdout, "  Technologies upserted: %d\n", result.TechnologiesUpserted)
	fmt.Fprintf(os.Stdout, "  Technologies reused:   %d\n", result.TechnologiesReused)
	fmt.Fprintf(os.Stdout, "  Technologies removed:  %d\n", result.TechnologiesRemoved)
	fmt.Fprintf(os.Stdout, "  Files skipped:         %d\n", result.FilesSkipped)

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(result.Errors))
		for _, item := range result.Errors {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
		return fmt.Errorf("ingestion completed with errors")
	}

	if dryRun {
		return nil
	}
	path := cfg.Path(cfg.Catalog)
	if err := config.WriteCatalog(path, result.Catalog); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\nWrote %d technologies to %s\n", len(result.Catalog.Technologies), path)
	return nil
}
