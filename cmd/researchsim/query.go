package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"researchsim/internal/config"
	"researchsim/internal/query"
	"researchsim/internal/store"
)

var queryRunID string

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query recorded runs from the CLI",
	}
	cmd.PersistentFlags().StringVar(&queryRunID, "run", "", "Run id (default: latest run)")
	cmd.AddCommand(queryRunsCmd())
	cmd.AddCommand(querySummaryCmd())
	cmd.AddCommand(queryStatusCmd())
	cmd.AddCommand(queryAdvantageCmd())
	cmd.AddCommand(queryEventsCmd())
	cmd.AddCommand(queryTechnologyCmd())
	cmd.AddCommand(queryKnowledgeCmd())
	cmd.AddCommand(querySQLCmd())
	cmd.AddCommand(queryCypherCmd())
	cmd.AddCommand(queryLineageCmd())
	return cmd
}

// openQuery wires the query service over the configured store. The caller
// closes the returned store.
func openQuery(ctx context.Context, cfg *config.ProjectConfig) (*query.Service, store.Store, error) {
	catalogFile, err := loadCatalog(cfg)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := catalogFile.Build()
	if err != nil {
		return nil, nil, err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return query.New(db, catalog), db, nil
}

func printJSON(v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(payload))
	return nil
}
