package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"researchsim/internal/config"
	"researchsim/internal/graph"
)

func queryCypherCmd() *cobra.Command {
	var paramPairs []string
	cmd := &cobra.Command{
		Use:   "cypher <query>",
		Short: "Execute a read-only Cypher query against the exported graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			params, err := parseParams(paramPairs)
			if err != nil {
				return err
			}
			return runCypher(cmd, query, params)
		},
	}
	cmd.Flags().StringArrayVar(&paramPairs, "param", nil, "Query parameter as key=value (repeatable)")
	return cmd
}

func runCypher(cmd *cobra.Command, query string, params map[string]any) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := openGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	rows, err := client.RunCypher(ctx, query, params)
	if err != nil {
		return err
	}
	return printJSON(rows)
}

func openGraph(ctx context.Context, cfg *config.ProjectConfig) (*graph.Client, error) {
	if cfg.Neo4j.URI == "" {
		return nil, fmt.Errorf("neo4j.uri is not configured")
	}
	return graph.NewClient(ctx, cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, cfg.Neo4j.Database)
}
