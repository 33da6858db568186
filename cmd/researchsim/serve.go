package main

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"researchsim/internal/httpapi"
	"researchsim/internal/mcp"
)

func serveCmd() *cobra.Command {
	var useHTTP bool
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio, or the HTTP API with --http",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, useHTTP, addr)
		},
	}
	cmd.Flags().BoolVar(&useHTTP, "http", false, "Serve the JSON HTTP API instead of MCP")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, useHTTP bool, addr string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	catalogFile, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	svc, db, err := openQuery(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	if useHTTP {
		if addr == "" {
			addr = cfg.HTTP.Addr
		}
		server := httpapi.NewServer(catalogFile.Technologies, svc, newLogger(cfg), version)
		return server.ListenAndServe(ctx, addr)
	}

	server := mcp.NewServer(catalogFile.Technologies, svc, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
