package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func queryAdvantageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advantage <entity> <kind>",
		Short: "Product of technology benefits of a kind for an agent or group",
		Args:  cobra.ExactArgs(2),
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

			result, err := svc.Advantage(ctx, queryRunID, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s %s advantage: %.4f\n", result.Entity, result.Kind, result.Advantage)
			if len(result.Contributing) > 0 {
				fmt.Fprintf(os.Stdout, "  from: %s\n", strings.Join(result.Contributing, ", "))
			}
			return nil
		},
	}
}
