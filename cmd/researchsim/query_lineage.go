package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func queryLineageCmd() *cobra.Command {
	var dependents bool
	cmd := &cobra.Command{
		Use:   "lineage <technology>",
		Short: "Walk the exported graph for everything a technology requires",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			label := "Requires"
			walk := client.Lineage
			if dependents {
				label = "Required by"
				walk = client.Dependents
			}
			ids, err := walk(ctx, args[0])
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintf(os.Stdout, "%s: nothing\n", label)
				return nil
			}
			fmt.Fprintf(os.Stdout, "%s: %s\n", label, strings.Join(ids, ", "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dependents, "dependents", false, "List technologies that require this one instead")
	return cmd
}
