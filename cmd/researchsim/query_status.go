package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"researchsim/internal/tech"
)

func queryStatusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog-wide totals and the discovery rate of a run",
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

			status, err := svc.Status(ctx, queryRunID)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(status)
			}
			printStatus(os.Stdout, status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status as JSON")
	return cmd
}

func printStatus(out io.Writer, st *tech.Status) {
	fmt.Fprintf(out, "Day %d: %d of %d technologies discovered (%.1f%%).\n", st.Day, st.Discovered, st.Total, st.DiscoveryRate*100)
	fmt.Fprintf(out, "  Projects:     %d active, %d completed\n", st.ActiveProjects, st.CompletedProjects)
	fmt.Fprintf(out, "  Innovations:  %d\n", st.Innovations)
	fmt.Fprintln(out, "  By category:")
	for _, c := range tech.Categories {
		fmt.Fprintf(out, "    %-12s %d\n", c, st.ByCategory[c])
	}
}
