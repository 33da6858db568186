package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"researchsim/internal/config"
	"researchsim/internal/validate"
	"researchsim/internal/world"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run consistency checks against the catalog and world",
		RunE:  runValidate,
	}
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(cfg.Path(cfg.Catalog))
	if err != nil {
		return fmt.Errorf("reading catalog: %w", err)
	}
	catalog, err := config.DecodeCatalog(data)
	if err != nil {
		return err
	}

	var worldFile *world.File
	if data, err := os.ReadFile(cfg.Path(cfg.World)); err == nil {
		file, err := world.Decode(data)
		if err != nil {
			return fmt.Errorf("decoding world: %w", err)
		}
		worldFile = &file
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading world: %w", err)
	}

	report := validate.Run(catalog.Technologies, worldFile)

	var errorIssues []validate.Issue
	var warnIssues []validate.Issue
	for _, issue := range report.Issues {
		switch issue.Severity {
		case validate.SeverityError:
			errorIssues = append(errorIssues, issue)
		case validate.SeverityWarn:
			warnIssues = append(warnIssues, issue)
		}
	}

	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(errorIssues))
		printIssues(os.Stdout, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		fmt.Fprintf(os.Stdout, "Warnings (%d):\n", len(warnIssues))
		printIssues(os.Stdout, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Technology
		if issue.Agent != "" {
			if location == "" {
				location = issue.Agent
			} else {
				location = fmt.Sprintf("%s (%s)", location, issue.Agent)
			}
		}
		if location == "" {
			location = "catalog"
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
