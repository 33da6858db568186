package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"researchsim/internal/config"
)

func initCmd() *cobra.Command {
	var projectName string
	var template string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new research simulation project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(".", projectName, template)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&template, "template", "stone-age", fmt.Sprintf("Template name (%s)", strings.Join(config.TemplateNames(), ", ")))
	return cmd
}

func runInit(dir, projectName, templateName string) error {
	tmpl, err := config.LoadTemplate(templateName)
	if err != nil {
		return err
	}

	files := []struct {
		name     string
		contents []byte
	}{
		{"researchsim.yaml", []byte(config.ProjectTemplate(projectName))},
		{"catalog.yaml", tmpl.Catalog},
		{"world.yaml", tmpl.World},
	}
	for _, f := range files {
		if _, err := os.Stat(filepath.Join(dir, f.name)); err == nil {
			return fmt.Errorf("%s already exists", f.name)
		}
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.name), f.contents, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", f.name, err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "technologies"), 0o755); err != nil {
		return fmt.Errorf("creating technologies directory: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Initialised %s from the %s template.\n", projectName, templateName)
	return nil
}
