package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"researchsim/internal/config"
	"researchsim/internal/logging"
)

var (
	configPath string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:          "researchsim",
		Short:        "Technology and research simulation for agent societies",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional; its values feed the RESEARCHSIM_* overrides.
			_ = godotenv.Load()
			return nil
		},
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "researchsim.yaml", "Project config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override: info, debug or trace")

	root.AddCommand(initCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(runCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(exportGraphCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.ProjectConfig, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.ProjectConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, os.Stderr)
}

func loadCatalog(cfg *config.ProjectConfig) (*config.CatalogFile, error) {
	return config.LoadCatalog(cfg.Path(cfg.Catalog))
}
