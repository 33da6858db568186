package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"researchsim/internal/tech"
)

type ProjectConfig struct {
	Project  string         `yaml:"project"`
	Version  int            `yaml:"version"`
	Seed     uint64         `yaml:"seed"`
	Days     int            `yaml:"days"`
	Catalog  string         `yaml:"catalog"`
	World    string         `yaml:"world"`
	Sources  []string       `yaml:"sources"`
	Exclude  []string       `yaml:"exclude"`
	Database DatabaseConfig `yaml:"database"`
	Neo4j    Neo4jConfig    `yaml:"neo4j"`
	Logging  LoggingConfig  `yaml:"logging"`
	HTTP     HTTPConfig     `yaml:"http"`
	Rates    tech.Rates     `yaml:"rates"`

	dir string
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

func Default() *ProjectConfig {
	return &ProjectConfig{
		Version:  1,
		Seed:     1,
		Days:     365,
		Catalog:  "catalog.yaml",
		World:    "world.yaml",
		Database: DatabaseConfig{DSN: "sqlite://researchsim.db"},
		Neo4j:    Neo4jConfig{Database: "neo4j"},
		Logging:  LoggingConfig{Level: "info"},
		HTTP:     HTTPConfig{Addr: "127.0.0.1:8080"},
		Rates:    tech.DefaultRates(),
	}
}

// LoadProjectConfig reads path over the defaults, applies RESEARCHSIM_*
// environment overrides and validates the result.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	cfg.dir = filepath.Dir(path)

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	return cfg, nil
}

func (c *ProjectConfig) Validate() error {
	if strings.TrimSpace(c.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if c.Version != 1 {
		return fmt.Errorf("unsupported version: %d", c.Version)
	}
	if c.Days < 0 {
		return fmt.Errorf("days must not be negative, got %d", c.Days)
	}
	if strings.TrimSpace(c.Catalog) == "" {
		return fmt.Errorf("catalog path is required")
	}
	if strings.TrimSpace(c.World) == "" {
		return fmt.Errorf("world path is required")
	}
	if _, _, err := ParseDSN(c.Database.DSN); err != nil {
		return err
	}
	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace)", c.Logging.Level)
	}
	if err := c.Rates.Validate(); err != nil {
		return fmt.Errorf("rates: %w", err)
	}
	return nil
}

// Path resolves p against the directory holding the config file.
func (c *ProjectConfig) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// ParseDSN splits a database DSN into its driver and the driver-specific source.
func ParseDSN(dsn string) (driver, source string, err error) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		source = strings.TrimPrefix(dsn, "sqlite://")
		if source == "" {
			return "", "", fmt.Errorf("sqlite dsn has no path")
		}
		return "sqlite", source, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	case strings.TrimSpace(dsn) == "":
		return "", "", fmt.Errorf("database dsn is required")
	default:
		return "", "", fmt.Errorf("unsupported database dsn: %s", dsn)
	}
}

func applyEnvOverrides(cfg *ProjectConfig) error {
	if v := os.Getenv("RESEARCHSIM_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("RESEARCHSIM_SEED: %w", err)
		}
		cfg.Seed = n
	}
	if v := os.Getenv("RESEARCHSIM_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RESEARCHSIM_DAYS: %w", err)
		}
		cfg.Days = n
	}
	if v := os.Getenv("RESEARCHSIM_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("RESEARCHSIM_NEO4J_URI"); v != "" {
		cfg.Neo4j.URI = v
	}
	if v := os.Getenv("RESEARCHSIM_NEO4J_USERNAME"); v != "" {
		cfg.Neo4j.Username = v
	}
	if v := os.Getenv("RESEARCHSIM_NEO4J_PASSWORD"); v != "" {
		cfg.Neo4j.Password = v
	}
	if v := os.Getenv("RESEARCHSIM_NEO4J_DATABASE"); v != "" {
		cfg.Neo4j.Database = v
	}
	if v := os.Getenv("RESEARCHSIM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RESEARCHSIM_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	return nil
}
