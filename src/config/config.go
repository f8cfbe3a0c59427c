// Package config provides configuration management for the docsift application.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// DefaultBuildCommand is run by the rebuild tool when no override is set.
	DefaultBuildCommand = "mkdocs build --clean"

	// DefaultStateDir holds shared run state for the MCP watch mode.
	DefaultStateDir = ".docsift"
)

// Config holds the application configuration. All fields are optional;
// features that need one (Postgres store, Redpanda publishing, remote
// log fetching) report their own errors when it is missing.
type Config struct {
	// BuildCommand is the shell command executed by rebuild and wrap modes.
	BuildCommand string

	// StateDir is where shared run state is written for --share-state.
	StateDir string

	// PostgresDSN enables the Postgres-backed run store when non-empty.
	PostgresDSN string

	// Brokers lists Redpanda seed brokers for flush event publishing.
	Brokers []string

	// FetchToken is sent as a bearer token when fetching remote build logs.
	FetchToken string
}

// LoadFromEnv loads configuration from the environment, reading a .env
// file from the working directory first if one exists.
func LoadFromEnv() *Config {
	// A missing .env file is not an error; the environment alone is fine.
	_ = godotenv.Load()

	cfg := &Config{
		BuildCommand: os.Getenv("DOCSIFT_BUILD_CMD"),
		StateDir:     os.Getenv("DOCSIFT_STATE_DIR"),
		PostgresDSN:  os.Getenv("DOCSIFT_POSTGRES_DSN"),
		FetchToken:   os.Getenv("DOCSIFT_FETCH_TOKEN"),
	}
	if cfg.BuildCommand == "" {
		cfg.BuildCommand = DefaultBuildCommand
	}
	if cfg.StateDir == "" {
		cfg.StateDir = DefaultStateDir
	}
	if brokers := os.Getenv("DOCSIFT_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Brokers = append(cfg.Brokers, b)
			}
		}
	}
	return cfg
}
