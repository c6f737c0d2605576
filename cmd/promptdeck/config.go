package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const dbFilename = "analytics.db"

type Config struct {
	Home             string
	DBPath           string
	PromptsDir       string
	WorkspaceStorage string
	AnthropicKey     string
}

func LoadConfig(args []string) (Config, []string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, nil, fmt.Errorf("failed to resolve home dir: %w", err)
	}

	home := envOrDefault("PROMPTDECK_HOME", filepath.Join(homeDir, ".promptdeck"))
	dbPath := envOrDefault("PROMPTDECK_DB_PATH", "")
	promptsDir := envOrDefault("PROMPTDECK_PROMPTS_DIR", "")
	workspaceStorage := envOrDefault("PROMPTDECK_WORKSPACE_STORAGE",
		filepath.Join(homeDir, "Library", "Application Support", "Cursor", "User", "workspaceStorage"))

	flagSet := flag.NewFlagSet("promptdeck", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagHome := flagSet.String("home", home, "promptdeck home directory")
	flagDB := flagSet.String("db", dbPath, "path to SQLite analytics database")
	flagPrompts := flagSet.String("prompts-dir", promptsDir, "prompts directory")
	flagStorage := flagSet.String("workspace-storage", workspaceStorage, "IDE workspace storage directory for project discovery")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
			return Config{}, nil, err
		}
		return Config{}, nil, err
	}

	config := Config{
		Home:             strings.TrimSpace(*flagHome),
		DBPath:           strings.TrimSpace(*flagDB),
		PromptsDir:       strings.TrimSpace(*flagPrompts),
		WorkspaceStorage: strings.TrimSpace(*flagStorage),
		AnthropicKey:     os.Getenv("ANTHROPIC_API_KEY"),
	}
	if config.Home == "" {
		return Config{}, nil, errors.New("home cannot be empty")
	}
	if config.DBPath == "" {
		config.DBPath = filepath.Join(config.Home, dbFilename)
	}
	if config.PromptsDir == "" {
		config.PromptsDir = filepath.Join(config.Home, "prompts")
	}

	return config, flagSet.Args(), nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
