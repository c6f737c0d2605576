package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/promptdeck/promptdeck/pkg/analytics"
	"github.com/promptdeck/promptdeck/pkg/mcp"
)

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve home dir: %v\n", err)
		os.Exit(1)
	}
	home := envOrDefault("PROMPTDECK_HOME", filepath.Join(homeDir, ".promptdeck"))
	dbPath := envOrDefault("PROMPTDECK_DB_PATH", filepath.Join(home, "analytics.db"))

	store := analytics.NewStore(dbPath)
	server := mcp.NewServer(store)

	if err := server.Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
