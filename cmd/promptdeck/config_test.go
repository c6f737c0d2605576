package main

import (
	"path/filepath"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PROMPTDECK_HOME", "/custom/home")
	t.Setenv("PROMPTDECK_DB_PATH", "")
	t.Setenv("PROMPTDECK_PROMPTS_DIR", "")

	cfg, args, err := LoadConfig([]string{"stats"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Home != "/custom/home" {
		t.Errorf("expected home from env, got %s", cfg.Home)
	}
	if cfg.DBPath != filepath.Join("/custom/home", "analytics.db") {
		t.Errorf("db path should derive from home, got %s", cfg.DBPath)
	}
	if cfg.PromptsDir != filepath.Join("/custom/home", "prompts") {
		t.Errorf("prompts dir should derive from home, got %s", cfg.PromptsDir)
	}
	if len(args) != 1 || args[0] != "stats" {
		t.Errorf("subcommand args not passed through: %v", args)
	}
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("PROMPTDECK_HOME", "/env/home")
	t.Setenv("PROMPTDECK_DB_PATH", "/env/db.sqlite")

	cfg, args, err := LoadConfig([]string{"-db", "/flag/db.sqlite", "recent", "5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DBPath != "/flag/db.sqlite" {
		t.Errorf("flag should override env, got %s", cfg.DBPath)
	}
	if cfg.Home != "/env/home" {
		t.Errorf("unset flag should keep env value, got %s", cfg.Home)
	}
	if len(args) != 2 || args[0] != "recent" {
		t.Errorf("unexpected remaining args: %v", args)
	}
}

func TestLoadConfig_ExplicitPathsKept(t *testing.T) {
	t.Setenv("PROMPTDECK_HOME", "/home/deck")
	t.Setenv("PROMPTDECK_DB_PATH", "/data/analytics.db")
	t.Setenv("PROMPTDECK_PROMPTS_DIR", "/data/prompts")

	cfg, _, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBPath != "/data/analytics.db" || cfg.PromptsDir != "/data/prompts" {
		t.Errorf("explicit paths must not be rederived: %+v", cfg)
	}
}
