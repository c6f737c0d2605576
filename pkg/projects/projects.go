// Package projects keeps the project registry: a JSON config file with
// active and archived project lists plus free-form settings, and discovery
// of projects from the IDE's workspace storage.
package projects

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/promptdeck/promptdeck/pkg/analytics"
)

// Recorder is the slice of the analytics write API the registry uses. A nil
// Recorder disables telemetry.
type Recorder interface {
	LogEvent(kind analytics.EventKind, opts ...analytics.EventOption)
}

// Project is one registered project.
type Project struct {
	Name            string            `json:"name"`
	Path            string            `json:"path"`
	Repo            string            `json:"repo,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	CreatedVia      string            `json:"created_via,omitempty"`
	PromptFilename  string            `json:"prompt_filename,omitempty"`
	PromptVariables map[string]string `json:"prompt_variables,omitempty"`
}

// Config is the on-disk registry shape.
type Config struct {
	Projects         []Project         `json:"projects"`
	ArchivedProjects []Project         `json:"archived_projects,omitempty"`
	Settings         map[string]string `json:"settings,omitempty"`
}

// Registry manages the config file at <home>/config.json.
type Registry struct {
	home string
	rec  Recorder
}

// NewRegistry creates a registry rooted at home. Telemetry goes to rec,
// which may be nil.
func NewRegistry(home string, rec Recorder) *Registry {
	return &Registry{home: home, rec: rec}
}

func (r *Registry) configPath() string {
	return filepath.Join(r.home, "config.json")
}

func (r *Registry) log(kind analytics.EventKind, opts ...analytics.EventOption) {
	if r.rec != nil {
		r.rec.LogEvent(kind, opts...)
	}
}

// Load reads the config, returning an empty one when the file is missing.
func (r *Registry) Load() (*Config, error) {
	raw, err := os.ReadFile(r.configPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func (r *Registry) save(cfg *Config) error {
	if err := os.MkdirAll(r.home, 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(r.configPath(), raw, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Active returns the active project list.
func (r *Registry) Active() ([]Project, error) {
	cfg, err := r.Load()
	if err != nil {
		return nil, err
	}
	return cfg.Projects, nil
}

// Archived returns the archived project list.
func (r *Registry) Archived() ([]Project, error) {
	cfg, err := r.Load()
	if err != nil {
		return nil, err
	}
	return cfg.ArchivedProjects, nil
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// Add registers a project. Re-adding a known path updates the name and repo
// in place without a second ledger entry.
func (r *Registry) Add(p Project) error {
	cfg, err := r.Load()
	if err != nil {
		return err
	}
	p.Path = absPath(p.Path)

	for i := range cfg.Projects {
		if cfg.Projects[i].Path == p.Path {
			cfg.Projects[i].Name = p.Name
			if p.Repo != "" {
				cfg.Projects[i].Repo = p.Repo
			}
			return r.save(cfg)
		}
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	cfg.Projects = append(cfg.Projects, p)
	if err := r.save(cfg); err != nil {
		return err
	}

	opts := []analytics.EventOption{
		analytics.WithProject(p.Path),
		analytics.WithMeta("project_name", p.Name),
	}
	if p.CreatedVia != "" {
		opts = append(opts, analytics.WithMeta("created_via", p.CreatedVia))
	}
	if p.PromptFilename != "" {
		opts = append(opts, analytics.WithPrompt(p.PromptFilename))
	}
	r.log(analytics.EventProjectCreated, opts...)
	return nil
}

// Remove drops a project from the active list only.
func (r *Registry) Remove(path string) error {
	cfg, err := r.Load()
	if err != nil {
		return err
	}
	cfg.Projects = withoutPath(cfg.Projects, absPath(path))
	return r.save(cfg)
}

// Archive moves a project from active to archived.
func (r *Registry) Archive(path string) error {
	cfg, err := r.Load()
	if err != nil {
		return err
	}
	abs := absPath(path)

	project, remaining := takePath(cfg.Projects, abs)
	if project == nil {
		return fmt.Errorf("project not found: %s", abs)
	}
	cfg.Projects = remaining
	if !hasPath(cfg.ArchivedProjects, abs) {
		cfg.ArchivedProjects = append(cfg.ArchivedProjects, *project)
	}
	if err := r.save(cfg); err != nil {
		return err
	}
	r.log(analytics.EventProjectArchived,
		analytics.WithProject(abs),
		analytics.WithMeta("project_name", project.Name))
	return nil
}

// Unarchive moves a project from archived back to active.
func (r *Registry) Unarchive(path string) error {
	cfg, err := r.Load()
	if err != nil {
		return err
	}
	abs := absPath(path)

	project, remaining := takePath(cfg.ArchivedProjects, abs)
	if project == nil {
		return fmt.Errorf("project not found in archive: %s", abs)
	}
	cfg.ArchivedProjects = remaining
	if !hasPath(cfg.Projects, abs) {
		cfg.Projects = append(cfg.Projects, *project)
	}
	if err := r.save(cfg); err != nil {
		return err
	}
	r.log(analytics.EventProjectUnarchived,
		analytics.WithProject(abs),
		analytics.WithMeta("project_name", project.Name))
	return nil
}

// Delete removes a project from both lists. When deleteFiles is set the
// project folder is removed from disk as well.
func (r *Registry) Delete(path string, deleteFiles bool) error {
	cfg, err := r.Load()
	if err != nil {
		return err
	}
	abs := absPath(path)
	cfg.Projects = withoutPath(cfg.Projects, abs)
	cfg.ArchivedProjects = withoutPath(cfg.ArchivedProjects, abs)
	if err := r.save(cfg); err != nil {
		return err
	}

	if deleteFiles {
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			if err := os.RemoveAll(abs); err != nil {
				return fmt.Errorf("failed to delete project files: %w", err)
			}
		}
	}

	r.log(analytics.EventProjectDeleted,
		analytics.WithProject(abs),
		analytics.WithMeta("deleted_files", fmt.Sprintf("%t", deleteFiles)))
	return nil
}

// Open records a project being opened. Launching the IDE is left to the
// caller.
func (r *Registry) Open(path string) {
	abs := absPath(path)
	r.log(analytics.EventProjectOpened,
		analytics.WithProject(abs),
		analytics.WithMeta("project_name", filepath.Base(abs)))
}

// Setting returns a free-form settings value, empty when unset.
func (r *Registry) Setting(key string) (string, error) {
	cfg, err := r.Load()
	if err != nil {
		return "", err
	}
	return cfg.Settings[key], nil
}

// SetSetting stores a free-form settings value. An empty value removes the
// key.
func (r *Registry) SetSetting(key, value string) error {
	cfg, err := r.Load()
	if err != nil {
		return err
	}
	if cfg.Settings == nil {
		cfg.Settings = make(map[string]string)
	}
	if value == "" {
		delete(cfg.Settings, key)
	} else {
		cfg.Settings[key] = value
	}
	return r.save(cfg)
}

// Settings returns all free-form settings keys in sorted order with their
// values.
func (r *Registry) Settings() ([][2]string, error) {
	cfg, err := r.Load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(cfg.Settings))
	for k := range cfg.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([][2]string, len(keys))
	for i, k := range keys {
		pairs[i] = [2]string{k, cfg.Settings[k]}
	}
	return pairs, nil
}

func hasPath(list []Project, path string) bool {
	for _, p := range list {
		if p.Path == path {
			return true
		}
	}
	return false
}

func withoutPath(list []Project, path string) []Project {
	out := list[:0]
	for _, p := range list {
		if p.Path != path {
			out = append(out, p)
		}
	}
	return out
}

func takePath(list []Project, path string) (*Project, []Project) {
	var found *Project
	remaining := make([]Project, 0, len(list))
	for i := range list {
		if list[i].Path == path && found == nil {
			found = &list[i]
			continue
		}
		remaining = append(remaining, list[i])
	}
	return found, remaining
}
