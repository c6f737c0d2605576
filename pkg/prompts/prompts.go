// Package prompts manages the file-per-prompt Markdown library: one .md
// file per starter prompt, with an optional YAML frontmatter block carrying
// category and environment tags, and a .history/ directory of prior
// versions.
package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/promptdeck/promptdeck/pkg/analytics"
)

// Recorder is the slice of the analytics write API the library uses. The
// analytics store satisfies it; a nil Recorder disables telemetry.
type Recorder interface {
	LogEvent(kind analytics.EventKind, opts ...analytics.EventOption)
}

// Library manages the prompts directory.
type Library struct {
	dir string
	rec Recorder
}

// NewLibrary creates a library rooted at dir. Telemetry goes to rec, which
// may be nil.
func NewLibrary(dir string, rec Recorder) *Library {
	return &Library{dir: dir, rec: rec}
}

// Dir returns the library's root directory.
func (l *Library) Dir() string { return l.dir }

func (l *Library) log(kind analytics.EventKind, opts ...analytics.EventOption) {
	if l.rec != nil {
		l.rec.LogEvent(kind, opts...)
	}
}

// ensureDir creates the prompts directory if needed.
func (l *Library) ensureDir() error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create prompts dir: %w", err)
	}
	return nil
}

// Info summarises one prompt for listings.
type Info struct {
	Name        string `json:"name"`
	Filename    string `json:"filename"`
	Path        string `json:"path"`
	Preview     string `json:"preview,omitempty"`
	Environment string `json:"environment,omitempty"`
	Category    string `json:"category,omitempty"`
}

// List returns every prompt in the library, sorted by filename.
func (l *Library) List() ([]Info, error) {
	if err := l.ensureDir(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts dir: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt %s: %w", entry.Name(), err)
		}

		meta, body := parseFrontmatter(strings.TrimSpace(string(raw)))
		title, preview := titleAndPreview(entry.Name(), body)

		infos = append(infos, Info{
			Name:        title,
			Filename:    entry.Name(),
			Path:        path,
			Preview:     preview,
			Environment: meta["environment"],
			Category:    meta["category"],
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Filename < infos[j].Filename })
	return infos, nil
}

// Names returns the prompt ref to display name map consumed by the
// reporting façade.
func (l *Library) Names() (map[string]string, error) {
	infos, err := l.List()
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(infos))
	for _, info := range infos {
		names[info.Filename] = info.Name
	}
	return names, nil
}

// Get returns a prompt's full content, frontmatter included.
func (l *Library) Get(filename string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(l.dir, filename))
	if err != nil {
		return "", fmt.Errorf("failed to read prompt %s: %w", filename, err)
	}
	return string(raw), nil
}

// Body returns a prompt's content without the frontmatter block.
func (l *Library) Body(filename string) (string, error) {
	content, err := l.Get(filename)
	if err != nil {
		return "", err
	}
	_, body := parseFrontmatter(content)
	return body, nil
}

// Meta returns a prompt's frontmatter metadata.
func (l *Library) Meta(filename string) (map[string]string, error) {
	content, err := l.Get(filename)
	if err != nil {
		return nil, err
	}
	meta, _ := parseFrontmatter(content)
	return meta, nil
}

// Create writes a new prompt file and returns its filename. Category and
// environment, when non-empty, are stored in the frontmatter.
func (l *Library) Create(name, content, category, environment string) (string, error) {
	if err := l.ensureDir(); err != nil {
		return "", err
	}

	filename := Slugify(name)
	if environment != "" {
		content = setMetaField(content, "environment", environment)
	}
	if category != "" {
		content = setMetaField(content, "category", category)
	}

	path := filepath.Join(l.dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	l.log(analytics.EventPromptCreated,
		analytics.WithPrompt(filename),
		analytics.WithMeta("category", category),
		analytics.WithMeta("environment", environment))
	return filename, nil
}

// Edit replaces a prompt's content, saving the prior version to history
// first.
func (l *Library) Edit(filename, newContent string) error {
	path := filepath.Join(l.dir, filename)
	old, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("starter prompt not found: %s: %w", filename, err)
	}

	if err := l.saveHistory(filename, old); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(newContent), 0o644); err != nil {
		return fmt.Errorf("failed to write prompt: %w", err)
	}

	diff := len(newContent) - len(old)
	if diff < 0 {
		diff = -diff
	}
	l.log(analytics.EventPromptEdited,
		analytics.WithPrompt(filename),
		analytics.WithMeta("diff_chars", diff))
	return nil
}

// SetCategory updates the category frontmatter field, preserving the body.
// No history entry is created for a tag change.
func (l *Library) SetCategory(filename, category string) error {
	return l.setField(filename, "category", category)
}

// SetEnvironment updates the environment frontmatter field.
func (l *Library) SetEnvironment(filename, environment string) error {
	return l.setField(filename, "environment", environment)
}

func (l *Library) setField(filename, field, value string) error {
	content, err := l.Get(filename)
	if err != nil {
		return err
	}
	path := filepath.Join(l.dir, filename)
	if err := os.WriteFile(path, []byte(setMetaField(content, field, value)), 0o644); err != nil {
		return fmt.Errorf("failed to write prompt: %w", err)
	}
	return nil
}

// Rename renames a prompt file, updates its heading, and moves its history
// directory along. Returns the new filename.
func (l *Library) Rename(oldFilename, newName string) (string, error) {
	oldPath := filepath.Join(l.dir, oldFilename)
	raw, err := os.ReadFile(oldPath)
	if err != nil {
		return "", fmt.Errorf("starter prompt not found: %s: %w", oldFilename, err)
	}

	newFilename := Slugify(newName)
	newPath := filepath.Join(l.dir, newFilename)
	if newFilename != oldFilename {
		if _, err := os.Stat(newPath); err == nil {
			return "", fmt.Errorf("a prompt named %q already exists", newFilename)
		}
	}

	meta, body := parseFrontmatter(string(raw))
	body = replaceHeading(body, newName)
	content := buildFrontmatter(meta) + body
	if err := os.WriteFile(oldPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	if newFilename != oldFilename {
		if err := os.Rename(oldPath, newPath); err != nil {
			return "", fmt.Errorf("failed to rename prompt: %w", err)
		}
		oldHist := l.historyDir(oldFilename)
		newHist := l.historyDir(newFilename)
		if _, err := os.Stat(oldHist); err == nil {
			if _, err := os.Stat(newHist); os.IsNotExist(err) {
				if err := os.Rename(oldHist, newHist); err != nil {
					return "", fmt.Errorf("failed to move prompt history: %w", err)
				}
			}
		}
	}
	return newFilename, nil
}

// Delete removes a prompt file. History is preserved.
func (l *Library) Delete(filename string) error {
	path := filepath.Join(l.dir, filename)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete prompt: %w", err)
	}
	l.log(analytics.EventPromptDeleted, analytics.WithPrompt(filename))
	return nil
}

// Slugify turns a display name into a prompt filename.
func Slugify(name string) string {
	filename := strings.ToLower(name)
	filename = strings.ReplaceAll(filename, " ", "-")
	filename = strings.ReplaceAll(filename, "_", "-")
	if !strings.HasSuffix(filename, ".md") {
		filename += ".md"
	}
	return filename
}

var headingRe = regexp.MustCompile(`(?m)^# .*$`)

func replaceHeading(body, newName string) string {
	if headingRe.MatchString(body) {
		replaced := false
		return headingRe.ReplaceAllStringFunc(body, func(match string) string {
			if replaced {
				return match
			}
			replaced = true
			return "# " + newName
		})
	}
	return "# " + newName + "\n\n" + body
}

func titleAndPreview(filename, body string) (string, string) {
	title := strings.TrimSuffix(filename, ".md")
	title = strings.ReplaceAll(title, "-", " ")
	title = strings.ReplaceAll(title, "_", " ")
	title = titleCase(title)

	preview := ""
	for _, line := range strings.Split(body, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "# ") {
			title = strings.TrimSpace(stripped[2:])
		} else if stripped != "" && !strings.HasPrefix(stripped, "#") {
			if len(stripped) > 120 {
				stripped = stripped[:120]
			}
			preview = stripped
			break
		}
	}
	return title, preview
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
