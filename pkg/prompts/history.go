package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/promptdeck/promptdeck/pkg/analytics"
)

const historyStampLayout = "20060102_150405"

// Version is one archived prior revision of a prompt.
type Version struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
	Size      int64     `json:"size"`
}

func (l *Library) historyDir(filename string) string {
	stem := strings.TrimSuffix(filename, ".md")
	return filepath.Join(l.dir, ".history", stem)
}

// saveHistory archives the given content as a timestamped version.
func (l *Library) saveHistory(filename string, content []byte) error {
	dir := l.historyDir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create history dir: %w", err)
	}
	stem := strings.TrimSuffix(filename, ".md")
	stamp := time.Now().Format(historyStampLayout)
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.md", stem, stamp))
	// The stamp has second resolution; rapid saves need a suffix to avoid
	// clobbering an earlier version.
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%s_%d.md", stem, stamp, n))
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write history version: %w", err)
	}
	return nil
}

// History lists a prompt's archived versions, most recent first.
func (l *Library) History(filename string) ([]Version, error) {
	dir := l.historyDir(filename)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history dir: %w", err)
	}

	var versions []Version
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat history version: %w", err)
		}
		versions = append(versions, Version{
			Filename:  entry.Name(),
			Path:      filepath.Join(dir, entry.Name()),
			Timestamp: parseHistoryStamp(entry.Name()),
			Size:      info.Size(),
		})
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Filename > versions[j].Filename })
	return versions, nil
}

// parseHistoryStamp extracts the timestamp from a version filename like
// "my-prompt_20260830_143055.md". Returns the zero time when the name does
// not follow the convention.
func parseHistoryStamp(name string) time.Time {
	stem := strings.TrimSuffix(name, ".md")
	parts := strings.Split(stem, "_")
	if len(parts) < 3 {
		return time.Time{}
	}
	stamp := parts[len(parts)-2] + "_" + parts[len(parts)-1]
	t, err := time.ParseInLocation(historyStampLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// VersionContent reads one archived version's content.
func (l *Library) VersionContent(filename, versionFilename string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(l.historyDir(filename), versionFilename))
	if err != nil {
		return "", fmt.Errorf("history version not found: %s: %w", versionFilename, err)
	}
	return string(raw), nil
}

// RestoreVersion overwrites a prompt with an archived version, saving the
// current content to history first.
func (l *Library) RestoreVersion(filename, versionFilename string) error {
	content, err := l.VersionContent(filename, versionFilename)
	if err != nil {
		return err
	}

	path := filepath.Join(l.dir, filename)
	current, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("starter prompt not found: %s: %w", filename, err)
	}
	if err := l.saveHistory(filename, current); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to restore prompt: %w", err)
	}

	l.log(analytics.EventHistoryRestored,
		analytics.WithPrompt(filename),
		analytics.WithMeta("history_version", versionFilename))
	return nil
}
