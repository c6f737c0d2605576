package projects

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discovered is a project candidate found in the IDE's workspace storage.
type Discovered struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// WorkspaceMappings scans an IDE workspace-storage directory and returns a
// map of folder path to the workspace hashes the IDE holds for it. A folder
// with multiple hashes means the IDE has created duplicate workspace
// entries.
func WorkspaceMappings(storageDir string) map[string][]string {
	mappings := make(map[string][]string)

	entries, err := os.ReadDir(storageDir)
	if err != nil {
		return mappings
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(storageDir, entry.Name(), "workspace.json"))
		if err != nil {
			continue
		}
		var ws struct {
			Folder string `json:"folder"`
		}
		if err := json.Unmarshal(raw, &ws); err != nil {
			continue
		}
		if !strings.HasPrefix(ws.Folder, "file://") {
			continue
		}
		u, err := url.Parse(ws.Folder)
		if err != nil {
			continue
		}
		path := u.Path
		mappings[path] = append(mappings[path], entry.Name())
	}
	return mappings
}

// Discover returns project candidates from the IDE's workspace storage.
// Folders that no longer exist are skipped; when root is non-empty only
// folders under it are returned.
func Discover(storageDir, root string) []Discovered {
	mappings := WorkspaceMappings(storageDir)
	paths := make([]string, 0, len(mappings))
	for path := range mappings {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var found []Discovered
	for _, path := range paths {
		if root != "" && !strings.HasPrefix(path, root) {
			continue
		}
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			continue
		}
		found = append(found, Discovered{
			Name: displayName(filepath.Base(path)),
			Path: path,
		})
	}
	return found
}

func displayName(base string) string {
	words := strings.Fields(strings.ReplaceAll(base, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
