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

// variableRe matches {{name}} placeholders in a prompt body.
var variableRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// ParseVariables returns the distinct placeholder names in content, in
// order of first appearance.
func ParseVariables(content string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, match := range variableRe.FindAllStringSubmatch(content, -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			names = append(names, match[1])
		}
	}
	return names
}

// FillVariables substitutes placeholder values into content. Placeholders
// without a value are left intact.
func FillVariables(content string, values map[string]string) string {
	return variableRe.ReplaceAllStringFunc(content, func(match string) string {
		name := variableRe.FindStringSubmatch(match)[1]
		if v, ok := values[name]; ok {
			return v
		}
		return match
	})
}

// Apply fills a prompt's variables and installs the result as the target
// project's rules file at .cursor/rules/project-prompt.mdc. The application
// is recorded in the ledger with the filled variable names.
func (l *Library) Apply(filename, projectPath string, values map[string]string) (string, error) {
	body, err := l.Body(filename)
	if err != nil {
		return "", err
	}
	filled := FillVariables(body, values)

	rulesDir := filepath.Join(projectPath, ".cursor", "rules")
	if err := os.MkdirAll(rulesDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create rules dir: %w", err)
	}
	target := filepath.Join(rulesDir, "project-prompt.mdc")
	if err := os.WriteFile(target, []byte(filled), 0o644); err != nil {
		return "", fmt.Errorf("failed to write rules file: %w", err)
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	l.log(analytics.EventPromptApplied,
		analytics.WithPrompt(filename),
		analytics.WithProject(projectPath),
		analytics.WithMeta("project_name", filepath.Base(projectPath)),
		analytics.WithMeta("variable_names", names))
	return target, nil
}

// knownEnvironments and knownCategories are the suggested tag values shown
// by the pickers. Arbitrary values remain valid.
var (
	knownEnvironments = []string{"cursor", "claude", "chatgpt", "copilot", "windsurf", "other"}
	knownCategories   = []string{"web", "api", "cli", "data", "mobile", "infra", "docs", "other"}
)

// Environments returns the suggested environment tags.
func Environments() []string { return append([]string(nil), knownEnvironments...) }

// Categories returns the suggested category tags.
func Categories() []string { return append([]string(nil), knownCategories...) }

// GroupByCategory buckets prompts by their category tag. Untagged prompts
// land under "uncategorized".
func GroupByCategory(infos []Info) map[string][]Info {
	groups := make(map[string][]Info)
	for _, info := range infos {
		cat := strings.ToLower(info.Category)
		if cat == "" {
			cat = "uncategorized"
		}
		groups[cat] = append(groups[cat], info)
	}
	return groups
}
