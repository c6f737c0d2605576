package prompts

import (
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatterRe matches the leading --- ... --- block of a prompt file.
var frontmatterRe = regexp.MustCompile(`(?s)\A---\s*\n(.*?)\n---\s*\n?`)

// parseFrontmatter splits optional YAML frontmatter from a prompt's body.
// The block is flat key: value pairs; anything that fails to parse is
// treated as body text.
func parseFrontmatter(text string) (map[string]string, string) {
	match := frontmatterRe.FindStringSubmatchIndex(text)
	if match == nil {
		return map[string]string{}, text
	}

	raw := text[match[2]:match[3]]
	body := text[match[1]:]

	var meta map[string]string
	if err := yaml.Unmarshal([]byte(raw), &meta); err != nil {
		return map[string]string{}, text
	}
	lowered := make(map[string]string, len(meta))
	for k, v := range meta {
		lowered[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return lowered, body
}

// buildFrontmatter renders a frontmatter block from metadata. Empty values
// are skipped; an empty map yields an empty string. Keys are sorted for
// stable output.
func buildFrontmatter(meta map[string]string) string {
	keys := make([]string, 0, len(meta))
	for k, v := range meta {
		if v != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("---\n")
	for _, k := range keys {
		sb.WriteString(k + ": " + meta[k] + "\n")
	}
	sb.WriteString("---\n")
	return sb.String()
}

// setMetaField sets or clears one frontmatter field in a prompt's content,
// preserving the body.
func setMetaField(content, field, value string) string {
	meta, body := parseFrontmatter(content)
	if value != "" {
		meta[field] = value
	} else {
		delete(meta, field)
	}
	return buildFrontmatter(meta) + body
}
