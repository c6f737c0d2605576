package reports

import (
	"fmt"
	"sort"
	"strings"

	"github.com/promptdeck/promptdeck/pkg/analytics"
)

// Portfolio composes the aggregation layer, the health classifier, and the
// feedback scheduler into presentation-ready shapes. It holds no state and
// re-implements no aggregation logic.
type Portfolio struct {
	analytics Analytics
	policy    analytics.HealthPolicy
}

// NewPortfolio creates a portfolio reporter over the given analytics source.
func NewPortfolio(a Analytics) *Portfolio {
	return &Portfolio{analytics: a, policy: analytics.DefaultHealthPolicy}
}

// HealthRows classifies every known prompt. The names map (prompt ref to
// display name) comes from the prompt library, which owns naming; refs
// without an entry fall back to the raw ref. Names listed in the map but
// absent from the ledger appear with zero stats so brand-new prompts still
// show up as "new".
func (p *Portfolio) HealthRows(names map[string]string) []HealthRow {
	stats := p.analytics.AllPromptStats()

	refs := make(map[string]bool, len(stats)+len(names))
	for ref := range stats {
		refs[ref] = true
	}
	for ref := range names {
		refs[ref] = true
	}

	rows := make([]HealthRow, 0, len(refs))
	for ref := range refs {
		st := stats[ref] // zero value when absent
		name := names[ref]
		if name == "" {
			name = ref
		}
		rows = append(rows, HealthRow{
			PromptRef: ref,
			Name:      name,
			Health:    p.policy.Classify(st),
			Stats:     st,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Stats.TimesUsed != rows[j].Stats.TimesUsed {
			return rows[i].Stats.TimesUsed > rows[j].Stats.TimesUsed
		}
		return rows[i].PromptRef < rows[j].PromptRef
	})
	return rows
}

// Attention returns the "needs attention now" panel.
func (p *Portfolio) Attention(names map[string]string) Attention {
	var att Attention
	for _, row := range p.HealthRows(names) {
		if row.Health == analytics.HealthNeedsAttention {
			att.Prompts = append(att.Prompts, row)
		}
	}
	att.Pending = p.analytics.PendingFeedback(analytics.DefaultFeedbackAge, 3)
	return att
}

// Render produces the textual portfolio report: overall stats, per-prompt
// health, and the recent activity feed.
func (p *Portfolio) Render(names map[string]string) string {
	var sb strings.Builder

	overall := p.analytics.OverallStats()

	sb.WriteString("PromptDeck Analytics\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&sb, "Projects created:      %d\n", overall.ProjectsCreated)
	fmt.Fprintf(&sb, "Prompts applied:       %d\n", overall.PromptApplications)
	fmt.Fprintf(&sb, "Unique prompts used:   %d\n", overall.UniquePromptsUsed)
	fmt.Fprintf(&sb, "Most used prompt:      %s\n", displayName(names, overall.MostUsedPrompt))
	fmt.Fprintf(&sb, "Overall avg rating:    %s\n", formatOverallRating(overall))
	fmt.Fprintf(&sb, "Events (last 30 days): %d\n", overall.EventsLast30Days)

	rows := p.HealthRows(names)
	if len(rows) > 0 {
		sb.WriteString("\nPrompt Health\n")
		sb.WriteString(strings.Repeat("-", 50) + "\n")
		for _, row := range rows {
			fmt.Fprintf(&sb, "%s %s: %s (%s)\n",
				HealthIcon(row.Health), row.Name,
				strings.ReplaceAll(string(row.Health), "_", " "),
				healthDetail(row.Stats))
		}
	}

	activity := p.analytics.RecentActivity(10)
	if len(activity) > 0 {
		sb.WriteString("\nRecent Activity\n")
		sb.WriteString(strings.Repeat("-", 50) + "\n")
		for _, ev := range activity {
			sb.WriteString(ActivityLine(names, ev) + "\n")
		}
	}

	return sb.String()
}

// HealthIcon maps a health label to its one-rune marker.
func HealthIcon(h analytics.Health) string {
	switch h {
	case analytics.HealthGreat:
		return "★"
	case analytics.HealthGood:
		return "✓"
	case analytics.HealthNeedsAttention:
		return "⚠"
	case analytics.HealthUnused:
		return "○"
	case analytics.HealthNew:
		return "●"
	}
	return "?"
}

// FormatRating renders a prompt's average rating, or the absence marker when
// it has never been rated.
func FormatRating(stats analytics.PromptStats) string {
	if !stats.HasRating() {
		return Absent
	}
	return fmt.Sprintf("%.1f/4", stats.AvgRating)
}

// FormatLastUsed renders the last-used timestamp, or the absence marker when
// the prompt was never applied.
func FormatLastUsed(stats analytics.PromptStats) string {
	if stats.LastUsed.IsZero() {
		return Absent
	}
	return stats.LastUsed.Local().Format("Jan 02 15:04")
}

func formatOverallRating(overall analytics.OverallStats) string {
	if !overall.HasRating() {
		return Absent
	}
	return fmt.Sprintf("%.1f/4", overall.AvgRating)
}

func healthDetail(stats analytics.PromptStats) string {
	detail := fmt.Sprintf("used %dx", stats.TimesUsed)
	if stats.HasRating() {
		detail += ", " + FormatRating(stats)
	}
	return detail
}

func displayName(names map[string]string, ref string) string {
	if ref == "" {
		return Absent
	}
	if name, ok := names[ref]; ok && name != "" {
		return name
	}
	return ref
}

// ActivityLine renders one ledger event as a single feed line.
func ActivityLine(names map[string]string, ev analytics.Event) string {
	ts := ev.Timestamp.Local().Format("Jan 02 15:04")
	kind := strings.ReplaceAll(string(ev.Kind), "_", " ")

	detail := ""
	switch {
	case ev.PromptRef != "":
		detail = " — " + displayName(names, ev.PromptRef)
	case ev.ProjectRef != "":
		parts := strings.Split(ev.ProjectRef, "/")
		detail = " — " + parts[len(parts)-1]
	}
	return fmt.Sprintf("%s  %s%s", ts, kind, detail)
}
