package reports

import (
	"time"

	"github.com/promptdeck/promptdeck/pkg/analytics"
)

// Absent is the marker rendered for values that do not exist yet. "No data"
// must stay distinguishable from a confirmed zero, so reports never coerce a
// missing rating or timestamp to 0.
const Absent = "—"

// Analytics is the read API the reports compose over. All methods are total;
// a damaged store answers with zero values and the report renders as "no
// data" instead of failing.
type Analytics interface {
	OverallStats() analytics.OverallStats
	AllPromptStats() map[string]analytics.PromptStats
	RecentActivity(limit int) []analytics.Event
	PendingFeedback(minAge time.Duration, limit int) []analytics.PendingFeedback
	Events(filter analytics.Filter) []analytics.Event
}

// HealthRow is one prompt's line in the health table.
type HealthRow struct {
	PromptRef string
	Name      string
	Health    analytics.Health
	Stats     analytics.PromptStats
}

// Attention is the "what needs attention now" panel: prompts classified
// needs_attention plus applications awaiting a rating.
type Attention struct {
	Prompts []HealthRow
	Pending []analytics.PendingFeedback
}
