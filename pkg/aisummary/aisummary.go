// Package aisummary sends local prompt analytics to the Anthropic API for
// qualitative analysis. It is the only network-bound surface of the app;
// all calls take a context for timeout and cancellation.
package aisummary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/promptdeck/promptdeck/pkg/analytics"
	"github.com/promptdeck/promptdeck/pkg/prompts"
)

// Stats is the slice of the analytics read API the analyzer consumes.
type Stats interface {
	PromptStats(promptRef string) analytics.PromptStats
	AllPromptStats() map[string]analytics.PromptStats
	OverallStats() analytics.OverallStats
	RecentActivity(limit int) []analytics.Event
}

// Library is the slice of the prompt library the analyzer consumes.
type Library interface {
	List() ([]prompts.Info, error)
	Body(filename string) (string, error)
	Meta(filename string) (map[string]string, error)
}

// defaultModels is tried in order; rate-limited requests fall through to
// the next entry.
var defaultModels = []string{
	"claude-sonnet-4-5-20250929",
	"claude-3-5-haiku-20241022",
}

const systemPrompt = "You are PromptDeck Analyst, an expert at evaluating " +
	"AI coding prompts and their real-world effectiveness. The user manages " +
	"a library of starter prompts used to kick off new coding projects. " +
	"You will be given prompt content, metadata, and usage analytics. " +
	"Provide a concise, actionable analysis."

// Analyzer runs AI analysis over the prompt portfolio.
type Analyzer struct {
	client *anthropic.Client
	stats  Stats
	lib    Library
	policy analytics.HealthPolicy
	models []string

	// retryPause runs between model attempts after a rate limit.
	retryPause time.Duration
}

// NewAnalyzer creates an analyzer using the given API key.
func NewAnalyzer(apiKey string, stats Stats, lib Library) *Analyzer {
	return &Analyzer{
		client:     anthropic.NewClient(apiKey),
		stats:      stats,
		lib:        lib,
		policy:     analytics.DefaultHealthPolicy,
		models:     defaultModels,
		retryPause: 2 * time.Second,
	}
}

// generate tries each configured model in order, falling through to the
// next on rate-limit errors only.
func (a *Analyzer) generate(ctx context.Context, userMessage string, maxTokens int) (string, error) {
	var lastErr error
	for i, model := range a.models {
		if i > 0 {
			select {
			case <-time.After(a.retryPause):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		resp, err := a.client.CreateMessages(ctx, anthropic.MessagesRequest{
			Model:     anthropic.Model(model),
			System:    systemPrompt,
			MaxTokens: maxTokens,
			Messages: []anthropic.Message{
				anthropic.NewUserTextMessage(userMessage),
			},
		})
		if err != nil {
			lastErr = err
			if isRateLimited(err) {
				continue
			}
			return "", fmt.Errorf("analysis request failed: %w", err)
		}
		return responseText(resp), nil
	}
	return "", fmt.Errorf("all models rate limited, try again in a minute: %w", lastErr)
}

func isRateLimited(err error) bool {
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRateLimitErr()
	}
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

func responseText(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}

// AnalyzePrompt analyses one starter prompt: its content, metadata, and
// usage analytics.
func (a *Analyzer) AnalyzePrompt(ctx context.Context, filename string) (string, error) {
	body, err := a.lib.Body(filename)
	if err != nil {
		return "", fmt.Errorf("prompt not found: %s: %w", filename, err)
	}
	meta, err := a.lib.Meta(filename)
	if err != nil {
		return "", err
	}

	stats := a.stats.PromptStats(filename)
	data := map[string]any{
		"filename":       filename,
		"environment":    orUnknown(meta["environment"]),
		"category":       orUnknown(meta["category"]),
		"health":         a.policy.Classify(stats),
		"times_used":     stats.TimesUsed,
		"avg_rating":     ratingValue(stats),
		"rating_count":   stats.RatingCount,
		"edit_count":     stats.EditCount,
		"projects_count": len(stats.Projects),
		"last_used":      lastUsedValue(stats),
	}

	userMessage := fmt.Sprintf(
		"Analyze the following starter prompt.\n\n"+
			"## Metadata & Analytics\n```json\n%s\n```\n\n"+
			"## Prompt Content\n```\n%s\n```\n\n"+
			"Provide your analysis in the following sections:\n"+
			"1. **Quality Score** (1-10)\n"+
			"2. **Strengths**\n"+
			"3. **Weaknesses / Risks**\n"+
			"4. **Improvement Suggestions**\n"+
			"5. **Usage Insights**\n"+
			"6. **Rewrite Suggestion**\n",
		mustJSON(data), body)

	return a.generate(ctx, userMessage, 2048)
}

// AnalyzeOverview analyses the full portfolio: overall stats, per-prompt
// summaries, and recent activity.
func (a *Analyzer) AnalyzeOverview(ctx context.Context) (string, error) {
	infos, err := a.lib.List()
	if err != nil {
		return "", err
	}

	overall := a.stats.OverallStats()
	allStats := a.stats.AllPromptStats()
	recent := a.stats.RecentActivity(20)

	summaries := make([]map[string]any, 0, len(infos))
	for _, info := range infos {
		stats := allStats[info.Filename]
		summaries = append(summaries, map[string]any{
			"filename":    info.Filename,
			"name":        info.Name,
			"environment": orUnknown(info.Environment),
			"category":    orUnknown(info.Category),
			"health":      a.policy.Classify(stats),
			"times_used":  stats.TimesUsed,
			"avg_rating":  ratingValue(stats),
			"edit_count":  stats.EditCount,
		})
	}

	activity := make([]map[string]any, 0, len(recent))
	for _, ev := range recent {
		activity = append(activity, map[string]any{
			"event":     ev.Kind,
			"prompt":    ev.PromptRef,
			"timestamp": ev.Timestamp.Format("2006-01-02 15:04"),
		})
	}

	overallData := map[string]any{
		"projects_created":    overall.ProjectsCreated,
		"prompt_applications": overall.PromptApplications,
		"unique_prompts_used": overall.UniquePromptsUsed,
		"most_used_prompt":    overall.MostUsedPrompt,
		"avg_rating":          overallRatingValue(overall),
		"events_last_30_days": overall.EventsLast30Days,
	}

	userMessage := fmt.Sprintf(
		"Analyse my full prompt portfolio and usage.\n\n"+
			"## Overall Stats\n```json\n%s\n```\n\n"+
			"## Prompts (%d total)\n```json\n%s\n```\n\n"+
			"## Recent Activity (last %d events)\n```json\n%s\n```\n\n"+
			"Provide your analysis in these sections:\n"+
			"1. **Portfolio Health**\n"+
			"2. **Top Performers**\n"+
			"3. **Needs Attention**\n"+
			"4. **Usage Patterns**\n"+
			"5. **Gaps & Opportunities**\n"+
			"6. **Top 3 Recommendations**\n",
		mustJSON(overallData), len(summaries), mustJSON(summaries),
		len(activity), mustJSON(activity))

	return a.generate(ctx, userMessage, 3000)
}

func mustJSON(v any) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// ratingValue keeps absent ratings out of the model's view instead of
// presenting a misleading zero.
func ratingValue(stats analytics.PromptStats) any {
	if !stats.HasRating() {
		return nil
	}
	return stats.AvgRating
}

func overallRatingValue(overall analytics.OverallStats) any {
	if !overall.HasRating() {
		return nil
	}
	return overall.AvgRating
}

func lastUsedValue(stats analytics.PromptStats) any {
	if stats.LastUsed.IsZero() {
		return nil
	}
	return stats.LastUsed.Format(time.RFC3339)
}
