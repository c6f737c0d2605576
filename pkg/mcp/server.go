package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/promptdeck/promptdeck/pkg/analytics"
)

// Analytics is the slice of the analytics API the MCP surface exposes. The
// analytics store satisfies it.
type Analytics interface {
	OverallStats() analytics.OverallStats
	AllPromptStats() map[string]analytics.PromptStats
	PromptStats(promptRef string) analytics.PromptStats
	RecentActivity(limit int) []analytics.Event
	PendingFeedback(minAge time.Duration, limit int) []analytics.PendingFeedback
	LogEvent(kind analytics.EventKind, opts ...analytics.EventOption)
}

// Server adapts the analytics ledger to the Model Context Protocol so
// agents can read usage data and record feedback.
type Server struct {
	mcpServer *server.MCPServer
	analytics Analytics
}

// NewServer creates a new MCP server instance.
func NewServer(a Analytics) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"promptdeck",
			"1.0.0",
		),
		analytics: a,
	}
	s.registerResources()
	s.registerTools()
	s.registerPrompts()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	// promptdeck://stats
	s.mcpServer.AddResource(mcp.NewResource(
		"promptdeck://stats",
		"PromptDeck Portfolio Stats",
		mcp.WithResourceDescription("Overall usage statistics plus per-prompt stats and health"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadStats)

	// promptdeck://activity
	s.mcpServer.AddResource(mcp.NewResource(
		"promptdeck://activity",
		"PromptDeck Recent Activity",
		mcp.WithResourceDescription("Most recent events from the usage ledger"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadActivity)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"get_prompt_stats",
		mcp.WithDescription("Get usage stats and health classification for one starter prompt."),
		mcp.WithString("prompt_ref", mcp.Required(), mcp.Description("The prompt filename (e.g., 'code-review.md')")),
	), s.handleGetPromptStats)

	s.mcpServer.AddTool(mcp.NewTool(
		"get_pending_feedback",
		mcp.WithDescription("List prompt applications old enough to rate that have no feedback yet."),
		mcp.WithNumber("limit", mcp.Description("Maximum entries to return (default 10)")),
	), s.handleGetPendingFeedback)

	s.mcpServer.AddTool(mcp.NewTool(
		"record_feedback",
		mcp.WithDescription("Record feedback for a prompt application: a 1-4 rating, or a skip."),
		mcp.WithString("prompt_ref", mcp.Required(), mcp.Description("The prompt filename")),
		mcp.WithString("project_ref", mcp.Required(), mcp.Description("The project path the prompt was applied to")),
		mcp.WithNumber("rating", mcp.Description("Rating from 1 (poor) to 4 (great); omit to skip")),
	), s.handleRecordFeedback)
}

// --- Prompts ---

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(
		"promptdeck-aware",
		mcp.WithPromptDescription("Provides context about PromptDeck concepts (prompts, projects, feedback)"),
	), s.handleGetPrompt)
}

// --- Handlers ---

func (s *Server) handleReadStats(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	type promptEntry struct {
		Stats  analytics.PromptStats `json:"stats"`
		Health analytics.Health      `json:"health"`
	}
	prompts := make(map[string]promptEntry)
	for ref, stats := range s.analytics.AllPromptStats() {
		prompts[ref] = promptEntry{Stats: stats, Health: analytics.ClassifyHealth(stats)}
	}

	payload := struct {
		Overall analytics.OverallStats `json:"overall"`
		Prompts map[string]promptEntry `json:"prompts"`
	}{
		Overall: s.analytics.OverallStats(),
		Prompts: prompts,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stats: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleReadActivity(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	events := s.analytics.RecentActivity(50)

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal events: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleGetPromptStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	promptRef := mcp.ParseString(request, "prompt_ref", "")
	if promptRef == "" {
		return mcp.NewToolResultError("prompt_ref is required"), nil
	}

	stats := s.analytics.PromptStats(promptRef)
	payload := struct {
		PromptRef string                `json:"prompt_ref"`
		Stats     analytics.PromptStats `json:"stats"`
		Health    analytics.Health      `json:"health"`
	}{
		PromptRef: promptRef,
		Stats:     stats,
		Health:    analytics.ClassifyHealth(stats),
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal stats: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleGetPendingFeedback(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int(mcp.ParseFloat64(request, "limit", 10))

	pending := s.analytics.PendingFeedback(analytics.DefaultFeedbackAge, limit)
	data, err := json.MarshalIndent(pending, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal pending feedback: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleRecordFeedback(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	promptRef := mcp.ParseString(request, "prompt_ref", "")
	projectRef := mcp.ParseString(request, "project_ref", "")
	rating := int(mcp.ParseFloat64(request, "rating", 0))

	if promptRef == "" || projectRef == "" {
		return mcp.NewToolResultError("prompt_ref and project_ref are required"), nil
	}

	if rating == 0 {
		s.analytics.LogEvent(analytics.EventFeedbackSkipped,
			analytics.WithPrompt(promptRef),
			analytics.WithProject(projectRef))
		return mcp.NewToolResultText(fmt.Sprintf("Feedback skipped for %s in %s", promptRef, projectRef)), nil
	}

	if rating < 1 || rating > 4 {
		return mcp.NewToolResultError("rating must be between 1 and 4"), nil
	}
	s.analytics.LogEvent(analytics.EventFeedbackGiven,
		analytics.WithPrompt(promptRef),
		analytics.WithProject(projectRef),
		analytics.WithMeta("rating", rating))
	return mcp.NewToolResultText(fmt.Sprintf("Recorded rating %d for %s in %s", rating, promptRef, projectRef)), nil
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	if name != "promptdeck-aware" {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}

	promptText := `You are interacting with PromptDeck, a local-first starter prompt manager.

Concepts:
- Starter prompt: a reusable Markdown prompt used to kick off coding projects.
- Prompt ref: the prompt's filename (e.g., 'code-review.md').
- Project ref: the filesystem path of a project the prompt was applied to.
- Feedback: a 1-4 rating of how well a prompt worked for a project.
- Health: a classification of a prompt's effectiveness (great, good, needs_attention, unused, new).

Read 'promptdeck://stats' for portfolio health. When the user finishes a
project that was started from a prompt, use 'record_feedback' to capture a
rating so the health data stays meaningful.
`

	return mcp.NewGetPromptResult(
		"promptdeck-aware",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
		},
	), nil
}
