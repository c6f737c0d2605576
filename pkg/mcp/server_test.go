package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/promptdeck/promptdeck/pkg/analytics"
)

type fakeAnalytics struct {
	stats   map[string]analytics.PromptStats
	pending []analytics.PendingFeedback
	logged  []analytics.EventKind
}

func (f *fakeAnalytics) OverallStats() analytics.OverallStats {
	return analytics.OverallStats{PromptApplications: 3}
}

func (f *fakeAnalytics) AllPromptStats() map[string]analytics.PromptStats { return f.stats }

func (f *fakeAnalytics) PromptStats(promptRef string) analytics.PromptStats {
	return f.stats[promptRef]
}

func (f *fakeAnalytics) RecentActivity(limit int) []analytics.Event { return nil }

func (f *fakeAnalytics) PendingFeedback(minAge time.Duration, limit int) []analytics.PendingFeedback {
	if limit < len(f.pending) {
		return f.pending[:limit]
	}
	return f.pending
}

func (f *fakeAnalytics) LogEvent(kind analytics.EventKind, opts ...analytics.EventOption) {
	f.logged = append(f.logged, kind)
}

func TestMCPServer_ReadStats(t *testing.T) {
	fake := &fakeAnalytics{
		stats: map[string]analytics.PromptStats{
			"api.md": {TimesUsed: 5, AvgRating: 3.8, RatingCount: 3},
		},
	}
	s := NewServer(fake)

	req := mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: "promptdeck://stats",
		},
	}

	result, err := s.handleReadStats(context.Background(), req)
	if err != nil {
		t.Fatalf("handleReadStats failed: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("Expected 1 resource content, got %d", len(result))
	}

	content, ok := result[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("Expected TextResourceContents")
	}
	if content.MIMEType != "application/json" {
		t.Errorf("Expected application/json, got %s", content.MIMEType)
	}

	var payload struct {
		Overall analytics.OverallStats `json:"overall"`
		Prompts map[string]struct {
			Health analytics.Health `json:"health"`
		} `json:"prompts"`
	}
	if err := json.Unmarshal([]byte(content.Text), &payload); err != nil {
		t.Fatalf("Failed to parse result JSON: %v", err)
	}
	if payload.Overall.PromptApplications != 3 {
		t.Errorf("Expected 3 applications, got %d", payload.Overall.PromptApplications)
	}
	if payload.Prompts["api.md"].Health != analytics.HealthGreat {
		t.Errorf("Expected great health, got %s", payload.Prompts["api.md"].Health)
	}
}

func TestMCPServer_GetPromptStats(t *testing.T) {
	fake := &fakeAnalytics{
		stats: map[string]analytics.PromptStats{
			"api.md": {TimesUsed: 2, AvgRating: 1.5, RatingCount: 2},
		},
	}
	s := NewServer(fake)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "get_prompt_stats",
			Arguments: map[string]interface{}{
				"prompt_ref": "api.md",
			},
		},
	}

	result, err := s.handleGetPromptStats(context.Background(), req)
	if err != nil {
		t.Fatalf("handleGetPromptStats failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("Expected success, got error")
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok || text.Text == "" {
		t.Fatal("Expected text content")
	}
	var payload struct {
		Health analytics.Health `json:"health"`
	}
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("Failed to parse result JSON: %v", err)
	}
	if payload.Health != analytics.HealthNeedsAttention {
		t.Errorf("Expected needs_attention, got %s", payload.Health)
	}
}

func TestMCPServer_RecordFeedback(t *testing.T) {
	fake := &fakeAnalytics{}
	s := NewServer(fake)

	rate := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "record_feedback",
			Arguments: map[string]interface{}{
				"prompt_ref":  "api.md",
				"project_ref": "/proj/a",
				"rating":      float64(4),
			},
		},
	}
	result, err := s.handleRecordFeedback(context.Background(), rate)
	if err != nil || result.IsError {
		t.Fatalf("rating call failed: %v / %+v", err, result)
	}

	skip := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "record_feedback",
			Arguments: map[string]interface{}{
				"prompt_ref":  "api.md",
				"project_ref": "/proj/a",
			},
		},
	}
	result, err = s.handleRecordFeedback(context.Background(), skip)
	if err != nil || result.IsError {
		t.Fatalf("skip call failed: %v / %+v", err, result)
	}

	if len(fake.logged) != 2 ||
		fake.logged[0] != analytics.EventFeedbackGiven ||
		fake.logged[1] != analytics.EventFeedbackSkipped {
		t.Errorf("unexpected logged events: %v", fake.logged)
	}

	bad := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "record_feedback",
			Arguments: map[string]interface{}{
				"prompt_ref":  "api.md",
				"project_ref": "/proj/a",
				"rating":      float64(9),
			},
		},
	}
	result, _ = s.handleRecordFeedback(context.Background(), bad)
	if !result.IsError {
		t.Error("out-of-range rating should be rejected")
	}
	if len(fake.logged) != 2 {
		t.Errorf("rejected rating must not be logged: %v", fake.logged)
	}
}

func TestMCPServer_GetPendingFeedback(t *testing.T) {
	fake := &fakeAnalytics{
		pending: []analytics.PendingFeedback{
			{PromptRef: "a.md", ProjectRef: "/proj/a", DisplayName: "a"},
			{PromptRef: "b.md", ProjectRef: "/proj/b", DisplayName: "b"},
		},
	}
	s := NewServer(fake)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "get_pending_feedback",
			Arguments: map[string]interface{}{
				"limit": float64(1),
			},
		},
	}
	result, err := s.handleGetPendingFeedback(context.Background(), req)
	if err != nil || result.IsError {
		t.Fatalf("call failed: %v", err)
	}

	text := result.Content[0].(mcp.TextContent)
	var pending []analytics.PendingFeedback
	if err := json.Unmarshal([]byte(text.Text), &pending); err != nil {
		t.Fatalf("Failed to parse result JSON: %v", err)
	}
	if len(pending) != 1 || pending[0].PromptRef != "a.md" {
		t.Errorf("limit not honored: %v", pending)
	}
}
