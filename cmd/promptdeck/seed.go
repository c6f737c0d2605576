package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/promptdeck/promptdeck/pkg/analytics"
	"github.com/promptdeck/promptdeck/pkg/prompts"
)

// seedPrompt is one demo starter prompt written by `promptdeck seed`.
type seedPrompt struct {
	filename string
	category string
	env      string
	body     string
	// ageDays is roughly how long ago the prompt was created.
	ageDays int
	// uses pairs a demo project with the rating it fed back (0 = none).
	uses []seedUse
	// extraEdits makes a prompt look heavily reworked.
	extraEdits int
}

type seedUse struct {
	project string
	name    string
	daysAgo int
	rating  int
}

var seedPrompts = []seedPrompt{
	{
		filename: "react-saas-starter.md", category: "web", env: "cursor", ageDays: 120,
		body: "# React SaaS Starter\n\nBuild a production-ready SaaS called {{app_name}} " +
			"for {{target_audience}}.\n\n- React with TypeScript\n- Tailwind CSS\n- Stripe billing\n",
		uses: []seedUse{
			{"/projects/signal-scout", "Signal Scout", 60, 4},
			{"/projects/saas-dashboard", "SaaS Dashboard", 45, 4},
			{"/projects/client-portal", "Client Portal", 25, 3},
		},
	},
	{
		filename: "python-cli-tool.md", category: "cli", env: "cursor", ageDays: 100,
		body: "# Python CLI Tool\n\nBuild a CLI tool called {{tool_name}} that {{tool_purpose}}.\n\n" +
			"- Click subcommands\n- Rich terminal output\n- pytest coverage\n",
		uses: []seedUse{
			{"/projects/deploy-tool", "Deploy Tool", 90, 4},
			{"/projects/log-analyzer", "Log Analyzer", 55, 3},
		},
	},
	{
		filename: "api-backend-starter.md", category: "api", env: "cursor", ageDays: 80,
		body: "# API Backend Starter\n\nBuild a REST API for {{service_name}}.\n\n" +
			"- TypeScript + Fastify\n- PostgreSQL with Prisma\n- JWT auth\n",
		uses: []seedUse{
			{"/projects/payment-api", "Payment API", 70, 3},
			{"/projects/notification-svc", "Notification Svc", 35, 0},
		},
	},
	{
		filename: "research-assistant.md", category: "docs", env: "chatgpt", ageDays: 60,
		body: "# Research Assistant\n\nAnalyze {{research_topic}} and synthesize findings.\n\n" +
			"- Literature review\n- Key themes\n- Recommendations\n",
		uses: []seedUse{
			{"/projects/market-analysis", "Market Analysis", 40, 2},
		},
	},
	{
		filename: "generic-starter.md", category: "other", env: "cursor", ageDays: 150,
		body:       "# Generic Starter\n\nA kitchen-sink starter that tries to do everything.\n",
		extraEdits: 8,
		uses: []seedUse{
			{"/projects/test-project", "Test Project", 30, 1},
			{"/projects/test-project-2", "Test Project 2", 20, 2},
		},
	},
	{
		filename: "design-system.md", category: "web", env: "figma", ageDays: 40,
		body: "# Design System Builder\n\nCreate a design system for {{brand_name}}.\n\n" +
			"- Typography scale\n- Color palette\n- Component variants\n",
	},
}

// cmdSeed populates the prompts directory and the ledger with a few months
// of plausible usage so the reports have something to show. Timestamps are
// backfilled, which also exercises the timestamp-ordered query paths.
func (a *app) cmdSeed() error {
	rng := rand.New(rand.NewSource(42))
	now := time.Now()

	back := func(daysAgo int) time.Time {
		jitter := time.Duration(rng.Intn(12*3600)) * time.Second
		return now.AddDate(0, 0, -daysAgo).Add(-jitter)
	}

	if err := os.MkdirAll(a.cfg.PromptsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create prompts dir: %w", err)
	}

	for _, sp := range seedPrompts {
		content := fmt.Sprintf("---\ncategory: %s\nenvironment: %s\n---\n%s",
			sp.category, sp.env, sp.body)
		path := filepath.Join(a.cfg.PromptsDir, sp.filename)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write seed prompt: %w", err)
		}

		a.store.LogEvent(analytics.EventPromptCreated,
			analytics.WithPrompt(sp.filename),
			analytics.WithTimestamp(back(sp.ageDays)),
			analytics.WithMeta("category", sp.category))

		edits := 2 + rng.Intn(4) + sp.extraEdits
		for i := 0; i < edits; i++ {
			a.store.LogEvent(analytics.EventPromptEdited,
				analytics.WithPrompt(sp.filename),
				analytics.WithTimestamp(back(rng.Intn(sp.ageDays)+1)),
				analytics.WithMeta("diff_chars", 15+rng.Intn(600)))
		}

		views := 3 + rng.Intn(10)
		for i := 0; i < views; i++ {
			a.store.LogEvent(analytics.EventPromptViewed,
				analytics.WithPrompt(sp.filename),
				analytics.WithTimestamp(back(rng.Intn(sp.ageDays)+1)))
		}

		for _, v := range prompts.ParseVariables(sp.body) {
			a.store.LogEvent(analytics.EventVariableInserted,
				analytics.WithPrompt(sp.filename),
				analytics.WithTimestamp(back(sp.ageDays)),
				analytics.WithMeta("variable_name", v))
		}

		for _, use := range sp.uses {
			applied := back(use.daysAgo)
			a.store.LogEvent(analytics.EventProjectCreated,
				analytics.WithPrompt(sp.filename),
				analytics.WithProject(use.project),
				analytics.WithTimestamp(applied),
				analytics.WithMeta("project_name", use.name),
				analytics.WithMeta("created_via", "prompt"))
			a.store.LogEvent(analytics.EventPromptApplied,
				analytics.WithPrompt(sp.filename),
				analytics.WithProject(use.project),
				analytics.WithTimestamp(applied),
				analytics.WithMeta("project_name", use.name))

			opens := 2 + rng.Intn(8)
			for i := 0; i < opens; i++ {
				a.store.LogEvent(analytics.EventProjectOpened,
					analytics.WithProject(use.project),
					analytics.WithTimestamp(back(rng.Intn(use.daysAgo+1))))
			}

			if use.rating > 0 {
				a.store.LogEvent(analytics.EventFeedbackGiven,
					analytics.WithPrompt(sp.filename),
					analytics.WithProject(use.project),
					analytics.WithTimestamp(applied.Add(time.Duration(24+rng.Intn(96))*time.Hour)),
					analytics.WithMeta("rating", use.rating),
					analytics.WithMeta("project_name", use.name))
			}
		}
	}

	fmt.Printf("Seeded %d demo prompts and a ledger of demo events.\n", len(seedPrompts))
	fmt.Println("Run 'promptdeck stats' to see the portfolio report.")
	return nil
}
