package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/promptdeck/promptdeck/pkg/analytics"
	"github.com/promptdeck/promptdeck/pkg/prompts"
	"github.com/promptdeck/promptdeck/pkg/reports"
)

// Config
const (
	pollRate       = 2 * time.Second
	maxActivity    = 20
	viewportHeight = 12
)

// Styles
var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			Width(100)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(100)

	eventTimeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(14)
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))

	greatStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	goodStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	attentionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	idleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type tickMsg time.Time

type dataMsg struct {
	overall  analytics.OverallStats
	rows     []reports.HealthRow
	activity []analytics.Event
	pending  []analytics.PendingFeedback
	names    map[string]string
	err      error
}

type model struct {
	store     *analytics.Store
	library   *prompts.Library
	portfolio *reports.Portfolio

	spinner  spinner.Model
	viewport viewport.Model
	data     dataMsg
	ready    bool
}

func initialModel(store *analytics.Store, library *prompts.Library) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	vp := viewport.New(100, viewportHeight)
	vp.Style = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		PaddingRight(2)

	return model{
		store:     store,
		library:   library,
		portfolio: reports.NewPortfolio(store),
		spinner:   s,
		viewport:  vp,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.fetchData(),
		tick(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tickMsg:
		cmds = append(cmds, m.fetchData(), tick())

	case dataMsg:
		m.data = msg
		m.updateViewportContent()
		m.ready = true

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight
	}

	return m, tea.Batch(cmds...)
}

func (m *model) updateViewportContent() {
	var sb strings.Builder
	for _, ev := range m.data.activity {
		ts := ev.Timestamp.Local().Format("Jan 02 15:04")
		kind := strings.ReplaceAll(string(ev.Kind), "_", " ")

		detail := ""
		if ev.PromptRef != "" {
			name := m.data.names[ev.PromptRef]
			if name == "" {
				name = ev.PromptRef
			}
			detail = promptStyle.Render(name)
		} else if ev.ProjectRef != "" {
			detail = promptStyle.Render(filepath.Base(ev.ProjectRef))
		}

		sb.WriteString(fmt.Sprintf("%s %-22s %s\n",
			eventTimeStyle.Render(ts), kind, detail))
	}
	m.viewport.SetContent(sb.String())
}

func healthStyle(h analytics.Health) lipgloss.Style {
	switch h {
	case analytics.HealthGreat:
		return greatStyle
	case analytics.HealthGood:
		return goodStyle
	case analytics.HealthNeedsAttention:
		return attentionStyle
	}
	return idleStyle
}

func (m model) View() string {
	if !m.ready {
		return fmt.Sprintf("\n%s Loading ledger...", m.spinner.View())
	}

	overall := m.data.overall

	// Top Pane: overview
	var overview strings.Builder
	overview.WriteString(lipgloss.NewStyle().Bold(true).Underline(true).Render("PromptDeck") + "\n\n")
	rating := reports.Absent
	if overall.HasRating() {
		rating = fmt.Sprintf("%.1f/4", overall.AvgRating)
	}
	overview.WriteString(fmt.Sprintf(
		"Projects: %d   Applications: %d   Unique prompts: %d   Avg rating: %s   30d events: %d\n",
		overall.ProjectsCreated, overall.PromptApplications,
		overall.UniquePromptsUsed, rating, overall.EventsLast30Days))

	// Health table
	overview.WriteString("\n" + lipgloss.NewStyle().Bold(true).Render("Prompt Health") + "\n")
	if len(m.data.rows) == 0 {
		overview.WriteString(subtleStyle.Render("No prompts yet."))
	}
	for i, row := range m.data.rows {
		if i >= 8 {
			overview.WriteString(subtleStyle.Render(fmt.Sprintf("… and %d more\n", len(m.data.rows)-i)))
			break
		}
		label := strings.ReplaceAll(string(row.Health), "_", " ")
		overview.WriteString(fmt.Sprintf("%s %-30s %-16s used %dx  %s\n",
			reports.HealthIcon(row.Health), row.Name,
			healthStyle(row.Health).Render(label),
			row.Stats.TimesUsed, reports.FormatRating(row.Stats)))
	}
	topPane := paneStyle.Render(overview.String())

	// Activity viewport
	header := headerStyle.Render(fmt.Sprintf("%s Recent Activity", m.spinner.View()))
	activityPane := m.viewport.View()

	// Pending feedback footer
	var footer strings.Builder
	if m.data.err != nil {
		footer.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.data.err)) + "\n")
	}
	if len(m.data.pending) > 0 {
		footer.WriteString(attentionStyle.Render(
			fmt.Sprintf("%d application(s) awaiting feedback:", len(m.data.pending))) + "\n")
		for _, p := range m.data.pending {
			footer.WriteString(fmt.Sprintf("  %s in %s\n", p.PromptRef, p.DisplayName))
		}
	}
	footer.WriteString(subtleStyle.Render("Press q to quit"))

	return lipgloss.JoinVertical(lipgloss.Left, topPane, header, activityPane, footer.String())
}

// Commands

func (m model) fetchData() tea.Cmd {
	return func() tea.Msg {
		names, err := m.library.Names()
		if err != nil {
			// Reports still render with raw refs when the library is
			// unreadable.
			names = map[string]string{}
		}

		return dataMsg{
			overall:  m.store.OverallStats(),
			rows:     m.portfolio.HealthRows(names),
			activity: m.store.RecentActivity(maxActivity),
			pending:  m.store.PendingFeedback(analytics.DefaultFeedbackAge, 3),
			names:    names,
			err:      err,
		}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Printf("Failed to resolve home dir: %v\n", err)
		os.Exit(1)
	}
	home := envOrDefault("PROMPTDECK_HOME", filepath.Join(homeDir, ".promptdeck"))
	dbPath := envOrDefault("PROMPTDECK_DB_PATH", filepath.Join(home, "analytics.db"))
	promptsDir := envOrDefault("PROMPTDECK_PROMPTS_DIR", filepath.Join(home, "prompts"))

	store := analytics.NewStore(dbPath)
	library := prompts.NewLibrary(promptsDir, store)

	p := tea.NewProgram(initialModel(store, library), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
