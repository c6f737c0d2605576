package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/promptdeck/promptdeck/pkg/aisummary"
	"github.com/promptdeck/promptdeck/pkg/analytics"
	"github.com/promptdeck/promptdeck/pkg/projects"
	"github.com/promptdeck/promptdeck/pkg/prompts"
	"github.com/promptdeck/promptdeck/pkg/reports"
)

var (
	Version   = "v1.0.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const usage = `Usage: promptdeck [flags] <command>

Commands:
  stats                               portfolio report
  prompts                             list starter prompts
  prompts show <file>                 print a prompt
  prompts new <name> [category] [env] create a prompt from stdin
  prompts rename <file> <new name>    rename a prompt
  prompts delete <file>               delete a prompt
  projects [list]                     list registered projects
  projects add <name> <path>          register a project
  projects remove <path>              drop from the active list
  projects archive|unarchive <path>   move between active and archived
  projects delete <path> [-files]     delete from the registry
  projects scan                       discover projects from the IDE
  new <prompt-file> <name> <path>     start a project from a prompt
  feedback                            list applications awaiting a rating
  feedback rate <file> <path> <1-4>   record a rating
  feedback skip <file> <path>         dismiss a pending entry
  recent [n]                          recent ledger activity
  config get|set|list                 free-form settings
  analyze [-prompt <file>]            AI analysis (needs ANTHROPIC_API_KEY)
  seed                                populate the ledger with demo data
  export [path]                       write the event ledger as CSV
  version                             print version
`

// app bundles the composed components every subcommand draws from.
type app struct {
	cfg       Config
	store     *analytics.Store
	library   *prompts.Library
	registry  *projects.Registry
	portfolio *reports.Portfolio
}

func main() {
	cfg, args, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(args) == 0 {
		fmt.Print(usage)
		os.Exit(1)
	}

	store := analytics.NewStore(cfg.DBPath)
	a := &app{
		cfg:       cfg,
		store:     store,
		library:   prompts.NewLibrary(cfg.PromptsDir, store),
		registry:  projects.NewRegistry(cfg.Home, store),
		portfolio: reports.NewPortfolio(store),
	}

	if err := a.run(args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) run(cmd string, args []string) error {
	switch cmd {
	case "stats":
		return a.cmdStats()
	case "prompts":
		return a.cmdPrompts(args)
	case "projects":
		return a.cmdProjects(args)
	case "new":
		return a.cmdNew(args)
	case "feedback":
		return a.cmdFeedback(args)
	case "recent":
		return a.cmdRecent(args)
	case "config":
		return a.cmdConfig(args)
	case "analyze":
		return a.cmdAnalyze(args)
	case "seed":
		return a.cmdSeed()
	case "export":
		return a.cmdExport(args)
	case "version":
		fmt.Printf("promptdeck %s (%s, built %s)\n", Version, Commit, BuildTime)
		return nil
	case "help":
		fmt.Print(usage)
		return nil
	}
	fmt.Print(usage)
	return fmt.Errorf("unknown command: %s", cmd)
}

func (a *app) cmdStats() error {
	names, err := a.library.Names()
	if err != nil {
		return err
	}
	fmt.Print(a.portfolio.Render(names))
	return nil
}

func (a *app) cmdPrompts(args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		infos, err := a.library.List()
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("No prompts yet. Create one with: promptdeck prompts new <name>")
			return nil
		}
		stats := a.store.AllPromptStats()
		for _, info := range infos {
			st := stats[info.Filename]
			health := analytics.ClassifyHealth(st)
			tags := ""
			if info.Category != "" {
				tags += " [" + info.Category + "]"
			}
			if info.Environment != "" {
				tags += " (" + info.Environment + ")"
			}
			fmt.Printf("%s %-30s%s  used %dx, rating %s\n",
				reports.HealthIcon(health), info.Name, tags,
				st.TimesUsed, reports.FormatRating(st))
		}
		return nil
	case "show":
		if len(args) < 2 {
			return errors.New("usage: promptdeck prompts show <file>")
		}
		content, err := a.library.Get(args[1])
		if err != nil {
			return err
		}
		a.store.LogEvent(analytics.EventPromptViewed, analytics.WithPrompt(args[1]))
		fmt.Print(content)
		return nil
	case "new":
		if len(args) < 2 {
			return errors.New("usage: promptdeck prompts new <name> [category] [environment]")
		}
		category, environment := "", ""
		if len(args) > 2 {
			category = args[2]
		}
		if len(args) > 3 {
			environment = args[3]
		}
		fmt.Println("Enter prompt content, end with Ctrl-D:")
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		content := string(raw)
		if strings.TrimSpace(content) == "" {
			content = "# " + args[1] + "\n"
		}
		filename, err := a.library.Create(args[1], content, category, environment)
		if err != nil {
			return err
		}
		fmt.Printf("Created %s\n", filename)
		return nil
	case "rename":
		if len(args) < 3 {
			return errors.New("usage: promptdeck prompts rename <file> <new name>")
		}
		newFilename, err := a.library.Rename(args[1], strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		fmt.Printf("Renamed to %s\n", newFilename)
		return nil
	case "delete":
		if len(args) < 2 {
			return errors.New("usage: promptdeck prompts delete <file>")
		}
		if err := a.library.Delete(args[1]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[1])
		return nil
	}
	return fmt.Errorf("unknown prompts subcommand: %s", args[0])
}

func (a *app) cmdProjects(args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		active, err := a.registry.Active()
		if err != nil {
			return err
		}
		archived, err := a.registry.Archived()
		if err != nil {
			return err
		}
		if len(active) == 0 && len(archived) == 0 {
			fmt.Println("No projects registered. Add one with: promptdeck projects add <name> <path>")
			return nil
		}
		for _, p := range active {
			fmt.Printf("  %-25s %s\n", p.Name, p.Path)
		}
		for _, p := range archived {
			fmt.Printf("  %-25s %s (archived)\n", p.Name, p.Path)
		}
		return nil
	case "add":
		if len(args) < 3 {
			return errors.New("usage: promptdeck projects add <name> <path>")
		}
		return a.registry.Add(projects.Project{Name: args[1], Path: args[2]})
	case "remove":
		if len(args) < 2 {
			return errors.New("usage: promptdeck projects remove <path>")
		}
		return a.registry.Remove(args[1])
	case "archive":
		if len(args) < 2 {
			return errors.New("usage: promptdeck projects archive <path>")
		}
		return a.registry.Archive(args[1])
	case "unarchive":
		if len(args) < 2 {
			return errors.New("usage: promptdeck projects unarchive <path>")
		}
		return a.registry.Unarchive(args[1])
	case "delete":
		if len(args) < 2 {
			return errors.New("usage: promptdeck projects delete <path> [-files]")
		}
		deleteFiles := len(args) > 2 && args[2] == "-files"
		return a.registry.Delete(args[1], deleteFiles)
	case "scan":
		found := projects.Discover(a.cfg.WorkspaceStorage, "")
		if len(found) == 0 {
			fmt.Println("No projects discovered.")
			return nil
		}
		for _, d := range found {
			fmt.Printf("  %-25s %s\n", d.Name, d.Path)
		}
		return nil
	}
	return fmt.Errorf("unknown projects subcommand: %s", args[0])
}

// cmdNew starts a project from a starter prompt: collects template
// variables, installs the filled prompt, and registers the project.
func (a *app) cmdNew(args []string) error {
	if len(args) < 3 {
		return errors.New("usage: promptdeck new <prompt-file> <name> <path>")
	}
	promptFile, name, path := args[0], args[1], args[2]

	body, err := a.library.Body(promptFile)
	if err != nil {
		return err
	}

	values := make(map[string]string)
	vars := prompts.ParseVariables(body)
	if len(vars) > 0 {
		reader := bufio.NewReader(os.Stdin)
		for _, v := range vars {
			fmt.Printf("%s: ", v)
			line, err := reader.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("failed to read variable value: %w", err)
			}
			values[v] = strings.TrimSpace(line)
		}
	}

	target, err := a.library.Apply(promptFile, path, values)
	if err != nil {
		return err
	}
	if err := a.registry.Add(projects.Project{
		Name:            name,
		Path:            path,
		CreatedVia:      "prompt",
		PromptFilename:  promptFile,
		PromptVariables: values,
	}); err != nil {
		return err
	}

	fmt.Printf("Project %s created, prompt installed at %s\n", name, target)
	return nil
}

func (a *app) cmdFeedback(args []string) error {
	if len(args) == 0 {
		pending := a.store.PendingFeedback(analytics.DefaultFeedbackAge, 10)
		if len(pending) == 0 {
			fmt.Println("Nothing awaiting feedback.")
			return nil
		}
		for _, p := range pending {
			fmt.Printf("  %s in %s (applied %s)\n",
				p.PromptRef, p.DisplayName, p.AppliedAt.Local().Format("Jan 02 15:04"))
		}
		fmt.Println("\nRate with: promptdeck feedback rate <file> <path> <1-4>")
		return nil
	}

	switch args[0] {
	case "rate":
		if len(args) < 4 {
			return errors.New("usage: promptdeck feedback rate <file> <path> <1-4>")
		}
		rating, err := strconv.Atoi(args[3])
		if err != nil || rating < 1 || rating > 4 {
			return errors.New("rating must be a number from 1 to 4")
		}
		a.store.LogEvent(analytics.EventFeedbackGiven,
			analytics.WithPrompt(args[1]),
			analytics.WithProject(args[2]),
			analytics.WithMeta("rating", rating))
		fmt.Println("Feedback recorded.")
		return nil
	case "skip":
		if len(args) < 3 {
			return errors.New("usage: promptdeck feedback skip <file> <path>")
		}
		a.store.LogEvent(analytics.EventFeedbackSkipped,
			analytics.WithPrompt(args[1]),
			analytics.WithProject(args[2]))
		fmt.Println("Feedback skipped.")
		return nil
	}
	return fmt.Errorf("unknown feedback subcommand: %s", args[0])
}

func (a *app) cmdRecent(args []string) error {
	limit := 20
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 1 {
			return errors.New("usage: promptdeck recent [n]")
		}
		limit = parsed
	}
	names, err := a.library.Names()
	if err != nil {
		return err
	}
	for _, ev := range a.store.RecentActivity(limit) {
		fmt.Println(reports.ActivityLine(names, ev))
	}
	return nil
}

func (a *app) cmdConfig(args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		pairs, err := a.registry.Settings()
		if err != nil {
			return err
		}
		for _, kv := range pairs {
			fmt.Printf("%s=%s\n", kv[0], kv[1])
		}
		return nil
	case "get":
		if len(args) < 2 {
			return errors.New("usage: promptdeck config get <key>")
		}
		v, err := a.registry.Setting(args[1])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	case "set":
		if len(args) < 3 {
			return errors.New("usage: promptdeck config set <key> <value>")
		}
		return a.registry.SetSetting(args[1], args[2])
	}
	return fmt.Errorf("unknown config subcommand: %s", args[0])
}

func (a *app) cmdAnalyze(args []string) error {
	if a.cfg.AnthropicKey == "" {
		return errors.New("ANTHROPIC_API_KEY is not set")
	}

	flagSet := flag.NewFlagSet("analyze", flag.ContinueOnError)
	promptFile := flagSet.String("prompt", "", "analyze one prompt instead of the portfolio")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	analyzer := aisummary.NewAnalyzer(a.cfg.AnthropicKey, a.store, a.library)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var out string
	var err error
	if *promptFile != "" {
		out, err = analyzer.AnalyzePrompt(ctx, *promptFile)
	} else {
		out, err = analyzer.AnalyzeOverview(ctx)
	}
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func (a *app) cmdExport(args []string) error {
	path := "promptdeck-events.csv"
	if len(args) > 0 {
		path = args[0]
	}

	reader, err := reports.NewEventsCSV(a.store).Generate(analytics.Filter{})
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Printf("Exported events to %s\n", path)
	return nil
}
