package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/raylu/git-whence/internal/blame"
	"github.com/raylu/git-whence/internal/config"
	"github.com/raylu/git-whence/internal/export"
	"github.com/raylu/git-whence/internal/git"
	"github.com/raylu/git-whence/internal/logging"
	"github.com/raylu/git-whence/internal/tui"
)

const version = "0.2.0"

var (
	showVersion  bool
	noLineNumber bool
	tabSize      int
	themeName    string
	highContrast bool
	debugMode    bool
	logFile      string
	exportFormat string
	exportFile   string
	exportCopy   bool
	help         bool
)

func init() {
	flag.BoolVarP(&showVersion, "version", "v", false, "Show version information")
	flag.BoolVarP(&noLineNumber, "no-line-numbers", "n", false, "Hide line numbers")
	flag.IntVarP(&tabSize, "tab-size", "t", 4, "Set tab size")
	flag.StringVar(&themeName, "theme", "", "Color theme: default, solarized, or dracula")
	flag.BoolVar(&highContrast, "high-contrast", false, "Boost foreground contrast")
	flag.BoolVarP(&debugMode, "debug", "d", false, "Write debug logs")
	flag.StringVar(&logFile, "log-file", logging.DefaultPath, "Debug log destination")
	flag.StringVar(&exportFormat, "export-format", "", "Export the attribution as html, markdown, or ansi without launching the TUI")
	flag.StringVar(&exportFile, "export-file", "", "Write the export to the provided file path")
	flag.BoolVar(&exportCopy, "export-copy", false, "Copy the export to your clipboard")
	flag.BoolVarP(&help, "help", "h", false, "Show help information")
	flag.Usage = usage
}

func usage() {
	header := color.New(color.FgCyan, color.Bold)
	header.Println("git-whence - follow a line of blame back through history")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  git-whence [options] <file> [revision]")
	fmt.Println("")
	fmt.Println("The file is blamed at the given revision (HEAD when omitted). Press")
	fmt.Println("enter on a line to re-blame the file at the revision before the one")
	fmt.Println("that last changed it; press b to come back.")
	fmt.Println("")
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Println("  git-whence main.go")
	fmt.Println("  git-whence main.go HEAD~5")
	fmt.Println("  git-whence -n --theme dracula parser.go v1.2.0")
	fmt.Println("  git-whence --export-format html --export-file blame.html main.go")
	fmt.Println("")
	fmt.Println("Keyboard shortcuts:")
	fmt.Println("  enter  Follow line to the prior revision")
	fmt.Println("  b      Back to the previous view")
	fmt.Println("  B      Back to the starting view")
	fmt.Println("  j/↓    Cursor down")
	fmt.Println("  k/↑    Cursor up")
	fmt.Println("  d/u    Half page down / up")
	fmt.Println("  g/G    Go to top / bottom")
	fmt.Println("  l      Line history overlay")
	fmt.Println("  y      Copy the commit hash under the cursor")
	fmt.Println("  h/?    Toggle help panel")
	fmt.Println("  q/esc  Quit")
}

func fatal(format string, args ...any) {
	color.New(color.FgRed).Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func parseExportFormat(raw string) (export.Format, error) {
	switch strings.ToLower(raw) {
	case "", string(export.FormatMarkdown), "md":
		return export.FormatMarkdown, nil
	case string(export.FormatHTML), "htm":
		return export.FormatHTML, nil
	case string(export.FormatANSI), "text":
		return export.FormatANSI, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", raw)
	}
}

func buildConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.ShowLineNo = !noLineNumber
	cfg.TabSize = tabSize
	cfg.HighContrast = highContrast
	if themeName != "" {
		cfg.ThemePreset = config.ThemePreset(themeName)
	}
	cfg.Theme = config.ThemeForPreset(cfg.ThemePreset, cfg.HighContrast)
	return cfg
}

func main() {
	flag.Parse()

	if help {
		usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("git-whence version %s\n", version)
		fmt.Println("An interactive blame navigator built with Charm libraries")
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	file := args[0]
	revision := "HEAD"
	if len(args) > 1 {
		revision = args[1]
	}

	log, err := logging.New(debugMode, logFile)
	if err != nil {
		fatal("Error opening log file: %v", err)
	}
	defer log.Sync()

	repo, err := git.Open(file, log)
	if err != nil {
		fatal("Error opening repository: %v", err)
	}
	rel, err := repo.Rel(file)
	if err != nil {
		fatal("Error: %v", err)
	}

	ctx := context.Background()
	cfg := buildConfig()

	// a failure to build the initial view is fatal; mid-session failures are
	// handled inside the TUI
	resolver := blame.NewResolver(repo, log)
	view, err := resolver.Resolve(ctx, rel, revision)
	if err != nil {
		fatal("Error blaming %s at %s: %v", rel, revision, err)
	}

	if exportFormat != "" || exportFile != "" || exportCopy {
		format, err := parseExportFormat(exportFormat)
		if err != nil {
			fatal("Error: %v", err)
		}

		rendered, err := export.Render(view, format, export.Options{
			ShowLineNumbers: cfg.ShowLineNo,
		})
		if err != nil {
			fatal("Error exporting attribution: %v", err)
		}

		if exportFile != "" {
			if err := os.WriteFile(exportFile, []byte(rendered), 0o644); err != nil {
				fatal("Error writing export: %v", err)
			}
			fmt.Printf("Attribution saved to %s\n", exportFile)
		}

		if exportCopy {
			if err := export.CopyToClipboard(rendered, os.Stdout); err != nil {
				fatal("Error copying to clipboard: %v", err)
			}
			fmt.Println("Attribution copied to clipboard.")
		}

		if exportFile == "" && !exportCopy {
			fmt.Println(rendered)
		}
		os.Exit(0)
	}

	branch, err := repo.CurrentBranch(ctx)
	if err != nil {
		branch = ""
	}
	session := tui.Session{
		RepoRoot:      repo.Root(),
		Path:          rel,
		StartRevision: revision,
		Branch:        branch,
	}

	model := tui.NewModel(view, cfg, resolver, repo, session, log)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fatal("Error running TUI: %v", err)
	}
}
