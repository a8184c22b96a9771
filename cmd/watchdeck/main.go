package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/tchow/watchdeck/internal/config"
	"github.com/tchow/watchdeck/internal/logging"
	"github.com/tchow/watchdeck/internal/session"
	"github.com/tchow/watchdeck/internal/tmux"
	"github.com/tchow/watchdeck/internal/ui"
)

const Version = "0.3.0"

// init sets up the color profile before any lipgloss rendering.
func init() {
	initColorProfile()
}

// initColorProfile configures lipgloss based on terminal capabilities,
// preferring TrueColor. WATCHDECK_COLOR overrides detection.
func initColorProfile() {
	switch strings.ToLower(os.Getenv("WATCHDECK_COLOR")) {
	case "truecolor", "true", "24bit":
		lipgloss.SetColorProfile(termenv.TrueColor)
		return
	case "256", "ansi256":
		lipgloss.SetColorProfile(termenv.ANSI256)
		return
	case "16", "ansi", "basic":
		lipgloss.SetColorProfile(termenv.ANSI)
		return
	case "none", "off", "ascii":
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	if ct := os.Getenv("COLORTERM"); ct == "truecolor" || ct == "24bit" {
		lipgloss.SetColorProfile(termenv.TrueColor)
		return
	}
	if strings.Contains(os.Getenv("TERM"), "256color") {
		lipgloss.SetColorProfile(termenv.ANSI256)
	}
}

func main() {
	args := os.Args[1:]

	if len(args) > 0 {
		switch args[0] {
		case "version", "--version", "-v":
			fmt.Printf("watchdeck v%s\n", Version)
			return
		case "help", "--help", "-h":
			printHelp()
			return
		case "spawn":
			handleSpawn(args[1:])
			return
		case "list", "ls":
			handleList(args[1:])
			return
		case "teleport", "tp":
			handleTeleport(args[1:])
			return
		case "kill":
			handleKill(args[1:])
			return
		case "prune":
			handlePrune(args[1:])
			return
		case "hook":
			handleHook(args[1:])
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", args[0])
			printHelp()
			os.Exit(1)
		}
	}

	runDashboard()
}

func runDashboard() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: the dashboard needs a terminal. Use 'watchdeck list' for scripted output.")
		os.Exit(1)
	}

	a := newApp()
	initLogging(a.cfg)
	defer logging.Shutdown()

	ui.InitTheme(ui.ResolveTheme(a.cfg.Theme))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	refresh := make(chan struct{}, 1)
	notify := func() {
		select {
		case refresh <- struct{}{}:
		default:
		}
	}

	poller := session.NewPoller(a.reg, a.adapter, session.HooksDir())
	poller.Interval = a.cfg.PollInterval()
	poller.CaptureLines = a.cfg.CaptureLines
	poller.OnPass = notify
	go poller.Run(ctx)

	if watcher, err := session.NewHookWatcher(session.HooksDir(), notify); err == nil {
		go watcher.Run(ctx)
	}

	p := tea.NewProgram(ui.NewModel(a, refresh), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func initLogging(cfg *config.Config) {
	logging.Init(logging.Config{
		Debug:      os.Getenv("WATCHDECK_DEBUG") != "",
		LogDir:     session.DataDir(),
		Level:      cfg.Logging.Level,
		Format:     "json",
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: 10,
		Compress:   true,
	})
}

func checkTmux() {
	if err := tmux.IsAvailable(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Printf("watchdeck v%s\n", Version)
	fmt.Println("Terminal dashboard for AI coding-agent sessions in tmux")
	fmt.Println()
	fmt.Println("Usage: watchdeck [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  (none)                Open the dashboard")
	fmt.Println("  spawn [options]       Spawn a new agent session")
	fmt.Println("  list, ls [--json]     List tracked sessions")
	fmt.Println("  teleport, tp <id>     Open a terminal attached to a session")
	fmt.Println("  kill <id>             Kill a session and remove it")
	fmt.Println("  prune [--days N]      Remove old finished sessions")
	fmt.Println("  hook <event>          Record an agent lifecycle event (for agent hooks)")
	fmt.Println("  version               Print version")
	fmt.Println()
	fmt.Println("Spawn options:")
	fmt.Println("  -t, --tool <name>     Agent tool: claude, gemini, opencode, codex, shell")
	fmt.Println("  -d, --dir <path>      Working directory (default: current)")
	fmt.Println("  --issue-id <id>       Issue id to link (requires --issue)")
	fmt.Println("  --issue <identifier>  Issue identifier to link (requires --issue-id)")
	fmt.Println("  <task>                Task text (positional, required)")
}
