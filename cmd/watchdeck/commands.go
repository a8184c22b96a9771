package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/tchow/watchdeck/internal/git"
	"github.com/tchow/watchdeck/internal/session"
)

const (
	colID    = 26
	colAgent = 9
	colState = 8
)

func handleSpawn(args []string) {
	fs := flag.NewFlagSet("spawn", flag.ExitOnError)
	tool := fs.String("tool", "", "agent tool (claude, gemini, opencode, codex, shell)")
	fs.StringVar(tool, "t", "", "shorthand for --tool")
	dir := fs.String("dir", "", "working directory")
	fs.StringVar(dir, "d", "", "shorthand for --dir")
	issueID := fs.String("issue-id", "", "issue id to link")
	issue := fs.String("issue", "", "issue identifier to link")
	_ = fs.Parse(args)

	task := strings.TrimSpace(strings.Join(fs.Args(), " "))

	a := newApp()
	checkTmux()

	if *tool == "" {
		*tool = a.cfg.DefaultTool
	}
	if *dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		*dir = cwd
	}

	req := session.SpawnRequest{
		AgentType:       session.AgentType(*tool),
		WorkDir:         *dir,
		GitBranch:       git.BranchOrEmpty(*dir),
		IssueID:         *issueID,
		IssueIdentifier: *issue,
		Task:            task,
	}

	sp := session.NewSpawner(a.reg, a.adapter)
	sp.Socket = a.cfg.TmuxSocket
	tracked, err := sp.Spawn(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Spawned %s (%s) in %s\n", tracked.ID, tracked.AgentType, tracked.WorkDir)
	fmt.Printf("Attach: watchdeck teleport %s\n", tracked.ID)
}

func handleList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "emit JSON")
	_ = fs.Parse(args)

	a := newApp()
	sessions, err := a.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sessions); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if len(sessions) == 0 {
		fmt.Println("No tracked sessions.")
		return
	}

	fmt.Printf("%s %s %s %s\n",
		runewidth.FillRight("ID", colID),
		runewidth.FillRight("AGENT", colAgent),
		runewidth.FillRight("STATUS", colState),
		"LAST OUTPUT")
	for _, s := range sessions {
		fmt.Printf("%s %s %s %s\n",
			runewidth.FillRight(runewidth.Truncate(s.ID, colID, "…"), colID),
			runewidth.FillRight(string(s.AgentType), colAgent),
			runewidth.FillRight(string(s.Status), colState),
			runewidth.Truncate(s.LastOutput, 60, "…"))
	}
}

func handleTeleport(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: watchdeck teleport <id>")
		os.Exit(1)
	}

	a := newApp()
	if err := a.Teleport(context.Background(), args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func handleKill(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: watchdeck kill <id>")
		os.Exit(1)
	}

	a := newApp()
	if err := a.Kill(context.Background(), args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Killed %s\n", args[0])
}

func handlePrune(args []string) {
	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	days := fs.Int("days", 0, "remove finished sessions older than this many days")
	_ = fs.Parse(args)

	a := newApp()
	maxAge := a.cfg.PruneMaxAge()
	if *days > 0 {
		maxAge = time.Duration(*days) * 24 * time.Hour
	}

	removed, err := a.reg.Prune(time.Now(), maxAge)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(removed) == 0 {
		fmt.Println("Nothing to prune.")
		return
	}
	for _, id := range removed {
		fmt.Printf("Pruned %s\n", id)
	}
}
