package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"jupiter/internal/adapters/editor"
	"jupiter/internal/adapters/launcher"
	"jupiter/internal/adapters/tui"
	"jupiter/internal/application"
	"jupiter/internal/config"
	"jupiter/internal/logging"
)

func main() {
	configFlag := flag.String("config", "", "config file (default $XDG_CONFIG_HOME/jupiter/config.yaml)")
	dbFlag := flag.String("db", "", "database URL")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *dbFlag != "" {
		cfg.DatabaseURL = *dbFlag
	}

	// the alt screen owns the terminal, so log lines would corrupt it
	env, err := application.Open(context.Background(), cfg, logging.Discard())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	app := tui.NewApp(env, editor.NewOpener(), launcher.NewOpener(cfg.Remote.WebURL))
	p := tea.NewProgram(app, tea.WithAltScreen())

	_, err = p.Run()
	env.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
