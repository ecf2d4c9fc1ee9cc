package main

import (
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/nlconsole/internal/httpserver"
	"github.com/tinytelemetry/nlconsole/internal/tui"
)

// runTUI starts the interactive console, plus the history API when enabled.
func runTUI(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	sess, err := (&cli{cfg: cfg}).openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	backups := startBackups(cfg, sess)
	defer backups.Stop()

	deps := tui.SessionDeps(sess)
	deps.ReverseScrollWheel = cfg.ReverseScrollWheel

	if cfg.APIEnabled {
		apiServer := httpserver.NewServer(cfg.APIAddr, sess.History)
		if err := apiServer.Start(); err != nil {
			log.Printf("Warning: failed to start history API: %v", err)
		} else {
			defer apiServer.Stop()
			deps.APIAddr = apiServer.Addr()
		}
	}

	app := tui.NewApp(tui.NewConsoleModel(deps))

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
