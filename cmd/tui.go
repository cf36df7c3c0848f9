package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/lecternhq/lectern/internal/shared"
	"github.com/lecternhq/lectern/internal/ui"
)

// TUI launches the interactive terminal view over the local store.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/lectern-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	if err := r.openStore(); err != nil {
		return err
	}

	r.retries.Start()
	defer r.retries.Stop()

	model := ui.NewModel(ctx, r.userID(), r.series, r.sermons, r.engine)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse series and sermons interactively",
		Action: r.TUI,
	}
}
