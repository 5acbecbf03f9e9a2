package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/reconcile"
)

// Options wires the interactive program to the rest of the app.
type Options struct {
	// UserID is the configured session; zero starts with the setup prompt.
	UserID int
	// NewEngine builds the engine for a user id.
	NewEngine func(userID int) (*reconcile.Engine, error)
	// SaveUserID persists the id chosen at the setup prompt. Optional.
	SaveUserID func(userID int) error
	// AltScreen runs full-window.
	AltScreen bool
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.NewEngine == nil {
		return errors.New("tui: NewEngine is required")
	}

	var first tea.Model
	if opts.UserID > 0 {
		eng, err := opts.NewEngine(opts.UserID)
		if err != nil {
			return err
		}
		first = New(ctx, eng)
	} else {
		first = newSetup(ctx, opts)
	}

	popts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.AltScreen {
		popts = append(popts, tea.WithAltScreen())
	}
	_, err := tea.NewProgram(first, popts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
