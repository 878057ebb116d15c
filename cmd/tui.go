package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/arcana/internal/auth"
	"github.com/desertthunder/arcana/internal/server"
	"github.com/desertthunder/arcana/internal/shared"
	"github.com/desertthunder/arcana/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive tarot deck.
//
// A callback server runs alongside so that logging in from the TUI completes in-process,
// and the player connects whenever a login lands.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	o, err := r.orchestrator()
	if err != nil {
		return err
	}
	cards, err := r.cardOpener()
	if err != nil {
		return err
	}

	diagnostics := make(chan error, 8)
	c, err := r.playerController(func(err error) {
		select {
		case diagnostics <- err:
		default:
		}
	})
	if err != nil {
		return err
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	router := server.New(server.Options{
		Config:     r.config,
		Logger:     r.logger,
		Callback:   server.NewCallbackHandler(o, r.logger),
		Login:      o,
		HTTPClient: r.httpClient,
	})
	go func() {
		if err := server.Serve(runCtx, r.callbackAddr(), router, r.logger); err != nil {
			r.logger.Warn("callback server unavailable, login from the TUI is disabled", "error", err)
		}
	}()

	startPlayer := func() {
		if err := c.Start(runCtx); err != nil {
			r.logger.Debug("player not started", "error", err)
		}
	}
	cancelWatch := o.Watch(func(loggedIn bool) {
		if loggedIn {
			go startPlayer()
		}
	})
	defer cancelWatch()

	if o.State() == auth.LoggedIn {
		go startPlayer()
	}

	model := ui.NewModel(ctx, ui.Options{
		Deck:        r.config.Deck(),
		Cards:       cards,
		Player:      c,
		Login:       o,
		Diagnostics: diagnostics,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
