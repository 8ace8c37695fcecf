package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/evanschultz/taskdeck/internal/app"
	"github.com/evanschultz/taskdeck/internal/tui"
)

// runTUI launches the interactive list. Session expiry from any request ends the program.
func runTUI(ctx context.Context, opts *globalOptions, stderr io.Writer) error {
	rt, err := openRuntime(ctx, opts, stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	user, ok := rt.svc.CurrentUser()
	if !ok {
		return fmt.Errorf("%w: run `%s login` first", app.ErrNotSignedIn, opts.appName)
	}

	// Keep TUI rendering clean: runtime logs stay in the file sink while the list is active.
	rt.logger.SetConsoleEnabled(false)
	keys := rt.cfg.Keys
	m := tui.NewModel(
		rt.svc,
		tui.WithUsername(user.Username),
		tui.WithPageSize(rt.cfg.List.PageSize),
		tui.WithQuietPeriod(rt.cfg.DebounceInterval()),
		tui.WithRequestTimeout(rt.cfg.RequestTimeout()),
		tui.WithLogger(rt.logger),
		tui.WithKeyConfig(tui.KeyConfig{
			Search:     keys.Search,
			Tags:       keys.Tags,
			ClearAll:   keys.ClearAll,
			Reload:     keys.Reload,
			ToggleMine: keys.ToggleMine,
		}),
	)
	p := programFactory(m)
	rt.sessions.OnExpired(func() {
		p.Send(tui.SessionExpiredMsg{})
	})

	rt.logger.Info("starting tui program loop", "user", user.Username)
	final, err := p.Run()
	rt.logger.SetConsoleEnabled(true)
	if err != nil {
		rt.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	if fm, ok := final.(tui.Model); ok && fm.Expired() {
		return errors.New("session expired: run `" + opts.appName + " login` to sign in again")
	}
	return nil
}
