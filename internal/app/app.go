// Package app provides the interactive editing session: a text area, a
// history panel and a status line drawn with tcell.
//
// Every edit is recorded in a history manager; Ctrl-Z and Ctrl-Y walk the
// history. All manager calls happen on the goroutine running Run. Config
// file changes are posted to the screen's event queue and applied there.
package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/stepwise/internal/config"
	"github.com/dshills/stepwise/internal/config/watcher"
	"github.com/dshills/stepwise/internal/engine/history"
	"github.com/dshills/stepwise/internal/historyview"
	"github.com/dshills/stepwise/internal/logging"
	"github.com/dshills/stepwise/internal/notify"
	"github.com/dshills/stepwise/internal/textdoc"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file to watch for changes.
	// Empty disables live reload.
	ConfigPath string

	// Config is the configuration loaded at startup.
	Config config.Config

	// FilePath is the file being edited. Empty starts with an empty
	// document that cannot be saved.
	FilePath string

	// Log receives application logs.
	Log *logging.Logger
}

// Application is an interactive editing session.
type Application struct {
	screen  tcell.Screen
	editor  *textdoc.Editor
	history *textdoc.Manager
	view    *historyview.View
	watcher *watcher.Watcher
	log     *logging.Logger
	opts    Options

	status string
	subs   []*notify.Subscription
}

// New creates an application drawing to screen. The screen must already
// be initialized.
func New(screen tcell.Screen, opts Options) (*Application, error) {
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}

	text := ""
	if opts.FilePath != "" {
		data, err := os.ReadFile(opts.FilePath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", opts.FilePath, err)
		}
		text = string(data)
	}

	editor := textdoc.NewEditor(text)
	mgr, err := textdoc.NewManager(editor, HistoryOptions(opts.Config, log)...)
	if err != nil {
		return nil, err
	}

	app := &Application{
		screen:  screen,
		editor:  editor,
		history: mgr,
		view:    historyview.New("History"),
		log:     log.WithComponent("app"),
		opts:    opts,
	}

	app.subs = append(app.subs,
		mgr.SubscribeSignal(notify.AfterUndo, app.reportFailure),
		mgr.SubscribeSignal(notify.AfterRedo, app.reportFailure),
		mgr.SubscribeSignal(notify.AfterAdd, app.reportFailure),
	)

	if opts.ConfigPath != "" {
		if err := app.startWatcher(); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// HistoryOptions converts configuration into history manager options.
func HistoryOptions(cfg config.Config, log *logging.Logger) []history.Option {
	return []history.Option{
		history.WithMaxSteps(maxSteps(cfg)),
		history.WithDropFailedSteps(cfg.History.DropFailedSteps),
		history.WithLogger(log),
	}
}

func maxSteps(cfg config.Config) int {
	if cfg.History.MaxSteps <= 0 {
		return history.Unbounded
	}
	return cfg.History.MaxSteps
}

// Editor returns the edited document and cursor.
func (app *Application) Editor() *textdoc.Editor {
	return app.editor
}

// History returns the history manager.
func (app *Application) History() *textdoc.Manager {
	return app.history
}

// Status returns the current status message.
func (app *Application) Status() string {
	return app.status
}

// Run processes events until the user quits or the screen is finalized.
func (app *Application) Run() error {
	for {
		app.Draw()

		ev := app.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if err := app.HandleEvent(ev); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			return err
		}
	}
}

// Shutdown stops the config watcher and releases subscriptions. The
// screen is left to the caller.
func (app *Application) Shutdown() {
	for _, sub := range app.subs {
		sub.Unsubscribe()
	}
	app.subs = nil

	if app.watcher != nil {
		if err := app.watcher.Close(); err != nil {
			app.log.Warn("closing config watcher: %v", err)
		}
		app.watcher = nil
	}
}

// Save writes the document to the file being edited.
func (app *Application) Save() error {
	if app.opts.FilePath == "" {
		return ErrNoFile
	}
	if err := os.WriteFile(app.opts.FilePath, []byte(app.editor.Doc.Text()), 0o644); err != nil {
		return err
	}
	app.log.Info("saved %s", app.opts.FilePath)
	return nil
}

// reportFailure shows a failed add, undo or redo in the status line.
func (app *Application) reportFailure(ev notify.Event) {
	if ev.Err != nil {
		app.status = fmt.Sprintf("%s failed: %v", ev.Signal, ev.Err)
	}
}
