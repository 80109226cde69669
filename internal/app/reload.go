package app

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/stepwise/internal/config"
	"github.com/dshills/stepwise/internal/config/watcher"
)

// startWatcher watches the config file and forwards changes to the event
// loop.
func (app *Application) startWatcher() error {
	w, err := watcher.New(watcher.WithLogger(app.log))
	if err != nil {
		return err
	}
	if err := w.Watch(app.opts.ConfigPath); err != nil {
		_ = w.Close()
		return err
	}
	app.watcher = w

	go func() {
		for ev := range w.Events() {
			if err := app.screen.PostEvent(tcell.NewEventInterrupt(ev)); err != nil {
				app.log.Warn("dropping config change: %v", err)
			}
		}
	}()
	return nil
}

// handleConfigChange reloads the configuration and applies the settings
// that can change at runtime.
func (app *Application) handleConfigChange(ev watcher.Event) {
	if ev.Op == watcher.OpRemove {
		app.log.Info("config file %s removed, keeping current settings", ev.Path)
		return
	}

	cfg, err := config.Load(app.opts.ConfigPath)
	if err != nil {
		app.status = "config reload failed: " + err.Error()
		app.log.Warn("config reload: %v", err)
		return
	}
	app.applyConfig(cfg)
	app.status = "config reloaded"
}

// applyConfig applies the retention limit and log level of cfg.
func (app *Application) applyConfig(cfg config.Config) {
	if err := app.history.SetMaxSteps(maxSteps(cfg)); err != nil {
		app.log.Warn("applying maxSteps: %v", err)
	}
	app.log.SetLevel(cfg.LogLevel())
	app.opts.Config = cfg
}
