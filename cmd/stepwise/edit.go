package main

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/stepwise/internal/app"
	"github.com/dshills/stepwise/internal/logging"
)

func newEditCmd(g *globals) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "edit [FILE]",
		Short: "Edit a file interactively with undo and redo",
		Long: `Edit opens an interactive session. Typing inserts text, Backspace
deletes, Ctrl-Z undoes, Ctrl-Y redoes, Ctrl-S saves and Ctrl-Q quits. The
history panel on the right shows every step and the current position.

When --config is given the file is watched and history.maxSteps changes
are applied while editing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The terminal is owned by the editor, so logs go to a file or
			// nowhere.
			log := logging.Nop()
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("opening log file: %w", err)
				}
				defer f.Close()
				log = logging.New(logging.Config{Level: g.cfg.LogLevel(), Output: f, Prefix: "stepwise"})
			}

			var path string
			if len(args) > 0 {
				path = args[0]
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("creating screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("initializing screen: %w", err)
			}
			defer screen.Fini()

			a, err := app.New(screen, app.Options{
				ConfigPath: g.configPath,
				Config:     g.cfg,
				FilePath:   path,
				Log:        log,
			})
			if err != nil {
				return err
			}
			defer a.Shutdown()

			return a.Run()
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file")
	return cmd
}
