package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/stepwise/internal/app"
	"github.com/dshills/stepwise/internal/historyview"
	"github.com/dshills/stepwise/internal/session"
)

func newReplayCmd(g *globals) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Run a YAML editing session and print the result",
		Long: `Replay reads a session file describing an initial text and a list of
steps (insert, delete, replace, type, backspace, move, select, undo, redo,
clear, lua, batch, checkpoint, rewind), runs them and prints the final text
followed by the history.

Example session:
  text: hello
  steps:
    - {op: insert, offset: 5, text: " world"}
    - {op: undo}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := session.Load(args[0])
			if err != nil {
				return err
			}

			r, err := session.NewRunner(s, session.Options{
				History:       app.HistoryOptions(g.cfg, g.log),
				ScriptTimeout: g.cfg.Script.Timeout,
				Log:           g.log,
			})
			if err != nil {
				return err
			}
			defer r.Close()

			runErr := r.Run(s)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, r.Editor.Doc.Text())
			if !quiet {
				fmt.Fprintln(out)
				fmt.Fprint(out, historyview.Format(r.Manager.History()))
			}
			return runErr
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the final text")
	return cmd
}
