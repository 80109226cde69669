package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/stepwise/internal/config"
	"github.com/dshills/stepwise/internal/logging"
)

// globals holds state shared by all subcommands, filled in by the root
// command's pre-run.
type globals struct {
	configPath string
	logLevel   string
	maxSteps   int

	cfg config.Config
	log *logging.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "stepwise",
		Short: "Replay and edit documents with a reversible command history",
		Long: `stepwise records every edit as a reversible step and lets you walk the
history with undo and redo.

Examples:
  stepwise replay session.yaml
  stepwise edit notes.txt
  stepwise --max-steps 50 --log-level debug replay session.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "",
		"Path to configuration file (.toml, .yaml)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "",
		"Log level: debug, info, warn, error")
	root.PersistentFlags().IntVar(&g.maxSteps, "max-steps", 0,
		"Maximum number of undo steps kept (0 for unbounded)")

	root.AddCommand(newReplayCmd(g))
	root.AddCommand(newEditCmd(g))
	root.AddCommand(newVersionCmd())

	return root
}

// load reads the configuration and applies flag overrides.
func (g *globals) load(cmd *cobra.Command) error {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}

	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if cmd.Flags().Changed("max-steps") {
		cfg.History.MaxSteps = g.maxSteps
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	g.cfg = cfg
	g.log = logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Output: cmd.ErrOrStderr(),
		Prefix: "stepwise",
	})
	g.log.Debug("configuration loaded from %q", g.configPath)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "stepwise %s (commit %s, built %s)\n", version, commit, date)
			return err
		},
	}
}
