package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/xchainkeys/internal/app"
	"github.com/dshills/xchainkeys/internal/backend/terminal"
	"github.com/dshills/xchainkeys/internal/input/key"
	"github.com/dshills/xchainkeys/internal/integration/process"
)

func newTryCmd(v *viper.Viper) *cobra.Command {
	var execute bool

	cmd := &cobra.Command{
		Use:   "try",
		Short: "Run the configuration against key presses in this terminal",
		Long: `try runs the chains of the configuration inside the terminal instead of
on the X display. Commands are printed rather than run unless --exec is
given. C-c quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTry(cmd, v, execute)
		},
	}
	cmd.Flags().BoolVar(&execute, "exec", false, "run commands instead of printing them")
	return cmd
}

func runTry(cmd *cobra.Command, v *viper.Viper, execute bool) error {
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	quit, err := key.NewParser(key.Keysyms).Parse("C-c")
	if err != nil {
		return err
	}
	term, err := terminal.Open(terminal.Config{Quit: quit, OnQuit: cancel})
	if err != nil {
		return &app.InitError{Component: "terminal", Err: err}
	}
	defer term.Close()

	// Log lines go to the log area; stderr would garble the screen.
	logger := newLogger(v, term.Writer())

	spawner := terminal.Echo{Term: term}
	if execute {
		supervisor := process.NewSupervisor(process.WithLogger(logger.WithComponent("process")))
		defer supervisor.Shutdown()
		spawner.Next = supervisor
	}

	application, err := app.New(app.Options{
		ConfigPath: configPath(v),
		Backend:    term,
		Spawner:    spawner,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	return application.Run(ctx)
}
