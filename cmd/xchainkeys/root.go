package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/xchainkeys/internal/app"
	"github.com/dshills/xchainkeys/internal/backend/x11"
	"github.com/dshills/xchainkeys/internal/config"
	"github.com/dshills/xchainkeys/internal/input"
	"github.com/dshills/xchainkeys/internal/input/key"
	"github.com/dshills/xchainkeys/internal/integration/process"
	"github.com/dshills/xchainkeys/internal/logging"
)

func newRootCmd() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:   "xchainkeys",
		Short: "Chained hotkeys for X11",
		Long: `xchainkeys grabs the first key of every configured chain. Pressing it
waits for the next key of the chain, and the last key runs a command.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showKeys, _ := cmd.Flags().GetBool("keys"); showKeys {
				return runShowKeys(cmd, v)
			}
			return runDaemon(cmd, v)
		},
	}

	pflags := cmd.PersistentFlags()
	pflags.StringP("file", "f", "",
		"configuration file (default: $XDG_CONFIG_HOME/xchainkeys/xchainkeys.conf)")
	pflags.BoolP("debug", "d", false, "print debug output")
	cmd.Flags().BoolP("keys", "k", false, "print the keyspec of pressed keys, C-c quits")
	cmd.Flags().Bool("watch", false, "reload when the configuration file changes")

	_ = v.BindPFlag("file", pflags.Lookup("file"))
	_ = v.BindPFlag("debug", pflags.Lookup("debug"))
	_ = v.BindPFlag("watch", cmd.Flags().Lookup("watch"))

	cmd.AddCommand(newCheckCmd(v), newTryCmd(v))
	return cmd
}

// newViper binds the settings that may come from the environment.
func newViper() *viper.Viper {
	v := viper.New()
	_ = v.BindEnv("debug", "XCHAINKEYS_DEBUG")
	_ = v.BindEnv("watch", "XCHAINKEYS_WATCH")
	_ = v.BindEnv("xdg_config_home", "XDG_CONFIG_HOME")
	_ = v.BindEnv("home", "HOME")
	return v
}

func configPath(v *viper.Viper) string {
	if path := v.GetString("file"); path != "" {
		return path
	}
	return config.DefaultPath(v.GetString("xdg_config_home"), v.GetString("home"))
}

func newLogger(v *viper.Viper, w io.Writer) *logging.Logger {
	cfg := logging.DefaultConfig()
	cfg.Output = w
	if v.GetBool("debug") {
		cfg.Level = logging.LevelDebug
	}
	return logging.New(cfg)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runDaemon(cmd *cobra.Command, v *viper.Viper) error {
	logger := newLogger(v, cmd.ErrOrStderr())

	display, err := x11.Open(logger.WithComponent("x11"))
	if err != nil {
		return &app.InitError{Component: "display", Err: err}
	}
	defer display.Close()

	supervisor := process.NewSupervisor(process.WithLogger(logger.WithComponent("process")))
	defer supervisor.Shutdown()

	application, err := app.New(app.Options{
		ConfigPath: configPath(v),
		Backend:    display,
		Spawner:    supervisor,
		Logger:     logger,
		Watch:      v.GetBool("watch"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-hup:
				logger.Info("SIGHUP: reloading configuration")
				application.RequestReload()
			case <-ctx.Done():
				return
			}
		}
	}()

	return application.Run(ctx)
}

func runShowKeys(cmd *cobra.Command, v *viper.Viper) error {
	logger := newLogger(v, cmd.ErrOrStderr())

	display, err := x11.Open(logger.WithComponent("x11"))
	if err != nil {
		return &app.InitError{Component: "display", Err: err}
	}
	defer display.Close()

	quit, err := key.NewParser(display.Keys()).Parse("C-c")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Press a key combination to print its keyspec. Press C-c to quit.")
	return input.ShowKeys(display, quit, out)
}
