package main

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/xchainkeys/internal/config"
	"github.com/dshills/xchainkeys/internal/input/key"
	"github.com/dshills/xchainkeys/internal/input/keymap"
)

// errProblems is returned by check when the configuration has diagnostics.
var errProblems = errors.New("configuration has problems")

var encoders = map[string]func(*keymap.Node, io.Writer) error{
	"text": (*keymap.Node).List,
	"yaml": (*keymap.Node).EncodeYAML,
	"toml": (*keymap.Node).EncodeTOML,
}

func newCheckCmd(v *viper.Viper) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compile the configuration and print the binding tree",
		Long: `check compiles the configuration without touching the display. Problems
are printed to stderr and the tree to stdout. The exit status is 1 when
there were problems.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.OutOrStdout(), cmd.ErrOrStderr(), configPath(v), format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text",
		"tree format: "+strings.Join(slices.Sorted(maps.Keys(encoders)), ", "))
	return cmd
}

func runCheck(out, errOut io.Writer, path, format string) error {
	encode, ok := encoders[format]
	if !ok {
		return fmt.Errorf("unknown format %q", format)
	}

	res, err := config.NewCompiler(key.Keysyms).CompileFile(nil, path)
	if err != nil {
		return err
	}

	for _, d := range res.Diagnostics {
		fmt.Fprintf(errOut, "%s: %s\n", path, d)
	}
	if err := encode(res.Root, out); err != nil {
		return err
	}
	if n := len(res.Diagnostics); n > 0 {
		return fmt.Errorf("%s: %d problem(s): %w", path, n, errProblems)
	}
	return nil
}
