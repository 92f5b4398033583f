package config

import (
	"path/filepath"
	"time"
)

// Options holds the global options of a configuration file.
type Options struct {
	// Timeout is the default chain timeout. Zero disables it.
	Timeout time.Duration

	// Delay is how long a chain waits before showing the popup.
	// It is also how long "no binding" messages stay visible.
	Delay time.Duration

	// Feedback enables the popup.
	Feedback bool

	// Font is the popup font name.
	Font string

	// Foreground is the popup text color.
	Foreground string

	// Background is the popup background color.
	Background string
}

// DefaultOptions returns the options used when a file does not set them.
func DefaultOptions() Options {
	return Options{
		Timeout:    3000 * time.Millisecond,
		Delay:      1000 * time.Millisecond,
		Feedback:   true,
		Font:       "fixed",
		Foreground: "black",
		Background: "white",
	}
}

// DefaultPath returns the configuration path for the given
// XDG_CONFIG_HOME and HOME values.
func DefaultPath(xdgConfigHome, home string) string {
	if xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "xchainkeys", "xchainkeys.conf")
	}
	return filepath.Join(home, ".config", "xchainkeys", "xchainkeys.conf")
}
