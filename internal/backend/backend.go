// Package backend defines the host windowing system abstraction.
//
// A Backend is everything the dispatcher needs from the display: an input
// session for chains, passive grabs for the top-level keys, a key table to
// compile the config against, and a factory for the feedback popup.
// The x11 subpackage is the real implementation; the terminal subpackage
// runs chains inside a terminal for trying out a config.
package backend

import (
	"github.com/dshills/xchainkeys/internal/config"
	"github.com/dshills/xchainkeys/internal/input"
	"github.com/dshills/xchainkeys/internal/input/key"
)

// Style is the look of the feedback popup.
type Style struct {
	Font       string
	Foreground string
	Background string
}

// StyleFromOptions returns the popup style named by the global options.
func StyleFromOptions(opts config.Options) Style {
	return Style{
		Font:       opts.Font,
		Foreground: opts.Foreground,
		Background: opts.Background,
	}
}

// Backend is a connection to the host windowing system.
type Backend interface {
	input.Session

	// Keys returns the table keyspecs are resolved against.
	Keys() key.Table

	// GrabPrefix installs a passive grab for k under every lock
	// combination, so pressing it starts a chain.
	GrabPrefix(k key.Key) error

	// UngrabPrefix removes the grabs installed by GrabPrefix.
	UngrabPrefix(k key.Key) error

	// NewFeedback creates the feedback popup.
	NewFeedback(style Style) (input.Feedback, error)

	// Close releases the connection.
	Close() error
}
