package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/xchainkeys/internal/config"
)

func TestStyleFromOptions(t *testing.T) {
	opts := config.DefaultOptions()
	opts.Foreground = "#ff0000"

	style := StyleFromOptions(opts)
	assert.Equal(t, Style{Font: "fixed", Foreground: "#ff0000", Background: "white"}, style)
}
