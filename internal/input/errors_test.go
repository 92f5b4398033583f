package input_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/xchainkeys/internal/input"
)

func TestComponentError(t *testing.T) {
	inner := errors.New("access denied")

	tests := []struct {
		name     string
		err      *input.ComponentError
		expected string
	}{
		{"nil error", nil, ""},
		{"with action", &input.ComponentError{Component: "keyboard", Action: "grab", Err: inner}, "keyboard: grab: access denied"},
		{"without action", &input.ComponentError{Component: "watcher", Err: inner}, "watcher: access denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}

	assert.ErrorIs(t, &input.ComponentError{Component: "grab", Err: inner}, inner)
	var nilErr *input.ComponentError
	assert.NoError(t, nilErr.Unwrap())
}
