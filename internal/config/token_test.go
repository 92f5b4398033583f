package config

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		line string
		want []Token
	}{
		{"", nil},
		{"   \t ", nil},
		{"C-t c :exec xterm", []Token{
			{Raw: "C-t", Text: "C-t"},
			{Raw: "c", Text: "c"},
			{Raw: ":exec", Text: ":exec"},
			{Raw: "xterm", Text: "xterm"},
		}},
		{`plus :group "my vol"  amixer`, []Token{
			{Raw: "plus", Text: "plus"},
			{Raw: ":group", Text: ":group"},
			{Raw: `"my vol"`, Text: "my vol", Quoted: true},
			{Raw: "amixer", Text: "amixer"},
		}},
		{`a :exec "unterminated name`, []Token{
			{Raw: "a", Text: "a"},
			{Raw: ":exec", Text: ":exec"},
			{Raw: `"unterminated name`, Text: "unterminated name", Quoted: true, Unterminated: true},
		}},
	}

	for _, tt := range tests {
		got := slices.Collect(Tokens(tt.line))
		assert.Equal(t, tt.want, got, "Tokens(%q)", tt.line)
	}
}

func TestTokensRestartable(t *testing.T) {
	seq := Tokens("a b c")
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}

func TestTokensStopEarly(t *testing.T) {
	var seen []string
	for tok := range Tokens("a b c d") {
		seen = append(seen, tok.Raw)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestTokenIsAction(t *testing.T) {
	assert.True(t, Token{Raw: ":exec"}.IsAction())
	assert.False(t, Token{Raw: "exec"}.IsAction())
	assert.False(t, Token{Raw: `":exec"`, Quoted: true}.IsAction())
}
