package config

import (
	"iter"
	"strings"
)

// Token is one whitespace-separated word of a configuration line.
type Token struct {
	// Raw is the word as written, including any quotes.
	Raw string

	// Text is Raw with surrounding double quotes removed.
	Text string

	// Quoted is set when the word starts with a double quote.
	Quoted bool

	// Unterminated is set when a quoted word has no closing quote.
	Unterminated bool
}

// IsAction reports whether the token starts the action column.
func (t Token) IsAction() bool {
	return !t.Quoted && strings.HasPrefix(t.Raw, ":")
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// Tokens returns the tokens of line in order.
// A word starting with '"' runs to the next '"' and may contain spaces.
// The sequence can be ranged over more than once.
func Tokens(line string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		i := 0
		for {
			for i < len(line) && isSpace(line[i]) {
				i++
			}
			if i >= len(line) {
				return
			}

			start := i
			var tok Token
			if line[i] == '"' {
				tok.Quoted = true
				end := strings.IndexByte(line[i+1:], '"')
				if end < 0 {
					tok.Unterminated = true
					i = len(line)
				} else {
					i += end + 2
				}
			}
			for i < len(line) && !isSpace(line[i]) {
				i++
			}

			tok.Raw = line[start:i]
			tok.Text = tok.Raw
			if tok.Quoted {
				tok.Text = strings.TrimPrefix(tok.Text, `"`)
				if !tok.Unterminated {
					if q := strings.IndexByte(tok.Text, '"'); q >= 0 {
						tok.Text = tok.Text[:q] + tok.Text[q+1:]
					}
				}
			}
			if !yield(tok) {
				return
			}
		}
	}
}
