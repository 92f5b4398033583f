package key

import (
	"errors"
	"fmt"
	"strings"
)

// Parse errors
var (
	ErrEmptySpec       = errors.New("empty key specification")
	ErrNotKeySpec      = errors.New("not a key specification")
	ErrUnknownModifier = errors.New("unknown modifier")
	ErrUnknownKey      = errors.New("unknown key name")
)

// SpecError describes a keyspec that could not be parsed.
type SpecError struct {
	Spec string
	Err  error
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("keyspec %q: %v", e.Spec, e.Err)
}

func (e *SpecError) Unwrap() error {
	return e.Err
}

// Parser turns keyspecs into keys using a Table.
type Parser struct {
	table Table
}

// NewParser creates a parser that resolves key names through table.
func NewParser(table Table) *Parser {
	return &Parser{table: table}
}

// Table returns the table used by the parser.
func (p *Parser) Table() Table {
	return p.table
}

// Parse parses a keyspec such as "C-A-x" into a Key.
//
// Every "-" separated token except the last one is a modifier.
// The last token is a key name resolved through the table.
// A spec starting with ':' is an action token and is rejected with
// ErrNotKeySpec.
func (p *Parser) Parse(spec string) (Key, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Key{}, &SpecError{Spec: spec, Err: ErrEmptySpec}
	}
	if spec[0] == ':' {
		return Key{}, &SpecError{Spec: spec, Err: ErrNotKeySpec}
	}

	parts := strings.Split(spec, "-")
	name := parts[len(parts)-1]

	// A trailing "-" would leave an empty key name; "C--" is not "C-minus".
	if name == "" {
		return Key{}, &SpecError{Spec: spec, Err: ErrUnknownKey}
	}

	var mods Modifier
	for _, part := range parts[:len(parts)-1] {
		mod := ModifierFromName(part)
		if mod == ModNone {
			return Key{}, &SpecError{
				Spec: spec,
				Err:  fmt.Errorf("%w %q", ErrUnknownModifier, part),
			}
		}
		mods = mods.With(mod)
	}

	code, ok := p.table.Code(name)
	if !ok {
		return Key{}, &SpecError{
			Spec: spec,
			Err:  fmt.Errorf("%w %q", ErrUnknownKey, name),
		}
	}

	if canonical := p.table.Name(code); canonical != "" {
		name = canonical
	}
	return Key{Modifiers: mods, Code: code, Name: name}, nil
}

// MustParse parses a keyspec and panics on error.
// Use only for known-valid specs in initialization code and tests.
func (p *Parser) MustParse(spec string) Key {
	k, err := p.Parse(spec)
	if err != nil {
		panic("invalid key specification: " + spec + ": " + err.Error())
	}
	return k
}

// Format formats a key as a keyspec.
// This produces a canonical form that can be parsed back.
func Format(k Key) string {
	return k.String()
}

// Normalize parses and re-formats a keyspec to its canonical form.
func (p *Parser) Normalize(spec string) (string, error) {
	k, err := p.Parse(spec)
	if err != nil {
		return "", err
	}
	return Format(k), nil
}
