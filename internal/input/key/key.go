package key

import "fmt"

// Code identifies a physical key on the host.
// For the X11 backend it is a keycode; for display-less tables it is a keysym.
type Code uint32

// Table resolves symbolic key names.
type Table interface {
	// Code returns the code for a key name such as "a" or "Return".
	Code(name string) (Code, bool)

	// Name returns the canonical name for a code, or "" if unknown.
	Name(code Code) string
}

// Key is a modifier set plus a key code.
type Key struct {
	// Modifiers is the exact modifier set that must be held.
	Modifiers Modifier

	// Code is the key code that must be pressed.
	Code Code

	// Name is the symbolic name used for display. It is not compared.
	Name string
}

// New creates a key from its parts.
func New(mods Modifier, code Code, name string) Key {
	return Key{Modifiers: mods, Code: code, Name: name}
}

// Equals reports whether two keys have identical modifiers and codes.
func (k Key) Equals(other Key) bool {
	return k.Modifiers == other.Modifiers && k.Code == other.Code
}

// IsZero returns true for the key of the root node.
func (k Key) IsZero() bool {
	return k.Modifiers == ModNone && k.Code == 0
}

// WithModifiers returns a copy of k with the modifier set replaced.
func (k Key) WithModifiers(mods Modifier) Key {
	k.Modifiers = mods
	return k
}

// String returns the canonical keyspec, e.g. "C-A-x".
// Modifiers are written in a fixed order so the result parses back to an
// equal key.
func (k Key) String() string {
	name := k.Name
	if name == "" {
		name = fmt.Sprintf("0x%x", uint32(k.Code))
	}
	return k.Modifiers.Prefix() + name
}

// MatchesLive reports whether a live key event satisfies a bound key.
// Lock bits in locks are ignored on the live side unless the bound key
// asks for them explicitly.
func MatchesLive(bound, live Key, locks Modifier) bool {
	if bound.Code != live.Code {
		return false
	}
	ignore := locks &^ bound.Modifiers
	return bound.Modifiers == live.Modifiers&^ignore
}
