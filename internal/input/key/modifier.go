package key

import "strings"

// Modifier represents a set of keyboard modifiers.
// Bit values match the X11 core protocol modifier masks.
type Modifier uint16

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 1 << 0

	// ModLock indicates Caps Lock (the X "lock" modifier).
	ModLock Modifier = 1 << 1

	// ModControl indicates the Control key.
	ModControl Modifier = 1 << 2

	// Mod1 is usually Alt.
	Mod1 Modifier = 1 << 3

	// Mod2 is usually Num Lock.
	Mod2 Modifier = 1 << 4

	// Mod3 is rarely mapped.
	Mod3 Modifier = 1 << 5

	// Mod4 is usually Super (the Windows key).
	Mod4 Modifier = 1 << 6

	// Mod5 is usually ISO_Level3_Shift or Scroll Lock.
	Mod5 Modifier = 1 << 7

	// ModMask covers every modifier bit. Button state bits are outside it.
	ModMask Modifier = 0xff
)

// Has returns true if m contains all bits of mod.
func (m Modifier) Has(mod Modifier) bool {
	return mod != ModNone && m&mod == mod
}

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// IsEmpty returns true if no modifiers are set.
func (m Modifier) IsEmpty() bool {
	return m == ModNone
}

// canonicalOrder is the order modifiers are written in keyspecs.
var canonicalOrder = []struct {
	mod  Modifier
	name string
}{
	{ModLock, "lock"},
	{ModControl, "C"},
	{Mod1, "A"},
	{Mod2, "mod2"},
	{Mod3, "mod3"},
	{Mod4, "W"},
	{Mod5, "mod5"},
	{ModShift, "S"},
}

// Prefix returns the keyspec prefix for m, e.g. "C-A-". Empty for ModNone.
func (m Modifier) Prefix() string {
	var sb strings.Builder
	for _, c := range canonicalOrder {
		if m&c.mod != 0 {
			sb.WriteString(c.name)
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// String returns the modifiers joined by "-", e.g. "C-A".
func (m Modifier) String() string {
	return strings.TrimSuffix(m.Prefix(), "-")
}

// longModifierNames are matched case-insensitively.
var longModifierNames = map[string]Modifier{
	"shift":   ModShift,
	"lock":    ModLock,
	"control": ModControl,
	"ctrl":    ModControl,
	"mod1":    Mod1,
	"alt":     Mod1,
	"mod2":    Mod2,
	"mod3":    Mod3,
	"mod4":    Mod4,
	"super":   Mod4,
	"mod5":    Mod5,
}

// shortModifierNames are matched exactly.
var shortModifierNames = map[string]Modifier{
	"S": ModShift,
	"C": ModControl,
	"A": Mod1,
	"M": Mod1,
	"W": Mod4,
	"H": Mod4,
}

// ModifierFromName returns the Modifier for a given name.
// Returns ModNone if the name is not recognized.
func ModifierFromName(name string) Modifier {
	if m, ok := shortModifierNames[name]; ok {
		return m
	}
	if m, ok := longModifierNames[strings.ToLower(name)]; ok {
		return m
	}
	return ModNone
}

// LockCombinations returns every subset of locks that is made of the
// individual lock bits passed in. The zero set is always first.
// Duplicate or unmapped (zero) locks are skipped.
func LockCombinations(locks ...Modifier) []Modifier {
	var bits []Modifier
	seen := ModNone
	for _, l := range locks {
		if l == ModNone || seen&l == l {
			continue
		}
		seen |= l
		bits = append(bits, l)
	}

	combos := make([]Modifier, 0, 1<<len(bits))
	for i := 0; i < 1<<len(bits); i++ {
		var m Modifier
		for j, b := range bits {
			if i&(1<<j) != 0 {
				m |= b
			}
		}
		combos = append(combos, m)
	}
	return combos
}
