package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModifierHas(t *testing.T) {
	m := ModControl | Mod1

	assert.True(t, m.Has(ModControl))
	assert.True(t, m.Has(Mod1))
	assert.True(t, m.Has(ModControl|Mod1))
	assert.False(t, m.Has(ModShift))
	assert.False(t, m.Has(ModControl|ModShift))
	assert.False(t, m.Has(ModNone))
}

func TestModifierWithWithout(t *testing.T) {
	m := ModNone.With(ModShift).With(Mod4)
	assert.Equal(t, ModShift|Mod4, m)

	m = m.Without(ModShift)
	assert.Equal(t, Mod4, m)
	assert.False(t, m.IsEmpty())
	assert.True(t, m.Without(Mod4).IsEmpty())
}

func TestModifierString(t *testing.T) {
	tests := []struct {
		mod  Modifier
		want string
	}{
		{ModNone, ""},
		{ModControl, "C"},
		{ModShift | ModControl, "C-S"},
		{ModLock | Mod2, "lock-mod2"},
		{ModMask, "lock-C-A-mod2-mod3-W-mod5-S"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.mod.String(), "Modifier(%d).String()", tt.mod)
		if tt.want != "" {
			assert.Equal(t, tt.want+"-", tt.mod.Prefix())
		}
	}
}

func TestModifierFromName(t *testing.T) {
	tests := []struct {
		name string
		want Modifier
	}{
		{"S", ModShift},
		{"s", ModNone},
		{"Shift", ModShift},
		{"C", ModControl},
		{"Control", ModControl},
		{"A", Mod1},
		{"M", Mod1},
		{"Mod1", Mod1},
		{"W", Mod4},
		{"H", Mod4},
		{"lock", ModLock},
		{"mod2", Mod2},
		{"hyper", ModNone},
		{"", ModNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ModifierFromName(tt.name), "ModifierFromName(%q)", tt.name)
	}
}

func TestLockCombinations(t *testing.T) {
	combos := LockCombinations(Mod2, ModLock, Mod5)
	assert.Len(t, combos, 8)
	assert.Equal(t, ModNone, combos[0])
	assert.ElementsMatch(t, []Modifier{
		ModNone,
		Mod2,
		ModLock,
		Mod5,
		Mod2 | ModLock,
		Mod2 | Mod5,
		ModLock | Mod5,
		Mod2 | ModLock | Mod5,
	}, combos)
}

func TestLockCombinationsSkipsUnmappedAndDuplicates(t *testing.T) {
	// Scroll Lock is frequently unmapped, and Num Lock may share a bit.
	combos := LockCombinations(Mod2, ModLock, ModNone, Mod2)
	assert.ElementsMatch(t, []Modifier{ModNone, Mod2, ModLock, Mod2 | ModLock}, combos)

	assert.Equal(t, []Modifier{ModNone}, LockCombinations())
}
