package key

import "fmt"

// KeysymTable is a Table whose codes are X keysym values.
// It is used when no display is available: to validate configs and to drive
// backends that have no keycodes of their own.
type KeysymTable struct {
	byName map[string]Code
	byCode map[Code]string
}

// Keysyms is the built-in keysym table.
var Keysyms = newKeysymTable()

// Code implements Table.
func (t *KeysymTable) Code(name string) (Code, bool) {
	c, ok := t.byName[name]
	return c, ok
}

// Name implements Table.
func (t *KeysymTable) Name(code Code) string {
	return t.byCode[code]
}

// Keysym names that are not printable Latin-1 characters.
// The first name listed for a value is its canonical name.
var specialKeysyms = []struct {
	name string
	sym  Code
}{
	{"BackSpace", 0xff08},
	{"Tab", 0xff09},
	{"Linefeed", 0xff0a},
	{"Return", 0xff0d},
	{"Pause", 0xff13},
	{"Scroll_Lock", 0xff14},
	{"Sys_Req", 0xff15},
	{"Escape", 0xff1b},
	{"Delete", 0xffff},
	{"Home", 0xff50},
	{"Left", 0xff51},
	{"Up", 0xff52},
	{"Right", 0xff53},
	{"Down", 0xff54},
	{"Prior", 0xff55},
	{"Page_Up", 0xff55},
	{"Next", 0xff56},
	{"Page_Down", 0xff56},
	{"End", 0xff57},
	{"Begin", 0xff58},
	{"Select", 0xff60},
	{"Print", 0xff61},
	{"Execute", 0xff62},
	{"Insert", 0xff63},
	{"Undo", 0xff65},
	{"Redo", 0xff66},
	{"Menu", 0xff67},
	{"Find", 0xff68},
	{"Cancel", 0xff69},
	{"Help", 0xff6a},
	{"Break", 0xff6b},
	{"Num_Lock", 0xff7f},
	{"KP_Space", 0xff80},
	{"KP_Tab", 0xff89},
	{"KP_Enter", 0xff8d},
	{"KP_Home", 0xff95},
	{"KP_Left", 0xff96},
	{"KP_Up", 0xff97},
	{"KP_Right", 0xff98},
	{"KP_Down", 0xff99},
	{"KP_Prior", 0xff9a},
	{"KP_Next", 0xff9b},
	{"KP_End", 0xff9c},
	{"KP_Begin", 0xff9d},
	{"KP_Insert", 0xff9e},
	{"KP_Delete", 0xff9f},
	{"KP_Multiply", 0xffaa},
	{"KP_Add", 0xffab},
	{"KP_Separator", 0xffac},
	{"KP_Subtract", 0xffad},
	{"KP_Decimal", 0xffae},
	{"KP_Divide", 0xffaf},
	{"KP_Equal", 0xffbd},
	{"Shift_L", 0xffe1},
	{"Shift_R", 0xffe2},
	{"Control_L", 0xffe3},
	{"Control_R", 0xffe4},
	{"Caps_Lock", 0xffe5},
	{"Shift_Lock", 0xffe6},
	{"Meta_L", 0xffe7},
	{"Meta_R", 0xffe8},
	{"Alt_L", 0xffe9},
	{"Alt_R", 0xffea},
	{"Super_L", 0xffeb},
	{"Super_R", 0xffec},
	{"Hyper_L", 0xffed},
	{"Hyper_R", 0xffee},
	{"ISO_Level3_Shift", 0xfe03},
	{"XF86AudioLowerVolume", 0x1008ff11},
	{"XF86AudioMute", 0x1008ff12},
	{"XF86AudioRaiseVolume", 0x1008ff13},
	{"XF86AudioPlay", 0x1008ff14},
	{"XF86AudioStop", 0x1008ff15},
	{"XF86AudioPrev", 0x1008ff16},
	{"XF86AudioNext", 0x1008ff17},
	{"XF86HomePage", 0x1008ff18},
	{"XF86Mail", 0x1008ff19},
	{"XF86Search", 0x1008ff1b},
	{"XF86Calculator", 0x1008ff1d},
	{"XF86MonBrightnessUp", 0x1008ff02},
	{"XF86MonBrightnessDown", 0x1008ff03},
}

// latin1Names maps the printable ASCII range to keysym names.
// Letters and digits are named by themselves.
var latin1Names = map[rune]string{
	' ':  "space",
	'!':  "exclam",
	'"':  "quotedbl",
	'#':  "numbersign",
	'$':  "dollar",
	'%':  "percent",
	'&':  "ampersand",
	'\'': "apostrophe",
	'(':  "parenleft",
	')':  "parenright",
	'*':  "asterisk",
	'+':  "plus",
	',':  "comma",
	'-':  "minus",
	'.':  "period",
	'/':  "slash",
	':':  "colon",
	';':  "semicolon",
	'<':  "less",
	'=':  "equal",
	'>':  "greater",
	'?':  "question",
	'@':  "at",
	'[':  "bracketleft",
	'\\': "backslash",
	']':  "bracketright",
	'^':  "asciicircum",
	'_':  "underscore",
	'`':  "grave",
	'{':  "braceleft",
	'|':  "bar",
	'}':  "braceright",
	'~':  "asciitilde",
}

func newKeysymTable() *KeysymTable {
	t := &KeysymTable{
		byName: make(map[string]Code),
		byCode: make(map[Code]string),
	}
	add := func(name string, sym Code) {
		t.byName[name] = sym
		if _, ok := t.byCode[sym]; !ok {
			t.byCode[sym] = name
		}
	}

	for r := rune(0x20); r <= 0x7e; r++ {
		name, ok := latin1Names[r]
		if !ok {
			name = string(r)
		}
		add(name, Code(r))
	}
	for i := 1; i <= 35; i++ {
		add(fmt.Sprintf("F%d", i), Code(0xffbe+i-1))
	}
	for i := 0; i <= 9; i++ {
		add(fmt.Sprintf("KP_%d", i), Code(0xffb0+i))
	}
	for _, s := range specialKeysyms {
		add(s.name, s.sym)
	}
	return t
}

// KeysymForRune returns the keysym of a printable Latin-1 character.
func KeysymForRune(r rune) (Code, bool) {
	if r < 0x20 || r > 0x7e {
		return 0, false
	}
	return Code(r), true
}

// IsModifierKeysym reports whether sym is one of the modifier keys
// (Shift_L through Hyper_R, or ISO_Level3_Shift).
func IsModifierKeysym(sym Code) bool {
	return (sym >= 0xffe1 && sym <= 0xffee) || sym == 0xfe03 || sym == 0xff7f
}
