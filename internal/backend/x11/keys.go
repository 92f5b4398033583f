package x11

import (
	"time"
	"unicode/utf8"

	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgbutil"
	"github.com/jezek/xgbutil/keybind"

	"github.com/dshills/xchainkeys/internal/input/key"
)

const (
	keysymNumLock    xproto.Keysym = 0xff7f
	keysymScrollLock xproto.Keysym = 0xff14
)

// keyTable resolves keysym names to keycodes of the current keyboard
// mapping, and keycodes back to keysym names.
type keyTable struct {
	keycodes func(name string) []xproto.Keycode
	keysym   func(kc xproto.Keycode) xproto.Keysym
}

func newKeyTable(xu *xgbutil.XUtil) keyTable {
	return keyTable{
		keycodes: func(name string) []xproto.Keycode {
			return keybind.StrToKeycodes(xu, name)
		},
		keysym: func(kc xproto.Keycode) xproto.Keysym {
			return keybind.KeysymGet(xu, kc, 0)
		},
	}
}

// Code implements key.Table. The first keycode carrying the keysym wins.
func (t keyTable) Code(name string) (key.Code, bool) {
	codes := t.keycodes(name)
	if len(codes) == 0 {
		return 0, false
	}
	return key.Code(codes[0]), true
}

// Name implements key.Table. It returns the keysym name of the
// unshifted symbol, so "space" stays "space" and never becomes " ".
func (t keyTable) Name(code key.Code) string {
	sym := t.keysym(xproto.Keycode(code))
	if sym == 0 {
		return ""
	}
	if name := key.Keysyms.Name(key.Code(sym)); name != "" {
		return name
	}
	// xgbutil shortens punctuation to the character itself. Such a
	// name cannot be parsed back, so keep the spelling of the keyspec.
	if name := keybind.KeysymToStr(sym); utf8.RuneCountInString(name) > 1 {
		return name
	}
	return ""
}

// grabCombinations grabs every lock combination in turn. When one fails,
// the ones already grabbed are released and the failure is returned.
func grabCombinations(combos []key.Modifier, grab, ungrab func(key.Modifier) error) error {
	for i, locks := range combos {
		if err := grab(locks); err != nil {
			for _, done := range combos[:i] {
				_ = ungrab(done)
			}
			return err
		}
	}
	return nil
}

// modifierMap is the decoded server modifier mapping.
type modifierMap struct {
	numLock    key.Modifier
	scrollLock key.Modifier

	// keycodes maps every modifier key to the mask it sets.
	keycodes map[xproto.Keycode]key.Modifier
}

// decodeModifierMap decodes a GetModifierMapping reply. keysym returns
// the unshifted keysym of a keycode.
func decodeModifierMap(perModifier int, keycodes []xproto.Keycode, keysym func(xproto.Keycode) xproto.Keysym) modifierMap {
	m := modifierMap{keycodes: make(map[xproto.Keycode]key.Modifier)}
	for i := range 8 {
		mask := key.Modifier(1 << i)
		for j := range perModifier {
			idx := i*perModifier + j
			if idx >= len(keycodes) {
				break
			}
			kc := keycodes[idx]
			if kc == 0 {
				continue
			}
			m.keycodes[kc] |= mask
			switch keysym(kc) {
			case keysymNumLock:
				m.numLock = mask
			case keysymScrollLock:
				m.scrollLock = mask
			}
		}
	}
	return m
}

// locks returns the mask of all lock modifiers.
func (m modifierMap) locks() key.Modifier {
	return key.ModLock | m.numLock | m.scrollLock
}

// combinations returns every lock state a grab has to cover.
func (m modifierMap) combinations() []key.Modifier {
	return key.LockCombinations(key.ModLock, m.numLock, m.scrollLock)
}

func (m modifierMap) isModifier(kc xproto.Keycode) bool {
	_, ok := m.keycodes[kc]
	return ok
}

// translateKeyPress converts a KeyPress event into a key event.
func translateKeyPress(e xproto.KeyPressEvent, name func(key.Code) string, mods modifierMap) key.Event {
	code := key.Code(e.Detail)
	k := key.New(key.Modifier(e.State)&key.ModMask, code, name(code))
	return key.Event{
		Key:        k,
		IsModifier: mods.isModifier(e.Detail),
		Timestamp:  time.Now(),
	}
}
