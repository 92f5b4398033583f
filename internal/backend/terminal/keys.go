package terminal

import (
	"fmt"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/xchainkeys/internal/input/key"
)

// Keysym names of special terminal keys.
var specialKeys = map[tcell.Key]string{
	tcell.KeyUp:     "Up",
	tcell.KeyDown:   "Down",
	tcell.KeyLeft:   "Left",
	tcell.KeyRight:  "Right",
	tcell.KeyHome:   "Home",
	tcell.KeyEnd:    "End",
	tcell.KeyPgUp:   "Prior",
	tcell.KeyPgDn:   "Next",
	tcell.KeyInsert: "Insert",
	tcell.KeyDelete: "Delete",
	tcell.KeyPrint:  "Print",
	tcell.KeyPause:  "Pause",
}

// convertMod converts tcell modifiers to X modifier bits.
func convertMod(m tcell.ModMask) key.Modifier {
	var mods key.Modifier
	if m&tcell.ModShift != 0 {
		mods |= key.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mods |= key.ModControl
	}
	if m&tcell.ModAlt != 0 {
		mods |= key.Mod1
	}
	if m&tcell.ModMeta != 0 {
		mods |= key.Mod4
	}
	return mods
}

// convertKey converts a tcell key event to a keysym-coded key.
// ok is false for keys with no keysym in the built-in table.
func convertKey(ev *tcell.EventKey) (key.Key, bool) {
	mods := convertMod(ev.Modifiers())
	k := ev.Key()

	var name string
	switch {
	case k == tcell.KeyRune:
		r := ev.Rune()
		if unicode.IsUpper(r) {
			r = unicode.ToLower(r)
			mods |= key.ModShift
		}
		sym, ok := key.KeysymForRune(r)
		if !ok {
			return key.Key{}, false
		}
		name = key.Keysyms.Name(sym)

	// Tab, Enter and Backspace share codes with C-i, C-m and C-h.
	case k == tcell.KeyTab && !mods.Has(key.ModControl):
		name = "Tab"
	case k == tcell.KeyEnter && !mods.Has(key.ModControl):
		name = "Return"
	case (k == tcell.KeyBackspace && !mods.Has(key.ModControl)) || k == tcell.KeyBackspace2:
		name = "BackSpace"
	case k == tcell.KeyEscape:
		name = "Escape"
	case k == tcell.KeyCtrlSpace:
		mods |= key.ModControl
		name = "space"
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		mods |= key.ModControl
		name = string(rune('a' + int(k-tcell.KeyCtrlA)))
	case k >= tcell.KeyF1 && k <= tcell.KeyF12:
		name = fmt.Sprintf("F%d", int(k-tcell.KeyF1)+1)
	default:
		special, ok := specialKeys[k]
		if !ok {
			return key.Key{}, false
		}
		name = special
	}

	code, ok := key.Keysyms.Code(name)
	if !ok {
		return key.Key{}, false
	}
	return key.New(mods, code, name), true
}

func convertEvent(ev *tcell.EventKey) (key.Event, bool) {
	k, ok := convertKey(ev)
	if !ok {
		return key.Event{}, false
	}
	return key.Event{Key: k, Timestamp: time.Now()}, true
}
