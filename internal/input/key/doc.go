// Package key provides the key model used by chain bindings.
//
// This package defines the fundamental types for representing keyboard input:
//
//   - Modifier: a modifier bitset using the X11 mask layout (Shift, Lock,
//     Control, Mod1 through Mod5)
//   - Code: a host key code (an X keycode, or a keysym for display-less tables)
//   - Key: a modifier set plus a code, the unit bound by a chain node
//   - Table: resolves symbolic key names to codes and back
//   - Event: a single decoded key press delivered by a backend
//
// # Key Specifications
//
// A keyspec is a list of modifier prefixes joined by "-" and followed by a
// symbolic key name:
//
//   - Plain keys: "a", "Return", "F5", "XF86AudioMute"
//   - With modifiers: "C-t", "C-A-Delete", "W-space", "mod2-x"
//
// Long modifier names (shift, lock, control, mod1 ... mod5) are matched
// case-insensitively. The one-letter aliases S, C, A, M, W and H are matched
// exactly.
//
// Key equality compares the modifier set and the code only. Lock-key
// equivalence is applied by MatchesLive, never by Equals.
package key
