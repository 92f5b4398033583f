// Package terminal implements backend.Backend inside a terminal with tcell.
//
// It exists so a config can be tried without touching the X session: the
// dispatcher runs unchanged, key presses come from the terminal, the
// feedback popup is the bottom line of the screen, and escape sends and
// commands are written to a log area instead of reaching other windows.
//
// Key codes are keysym values from key.Keysyms. Terminals cannot report
// modifier-only presses or lock state, so events never carry either.
package terminal
