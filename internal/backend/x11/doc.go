// Package x11 implements backend.Backend on the X11 core protocol.
//
// Top-level chain keys are passive grabs on the root window, installed
// once per lock-key combination so Caps Lock, Num Lock and Scroll Lock
// never defeat a binding. While a chain runs the whole keyboard is
// grabbed. Key events are read by a single pump goroutine and handed to
// NextEvent over a channel.
//
// Key codes in this package are X keycodes. Symbolic names are resolved
// with the server's keyboard mapping through xgbutil's keybind package.
package x11
