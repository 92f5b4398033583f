// Package input runs key chains.
//
// An Engine walks a binding tree one key press at a time:
//
//	key press ──► Root Dispatcher ──► Engine.Activate(top-level node)
//	                                       │
//	                       ┌───────────────┼───────────────┬──────────────┐
//	                     :enter          :exec           :group         :escape
//	                  wait for the    spawn command   repeat while    replay the
//	                  next key and    and return      same-named      chain's own
//	                  recurse                         keys arrive     key
//
// The engine talks to the host through three small ports. A Session
// delivers key events and owns the keyboard grab. A Feedback shows
// the current chain path. A Spawner runs commands. This keeps the state
// machine independent of X11 and lets tests drive it with scripted events
// and a fake clock.
//
// Only a chain entered directly from the root grabs the keyboard.
// Nested chains run inside that grab.
//
// Reload and re-entry requests never run from inside a chain. They are
// queued on a Pending value and drained by the Root Dispatcher once every
// nested frame has returned.
package input
