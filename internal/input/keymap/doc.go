// Package keymap provides the binding tree that chains are walked through.
//
// A tree is made of Nodes. The root node has no key and the action
// ActionNone. Every other node is bound to a key under its parent and carries
// one action:
//
//	root
//	+- C-t            :enter  timeout=2000
//	|  +- C-t         :escape   (synthetic: replays C-t to the focused window)
//	|  +- C-g         :abort    (synthetic)
//	|  +- x           :exec     xterm
//	|  +- v           :enter    abort=manual
//	|     +- plus     :group "vol" amixer set Master 5%+
//	|     +- minus    :group "vol" amixer set Master 5%-
//	+- F12            :exec   xterm
//
// # Ownership
//
// A node owns its children. The parent pointer is a back reference that is
// used only for path reconstruction and for finding sibling group members.
// Release detaches a whole subtree so a reload can discard it in one step.
//
// # Lookup
//
// ChildByKey uses exact key equality and is used while building the tree.
// Match applies lock-key equivalence and is used for live key presses.
package keymap
