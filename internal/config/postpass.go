package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/dshills/xchainkeys/internal/input/key"
	"github.com/dshills/xchainkeys/internal/input/keymap"
)

// abortKeyspec is the key of the default :abort binding.
const abortKeyspec = "C-g"

// applyOptions sets timeout and abort mode on every chain node from the
// global timeout and the node's "timeout=N abort=auto|manual" argument.
func (cc *compilation) applyOptions(root *keymap.Node) {
	root.Walk(func(n *keymap.Node) bool {
		if n.IsRoot() || n.Action != keymap.ActionEnter {
			return true
		}
		n.Timeout = cc.res.Options.Timeout

		for _, word := range strings.Fields(n.Argument) {
			name, value, ok := strings.Cut(word, "=")
			if !ok {
				continue
			}
			switch name {
			case "timeout":
				ms, err := strconv.Atoi(value)
				if err != nil || ms < 0 {
					cc.diag("chain '%s': '%s': not a number of milliseconds, ignoring", n.Path(), word)
					continue
				}
				n.Timeout = time.Duration(ms) * time.Millisecond
			case "abort":
				mode, ok := keymap.ParseAbortMode(value)
				if !ok {
					cc.diag("chain '%s': '%s': expected auto or manual, ignoring", n.Path(), word)
					continue
				}
				n.Abort = mode
			}
		}
		return true
	})
}

// addDefaultBindings gives every chain an :escape binding on its own key
// and an :abort binding on C-g unless the chain already has them.
// A default is skipped when its key is taken by another binding.
func (cc *compilation) addDefaultBindings(root *keymap.Node) {
	abortKey, abortErr := cc.parser.Parse(abortKeyspec)

	root.Walk(func(n *keymap.Node) bool {
		if n.IsRoot() || n.Action != keymap.ActionEnter {
			return true
		}
		path := n.Path()

		if n.ChildByAction(keymap.ActionEscape) == nil {
			cc.addDefault(n, n.Key, keymap.ActionEscape, path)
		}
		if n.ChildByAction(keymap.ActionAbort) == nil {
			if abortErr != nil {
				cc.diag("chain '%s': cannot resolve '%s', skipping creation of default :abort binding", path, abortKeyspec)
			} else {
				cc.addDefault(n, abortKey, keymap.ActionAbort, path)
			}
		}
		return true
	})
}

func (cc *compilation) addDefault(n *keymap.Node, k key.Key, action keymap.Action, path string) {
	if n.ChildByKey(k) != nil {
		cc.diag("chain '%s': %s action not found and '%s %s' already bound, skipping creation of default %s binding",
			path, action, path, k, action)
		return
	}
	def := n.Append(keymap.NewBinding(k, action, ""))
	def.Synthetic = true
}
