package keymap

import (
	"strings"
	"time"

	"github.com/dshills/xchainkeys/internal/input/key"
)

const (
	// DefaultName is the name of every binding that was not given one.
	DefaultName = "default"

	// DefaultTimeout is the chain timeout used before options are applied.
	DefaultTimeout = 3000 * time.Millisecond
)

// Node is one step of a chain.
type Node struct {
	// Key must be pressed while the parent chain is active.
	// The root has the zero key.
	Key key.Key

	// Action is what happens when Key is pressed.
	Action Action

	// Argument is the command line for :exec and :group, the config path
	// for :load, and the option words for :enter.
	Argument string

	// Name tells group members bound under one parent apart.
	Name string

	// Timeout is how long a chain entered here waits for the next key.
	// Zero disables the timeout.
	Timeout time.Duration

	// Abort is the chain's abort mode.
	Abort AbortMode

	// Synthetic is set for the default :escape and :abort bindings.
	Synthetic bool

	parent   *Node
	children []*Node
}

// NewRoot creates the root of a binding tree.
func NewRoot() *Node {
	return &Node{
		Action:  ActionNone,
		Name:    DefaultName,
		Timeout: DefaultTimeout,
	}
}

// NewNode creates a chain entry node for k.
func NewNode(k key.Key) *Node {
	return &Node{
		Key:     k,
		Action:  ActionEnter,
		Name:    DefaultName,
		Timeout: DefaultTimeout,
		Abort:   AbortAuto,
	}
}

// NewBinding creates a node with the given action and argument.
func NewBinding(k key.Key, action Action, argument string) *Node {
	n := NewNode(k)
	n.Action = action
	n.Argument = argument
	return n
}

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the ordered children. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// Len returns the number of children.
func (n *Node) Len() int {
	return len(n.children)
}

// IsRoot returns true for the root node.
func (n *Node) IsRoot() bool {
	return n.parent == nil
}

// IsTopLevel returns true if the node's parent is the root.
func (n *Node) IsTopLevel() bool {
	return n.parent != nil && n.parent.parent == nil
}

// Root returns the root of the tree containing n.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Depth returns 0 for the root, 1 for top-level nodes and so on.
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Append adds child as the last child of n.
func (n *Node) Append(child *Node) *Node {
	child.parent = n
	n.children = append(n.children, child)
	return child
}

// ChildByKey returns the child bound to an equal key, or nil.
func (n *Node) ChildByKey(k key.Key) *Node {
	for _, c := range n.children {
		if c.Key.Equals(k) {
			return c
		}
	}
	return nil
}

// ChildByAction returns the first child with the given action, or nil.
func (n *Node) ChildByAction(a Action) *Node {
	for _, c := range n.children {
		if c.Action == a {
			return c
		}
	}
	return nil
}

// Match returns the child bound to a live key press, or nil.
// Lock bits in locks are ignored unless the binding requests them.
// An exact match wins over a lock-equivalent one.
func (n *Node) Match(live key.Key, locks key.Modifier) *Node {
	if c := n.ChildByKey(live); c != nil {
		return c
	}
	for _, c := range n.children {
		if key.MatchesLive(c.Key, live, locks) {
			return c
		}
	}
	return nil
}

// GroupMember returns the sibling of n (or n itself) that is a :group
// binding with n's name and a key matching live.
func (n *Node) GroupMember(live key.Key, locks key.Modifier) *Node {
	if n.parent == nil {
		return nil
	}
	for _, c := range n.parent.children {
		if c.Action == ActionGroup && c.Name == n.Name && key.MatchesLive(c.Key, live, locks) {
			return c
		}
	}
	return nil
}

// Walk calls fn for n and every descendant, depth-first, parents first.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Release detaches the whole subtree below n.
// After Release, n has no children and every former descendant has no parent.
func (n *Node) Release() {
	for _, c := range n.children {
		c.Release()
		c.parent = nil
	}
	n.children = nil
}

// Path returns the keys from the top-level node down to n, separated by
// spaces. Nodes with a non-default name are shown as "key (name)".
func (n *Node) Path() string {
	var segments []string
	for cur := n; cur != nil && cur.parent != nil; cur = cur.parent {
		seg := cur.Key.String()
		if cur.Name != DefaultName && cur.Name != "" {
			seg += " (" + cur.Name + ")"
		}
		segments = append(segments, seg)
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Join(segments, " ")
}

// GroupPath returns the path shown while a group is active:
// the parent's path followed by the group name.
func (n *Node) GroupPath() string {
	p := ""
	if n.parent != nil {
		p = n.parent.Path()
	}
	if p == "" {
		return "(" + n.Name + ")"
	}
	return p + " (" + n.Name + ")"
}
