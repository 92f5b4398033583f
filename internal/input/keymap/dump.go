package keymap

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Line formats a single node the way it is written in a config file:
// `keyspec :action ["name"] argument`.
func (n *Node) Line() string {
	var sb strings.Builder
	sb.WriteString(n.Key.String())
	sb.WriteByte(' ')
	sb.WriteString(n.Action.String())
	if n.Name != DefaultName && n.Name != "" {
		fmt.Fprintf(&sb, " %q", n.Name)
	}
	if n.Argument != "" {
		sb.WriteByte(' ')
		sb.WriteString(n.Argument)
	}
	return sb.String()
}

// List writes every node below n as one line, indented by four spaces
// per level below the top level.
func (n *Node) List(w io.Writer) error {
	bw := bufio.NewWriter(w)
	base := n.Depth()
	n.Walk(func(cur *Node) bool {
		if cur.IsRoot() {
			return true
		}
		depth := cur.Depth() - base
		if base == 0 {
			depth--
		}
		bw.WriteString(strings.Repeat("    ", max(depth, 0)))
		bw.WriteString(cur.Line())
		bw.WriteByte('\n')
		return true
	})
	return bw.Flush()
}

// Entry is the exported form of a node.
type Entry struct {
	Key       string  `yaml:"key" toml:"key"`
	Action    string  `yaml:"action" toml:"action"`
	Name      string  `yaml:"name,omitempty" toml:"name,omitempty"`
	Argument  string  `yaml:"argument,omitempty" toml:"argument,omitempty"`
	TimeoutMS int64   `yaml:"timeout_ms,omitempty" toml:"timeout_ms,omitempty"`
	Abort     string  `yaml:"abort,omitempty" toml:"abort,omitempty"`
	Synthetic bool    `yaml:"synthetic,omitempty" toml:"synthetic,omitempty"`
	Children  []Entry `yaml:"children,omitempty" toml:"children,omitempty"`
}

// Export holds a whole tree in exportable form.
type Export struct {
	Bindings []Entry `yaml:"bindings" toml:"bindings"`
}

// Export converts the children of n into entries.
func (n *Node) Export() Export {
	return Export{Bindings: exportChildren(n)}
}

func exportChildren(n *Node) []Entry {
	if len(n.children) == 0 {
		return nil
	}
	out := make([]Entry, 0, len(n.children))
	for _, c := range n.children {
		e := Entry{
			Key:       c.Key.String(),
			Action:    c.Action.String(),
			Argument:  c.Argument,
			Synthetic: c.Synthetic,
			Children:  exportChildren(c),
		}
		if c.Name != DefaultName {
			e.Name = c.Name
		}
		if c.Action == ActionEnter {
			e.TimeoutMS = c.Timeout.Milliseconds()
			e.Abort = c.Abort.String()
		}
		out = append(out, e)
	}
	return out
}

// EncodeYAML writes the exported tree below n as YAML.
func (n *Node) EncodeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(n.Export()); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// EncodeTOML writes the exported tree below n as TOML.
func (n *Node) EncodeTOML(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(n.Export()); err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	return nil
}
