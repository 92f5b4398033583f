package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/xchainkeys/internal/input/key"
	"github.com/dshills/xchainkeys/internal/input/keymap"
	"github.com/dshills/xchainkeys/internal/logging"
)

// Result is the output of a compile.
type Result struct {
	// Root is the root of the binding tree.
	Root *keymap.Node

	// Options holds the global options, defaults included.
	Options Options

	// Diagnostics lists every skipped line and every default binding that
	// could not be created, in file order.
	Diagnostics []Diagnostic
}

// Compiler turns configuration text into a binding tree.
type Compiler struct {
	parser *key.Parser
	logger *logging.Logger
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithLogger makes the compiler log diagnostics at WARN level.
func WithLogger(l *logging.Logger) CompilerOption {
	return func(c *Compiler) {
		c.logger = l
	}
}

// NewCompiler creates a compiler that resolves key names through table.
func NewCompiler(table key.Table, opts ...CompilerOption) *Compiler {
	c := &Compiler{parser: key.NewParser(table)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompileFile reads and compiles the file at path into root.
// A nil root starts a new tree.
func (c *Compiler) CompileFile(root *keymap.Node, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	res, err := c.Compile(root, f)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return res, nil
}

// Compile reads configuration text from r and builds the tree below root.
// A nil root starts a new tree. root must not have children.
func (c *Compiler) Compile(root *keymap.Node, r io.Reader) (*Result, error) {
	if root == nil {
		root = keymap.NewRoot()
	}
	cc := &compilation{
		Compiler: c,
		res: &Result{
			Root:    root,
			Options: DefaultOptions(),
		},
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		cc.line++
		cc.compileLine(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	cc.line = 0
	cc.applyOptions(root)
	cc.addDefaultBindings(root)
	return cc.res, nil
}

// compilation is the state of one Compile call.
type compilation struct {
	*Compiler
	res  *Result
	line int
}

func (cc *compilation) diag(format string, args ...any) {
	d := Diagnostic{Line: cc.line, Text: fmt.Sprintf(format, args...)}
	cc.res.Diagnostics = append(cc.res.Diagnostics, d)
	cc.logger.Warn("%s", d)
}

func (cc *compilation) compileLine(text string) {
	text = strings.TrimSpace(text)
	if text == "" || text[0] == '#' {
		return
	}

	var toks []Token
	for t := range Tokens(text) {
		toks = append(toks, t)
	}
	if cc.globalOption(toks) {
		return
	}

	b, ok := cc.parseBinding(toks)
	if !ok {
		return
	}
	cc.insert(b)
}

// globalOption applies option lines such as "timeout 500".
func (cc *compilation) globalOption(toks []Token) bool {
	if len(toks) == 0 {
		return false
	}
	name := toks[0].Raw
	switch name {
	case "timeout", "delay", "feedback", "font", "foreground", "background":
	default:
		return false
	}

	if len(toks) < 2 {
		cc.diag("'%s': missing value, skipping", name)
		return true
	}
	value := toks[1].Text
	opts := &cc.res.Options

	switch name {
	case "timeout", "delay":
		ms, err := strconv.Atoi(value)
		if err != nil || ms < 0 {
			cc.diag("'%s %s': not a number of milliseconds, skipping", name, value)
			return true
		}
		d := time.Duration(ms) * time.Millisecond
		if name == "timeout" {
			opts.Timeout = d
		} else {
			opts.Delay = d
		}
	case "feedback":
		switch value {
		case "on":
			opts.Feedback = true
		case "off":
			opts.Feedback = false
		default:
			cc.diag("'feedback %s': expected on or off, skipping", value)
		}
	case "font":
		opts.Font = joinText(toks[1:])
	case "foreground":
		opts.Foreground = joinText(toks[1:])
	case "background":
		opts.Background = joinText(toks[1:])
	}
	return true
}

// binding is a parsed binding line before it is inserted into the tree.
type binding struct {
	keys     []key.Key
	action   keymap.Action
	name     string
	argument string
	rest     string
}

type expect int

const (
	expectKey expect = iota
	expectAction
	expectArgument
)

// parseBinding walks the tokens with a key/action/argument cursor.
func (cc *compilation) parseBinding(toks []Token) (binding, bool) {
	b := binding{action: keymap.ActionEnter, name: keymap.DefaultName}
	state := expectKey
	var args []Token

	for i, tok := range toks {
		if state == expectKey && tok.IsAction() {
			state = expectAction
		}

		switch state {
		case expectKey:
			k, err := cc.parser.Parse(tok.Raw)
			if err != nil {
				cc.diag("'%s': invalid keyspec, skipping", tok.Raw)
				return b, false
			}
			b.keys = append(b.keys, k)

		case expectAction:
			if len(b.keys) == 0 {
				cc.diag("'%s': action without keyspec, skipping", tok.Raw)
				return b, false
			}
			lookup, ok := keymap.LookupAction(tok.Raw)
			if !ok {
				cc.diag("'%s': unknown action, skipping", tok.Raw)
				return b, false
			}
			if lookup.Deprecated != "" {
				cc.diag("%s", lookup.Deprecated)
			}
			b.action = lookup.Action
			if lookup.Name != "" {
				b.name = lookup.Name
			}
			b.rest = joinRaw(toks[i:])
			state = expectArgument

		case expectArgument:
			args = append(args, tok)
		}
	}

	if len(args) > 0 && args[0].Quoted {
		first := args[0]
		switch {
		case first.Unterminated:
			cc.diag("missing closing double quote for action name, ignoring arguments")
			args = nil
		case b.action == keymap.ActionGroup || b.action == keymap.ActionEnter || len(args) > 1:
			if first.Text != "" {
				b.name = first.Text
			}
			args = args[1:]
		default:
			// A lone quoted word is the whole argument.
			b.argument = first.Text
			args = nil
		}
	}
	if len(args) > 0 {
		b.argument = joinRaw(args)
	}
	return b, true
}

// insert walks b's key path from the root, reusing existing chain nodes
// and creating the rest.
func (cc *compilation) insert(b binding) {
	parent := cc.res.Root

	for i, k := range b.keys {
		last := i == len(b.keys)-1

		if existing := parent.ChildByKey(k); existing != nil {
			if last {
				cc.diag("'%s': already bound, skipping", existing.Path())
				return
			}
			if existing.Action != keymap.ActionEnter {
				cc.diag("'%s': %s binding turned into a chain, its argument is dropped",
					existing.Path(), existing.Action)
				existing.Action = keymap.ActionEnter
				existing.Argument = ""
				existing.Name = keymap.DefaultName
			}
			parent = existing
			continue
		}

		if parent.IsRoot() && last && !b.action.AllowedAtTopLevel() {
			cc.diag("'%s': action is invalid outside of chain, skipping", b.rest)
			return
		}

		node := parent.Append(keymap.NewNode(k))
		if last {
			node.Action = b.action
			node.Name = b.name
			node.Argument = b.argument
		}
		parent = node
	}
}

func joinRaw(toks []Token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.Raw
	}
	return strings.Join(parts, " ")
}

func joinText(toks []Token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}
