package input

import (
	"sync"

	"github.com/dshills/xchainkeys/internal/input/keymap"
)

// Pending holds at most one re-entry request and one reload request.
// Reload may be requested from other goroutines (file watcher, SIGHUP).
type Pending struct {
	mu         sync.Mutex
	reentry    *keymap.Node
	reload     bool
	reloadPath string
}

// RequestReentry asks the dispatcher to enter n as soon as the current
// activation returns. A later request replaces an earlier one.
func (p *Pending) RequestReentry(n *keymap.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reentry = n
}

// HasReentry reports whether a re-entry is queued.
func (p *Pending) HasReentry() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reentry != nil
}

// TakeReentry returns and clears the queued re-entry.
func (p *Pending) TakeReentry() *keymap.Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.reentry
	p.reentry = nil
	return n
}

// RequestReload asks for the tree to be rebuilt. A non-empty path
// replaces the configuration path.
func (p *Pending) RequestReload(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reload = true
	if path != "" {
		p.reloadPath = path
	}
}

// ReloadRequested reports whether a reload is queued.
func (p *Pending) ReloadRequested() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reload
}

// TakeReload returns and clears the queued reload.
// path is empty unless a new configuration path was requested.
func (p *Pending) TakeReload() (path string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	path, ok = p.reloadPath, p.reload
	p.reload = false
	p.reloadPath = ""
	return path, ok
}

// Reset drops both requests.
func (p *Pending) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reentry = nil
	p.reload = false
	p.reloadPath = ""
}
