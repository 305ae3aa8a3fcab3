package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Process holds state that must outlive individual engines within one running
// binary. It remembers every state file written during this process, and an
// engine only reads a file that is on that list. A fresh process therefore
// never trusts a state file left over from a previous run, while an engine
// recreated in the same process (config reload) reloads what its predecessor
// saved. A reload that switches to another instance starts that instance
// empty until it has saved once.
type Process struct {
	ID        string
	StartedAt time.Time

	mu    sync.Mutex
	saved map[string]struct{}
}

var defaultProcess = NewProcess()

// DefaultProcess returns the process-wide instance.
func DefaultProcess() *Process {
	return defaultProcess
}

// NewProcess returns a Process that has not saved anything yet.
func NewProcess() *Process {
	return &Process{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		saved:     make(map[string]struct{}),
	}
}

// Saved reports whether any state file has been written during this process.
func (p *Process) Saved() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saved) > 0
}

// SavedTo reports whether the state file at path was written during this
// process.
func (p *Process) SavedTo(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.saved[path]
	return ok
}

// MarkSaved records a successful save to path. It is never undone.
func (p *Process) MarkSaved(path string) {
	p.mu.Lock()
	p.saved[path] = struct{}{}
	p.mu.Unlock()
}
