// Package inprocess is a test double for the bus transport's signal side:
// Recorder is a busiface.SignalEmitter that keeps every emitted signal in
// memory, with no socket or bus library involved, for package tests that
// drive the façade directly from Go calls. It does not implement the
// busiface service or handle interfaces.
package inprocess

import (
	"sync"

	"github.com/o1-security/gumd/pkg/busiface"
)

// Signal is one recorded emission for test assertions.
type Signal struct {
	ObjectPath string
	Name       string
	Args       []any
}

// Recorder is an in-process busiface.SignalEmitter that stores every
// signal for later inspection.
type Recorder struct {
	mu      sync.Mutex
	signals []Signal
}

// EmitSignal implements busiface.SignalEmitter.
func (r *Recorder) EmitSignal(objectPath, name string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, Signal{ObjectPath: objectPath, Name: name, Args: args})
}

// Signals returns every signal recorded so far, in emission order.
func (r *Recorder) Signals() []Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Signal, len(r.signals))
	copy(out, r.signals)
	return out
}

var _ busiface.SignalEmitter = (*Recorder)(nil)
