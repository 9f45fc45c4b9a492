// Package buslog is the production busiface.SignalEmitter used until a
// real bus binding is wired in: it logs every signal at info level
// instead of putting it on a wire, so the façade and engine can run
// end-to-end with no external transport dependency.
package buslog

import (
	"github.com/o1-security/gumd/internal/logger"
	"github.com/o1-security/gumd/pkg/busiface"
)

// Emitter implements busiface.SignalEmitter by logging.
type Emitter struct{}

// EmitSignal implements busiface.SignalEmitter.
func (Emitter) EmitSignal(objectPath, name string, args ...any) {
	logger.Info("signal emitted", "object_path", objectPath, "signal", name, "args", args)
}

var _ busiface.SignalEmitter = Emitter{}
