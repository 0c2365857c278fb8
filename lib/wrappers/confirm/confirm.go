// Package confirm implements the ConfirmDialog collaborator: it spawns
// an external dialog process that writes a single ACCEPT/REJECT byte
// to its stdout and exits.
package confirm

import (
	"github.com/uos-cooperation/daemon/lib/eventloop"
)

const (
	byteReject = 0
	byteAccept = 1
)

// Dialog spawns a confirmation-dialog process bound to a Loop.
type Dialog struct {
	proc *eventloop.Process
}

// New creates a Dialog that will run path with args when Start is
// called.
func New(loop *eventloop.Loop, path string, args ...string) *Dialog {
	return &Dialog{proc: eventloop.NewProcess(loop, path, args...)}
}

// Start spawns the dialog process. onResult fires exactly once, with
// true for ACCEPT and false for REJECT, when the process writes its
// single result byte.
func (d *Dialog) Start(onResult func(accept bool)) error {
	delivered := false
	d.proc.OnReceived(func(buf []byte) {
		if delivered || len(buf) == 0 {
			return
		}
		delivered = true
		onResult(buf[0] == byteAccept)
	})
	d.proc.OnExit(func(exitStatus int64, signal int) {
		if !delivered {
			delivered = true
			onResult(false)
		}
	})
	return d.proc.Spawn()
}

// Kill terminates the dialog process without waiting for its result,
// used when the owning Machine tears down mid-confirmation.
func (d *Dialog) Kill() {
	d.proc.Kill()
}
