// Package inputemittor implements the InputEmittor collaborator: it
// spawns an input-injector process and writes fixed (uint32 type,
// uint32 code, int32 value) triples to its stdin.
package inputemittor

import (
	"encoding/binary"

	"github.com/uos-cooperation/daemon/lib/eventloop"
)

// Emittor owns one spawned injector process.
type Emittor struct {
	proc  *eventloop.Process
	alive bool
}

// New spawns path with args (typically selecting the target device by
// flag or argv) and returns an Emittor ready for EmitEvent calls.
func New(loop *eventloop.Loop, path string, args ...string) (*Emittor, error) {
	e := &Emittor{proc: eventloop.NewProcess(loop, path, args...)}
	if err := e.proc.Spawn(); err != nil {
		return nil, err
	}
	e.alive = true
	e.proc.OnExit(func(exitStatus int64, signal int) {
		e.alive = false
	})
	return e, nil
}

// EmitEvent writes the 12-byte (type, code, value) triple to the
// injector's pipe in network byte order, reporting whether the pipe
// accepted the write.
func (e *Emittor) EmitEvent(typ, code uint32, value int32) bool {
	if !e.alive {
		return false
	}
	var buf [12]byte
	binary.BigEndian.PutUint32(buf[0:4], typ)
	binary.BigEndian.PutUint32(buf[4:8], code)
	binary.BigEndian.PutUint32(buf[8:12], uint32(value))
	_, err := e.proc.Write(buf[:])
	return err == nil
}

// Close terminates the injector process.
func (e *Emittor) Close() {
	e.alive = false
	e.proc.Kill()
}
