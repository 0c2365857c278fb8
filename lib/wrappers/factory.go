// Package wrappers wires the concrete confirm/inputemittor/fusebridge/
// notify collaborators into a single machine.Factory, the injection
// seam lib/machine's handlers call through for every externally
// spawned collaborator process.
package wrappers

import (
	"fmt"
	"os/exec"

	"github.com/uos-cooperation/daemon/lib/codec"
	"github.com/uos-cooperation/daemon/lib/eventloop"
	"github.com/uos-cooperation/daemon/lib/machine"
	"github.com/uos-cooperation/daemon/lib/wrappers/clipboard"
	"github.com/uos-cooperation/daemon/lib/wrappers/confirm"
	"github.com/uos-cooperation/daemon/lib/wrappers/fusebridge"
	"github.com/uos-cooperation/daemon/lib/wrappers/inputemittor"
	"github.com/uos-cooperation/daemon/lib/wrappers/notify"
)

// Paths bundles the external binaries a Factory spawns, normally read
// from the daemon's configuration file.
type Paths struct {
	ConfirmDialog string
	InputEmittor  string
}

// Factory implements machine.Factory using the concrete wrapper
// packages alongside this one.
type Factory struct {
	loop      *eventloop.Loop
	paths     Paths
	notifier  *notify.Desktop
	clipboard *clipboard.Reader
}

// New returns a Factory bound to loop, spawning external processes
// from the binaries named in paths.
func New(loop *eventloop.Loop, paths Paths) *Factory {
	return &Factory{loop: loop, paths: paths, notifier: notify.New(), clipboard: clipboard.New()}
}

var _ machine.Factory = (*Factory)(nil)

func (f *Factory) NewConfirmDialog() (machine.ConfirmDialog, error) {
	return confirm.New(f.loop, f.paths.ConfirmDialog), nil
}

func (f *Factory) NewInputEmittor(device codec.InputDeviceType) (machine.InputEmittor, error) {
	return inputemittor.New(f.loop, f.paths.InputEmittor, deviceArg(device))
}

func (f *Factory) NewFuseServer(root string) (machine.FuseServer, error) {
	return fusebridge.NewServer(root)
}

func (f *Factory) NewFuseClient(addr, mountpoint string) (machine.FuseClient, error) {
	return fusebridge.NewClient(addr, mountpoint)
}

func (f *Factory) NewCopyProcess(src, dst string, onExit func(success bool)) error {
	proc := eventloop.NewProcess(f.loop, "/bin/cp", src, dst)
	proc.OnExit(func(exitStatus int64, signal int) {
		onExit(exitStatus == 0 && signal == 0)
	})
	return proc.Spawn()
}

func (f *Factory) Notifier() machine.Notifier { return f.notifier }

func (f *Factory) ClipboardReader() machine.ClipboardReader { return f.clipboard }

func deviceArg(device codec.InputDeviceType) string {
	switch device {
	case codec.InputDeviceKeyboard:
		return "--device=keyboard"
	case codec.InputDeviceMouse:
		return "--device=mouse"
	case codec.InputDeviceTouchpad:
		return "--device=touchpad"
	default:
		return "--device=unknown"
	}
}

// LookPath resolves name on PATH, returning a wrapped error if the
// wrapper binary is missing.
func LookPath(name string) error {
	_, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("wrapper binary %q not found: %w", name, err)
	}
	return nil
}
