package machine

import "github.com/uos-cooperation/daemon/lib/codec"

// ConfirmDialog is the GUI confirmation collaborator: it spawns an
// external dialog process and delivers the user's ACCEPT or REJECT
// byte via callback.
type ConfirmDialog interface {
	Start(onResult func(accept bool)) error
	Kill()
}

// InputEmittor is the input-injection collaborator. EmitEvent writes
// the fixed (type, code, value) triple to the injector's pipe and
// reports whether the pipe accepted the write.
type InputEmittor interface {
	EmitEvent(typ, code uint32, value int32) bool
	Close()
}

// FuseServer serves this Machine's local files to the peer, bound to
// an ephemeral TCP port.
type FuseServer interface {
	Port() uint16
	Close() error
}

// FuseClient mounts the peer's FuseServer export locally. Exit
// unmounts and releases resources.
type FuseClient interface {
	Mountpoint() string
	Exit() error
}

// Notifier delivers a desktop notification when a file transfer
// completes, matching the original daemon's sendReceivedFilesSystemNtf
// side effect.
type Notifier interface {
	NotifyFileReceived(path string, success bool)
}

// ClipboardReader answers a clipboard-content read for target. cb
// fires exactly once with the current content, possibly empty.
type ClipboardReader interface {
	Read(target string, cb func(content string))
}

// Factory constructs every wrapper a Machine needs, injected by the
// Manager so Machine itself stays free of process-spawning and FUSE
// mount details -- those live in lib/wrappers.
type Factory interface {
	NewConfirmDialog() (ConfirmDialog, error)
	NewInputEmittor(device codec.InputDeviceType) (InputEmittor, error)
	NewFuseServer(root string) (FuseServer, error)
	NewFuseClient(addr string, mountpoint string) (FuseClient, error)
	NewCopyProcess(src, dst string, onExit func(success bool)) error
	Notifier() Notifier
	ClipboardReader() ClipboardReader
}
