//go:build !windows

package discover

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reusePortControl sets SO_REUSEPORT on the beacon socket before bind, so a
// restarted daemon doesn't have to wait out the previous socket's lingering
// TIME_WAIT state and a second local instance can coexist for testing.
// Best-effort: a kernel that rejects the option still ends up with a
// working, merely non-shared, socket.
func reusePortControl(_, _ string, c syscall.RawConn) error {
	return c.Control(func(fd uintptr) {
		unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
}
