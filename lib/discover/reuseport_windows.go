//go:build windows

package discover

import "syscall"

// reusePortControl is a no-op on Windows, which has no SO_REUSEPORT
// equivalent usable the same way.
func reusePortControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
