// Package notify implements the desktop-notification collaborator: a
// notification on file-transfer completion, matching the original
// daemon's sendReceivedFilesSystemNtf side effect. No D-Bus dependency
// is pulled in; it spawns the same notify-send binary a desktop
// session already provides.
package notify

import (
	"fmt"
	"os/exec"

	"github.com/uos-cooperation/daemon/lib/logger"
)

var log = logger.DefaultLogger.NewFacility("notify")

// Desktop sends file-transfer notifications via notify-send. It is
// fire-and-forget: a missing notify-send binary only loses the visual
// notification, never the underlying file-transfer result delivered
// over the wire.
type Desktop struct{}

// New returns a Desktop notifier.
func New() *Desktop { return &Desktop{} }

// NotifyFileReceived implements machine.Notifier.
func (d *Desktop) NotifyFileReceived(path string, success bool) {
	title := "File received"
	body := fmt.Sprintf("Saved to %s", path)
	if !success {
		title = "File transfer failed"
		body = fmt.Sprintf("Could not save %s", path)
	}

	cmd := exec.Command("notify-send", title, body)
	if err := cmd.Start(); err != nil {
		log.Debugln("notify-send unavailable:", err)
		return
	}
	go cmd.Wait()
}
