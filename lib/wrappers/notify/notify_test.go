package notify

import "testing"

// TestNotifyFileReceivedIsFireAndForget exercises both outcomes without
// requiring notify-send to actually be installed: a missing binary must
// not propagate as an error to the caller.
func TestNotifyFileReceivedIsFireAndForget(t *testing.T) {
	d := New()
	d.NotifyFileReceived("/tmp/received.txt", true)
	d.NotifyFileReceived("/tmp/received.txt", false)
}
