package confirm

import (
	"context"
	"testing"
	"time"

	"github.com/uos-cooperation/daemon/lib/eventloop"
)

func runLoop(t *testing.T) *eventloop.Loop {
	t.Helper()
	loop := eventloop.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(cancel)
	return loop
}

func TestDialogAccept(t *testing.T) {
	loop := runLoop(t)
	d := New(loop, "/bin/sh", "-c", "printf '\\001'")

	result := make(chan bool, 1)
	if err := d.Start(func(accept bool) { result <- accept }); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case accept := <-result:
		if !accept {
			t.Error("expected accept=true for byte 0x01")
		}
	case <-time.After(time.Second):
		t.Fatal("onResult never fired")
	}
}

func TestDialogReject(t *testing.T) {
	loop := runLoop(t)
	d := New(loop, "/bin/sh", "-c", "printf '\\000'")

	result := make(chan bool, 1)
	if err := d.Start(func(accept bool) { result <- accept }); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case accept := <-result:
		if accept {
			t.Error("expected accept=false for byte 0x00")
		}
	case <-time.After(time.Second):
		t.Fatal("onResult never fired")
	}
}

// TestDialogExitWithoutResultRejects exercises the OnExit fallback: a
// process that exits without writing a byte is treated as a rejection.
func TestDialogExitWithoutResultRejects(t *testing.T) {
	loop := runLoop(t)
	d := New(loop, "/bin/sh", "-c", "exit 0")

	result := make(chan bool, 1)
	if err := d.Start(func(accept bool) { result <- accept }); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case accept := <-result:
		if accept {
			t.Error("expected accept=false when the process exits silently")
		}
	case <-time.After(time.Second):
		t.Fatal("onResult never fired")
	}
}
