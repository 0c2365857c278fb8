package manager

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/uos-cooperation/daemon/lib/codec"
	"github.com/uos-cooperation/daemon/lib/eventloop"
	"github.com/uos-cooperation/daemon/lib/machine"
)

type nopFactory struct{}

func (nopFactory) NewConfirmDialog() (machine.ConfirmDialog, error)             { return nil, nil }
func (nopFactory) NewInputEmittor(codec.InputDeviceType) (machine.InputEmittor, error) {
	return nil, nil
}
func (nopFactory) NewFuseServer(string) (machine.FuseServer, error)           { return nil, nil }
func (nopFactory) NewFuseClient(string, string) (machine.FuseClient, error)   { return nil, nil }
func (nopFactory) NewCopyProcess(string, string, func(bool)) error            { return nil }
func (nopFactory) Notifier() machine.Notifier                                 { return nopNotifier{} }
func (nopFactory) ClipboardReader() machine.ClipboardReader                   { return nopClipboardReader{} }

type nopNotifier struct{}

func (nopNotifier) NotifyFileReceived(string, bool) {}

type nopClipboardReader struct{}

func (nopClipboardReader) Read(string, func(string)) {}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	loop := eventloop.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(cancel)

	return New(loop, nopFactory{}, Config{
		LocalUUID: "local",
		Timings:   machine.DefaultTimings,
	})
}

func newTestMachine(t *testing.T, mgr *Manager, uuid string) *machine.Machine {
	t.Helper()
	loop := eventloop.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(cancel)

	m := machine.New(loop, mgr, nopFactory{}, "local", net.ParseIP("127.0.0.1"), 0, machine.DefaultTimings)
	m.UpdateInfo(net.ParseIP("127.0.0.1"), 0, codec.DeviceInfo{UUID: uuid})
	return m
}

// TestSingleActiveDeviceSharingSession: once a Machine holds the
// device-sharing session, a different Machine requesting sharing is
// rejected.
func TestSingleActiveDeviceSharingSession(t *testing.T) {
	mgr := newTestManager(t)
	a := newTestMachine(t, mgr, "A")
	c := newTestMachine(t, mgr, "C")

	if !mgr.OnStartDeviceSharing(a, true) {
		t.Fatal("first sharing request should be accepted")
	}
	if mgr.OnStartDeviceSharing(c, true) {
		t.Fatal("second sharing request should be rejected while A holds the session")
	}

	mgr.OnStopDeviceSharing(a)
	if !mgr.OnStartDeviceSharing(c, true) {
		t.Fatal("sharing request should be accepted once the session is released")
	}
}

func TestRemoveMachineClearsSharingHolder(t *testing.T) {
	mgr := newTestManager(t)
	a := newTestMachine(t, mgr, "A")

	mgr.mu.Lock()
	mgr.peers["A"] = a
	mgr.mu.Unlock()

	mgr.OnStartDeviceSharing(a, true)
	mgr.RemoveMachine("A")

	if mgr.IsSharedDevices() {
		t.Fatal("removing the sharing holder should clear the active session")
	}
	time.Sleep(time.Millisecond) // let the Close() teardown posts drain
}

// TestRegisterMachineReplacesStaleEntry: registering a second Machine
// under a UUID already held by a first closes the first, the
// tie-break-loser cleanup path RegisterMachine exists for.
func TestRegisterMachineReplacesStaleEntry(t *testing.T) {
	mgr := newTestManager(t)
	stale := newTestMachine(t, mgr, "A")
	fresh := newTestMachine(t, mgr, "A")

	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close() })
	stale.AcceptInbound(serverConn)

	mgr.RegisterMachine(stale)
	if got, ok := mgr.LookupMachine("A"); !ok || got != stale {
		t.Fatalf("LookupMachine(A) = %v, %v; want stale, true", got, ok)
	}

	mgr.RegisterMachine(fresh)
	if got, ok := mgr.LookupMachine("A"); !ok || got != fresh {
		t.Fatalf("LookupMachine(A) = %v, %v; want fresh, true", got, ok)
	}

	clientConn.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1)
	if _, err := clientConn.Read(buf); err == nil {
		t.Fatal("expected stale Machine's connection to be closed once replaced")
	}
}

// TestInboundPairingRegistersPeer drives a real accept-and-pair cycle
// through a real Manager (not a bare ManagerHandle fake): once the
// inbound Machine reaches Paired, it must be a first-class member of
// mgr.peers so OnClipboardNotify's fan-out and RemoveMachine's
// offline-timeout lookup can find it.
func TestInboundPairingRegistersPeer(t *testing.T) {
	aLoop := eventloop.NewLoop()
	bLoop := eventloop.NewLoop()
	actx, acancel := context.WithCancel(context.Background())
	bctx, bcancel := context.WithCancel(context.Background())
	go aLoop.Run(actx)
	go bLoop.Run(bctx)
	t.Cleanup(acancel)
	t.Cleanup(bcancel)

	bMgr := New(bLoop, acceptingFactory{}, Config{LocalUUID: "B", Timings: machine.DefaultTimings})
	ln, err := eventloop.NewListener(bLoop, 0)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	ln.OnAccept(bMgr.onInboundConnection)

	a := machine.New(aLoop, noopManagerHandle{}, nopFactory{}, "A", net.ParseIP("127.0.0.1"), ln.Port(), machine.DefaultTimings)
	a.Connect()

	waitForCondition(t, time.Second, func() bool {
		peer, ok := bMgr.LookupMachine("A")
		return ok && peer.State() == machine.Paired
	})
}

func waitForCondition(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// acceptingFactory spawns a ConfirmDialog that immediately accepts,
// simulating the user pressing ACCEPT without a real dialog process.
type acceptingFactory struct{}

func (acceptingFactory) NewConfirmDialog() (machine.ConfirmDialog, error) { return acceptingDialog{}, nil }
func (acceptingFactory) NewInputEmittor(codec.InputDeviceType) (machine.InputEmittor, error) {
	return nil, nil
}
func (acceptingFactory) NewFuseServer(string) (machine.FuseServer, error)         { return nil, nil }
func (acceptingFactory) NewFuseClient(string, string) (machine.FuseClient, error) { return nil, nil }
func (acceptingFactory) NewCopyProcess(string, string, func(bool)) error          { return nil }
func (acceptingFactory) Notifier() machine.Notifier                               { return nopNotifier{} }
func (acceptingFactory) ClipboardReader() machine.ClipboardReader                 { return nopClipboardReader{} }

type acceptingDialog struct{}

func (acceptingDialog) Start(onResult func(accept bool)) error { onResult(true); return nil }
func (acceptingDialog) Kill()                                  {}

// noopManagerHandle is a minimal machine.ManagerHandle for the
// connecting side of TestInboundPairingRegistersPeer, which only cares
// about the accepting side's registry.
type noopManagerHandle struct{}

func (noopManagerHandle) Ping(net.IP)                                              {}
func (noopManagerHandle) OnStartDeviceSharing(*machine.Machine, bool) bool         { return true }
func (noopManagerHandle) OnStopDeviceSharing(*machine.Machine)                     {}
func (noopManagerHandle) OnMachineOffline(*machine.Machine)                        {}
func (noopManagerHandle) OnFlowRequest(*machine.Machine, codec.FlowDirection, uint16, uint16) {}
func (noopManagerHandle) OnClipboardNotify(*machine.Machine, []string)             {}
func (noopManagerHandle) DataDir() string                                          { return "" }
func (noopManagerHandle) ReceiveDir() string                                       { return "" }
func (noopManagerHandle) RemoveMachine(string)                                     {}
func (noopManagerHandle) LookupMachine(string) (*machine.Machine, bool)            { return nil, false }
func (noopManagerHandle) RegisterMachine(*machine.Machine)                         {}
