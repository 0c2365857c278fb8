package machine

import (
	"net"
	"strconv"

	"github.com/uos-cooperation/daemon/lib/codec"
	"github.com/uos-cooperation/daemon/lib/eventloop"
)

// ScanKey is re-exported from lib/discover's constant shape so callers
// constructing PairRequest/PairResponse don't need to import the
// discovery package just for the literal.
const ScanKey = "UOS-COOPERATION"

// New creates a Machine in the Idle state for a peer first observed at
// ip:port, owned by manager and running on loop.
func New(loop *eventloop.Loop, manager ManagerHandle, factory Factory, localUUID string, ip net.IP, port uint16, timings Timings) *Machine {
	return &Machine{
		loop:          loop,
		manager:       manager,
		factory:       factory,
		timings:       timings,
		localUUID:     localUUID,
		IP:            ip,
		Port:          port,
		state:         Idle,
		inputEmittors: make(map[codec.InputDeviceType]InputEmittor),
		direction:     codec.FlowTop,
	}
}

// State returns the Machine's current state.
func (m *Machine) State() State { return m.state }

// Connected reports whether the Machine has a live, paired connection.
func (m *Machine) Connected() bool { return m.connected }

// DeviceSharing reports whether this Machine currently holds the
// process-wide device-sharing session.
func (m *Machine) DeviceSharing() bool { return m.deviceSharing }

// UpdateInfo applies a freshly observed DeviceInfo and address, used by
// Manager.onBeaconReceived for already-known peers.
func (m *Machine) UpdateInfo(ip net.IP, port uint16, info codec.DeviceInfo) {
	m.IP = ip
	m.Port = port
	m.UUID = info.UUID
	m.Name = info.Name
	m.OS = info.OS
	m.Compositor = info.Compositor
}

// ArmLivenessTimers starts the periodic ping timer and the one-shot
// offline timer. Called on creation and again whenever the Machine
// returns to Idle.
func (m *Machine) ArmLivenessTimers() {
	if m.pingTimer == nil {
		m.pingTimer = eventloop.NewTimer(m.loop, m.onPingElapsed)
	}
	if m.offlineTimer == nil {
		m.offlineTimer = eventloop.NewTimer(m.loop, m.onOfflineElapsed)
	}
	m.pingTimer.Start(m.timings.PingInterval)
	m.offlineTimer.Oneshot(m.timings.OfflineWindow)
}

func (m *Machine) stopLivenessTimers() {
	if m.pingTimer != nil {
		m.pingTimer.Stop()
	}
	if m.offlineTimer != nil {
		m.offlineTimer.Stop()
	}
}

func (m *Machine) onPingElapsed() {
	if m.state == Paired {
		return
	}
	m.manager.Ping(m.IP)
}

func (m *Machine) onOfflineElapsed() {
	if m.state == Paired {
		return
	}
	log.Infof("machine %s offline, removing", m.UUID)
	m.manager.OnMachineOffline(m)
}

// ReceivedBeacon resets both liveness timers; Manager calls it on every
// beacon received from this peer.
func (m *Machine) ReceivedBeacon() {
	if m.pingTimer != nil {
		m.pingTimer.Reset()
	}
	if m.offlineTimer != nil {
		m.offlineTimer.Reset()
	}
}

// Connect opens an outbound TCP connection, the Idle->Connecting
// transition.
func (m *Machine) Connect() {
	if m.state != Idle {
		return
	}
	m.state = Connecting

	m.conn = eventloop.NewStream(m.loop)
	m.conn.OnConnected(m.onStreamConnected)
	m.conn.OnConnectFailed(m.onConnectFailed)
	m.conn.Connect(net.JoinHostPort(m.IP.String(), strconv.Itoa(int(m.Port))))
}

func (m *Machine) onStreamConnected() {
	m.initConnection()
	m.state = AwaitingPair
	m.sendMessage(codec.NewPairRequest(codec.PairRequest{
		Key:        ScanKey,
		DeviceInfo: codec.DeviceInfo{UUID: m.localUUID},
	}))
}

// abortOutbound cancels an in-flight outbound connect/pair attempt,
// used when the peer's own inbound PairRequest wins a
// simultaneous-connect tie-break and this Machine yields to it.
// Closing the stream runs the normal onStreamClosed teardown
// (session release, Idle, liveness timers rearmed) on the loop
// goroutine.
func (m *Machine) abortOutbound() {
	if m.conn != nil {
		m.conn.Close()
	}
}

func (m *Machine) onConnectFailed(title, msg string) {
	log.Warnf("connect to %s:%d failed: %s: %s", m.IP, m.Port, title, msg)
	m.state = Idle
	m.manager.Ping(m.IP)
}

// AcceptInbound wraps an inbound connection and waits for its
// PairRequest, the Idle->AwaitingUserConfirm sequence's stream half.
func (m *Machine) AcceptInbound(conn net.Conn) {
	m.conn = eventloop.NewStream(m.loop)
	m.conn.OnClosed(m.onStreamClosed)
	m.conn.OnReceived(m.onReceived)
	m.conn.Accept(conn)
	m.conn.StartRead()
}

// initConnection wires the post-connect callbacks and socket options
// for the Connecting->AwaitingPair transition: onClosed/onReceived,
// tcpNoDelay, keepalive, and stops the liveness timers since the
// stream now owns liveness detection.
func (m *Machine) initConnection() {
	m.conn.OnClosed(m.onStreamClosed)
	m.conn.OnReceived(m.onReceived)
	m.conn.TCPNoDelay()
	m.conn.Keepalive(true, m.timings.KeepaliveIdle)
	m.conn.StartRead()
	m.stopLivenessTimers()
}

func (m *Machine) onStreamClosed() {
	log.Infof("connection to %s closed", m.UUID)
	m.teardownSession()
	m.state = Idle
	m.connected = false
	m.ArmLivenessTimers()
}

// teardownSession releases the collaborators a Paired session owns:
// fuse client/server, active sharing, the confirm dialog, and input
// emittors. The liveness timers and the stream are left to Close.
func (m *Machine) teardownSession() {
	if m.deviceSharing {
		m.manager.OnStopDeviceSharing(m)
		m.deviceSharing = false
	}
	if m.fuseClient != nil {
		_ = m.fuseClient.Exit()
		m.fuseClient = nil
		m.mounted = false
	}
	if m.fuseServer != nil {
		_ = m.fuseServer.Close()
		m.fuseServer = nil
	}
	for dt, emittor := range m.inputEmittors {
		emittor.Close()
		delete(m.inputEmittors, dt)
	}
	if m.confirmDialog != nil {
		m.confirmDialog.Kill()
		m.confirmDialog = nil
	}
	m.sharedClipboard = false
}

// Close releases every owned resource unconditionally, called when the
// Manager drops this Machine for good (offline timeout or explicit
// unpair).
func (m *Machine) Close() {
	m.teardownSession()
	if m.pingTimer != nil {
		m.pingTimer.Close()
	}
	if m.offlineTimer != nil {
		m.offlineTimer.Close()
	}
	if m.conn != nil {
		m.conn.Close()
	}
}

// sendMessage is a no-op with a warning if the connection is reset,
// otherwise queued on the stream's write channel in FIFO order.
func (m *Machine) sendMessage(msg *codec.Message) {
	if m.conn == nil {
		log.Warnf("sendMessage(%s) on %s with no connection", msg.Case, m.UUID)
		return
	}
	m.conn.Write(codec.Encode(msg))
}

func (m *Machine) fail(format string, args ...interface{}) {
	log.Warnf(format, args...)
	if m.conn != nil {
		m.conn.Close()
	}
}
