// Package machine implements the per-peer session state machine:
// connection lifecycle, the in-session dispatcher, and every service
// handler contract (pairing, input forwarding, device sharing, flow
// direction, file transfer, clipboard bridging).
package machine

import (
	"net"
	"time"

	"github.com/uos-cooperation/daemon/lib/codec"
	"github.com/uos-cooperation/daemon/lib/eventloop"
	"github.com/uos-cooperation/daemon/lib/logger"
)

var log = logger.DefaultLogger.NewFacility("machine")

// State is one node of the per-peer session state machine.
type State int

const (
	Idle State = iota
	Scanning
	Connecting
	AwaitingPair
	AwaitingUserConfirm
	Paired
	Disconnecting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Scanning:
		return "Scanning"
	case Connecting:
		return "Connecting"
	case AwaitingPair:
		return "AwaitingPair"
	case AwaitingUserConfirm:
		return "AwaitingUserConfirm"
	case Paired:
		return "Paired"
	case Disconnecting:
		return "Disconnecting"
	default:
		return "Unknown"
	}
}

// Timings bundles the three liveness/transport constants: ping
// interval, offline window, and TCP keepalive idle time.
type Timings struct {
	PingInterval  time.Duration
	OfflineWindow time.Duration
	KeepaliveIdle time.Duration
}

// DefaultTimings: ping 10s, offline 25s, keepalive idle 20s.
var DefaultTimings = Timings{
	PingInterval:  10 * time.Second,
	OfflineWindow: 25 * time.Second,
	KeepaliveIdle: 20 * time.Second,
}

// Machine is per-peer state owned by the Manager.
type Machine struct {
	loop    *eventloop.Loop
	manager ManagerHandle
	factory Factory
	timings Timings

	UUID       string
	Name       string
	OS         codec.DeviceOS
	Compositor codec.Compositor

	IP   net.IP
	Port uint16

	state State

	conn *eventloop.Stream

	confirmDialog ConfirmDialog
	inputEmittors map[codec.InputDeviceType]InputEmittor

	fuseServer FuseServer
	fuseClient FuseClient
	mountpoint string

	pingTimer    *eventloop.Timer
	offlineTimer *eventloop.Timer

	connected       bool
	deviceSharing   bool
	isSink          bool
	sharedClipboard bool
	mounted         bool

	direction codec.FlowDirection

	remoteSharedClipboardOn bool
	remoteSharedDevicesOn   bool

	clipboardOwner bool

	// localUUID is this daemon's own identity, used to break a
	// simultaneous-outbound-connect tie: the machine with the lower
	// UUID wins and keeps connecting.
	localUUID string
}

// ManagerHandle is the subset of Manager behavior a Machine calls back
// into, kept as an interface here (rather than importing lib/manager
// directly) to avoid a import cycle between the two packages -- the
// Manager owns Machines and therefore must import lib/machine, so the
// dependency can only run one way.
type ManagerHandle interface {
	Ping(ip net.IP)
	OnStartDeviceSharing(m *Machine, isSink bool) bool
	OnStopDeviceSharing(m *Machine)
	OnMachineOffline(m *Machine)
	OnFlowRequest(m *Machine, direction codec.FlowDirection, x, y uint16)
	OnClipboardNotify(m *Machine, targets []string)
	DataDir() string
	ReceiveDir() string
	RemoveMachine(uuid string)
	LookupMachine(uuid string) (*Machine, bool)
	RegisterMachine(m *Machine)
}
