// Package manager implements the peer registry and cross-peer
// coordination: one Manager per daemon, owning every Machine,
// enforcing the single-active-device-sharing invariant, routing
// flow-direction and clipboard events between peers, and driving
// discovery.
package manager

import (
	"context"
	"net"
	"sync"

	"github.com/uos-cooperation/daemon/lib/codec"
	"github.com/uos-cooperation/daemon/lib/discover"
	"github.com/uos-cooperation/daemon/lib/eventloop"
	"github.com/uos-cooperation/daemon/lib/logger"
	"github.com/uos-cooperation/daemon/lib/machine"
)

var log = logger.DefaultLogger.NewFacility("manager")

// Config bundles the daemon-wide settings a Manager needs beyond its
// collaborators.
type Config struct {
	LocalUUID  string
	LocalName  string
	OS         codec.DeviceOS
	Compositor codec.Compositor
	ListenPort uint16
	BeaconPort int
	DataDir    string
	ReceiveDir string
	Timings    machine.Timings
}

// Manager is the peer registry and cross-peer coordinator. It
// implements machine.ManagerHandle so Machines can call back into it
// without lib/machine importing this package.
type Manager struct {
	cfg     Config
	loop    *eventloop.Loop
	factory machine.Factory

	beacon   *discover.Beacon
	listener *eventloop.Listener

	mu             sync.Mutex
	peers          map[string]*machine.Machine
	sharingHolder  *machine.Machine
	clipboardOwner *machine.Machine
}

var _ machine.ManagerHandle = (*Manager)(nil)

// New creates a Manager bound to loop. Serve must be called (directly,
// or by a suture.Supervisor) to start the beacon and listener.
func New(loop *eventloop.Loop, factory machine.Factory, cfg Config) *Manager {
	return &Manager{
		cfg:     cfg,
		loop:    loop,
		factory: factory,
		peers:   make(map[string]*machine.Machine),
	}
}

// Serve implements suture.Service: it opens the beacon and TCP
// listener and runs until ctx is cancelled.
func (mgr *Manager) Serve(ctx context.Context) error {
	beacon, err := discover.New(mgr.cfg.BeaconPort)
	if err != nil {
		return err
	}
	mgr.beacon = beacon
	defer beacon.Close()

	listener, err := eventloop.NewListener(mgr.loop, mgr.cfg.ListenPort)
	if err != nil {
		return err
	}
	mgr.listener = listener
	listener.OnAccept(mgr.onInboundConnection)
	defer listener.Close()

	go mgr.beaconReadLoop(ctx)

	<-ctx.Done()
	return nil
}

func (mgr *Manager) beaconReadLoop(ctx context.Context) {
	for {
		pkt, src := mgr.beacon.Recv()
		select {
		case <-ctx.Done():
			return
		default:
		}
		if pkt.Key != discover.ScanKey {
			continue
		}
		mgr.loop.Post(func() {
			mgr.onBeaconReceived(src, pkt)
		})
	}
}

func (mgr *Manager) onBeaconReceived(ip net.IP, pkt discover.Packet) {
	mgr.mu.Lock()
	m, known := mgr.peers[pkt.DeviceInfo.UUID]
	mgr.mu.Unlock()

	if !known {
		m = machine.New(mgr.loop, mgr, mgr.factory, mgr.cfg.LocalUUID, ip, pkt.Port, mgr.cfg.Timings)
		m.UpdateInfo(ip, pkt.Port, pkt.DeviceInfo)
		m.ArmLivenessTimers()
		mgr.mu.Lock()
		mgr.peers[pkt.DeviceInfo.UUID] = m
		mgr.mu.Unlock()
		log.Infof("discovered new peer %s (%s) at %s", pkt.DeviceInfo.UUID, pkt.DeviceInfo.Name, ip)
		return
	}

	m.UpdateInfo(ip, pkt.Port, pkt.DeviceInfo)
	m.ReceivedBeacon()
}

func (mgr *Manager) onInboundConnection(conn net.Conn) {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		_ = conn.Close()
		return
	}
	ip := net.ParseIP(host)

	m := machine.New(mgr.loop, mgr, mgr.factory, mgr.cfg.LocalUUID, ip, 0, mgr.cfg.Timings)
	m.AcceptInbound(conn)
}

// LocalDeviceInfo returns this daemon's own identity, used both by the
// beacon broadcaster and by PairRequest/PairResponse construction.
func (mgr *Manager) LocalDeviceInfo() codec.DeviceInfo {
	return codec.DeviceInfo{
		UUID:       mgr.cfg.LocalUUID,
		Name:       mgr.cfg.LocalName,
		OS:         mgr.cfg.OS,
		Compositor: mgr.cfg.Compositor,
	}
}

// BroadcastBeacon sends this daemon's discovery packet to every local
// broadcast-capable interface, normally called on a periodic timer
// from cmd/cooperationd.
func (mgr *Manager) BroadcastBeacon() {
	if mgr.beacon == nil {
		return
	}
	mgr.beacon.Send(discover.Packet{
		Key:        discover.ScanKey,
		DeviceInfo: mgr.LocalDeviceInfo(),
		Port:       mgr.cfg.ListenPort,
	})
}

// Ping implements machine.ManagerHandle: it unicasts a beacon to ip to
// re-probe a specific known peer.
func (mgr *Manager) Ping(ip net.IP) {
	if mgr.beacon == nil {
		return
	}
	mgr.beacon.SendTo(discover.Packet{
		Key:        discover.ScanKey,
		DeviceInfo: mgr.LocalDeviceInfo(),
		Port:       mgr.cfg.ListenPort,
	}, ip)
}

// OnStartDeviceSharing enforces the single-active-session invariant:
// at most one Machine may hold deviceSharing=true across the whole
// Manager at any time.
func (mgr *Manager) OnStartDeviceSharing(m *machine.Machine, isSink bool) bool {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if mgr.sharingHolder != nil && mgr.sharingHolder != m {
		return false
	}
	mgr.sharingHolder = m
	return true
}

// OnStopDeviceSharing clears the active-session slot if m holds it.
func (mgr *Manager) OnStopDeviceSharing(m *machine.Machine) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if mgr.sharingHolder == m {
		mgr.sharingHolder = nil
	}
}

// OnMachineOffline removes m from the registry and releases its
// resources, the Idle-offline-timeout teardown path.
func (mgr *Manager) OnMachineOffline(m *machine.Machine) {
	mgr.RemoveMachine(m.UUID)
}

// LookupMachine returns the registered peer for uuid, if any. Used by
// lib/machine to find an in-flight outbound attempt when an inbound
// PairRequest arrives for the same peer, and by tests/callers that
// need to resolve a UUID back to its Machine.
func (mgr *Manager) LookupMachine(uuid string) (*machine.Machine, bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	m, ok := mgr.peers[uuid]
	return m, ok
}

// RegisterMachine inserts m into the registry under its own UUID, the
// point at which both inbound and outbound pairing paths become
// first-class registry members. If the slot was already held by a
// different Machine -- an outbound attempt that lost a
// simultaneous-connect tie-break, most commonly -- that Machine is
// closed, since it no longer owns a live session.
func (mgr *Manager) RegisterMachine(m *machine.Machine) {
	mgr.mu.Lock()
	previous, ok := mgr.peers[m.UUID]
	mgr.peers[m.UUID] = m
	mgr.mu.Unlock()

	if ok && previous != m {
		previous.Close()
	}
}

// RemoveMachine drops a peer from the registry, closing its owned
// resources first.
func (mgr *Manager) RemoveMachine(uuid string) {
	mgr.mu.Lock()
	m, ok := mgr.peers[uuid]
	if ok {
		delete(mgr.peers, uuid)
	}
	if mgr.sharingHolder == m {
		mgr.sharingHolder = nil
	}
	if mgr.clipboardOwner == m {
		mgr.clipboardOwner = nil
	}
	mgr.mu.Unlock()

	if ok {
		m.Close()
	}
}

// OnFlowRequest switches which peer's pointer is currently active.
// Beyond the peer bookkeeping this is simply logged: the input-capture
// collaborator that would act on it locally is out of scope for this
// package.
func (mgr *Manager) OnFlowRequest(m *machine.Machine, direction codec.FlowDirection, x, y uint16) {
	log.Debugf("flow request from %s: direction=%v x=%d y=%d", m.UUID, direction, x, y)
}

// OnClipboardNotify records m as the current clipboard owner for
// targets and publishes the same notification to every other paired
// peer.
func (mgr *Manager) OnClipboardNotify(m *machine.Machine, targets []string) {
	mgr.mu.Lock()
	mgr.clipboardOwner = m
	peers := make([]*machine.Machine, 0, len(mgr.peers))
	for _, peer := range mgr.peers {
		if peer != m && peer.Connected() {
			peers = append(peers, peer)
		}
	}
	mgr.mu.Unlock()

	for _, peer := range peers {
		peer.PublishClipboardNotify(targets)
	}
}

// DataDir implements machine.ManagerHandle.
func (mgr *Manager) DataDir() string { return mgr.cfg.DataDir }

// ReceiveDir implements machine.ManagerHandle.
func (mgr *Manager) ReceiveDir() string { return mgr.cfg.ReceiveDir }

// IsSharedDevices reports whether any Machine currently holds the
// device-sharing session.
func (mgr *Manager) IsSharedDevices() bool {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.sharingHolder != nil
}

// IsSharedClipboard reports whether any Machine is the current
// clipboard owner.
func (mgr *Manager) IsSharedClipboard() bool {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.clipboardOwner != nil
}
