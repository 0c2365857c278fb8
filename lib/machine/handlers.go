package machine

import (
	"net"
	"path/filepath"
	"strconv"

	"github.com/uos-cooperation/daemon/lib/codec"
)

// handlePairRequest is the Idle/inbound-stream half of the pairing
// sequence: spawn a ConfirmDialog bound to a result callback that
// finishes the handshake.
func (m *Machine) handlePairRequest(req *codec.PairRequest) {
	if req.Key != ScanKey {
		m.fail("pair request from %s has wrong scan key, closing", m.UUID)
		return
	}
	peerUUID := req.DeviceInfo.UUID

	if existing, ok := m.manager.LookupMachine(peerUUID); ok && existing != m {
		// Simultaneous outbound connect from both peers: the existing
		// registry entry for this UUID is our own in-flight outbound
		// attempt. Break the tie by UUID -- the higher UUID abandons
		// its outbound attempt and answers this inbound PairRequest
		// instead.
		if existing.state == Connecting || existing.state == AwaitingPair {
			if m.localUUID < peerUUID {
				log.Infof("simultaneous connect with %s, we win the tie-break", peerUUID)
				m.fail("yielding inbound pair to our own outbound attempt with %s", peerUUID)
				return
			}
			log.Infof("simultaneous connect with %s, yielding to inbound pair", peerUUID)
			existing.abortOutbound()
		}
	}

	m.UUID = peerUUID
	m.Name = req.DeviceInfo.Name
	m.OS = req.DeviceInfo.OS
	m.Compositor = req.DeviceInfo.Compositor

	m.state = AwaitingUserConfirm

	dialog, err := m.factory.NewConfirmDialog()
	if err != nil {
		log.Warnf("confirm dialog for %s failed to start: %v", m.UUID, err)
		m.state = Idle
		return
	}
	m.confirmDialog = dialog
	if err := dialog.Start(m.onPairConfirmResult); err != nil {
		log.Warnf("confirm dialog for %s failed to start: %v", m.UUID, err)
		m.state = Idle
		m.confirmDialog = nil
	}
}

func (m *Machine) onPairConfirmResult(accept bool) {
	m.confirmDialog = nil
	if !accept {
		m.sendMessage(codec.NewPairResponse(codec.PairResponse{
			Key:   ScanKey,
			Agree: false,
		}))
		m.state = Idle
		if m.conn != nil {
			m.conn.Close()
		}
		return
	}

	m.sendMessage(codec.NewPairResponse(codec.PairResponse{
		Key:        ScanKey,
		DeviceInfo: codec.DeviceInfo{UUID: m.localUUID},
		Agree:      true,
	}))
	m.initConnection()
	m.state = Paired
	m.connected = true
	m.manager.RegisterMachine(m)
	m.sendMessage(codec.NewServiceOnOffNotification(codec.ServiceOnOffNotification{}))
}

// handlePairResponse finalizes or aborts an outbound pairing attempt,
// the AwaitingPair->{Paired,Idle} transitions.
func (m *Machine) handlePairResponse(resp *codec.PairResponse) {
	if m.state != AwaitingPair {
		return
	}
	if !resp.Agree {
		m.state = Idle
		m.connected = false
		if m.conn != nil {
			m.conn.Close()
		}
		return
	}

	m.UUID = resp.DeviceInfo.UUID
	m.Name = resp.DeviceInfo.Name
	m.OS = resp.DeviceInfo.OS
	m.Compositor = resp.DeviceInfo.Compositor
	m.state = Paired
	m.connected = true
	m.manager.RegisterMachine(m)
	m.sendMessage(codec.NewServiceOnOffNotification(codec.ServiceOnOffNotification{}))
}

// PublishClipboardNotify sends a ClipboardNotify for targets to this
// peer, used by Manager to fan out a local clipboard change to every
// other paired Machine.
func (m *Machine) PublishClipboardNotify(targets []string) {
	m.sendMessage(codec.NewClipboardNotify(codec.ClipboardNotify{Targets: targets}))
}

func (m *Machine) handleServiceOnOffNotification(n *codec.ServiceOnOffNotification) {
	m.remoteSharedClipboardOn = n.SharedClipboardOn
	m.remoteSharedDevicesOn = n.SharedDevicesOn
}

// handleDeviceSharingStartRequest accepts unconditionally and lets
// Manager enforce the single-active-session invariant.
func (m *Machine) handleDeviceSharingStartRequest() {
	accepted := m.manager.OnStartDeviceSharing(m, true)
	if accepted {
		m.deviceSharing = true
		m.isSink = true
		m.direction = codec.FlowLeft
	}
	m.sendMessage(codec.NewDeviceSharingStartResponse(codec.DeviceSharingStartResponse{Accept: accepted}))
}

func (m *Machine) handleDeviceSharingStartResponse(resp *codec.DeviceSharingStartResponse) {
	if !resp.Accept {
		return
	}
	if !m.manager.OnStartDeviceSharing(m, false) {
		m.sendMessage(codec.NewDeviceSharingStopRequest())
		return
	}
	m.deviceSharing = true
	m.isSink = false
	m.direction = codec.FlowRight
	m.sendMessage(codec.NewFlowDirectionNtf(codec.FlowDirectionNtf{Direction: m.direction}))
}

func (m *Machine) handleDeviceSharingStopRequest() {
	m.deviceSharing = false
	m.manager.OnStopDeviceSharing(m)
}

// handleInputEventRequest looks up the emittor for DeviceType and
// injects the event, always replying with the outcome.
func (m *Machine) handleInputEventRequest(req *codec.InputEventRequest) {
	success := false
	if emittor, ok := m.inputEmittors[req.DeviceType]; ok {
		success = emittor.EmitEvent(req.Type, req.Code, req.Value)
	} else if created, err := m.factory.NewInputEmittor(req.DeviceType); err == nil {
		m.inputEmittors[req.DeviceType] = created
		success = created.EmitEvent(req.Type, req.Code, req.Value)
	}
	m.sendMessage(codec.NewInputEventResponse(codec.InputEventResponse{
		Serial:  req.Serial,
		Success: success,
	}))
}

// handleFlowDirectionNtf mirrors the remote direction onto this
// Machine's own direction (TOP<->BOTTOM, LEFT<->RIGHT).
func (m *Machine) handleFlowDirectionNtf(ntf *codec.FlowDirectionNtf) {
	m.direction = ntf.Direction.Opposite()
}

func (m *Machine) handleFlowRequest(req *codec.FlowRequest) {
	m.manager.OnFlowRequest(m, req.Direction, req.X, req.Y)
}

// handleFsRequest starts a FuseServer bound to an ephemeral port unless
// one is already running for this Machine.
func (m *Machine) handleFsRequest() {
	if m.fuseServer != nil {
		m.sendMessage(codec.NewFsResponse(codec.FsResponse{Accepted: false, Port: 0}))
		return
	}
	server, err := m.factory.NewFuseServer(m.manager.DataDir())
	if err != nil {
		log.Warnf("fuse server for %s failed to start: %v", m.UUID, err)
		m.sendMessage(codec.NewFsResponse(codec.FsResponse{Accepted: false, Port: 0}))
		return
	}
	m.fuseServer = server
	m.sendMessage(codec.NewFsResponse(codec.FsResponse{Accepted: true, Port: server.Port()}))
}

// handleFsResponse mounts the peer's export at dataDir/mp when
// accepted.
func (m *Machine) handleFsResponse(resp *codec.FsResponse) {
	if !resp.Accepted {
		return
	}
	mountpoint := filepath.Join(m.manager.DataDir(), "mp")
	addr := net.JoinHostPort(m.IP.String(), strconv.Itoa(int(resp.Port)))
	client, err := m.factory.NewFuseClient(addr, mountpoint)
	if err != nil {
		log.Warnf("fuse client for %s failed to mount: %v", m.UUID, err)
		return
	}
	m.fuseClient = client
	m.mountpoint = mountpoint
	m.mounted = true
}

// handleFsSendFileRequest copies mountpoint+path into the configured
// receive directory via a child process, then reports the result and
// notifies the desktop.
func (m *Machine) handleFsSendFileRequest(req *codec.FsSendFileRequest) {
	if m.fuseClient == nil {
		m.sendMessage(codec.NewFsSendFileResponse(codec.FsSendFileResponse{
			Serial:   req.Serial,
			Accepted: false,
		}))
		return
	}

	m.sendMessage(codec.NewFsSendFileResponse(codec.FsSendFileResponse{
		Serial:   req.Serial,
		Accepted: true,
	}))

	src := filepath.Join(m.fuseClient.Mountpoint(), req.Path)
	dst := filepath.Join(m.manager.ReceiveDir(), filepath.Base(req.Path))

	err := m.factory.NewCopyProcess(src, dst, func(success bool) {
		m.sendMessage(codec.NewFsSendFileResult(codec.FsSendFileResult{
			Serial: req.Serial,
			Path:   req.Path,
			Result: success,
		}))
		m.factory.Notifier().NotifyFileReceived(dst, success)
	})
	if err != nil {
		log.Warnf("copy process for %s failed to start: %v", req.Path, err)
		m.sendMessage(codec.NewFsSendFileResult(codec.FsSendFileResult{
			Serial: req.Serial,
			Path:   req.Path,
			Result: false,
		}))
	}
}
