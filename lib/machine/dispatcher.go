package machine

import (
	"github.com/uos-cooperation/daemon/lib/buffer"
	"github.com/uos-cooperation/daemon/lib/codec"
)

// onReceived is the in-session dispatcher: it drains buf through the
// framed codec and invokes the handler for each decoded message in
// arrival order. An ILLEGAL frame closes the connection; PARTIAL stops
// the drain loop until more bytes arrive.
func (m *Machine) onReceived(buf *buffer.Buffer) {
	for {
		msg, status := codec.Decode(buf)
		switch status {
		case codec.StatusPartial:
			return
		case codec.StatusIllegal:
			m.fail("illegal frame from %s, closing connection", m.UUID)
			return
		}
		m.dispatch(msg)
	}
}

// dispatch is a total pattern match over PayloadCase; its default arm
// closes the connection rather than leaving an unrecognized case
// silently unhandled.
func (m *Machine) dispatch(msg *codec.Message) {
	switch msg.Case {
	case codec.PayloadPairRequest:
		m.handlePairRequest(msg.PairRequest)
	case codec.PayloadPairResponse:
		m.handlePairResponse(msg.PairResponse)
	case codec.PayloadServiceOnOffNotification:
		m.handleServiceOnOffNotification(msg.ServiceOnOffNotification)
	case codec.PayloadDeviceSharingStartRequest:
		m.handleDeviceSharingStartRequest()
	case codec.PayloadDeviceSharingStartResponse:
		m.handleDeviceSharingStartResponse(msg.DeviceSharingStartResponse)
	case codec.PayloadDeviceSharingStopRequest:
		m.handleDeviceSharingStopRequest()
	case codec.PayloadDeviceSharingStopResponse:
		// unused case, matching the original schema; no handler runs.
	case codec.PayloadInputEventRequest:
		m.handleInputEventRequest(msg.InputEventRequest)
	case codec.PayloadInputEventResponse:
		// responses to our own requests are not currently tracked.
	case codec.PayloadFlowDirectionNtf:
		m.handleFlowDirectionNtf(msg.FlowDirectionNtf)
	case codec.PayloadFlowRequest:
		m.handleFlowRequest(msg.FlowRequest)
	case codec.PayloadFlowResponse:
		// unused case, matching the original schema.
	case codec.PayloadFsRequest:
		m.handleFsRequest()
	case codec.PayloadFsResponse:
		m.handleFsResponse(msg.FsResponse)
	case codec.PayloadFsSendFileRequest:
		m.handleFsSendFileRequest(msg.FsSendFileRequest)
	case codec.PayloadFsSendFileResponse:
		// handled implicitly by the requester's own local bookkeeping;
		// there is no callback registry to resolve against here.
	case codec.PayloadFsSendFileResult:
		// delivered to the original sender's Notifier via the send path
		// in handleFsSendFileRequest; nothing to do on receipt.
	case codec.PayloadClipboardNotify:
		m.handleClipboardNotify(msg.ClipboardNotify)
	case codec.PayloadClipboardGetContentRequest:
		m.handleClipboardGetContentRequest(msg.ClipboardGetContentRequest)
	case codec.PayloadClipboardGetContentResponse:
		m.handleClipboardGetContentResponse(msg.ClipboardGetContentResponse)
	default:
		m.fail("unknown message case %d from %s, closing connection", msg.Case, m.UUID)
	}
}
