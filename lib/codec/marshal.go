package codec

func marshalDeviceInfo(w *writer, d DeviceInfo) {
	w.putString(d.UUID)
	w.putString(d.Name)
	w.putUint16(uint16(d.OS))
	w.putUint16(uint16(d.Compositor))
}

func unmarshalDeviceInfo(r *reader) DeviceInfo {
	return DeviceInfo{
		UUID:       r.getString(),
		Name:       r.getString(),
		OS:         DeviceOS(r.getUint16()),
		Compositor: Compositor(r.getUint16()),
	}
}

// EncodeDeviceInfo and DecodeDeviceInfo expose the same positional field
// layout used inside PairRequest/PairResponse bodies so that the
// discovery beacon (lib/discover) can embed a DeviceInfo without
// duplicating its wire format.
func EncodeDeviceInfo(d DeviceInfo) []byte {
	w := &writer{}
	marshalDeviceInfo(w, d)
	return w.buf
}

func DecodeDeviceInfo(b []byte) DeviceInfo {
	r := &reader{buf: b}
	return unmarshalDeviceInfo(r)
}

// marshalBody writes the case tag followed by the variant's fields.
// Unset variant pointers (Case/field mismatch) write only the tag,
// which decodes back into a zero-valued variant -- the same "total,
// defaulted" behavior the body parser applies to truncated input.
func marshalBody(m *Message) []byte {
	w := &writer{}
	w.putUint16(uint16(m.Case))

	switch m.Case {
	case PayloadPairRequest:
		if v := m.PairRequest; v != nil {
			w.putString(v.Key)
			marshalDeviceInfo(w, v.DeviceInfo)
		}
	case PayloadPairResponse:
		if v := m.PairResponse; v != nil {
			w.putString(v.Key)
			marshalDeviceInfo(w, v.DeviceInfo)
			w.putBool(v.Agree)
		}
	case PayloadServiceOnOffNotification:
		if v := m.ServiceOnOffNotification; v != nil {
			w.putBool(v.SharedClipboardOn)
			w.putBool(v.SharedDevicesOn)
		}
	case PayloadDeviceSharingStartRequest, PayloadDeviceSharingStopRequest, PayloadDeviceSharingStopResponse, PayloadFsRequest, PayloadFlowResponse:
		// no fields
	case PayloadDeviceSharingStartResponse:
		if v := m.DeviceSharingStartResponse; v != nil {
			w.putBool(v.Accept)
		}
	case PayloadInputEventRequest:
		if v := m.InputEventRequest; v != nil {
			w.putUint32(v.Serial)
			w.putUint16(uint16(v.DeviceType))
			w.putUint32(v.Type)
			w.putUint32(v.Code)
			w.putInt32(v.Value)
		}
	case PayloadInputEventResponse:
		if v := m.InputEventResponse; v != nil {
			w.putUint32(v.Serial)
			w.putBool(v.Success)
		}
	case PayloadFlowDirectionNtf:
		if v := m.FlowDirectionNtf; v != nil {
			w.putUint16(uint16(v.Direction))
		}
	case PayloadFlowRequest:
		if v := m.FlowRequest; v != nil {
			w.putUint16(uint16(v.Direction))
			w.putUint16(v.X)
			w.putUint16(v.Y)
		}
	case PayloadFsResponse:
		if v := m.FsResponse; v != nil {
			w.putBool(v.Accepted)
			w.putUint16(v.Port)
		}
	case PayloadFsSendFileRequest:
		if v := m.FsSendFileRequest; v != nil {
			w.putUint32(v.Serial)
			w.putString(v.Path)
		}
	case PayloadFsSendFileResponse:
		if v := m.FsSendFileResponse; v != nil {
			w.putUint32(v.Serial)
			w.putBool(v.Accepted)
		}
	case PayloadFsSendFileResult:
		if v := m.FsSendFileResult; v != nil {
			w.putUint32(v.Serial)
			w.putString(v.Path)
			w.putBool(v.Result)
		}
	case PayloadClipboardNotify:
		if v := m.ClipboardNotify; v != nil {
			w.putStringSlice(v.Targets)
		}
	case PayloadClipboardGetContentRequest:
		if v := m.ClipboardGetContentRequest; v != nil {
			w.putString(v.Target)
		}
	case PayloadClipboardGetContentResponse:
		if v := m.ClipboardGetContentResponse; v != nil {
			w.putString(v.Target)
			w.putString(v.Content)
		}
	}

	return w.buf
}

// unmarshalBody parses a message body. It never fails: a case tag it
// doesn't recognize yields a Message with that Case and no populated
// variant (the dispatcher's default arm is responsible for closing the
// connection); a truncated body yields a variant with defaulted
// trailing fields, matching the original protobuf-backed parser's
// behavior.
func unmarshalBody(body []byte) *Message {
	r := &reader{buf: body}
	c := PayloadCase(r.getUint16())
	m := &Message{Case: c}

	switch c {
	case PayloadPairRequest:
		v := PairRequest{}
		v.Key = r.getString()
		v.DeviceInfo = unmarshalDeviceInfo(r)
		m.PairRequest = &v
	case PayloadPairResponse:
		v := PairResponse{}
		v.Key = r.getString()
		v.DeviceInfo = unmarshalDeviceInfo(r)
		v.Agree = r.getBool()
		m.PairResponse = &v
	case PayloadServiceOnOffNotification:
		v := ServiceOnOffNotification{}
		v.SharedClipboardOn = r.getBool()
		v.SharedDevicesOn = r.getBool()
		m.ServiceOnOffNotification = &v
	case PayloadDeviceSharingStartRequest:
		m.DeviceSharingStartRequest = &DeviceSharingStartRequest{}
	case PayloadDeviceSharingStartResponse:
		v := DeviceSharingStartResponse{}
		v.Accept = r.getBool()
		m.DeviceSharingStartResponse = &v
	case PayloadDeviceSharingStopRequest:
		m.DeviceSharingStopRequest = &DeviceSharingStopRequest{}
	case PayloadDeviceSharingStopResponse:
		m.DeviceSharingStopResponse = &DeviceSharingStopResponse{}
	case PayloadInputEventRequest:
		v := InputEventRequest{}
		v.Serial = r.getUint32()
		v.DeviceType = InputDeviceType(r.getUint16())
		v.Type = r.getUint32()
		v.Code = r.getUint32()
		v.Value = r.getInt32()
		m.InputEventRequest = &v
	case PayloadInputEventResponse:
		v := InputEventResponse{}
		v.Serial = r.getUint32()
		v.Success = r.getBool()
		m.InputEventResponse = &v
	case PayloadFlowDirectionNtf:
		v := FlowDirectionNtf{}
		v.Direction = FlowDirection(r.getUint16())
		m.FlowDirectionNtf = &v
	case PayloadFlowRequest:
		v := FlowRequest{}
		v.Direction = FlowDirection(r.getUint16())
		v.X = r.getUint16()
		v.Y = r.getUint16()
		m.FlowRequest = &v
	case PayloadFlowResponse:
		m.FlowResponse = &FlowResponse{}
	case PayloadFsRequest:
		m.FsRequest = &FsRequest{}
	case PayloadFsResponse:
		v := FsResponse{}
		v.Accepted = r.getBool()
		v.Port = r.getUint16()
		m.FsResponse = &v
	case PayloadFsSendFileRequest:
		v := FsSendFileRequest{}
		v.Serial = r.getUint32()
		v.Path = r.getString()
		m.FsSendFileRequest = &v
	case PayloadFsSendFileResponse:
		v := FsSendFileResponse{}
		v.Serial = r.getUint32()
		v.Accepted = r.getBool()
		m.FsSendFileResponse = &v
	case PayloadFsSendFileResult:
		v := FsSendFileResult{}
		v.Serial = r.getUint32()
		v.Path = r.getString()
		v.Result = r.getBool()
		m.FsSendFileResult = &v
	case PayloadClipboardNotify:
		v := ClipboardNotify{}
		v.Targets = r.getStringSlice()
		m.ClipboardNotify = &v
	case PayloadClipboardGetContentRequest:
		v := ClipboardGetContentRequest{}
		v.Target = r.getString()
		m.ClipboardGetContentRequest = &v
	case PayloadClipboardGetContentResponse:
		v := ClipboardGetContentResponse{}
		v.Target = r.getString()
		v.Content = r.getString()
		m.ClipboardGetContentResponse = &v
	}

	return m
}
