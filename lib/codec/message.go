// Package codec implements length-prefixed, tagged-union message
// framing: a fixed 16-byte header (8-byte magic, 8-byte big-endian
// length) followed by a body that encodes exactly one payload variant.
// It is the Go analogue of the original daemon's protobuf Message plus
// its MessageHeader/MessageHelper.
package codec

// PayloadCase identifies which variant a Message carries, mirroring the
// protobuf payload_case oneof discriminant of the original wire
// protocol.
type PayloadCase uint16

const (
	PayloadUnknown PayloadCase = iota
	PayloadPairRequest
	PayloadPairResponse
	PayloadServiceOnOffNotification
	PayloadDeviceSharingStartRequest
	PayloadDeviceSharingStartResponse
	PayloadDeviceSharingStopRequest
	PayloadDeviceSharingStopResponse
	PayloadInputEventRequest
	PayloadInputEventResponse
	PayloadFlowDirectionNtf
	PayloadFlowRequest
	PayloadFlowResponse
	PayloadFsRequest
	PayloadFsResponse
	PayloadFsSendFileRequest
	PayloadFsSendFileResponse
	PayloadFsSendFileResult
	PayloadClipboardNotify
	PayloadClipboardGetContentRequest
	PayloadClipboardGetContentResponse
)

func (c PayloadCase) String() string {
	switch c {
	case PayloadPairRequest:
		return "PairRequest"
	case PayloadPairResponse:
		return "PairResponse"
	case PayloadServiceOnOffNotification:
		return "ServiceOnOffNotification"
	case PayloadDeviceSharingStartRequest:
		return "DeviceSharingStartRequest"
	case PayloadDeviceSharingStartResponse:
		return "DeviceSharingStartResponse"
	case PayloadDeviceSharingStopRequest:
		return "DeviceSharingStopRequest"
	case PayloadDeviceSharingStopResponse:
		return "DeviceSharingStopResponse"
	case PayloadInputEventRequest:
		return "InputEventRequest"
	case PayloadInputEventResponse:
		return "InputEventResponse"
	case PayloadFlowDirectionNtf:
		return "FlowDirectionNtf"
	case PayloadFlowRequest:
		return "FlowRequest"
	case PayloadFlowResponse:
		return "FlowResponse"
	case PayloadFsRequest:
		return "FsRequest"
	case PayloadFsResponse:
		return "FsResponse"
	case PayloadFsSendFileRequest:
		return "FsSendFileRequest"
	case PayloadFsSendFileResponse:
		return "FsSendFileResponse"
	case PayloadFsSendFileResult:
		return "FsSendFileResult"
	case PayloadClipboardNotify:
		return "ClipboardNotify"
	case PayloadClipboardGetContentRequest:
		return "ClipboardGetContentRequest"
	case PayloadClipboardGetContentResponse:
		return "ClipboardGetContentResponse"
	default:
		return "Unknown"
	}
}

// DeviceOS enumerates the peer operating systems this protocol names.
type DeviceOS uint16

const (
	OSUnknown DeviceOS = iota
	OSUOS
	OSLinux
	OSWindows
	OSMacOS
	OSAndroid
	OSOther
)

// Compositor enumerates the peer display compositors this protocol names.
type Compositor uint16

const (
	CompositorNone Compositor = iota
	CompositorX11
	CompositorWayland
)

// InputDeviceType enumerates the injectable input device classes.
type InputDeviceType uint16

const (
	InputDeviceKeyboard InputDeviceType = iota
	InputDeviceMouse
	InputDeviceTouchpad
)

// FlowDirection enumerates which screen edge carries the shared cursor.
type FlowDirection uint16

const (
	FlowTop FlowDirection = iota
	FlowBottom
	FlowLeft
	FlowRight
)

// Opposite returns the edge on the receiving peer's screen that
// mirrors this direction (TOP<->BOTTOM, LEFT<->RIGHT).
func (d FlowDirection) Opposite() FlowDirection {
	switch d {
	case FlowTop:
		return FlowBottom
	case FlowBottom:
		return FlowTop
	case FlowLeft:
		return FlowRight
	case FlowRight:
		return FlowLeft
	default:
		return d
	}
}

// DeviceInfo is the immutable peer identity record exchanged in pair
// requests/responses.
type DeviceInfo struct {
	UUID       string
	Name       string
	OS         DeviceOS
	Compositor Compositor
}

type PairRequest struct {
	Key        string
	DeviceInfo DeviceInfo
}

type PairResponse struct {
	Key        string
	DeviceInfo DeviceInfo
	Agree      bool
}

type ServiceOnOffNotification struct {
	SharedClipboardOn bool
	SharedDevicesOn   bool
}

type DeviceSharingStartRequest struct{}

type DeviceSharingStartResponse struct {
	Accept bool
}

type DeviceSharingStopRequest struct{}

// DeviceSharingStopResponse exists in the schema but is unused by any
// handler, matching the original protocol's kDeviceSharingStopResponse
// case which is parsed and immediately discarded.
type DeviceSharingStopResponse struct{}

type InputEventRequest struct {
	Serial     uint32
	DeviceType InputDeviceType
	Type       uint32
	Code       uint32
	Value      int32
}

type InputEventResponse struct {
	Serial  uint32
	Success bool
}

type FlowDirectionNtf struct {
	Direction FlowDirection
}

type FlowRequest struct {
	Direction FlowDirection
	X         uint16
	Y         uint16
}

// FlowResponse exists in the schema but is unused, matching the
// original's kFlowResponse case.
type FlowResponse struct{}

type FsRequest struct{}

type FsResponse struct {
	Accepted bool
	Port     uint16
}

type FsSendFileRequest struct {
	Serial uint32
	Path   string
}

type FsSendFileResponse struct {
	Serial   uint32
	Accepted bool
}

type FsSendFileResult struct {
	Serial uint32
	Path   string
	Result bool
}

type ClipboardNotify struct {
	Targets []string
}

type ClipboardGetContentRequest struct {
	Target string
}

type ClipboardGetContentResponse struct {
	Target  string
	Content string
}

// Message is the tagged union carried by one frame. Exactly one of the
// pointer fields matching Case is non-nil after a successful decode;
// NewXxx constructors enforce this on the encode side.
type Message struct {
	Case PayloadCase

	PairRequest                 *PairRequest
	PairResponse                *PairResponse
	ServiceOnOffNotification    *ServiceOnOffNotification
	DeviceSharingStartRequest   *DeviceSharingStartRequest
	DeviceSharingStartResponse  *DeviceSharingStartResponse
	DeviceSharingStopRequest    *DeviceSharingStopRequest
	DeviceSharingStopResponse   *DeviceSharingStopResponse
	InputEventRequest           *InputEventRequest
	InputEventResponse          *InputEventResponse
	FlowDirectionNtf            *FlowDirectionNtf
	FlowRequest                 *FlowRequest
	FlowResponse                *FlowResponse
	FsRequest                   *FsRequest
	FsResponse                  *FsResponse
	FsSendFileRequest           *FsSendFileRequest
	FsSendFileResponse          *FsSendFileResponse
	FsSendFileResult            *FsSendFileResult
	ClipboardNotify             *ClipboardNotify
	ClipboardGetContentRequest  *ClipboardGetContentRequest
	ClipboardGetContentResponse *ClipboardGetContentResponse
}

func NewPairRequest(v PairRequest) *Message {
	return &Message{Case: PayloadPairRequest, PairRequest: &v}
}

func NewPairResponse(v PairResponse) *Message {
	return &Message{Case: PayloadPairResponse, PairResponse: &v}
}

func NewServiceOnOffNotification(v ServiceOnOffNotification) *Message {
	return &Message{Case: PayloadServiceOnOffNotification, ServiceOnOffNotification: &v}
}

func NewDeviceSharingStartRequest() *Message {
	return &Message{Case: PayloadDeviceSharingStartRequest, DeviceSharingStartRequest: &DeviceSharingStartRequest{}}
}

func NewDeviceSharingStartResponse(v DeviceSharingStartResponse) *Message {
	return &Message{Case: PayloadDeviceSharingStartResponse, DeviceSharingStartResponse: &v}
}

func NewDeviceSharingStopRequest() *Message {
	return &Message{Case: PayloadDeviceSharingStopRequest, DeviceSharingStopRequest: &DeviceSharingStopRequest{}}
}

func NewInputEventRequest(v InputEventRequest) *Message {
	return &Message{Case: PayloadInputEventRequest, InputEventRequest: &v}
}

func NewInputEventResponse(v InputEventResponse) *Message {
	return &Message{Case: PayloadInputEventResponse, InputEventResponse: &v}
}

func NewFlowDirectionNtf(v FlowDirectionNtf) *Message {
	return &Message{Case: PayloadFlowDirectionNtf, FlowDirectionNtf: &v}
}

func NewFlowRequest(v FlowRequest) *Message {
	return &Message{Case: PayloadFlowRequest, FlowRequest: &v}
}

func NewFsRequest() *Message {
	return &Message{Case: PayloadFsRequest, FsRequest: &FsRequest{}}
}

func NewFsResponse(v FsResponse) *Message {
	return &Message{Case: PayloadFsResponse, FsResponse: &v}
}

func NewFsSendFileRequest(v FsSendFileRequest) *Message {
	return &Message{Case: PayloadFsSendFileRequest, FsSendFileRequest: &v}
}

func NewFsSendFileResponse(v FsSendFileResponse) *Message {
	return &Message{Case: PayloadFsSendFileResponse, FsSendFileResponse: &v}
}

func NewFsSendFileResult(v FsSendFileResult) *Message {
	return &Message{Case: PayloadFsSendFileResult, FsSendFileResult: &v}
}

func NewClipboardNotify(v ClipboardNotify) *Message {
	return &Message{Case: PayloadClipboardNotify, ClipboardNotify: &v}
}

func NewClipboardGetContentRequest(v ClipboardGetContentRequest) *Message {
	return &Message{Case: PayloadClipboardGetContentRequest, ClipboardGetContentRequest: &v}
}

func NewClipboardGetContentResponse(v ClipboardGetContentResponse) *Message {
	return &Message{Case: PayloadClipboardGetContentResponse, ClipboardGetContentResponse: &v}
}
