package codec

import (
	"encoding/binary"
	"testing"

	"github.com/uos-cooperation/daemon/lib/buffer"
)

func sampleMessages() []*Message {
	return []*Message{
		NewPairRequest(PairRequest{
			Key:        "UOS-COOPERATION",
			DeviceInfo: DeviceInfo{UUID: "A", Name: "host-a", OS: OSLinux, Compositor: CompositorX11},
		}),
		NewPairResponse(PairResponse{
			Key:        "UOS-COOPERATION",
			DeviceInfo: DeviceInfo{UUID: "B", Name: "host-b", OS: OSUOS, Compositor: CompositorWayland},
			Agree:      true,
		}),
		NewServiceOnOffNotification(ServiceOnOffNotification{SharedClipboardOn: true}),
		NewInputEventRequest(InputEventRequest{Serial: 7, DeviceType: InputDeviceMouse, Type: 2, Code: 0, Value: 5}),
		NewClipboardNotify(ClipboardNotify{Targets: []string{"text/plain", "x-special/gnome-copied-files"}}),
		NewClipboardGetContentResponse(ClipboardGetContentResponse{Target: "text/uri-list", Content: "file:///a/b\n"}),
		NewFsSendFileRequest(FsSendFileRequest{Serial: 3, Path: "/x.txt"}),
	}
}

func TestFrameRoundTrip(t *testing.T) {
	for _, m := range sampleMessages() {
		encoded := Encode(m)

		buf := buffer.New()
		buf.Append(encoded)

		decoded, status := Decode(buf)
		if status != StatusOK {
			t.Fatalf("decode status = %v, want StatusOK", status)
		}
		if decoded.Case != m.Case {
			t.Fatalf("case = %v, want %v", decoded.Case, m.Case)
		}
		if buf.Size() != 0 {
			t.Fatalf("buffer not fully consumed: %d bytes left", buf.Size())
		}
	}
}

func TestPartialRobustness(t *testing.T) {
	m := NewInputEventRequest(InputEventRequest{Serial: 42, DeviceType: InputDeviceKeyboard, Type: 1, Code: 30, Value: 1})
	encoded := Encode(m)

	buf := buffer.New()
	for i := 0; i < len(encoded)-1; i++ {
		buf.Append(encoded[i : i+1])
		_, status := Decode(buf)
		if status != StatusPartial {
			t.Fatalf("at byte %d: status = %v, want StatusPartial", i, status)
		}
	}

	buf.Append(encoded[len(encoded)-1:])
	decoded, status := Decode(buf)
	if status != StatusOK {
		t.Fatalf("final decode status = %v, want StatusOK", status)
	}
	if decoded.InputEventRequest == nil || decoded.InputEventRequest.Serial != 42 {
		t.Fatalf("unexpected decoded message: %+v", decoded)
	}
	if buf.Size() != 0 {
		t.Fatalf("expected empty buffer after full decode, got %d bytes", buf.Size())
	}

	// Trailing bytes for a second frame remain queued for the next decode.
	buf.Append(encoded)
	buf.Append([]byte{0xAA})
	_, status = Decode(buf)
	if status != StatusOK {
		t.Fatalf("second decode status = %v, want StatusOK", status)
	}
	if buf.Size() != 1 {
		t.Fatalf("expected 1 trailing byte, got %d", buf.Size())
	}
}

func TestMagicRejection(t *testing.T) {
	buf := buffer.New()
	bad := make([]byte, 64)
	copy(bad, []byte("NOTRIGHT"))
	buf.Append(bad)

	_, status := Decode(buf)
	if status != StatusIllegal {
		t.Fatalf("status = %v, want StatusIllegal", status)
	}
}

func TestDispatcherDrainOrder(t *testing.T) {
	msgs := sampleMessages()

	buf := buffer.New()
	for _, m := range msgs {
		buf.Append(Encode(m))
	}

	var gotCases []PayloadCase
	for buf.Size() > 0 {
		m, status := Decode(buf)
		if status == StatusPartial {
			break
		}
		if status == StatusIllegal {
			t.Fatalf("unexpected illegal frame")
		}
		gotCases = append(gotCases, m.Case)
	}

	if len(gotCases) != len(msgs) {
		t.Fatalf("got %d messages, want %d", len(gotCases), len(msgs))
	}
	for i, m := range msgs {
		if gotCases[i] != m.Case {
			t.Fatalf("message %d: case = %v, want %v", i, gotCases[i], m.Case)
		}
	}
}

func TestTruncatedBodyDefaultsFields(t *testing.T) {
	m := NewInputEventRequest(InputEventRequest{Serial: 99, DeviceType: InputDeviceTouchpad, Type: 3, Code: 4, Value: -1})
	encoded := Encode(m)

	// Truncate the body (but keep the header's declared length intact)
	// to simulate a corrupt-but-framed payload; the parser must default
	// rather than error.
	truncated := encoded[:HeaderSize+4]

	buf := buffer.New()
	buf.Append(truncated)

	// Header still claims the full body length, so this remains
	// PARTIAL until enough bytes arrive -- confirming truncation is
	// only observable once a full frame's worth of (possibly garbage)
	// bytes is present.
	_, status := Decode(buf)
	if status != StatusPartial {
		t.Fatalf("status = %v, want StatusPartial", status)
	}

	// Re-frame the same 4 body bytes (case tag plus half of Serial) with
	// a header that declares exactly that length: the frame now decodes,
	// and every field past the cut defaults to zero.
	body := encoded[HeaderSize : HeaderSize+4]
	reframed := make([]byte, HeaderSize+len(body))
	copy(reframed, encoded[:8])
	binary.BigEndian.PutUint64(reframed[8:HeaderSize], uint64(len(body)))
	copy(reframed[HeaderSize:], body)

	buf = buffer.New()
	buf.Append(reframed)
	decoded, status := Decode(buf)
	if status != StatusOK {
		t.Fatalf("reframed status = %v, want StatusOK", status)
	}
	if decoded.InputEventRequest == nil || *decoded.InputEventRequest != (InputEventRequest{}) {
		t.Fatalf("reframed decode = %+v, want a zero-valued InputEventRequest", decoded.InputEventRequest)
	}
}
