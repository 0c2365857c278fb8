package discover

import (
	"testing"

	"github.com/uos-cooperation/daemon/lib/codec"
)

func TestPacketRoundTrip(t *testing.T) {
	pkt := Packet{
		Key: ScanKey,
		DeviceInfo: codec.DeviceInfo{
			UUID:       "peer-uuid",
			Name:       "workstation",
			OS:         codec.OSLinux,
			Compositor: codec.CompositorWayland,
		},
		Port: 57621,
	}

	decoded, err := Decode(Encode(pkt))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded != pkt {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, pkt)
	}
}

func TestDecodeRejectsWrongMagic(t *testing.T) {
	buf := Encode(Packet{Key: ScanKey, Port: 1})
	buf[0] ^= 0xff
	if _, err := Decode(buf); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestDecodeRejectsShortPacket(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestDecodeRejectsTruncatedKey(t *testing.T) {
	buf := Encode(Packet{Key: ScanKey, Port: 1})
	// Truncate right after the key-length prefix, before the key bytes.
	truncated := buf[:8]
	if _, err := Decode(truncated); err != ErrMalformed {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
