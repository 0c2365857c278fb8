// Package discover implements the UDP discovery beacon: a small fixed
// record carrying the scan key, the sending peer's DeviceInfo, and its
// TCP listen port, broadcast on the local network and received by
// every other daemon listening on the same UDP port. The wire format
// is a fixed magic followed by untagged fields in a fixed order,
// hand-rolled rather than XDR-generated to match lib/codec's own body
// encoding.
package discover

import (
	"encoding/binary"
	"errors"

	"github.com/uos-cooperation/daemon/lib/codec"
)

// ScanKey is the literal shared secret that must appear in both the
// beacon payload and PairRequest/PairResponse.
const ScanKey = "UOS-COOPERATION"

// magic distinguishes beacon packets from stray UDP traffic on the same
// port, the discovery-layer analogue of the frame codec's magic prefix.
var magic = [4]byte{'U', 'C', 'B', 'N'}

// ErrMalformed is returned by Decode when a packet is too short or
// carries the wrong magic -- unlike the frame codec's body parser, a
// beacon packet with a bad magic is simply not ours and must not be
// defaulted into a DeviceInfo.
var ErrMalformed = errors.New("discover: malformed beacon packet")

// Packet is a decoded beacon advertisement.
type Packet struct {
	Key        string
	DeviceInfo codec.DeviceInfo
	Port       uint16
}

// Encode serializes p as: magic(4) | keyLen(4) | key | deviceInfo |
// port(2). DeviceInfo reuses lib/codec's own positional field encoding
// so the two wire formats never drift apart.
func Encode(p Packet) []byte {
	info := codec.EncodeDeviceInfo(p.DeviceInfo)

	buf := make([]byte, 0, 4+4+len(p.Key)+len(info)+2)
	buf = append(buf, magic[:]...)

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p.Key)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, p.Key...)

	buf = append(buf, info...)

	var portBuf [2]byte
	binary.BigEndian.PutUint16(portBuf[:], p.Port)
	buf = append(buf, portBuf[:]...)

	return buf
}

// Decode parses a raw UDP datagram into a Packet. It rejects packets
// with a missing or wrong magic outright; once past the magic, the
// DeviceInfo portion defaults missing fields the same way a message
// body does, since a truncated beacon from a peer mid-restart should
// still be usable for liveness purposes even if some fields are blank.
func Decode(buf []byte) (Packet, error) {
	if len(buf) < len(magic)+4 {
		return Packet{}, ErrMalformed
	}
	if [4]byte{buf[0], buf[1], buf[2], buf[3]} != magic {
		return Packet{}, ErrMalformed
	}
	buf = buf[4:]

	keyLen := binary.BigEndian.Uint32(buf[:4])
	buf = buf[4:]
	if uint32(len(buf)) < keyLen {
		return Packet{}, ErrMalformed
	}
	key := string(buf[:keyLen])
	buf = buf[keyLen:]

	info := codec.DecodeDeviceInfo(buf)

	// DecodeDeviceInfo only consumes the fixed four fields it knows
	// about and leaves the rest of buf untouched, so the port Encode
	// appended last is always the final two bytes of the packet.
	var port uint16
	if len(buf) >= 2 {
		port = binary.BigEndian.Uint16(buf[len(buf)-2:])
	}

	return Packet{Key: key, DeviceInfo: info, Port: port}, nil
}
