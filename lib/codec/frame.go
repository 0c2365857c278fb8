package codec

import (
	"bytes"
	"encoding/binary"

	"github.com/uos-cooperation/daemon/lib/buffer"
)

// magic is the 8-byte frame preamble: ASCII "DDECPRT" followed by a
// trailing NUL, exactly as the original daemon's MessageHeader embeds
// its MAGIC constant (including the string's implicit terminator).
var magic = [8]byte{'D', 'D', 'E', 'C', 'P', 'R', 'T', 0}

// HeaderSize is the fixed size of a frame header: 8 bytes of magic plus
// an 8-byte big-endian length.
const HeaderSize = 16

// DecodeStatus classifies the outcome of a Decode call.
type DecodeStatus int

const (
	// StatusOK means a message was fully parsed and consumed.
	StatusOK DecodeStatus = iota
	// StatusPartial means the buffer does not yet hold a complete
	// frame; the caller should wait for more bytes and retry. No
	// bytes were consumed.
	StatusPartial
	// StatusIllegal means the buffer's first 8 bytes did not match
	// the magic; the connection must be closed. No bytes were
	// consumed (the caller is expected to discard the connection
	// rather than the buffer).
	StatusIllegal
)

// Encode serializes msg into a complete frame: header plus body.
func Encode(msg *Message) []byte {
	body := marshalBody(msg)

	out := make([]byte, HeaderSize+len(body))
	copy(out[:8], magic[:])
	binary.BigEndian.PutUint64(out[8:16], uint64(len(body)))
	copy(out[16:], body)
	return out
}

// Decode attempts to parse one frame from the front of buf without
// consuming anything on PARTIAL or ILLEGAL. On StatusOK it consumes the
// header and body bytes via buf.Retrieve and returns the parsed
// Message.
func Decode(buf *buffer.Buffer) (*Message, DecodeStatus) {
	header, ok := buf.Peek(HeaderSize)
	if !ok {
		return nil, StatusPartial
	}

	if !bytes.Equal(header[:8], magic[:]) {
		return nil, StatusIllegal
	}

	length := binary.BigEndian.Uint64(header[8:16])
	total := HeaderSize + length
	if uint64(buf.Size()) < total {
		return nil, StatusPartial
	}

	body := make([]byte, length)
	copy(body, buf.Data()[HeaderSize:total])
	buf.Retrieve(int(total))

	return unmarshalBody(body), StatusOK
}
