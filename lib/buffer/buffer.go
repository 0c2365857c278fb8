// Package buffer implements the growable byte buffer that sits between a
// stream socket and the framed codec: bytes arrive via Append, are
// inspected without consumption via Peek, and are dropped from the front
// via Retrieve once a full frame has been decoded. This mirrors the
// uvxx::Buffer peek/retrieve contract the original daemon's dispatcher
// drains in a loop.
package buffer

// Buffer is a read buffer with peek/consume semantics. It is not safe
// for concurrent use; callers own it exclusively (in this daemon, a
// single Buffer is owned by one Machine's event-loop callbacks, which
// never run concurrently with each other).
type Buffer struct {
	buf []byte
}

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// Append adds bytes read from the socket to the end of the buffer.
func (b *Buffer) Append(p []byte) {
	b.buf = append(b.buf, p...)
}

// Peek returns the first n bytes without consuming them. It returns
// false if fewer than n bytes are available.
func (b *Buffer) Peek(n int) ([]byte, bool) {
	if len(b.buf) < n {
		return nil, false
	}
	return b.buf[:n], true
}

// Data returns the full unconsumed contents of the buffer. The slice is
// only valid until the next call to Append or Retrieve.
func (b *Buffer) Data() []byte {
	return b.buf
}

// Size returns the number of unconsumed bytes.
func (b *Buffer) Size() int {
	return len(b.buf)
}

// Retrieve drops the first n bytes from the buffer.
func (b *Buffer) Retrieve(n int) {
	if n >= len(b.buf) {
		b.buf = b.buf[:0]
		return
	}
	copy(b.buf, b.buf[n:])
	b.buf = b.buf[:len(b.buf)-n]
}

// Clear drops all buffered bytes.
func (b *Buffer) Clear() {
	b.buf = b.buf[:0]
}
