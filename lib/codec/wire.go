package codec

import "encoding/binary"

// writer accumulates a message body: the variant tag, then each field's
// value in the variant's fixed field order. Fields carry no tag of their
// own, so a reader must know the variant's field order to parse them.
type writer struct {
	buf []byte
}

func (w *writer) putUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) putUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) putInt32(v int32) {
	w.putUint32(uint32(v))
}

func (w *writer) putBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *writer) putString(s string) {
	w.putUint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *writer) putStringSlice(ss []string) {
	w.putUint32(uint32(len(ss)))
	for _, s := range ss {
		w.putString(s)
	}
}

// reader parses a message body. It is a total parser: once the
// underlying bytes run out it stops advancing and every subsequent read
// returns the zero value, rather than signalling an error. This mirrors
// the original daemon's protobuf-backed body parser, whose
// ParseFromArray leaves unparsed fields at their default value instead
// of failing the whole message.
type reader struct {
	buf []byte
}

func (r *reader) exhausted() bool {
	return len(r.buf) == 0
}

func (r *reader) getUint16() uint16 {
	if len(r.buf) < 2 {
		r.buf = nil
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[:2])
	r.buf = r.buf[2:]
	return v
}

func (r *reader) getUint32() uint32 {
	if len(r.buf) < 4 {
		r.buf = nil
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[:4])
	r.buf = r.buf[4:]
	return v
}

func (r *reader) getInt32() int32 {
	return int32(r.getUint32())
}

func (r *reader) getBool() bool {
	if len(r.buf) < 1 {
		r.buf = nil
		return false
	}
	v := r.buf[0] != 0
	r.buf = r.buf[1:]
	return v
}

func (r *reader) getString() string {
	n := r.getUint32()
	if uint32(len(r.buf)) < n {
		r.buf = nil
		return ""
	}
	s := string(r.buf[:n])
	r.buf = r.buf[n:]
	return s
}

func (r *reader) getStringSlice() []string {
	n := r.getUint32()
	if n == 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		if r.exhausted() {
			break
		}
		out = append(out, r.getString())
	}
	return out
}
