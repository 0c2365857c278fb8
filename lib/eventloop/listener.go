package eventloop

import (
	"net"
	"strconv"
)

// Listener accepts inbound TCP connections and hands each one to a
// callback as a connected net.Conn; the callback is responsible for
// wrapping it in a Stream via Stream.Accept. The original C++ uvxx::TCP
// exposes listen/accept on the same type, but splitting accept into
// its own small type keeps the Stream API focused on one connection.
type Listener struct {
	loop     *Loop
	ln       net.Listener
	onAccept func(conn net.Conn)
}

// NewListener binds a TCP listener. If port is 0, the kernel assigns an
// ephemeral port, retrievable via Port().
func NewListener(loop *Loop, port uint16) (*Listener, error) {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(int(port)))
	if err != nil {
		return nil, err
	}
	l := &Listener{loop: loop, ln: ln}
	go l.acceptLoop()
	return l, nil
}

func (l *Listener) OnAccept(f func(conn net.Conn)) { l.onAccept = f }

func (l *Listener) acceptLoop() {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			return
		}
		l.loop.Post(func() {
			if l.onAccept != nil {
				l.onAccept(conn)
			} else {
				_ = conn.Close()
			}
		})
	}
}

// Port returns the bound TCP port.
func (l *Listener) Port() uint16 {
	addr, ok := l.ln.Addr().(*net.TCPAddr)
	if !ok {
		return 0
	}
	return uint16(addr.Port)
}

// Close stops accepting new connections.
func (l *Listener) Close() error {
	return l.ln.Close()
}
