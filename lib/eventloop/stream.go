package eventloop

import (
	"net"
	"sync"
	"time"

	"github.com/uos-cooperation/daemon/lib/buffer"
)

// Stream is a TCP connection bound to a Loop: connect with
// onConnected/onConnectFailed, then startRead delivering
// onReceived(buffer), write queuing a send, onClosed firing once.
type Stream struct {
	loop *Loop
	conn net.Conn

	onConnected     func()
	onConnectFailed func(title, msg string)
	onReceived      func(*buffer.Buffer)
	onClosed        func()

	buf *buffer.Buffer

	writeCh chan []byte

	mu         sync.Mutex
	closed     bool
	closedOnce sync.Once
	readOnce   sync.Once
}

// NewStream creates a Stream bound to loop. Its callbacks must be set
// before Connect or Accept is called.
func NewStream(loop *Loop) *Stream {
	return &Stream{
		loop:    loop,
		buf:     buffer.New(),
		writeCh: make(chan []byte, 64),
	}
}

func (s *Stream) OnConnected(f func())                         { s.onConnected = f }
func (s *Stream) OnConnectFailed(f func(title, msg string))     { s.onConnectFailed = f }
func (s *Stream) OnReceived(f func(*buffer.Buffer))             { s.onReceived = f }
func (s *Stream) OnClosed(f func())                             { s.onClosed = f }

// Connect opens an outbound TCP connection to addr ("host:port").
// onConnected or onConnectFailed fires on the loop goroutine.
func (s *Stream) Connect(addr string) {
	go func() {
		conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
		if err != nil {
			s.loop.Post(func() {
				if s.onConnectFailed != nil {
					s.onConnectFailed("connect failed", err.Error())
				}
			})
			return
		}
		s.conn = conn
		s.loop.Post(func() {
			if s.onConnected != nil {
				s.onConnected()
			}
		})
	}()
}

// Accept wraps an already-established inbound connection (from a
// listener's Accept loop). There is no onConnected/onConnectFailed
// transition for an inbound Stream; the caller proceeds straight to
// StartRead once it is ready to receive.
func (s *Stream) Accept(conn net.Conn) {
	s.conn = conn
}

// StartRead begins delivering received bytes via onReceived. Reads
// happen on a dedicated goroutine and are handed to the loop as posted
// closures, so onReceived itself always runs serialized with every
// other callback for this Stream's Machine. Idempotent: a Machine may
// call StartRead once for an inbound connection before pairing and
// again when the connection is promoted to a paired session.
func (s *Stream) StartRead() {
	s.readOnce.Do(func() {
		go s.readLoop()
		go s.writeLoop()
	})
}

func (s *Stream) readLoop() {
	rbuf := make([]byte, 64*1024)
	for {
		n, err := s.conn.Read(rbuf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, rbuf[:n])
			s.loop.Post(func() {
				if s.isClosed() {
					return
				}
				s.buf.Append(chunk)
				if s.onReceived != nil {
					s.onReceived(s.buf)
				}
			})
		}
		if err != nil {
			s.closeAux()
			return
		}
	}
}

func (s *Stream) writeLoop() {
	for p := range s.writeCh {
		if p == nil {
			return
		}
		if _, err := s.conn.Write(p); err != nil {
			s.closeAux()
			return
		}
	}
}

// Write queues bytes for sending. FIFO order is preserved per
// connection; there is no cross-connection ordering guarantee.
func (s *Stream) Write(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.writeCh <- p:
	default:
		log.Warnln("write queue full, dropping frame")
	}
}

// TCPNoDelay disables Nagle buffering, matching the original's
// m_conn->tcpNoDelay() call in initConnection.
func (s *Stream) TCPNoDelay() {
	if tc, ok := s.conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
}

// Keepalive enables or disables TCP keepalive with the given idle
// interval, matching m_conn->keepalive(true, 20) in initConnection.
func (s *Stream) Keepalive(enabled bool, idle time.Duration) {
	tc, ok := s.conn.(*net.TCPConn)
	if !ok {
		return
	}
	_ = tc.SetKeepAlive(enabled)
	if enabled {
		_ = tc.SetKeepAlivePeriod(idle)
	}
}

func (s *Stream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close tears down the connection. onClosed fires exactly once, on the
// loop goroutine, even if Close is called multiple times or the
// connection drops on its own.
func (s *Stream) Close() {
	s.closeAux()
}

func (s *Stream) closeAux() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.writeCh)
	s.mu.Unlock()

	if s.conn != nil {
		_ = s.conn.Close()
	}

	s.closedOnce.Do(func() {
		s.loop.Post(func() {
			if s.onClosed != nil {
				s.onClosed()
			}
		})
	})
}

// RemoteAddr returns the connection's remote address as "ip:port", or
// an empty string if not yet connected.
func (s *Stream) RemoteAddr() string {
	if s.conn == nil {
		return ""
	}
	return s.conn.RemoteAddr().String()
}
