package fusebridge

import (
	"encoding/gob"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/uos-cooperation/daemon/lib/logger"
)

var log = logger.DefaultLogger.NewFacility("fusebridge")

// Server exposes root over an ephemeral TCP port using the private gob
// RPC in rpc.go. It implements machine.FuseServer.
type Server struct {
	ln   net.Listener
	root string
}

// NewServer binds an ephemeral TCP listener rooted at root.
func NewServer(root string) (*Server, error) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		return nil, err
	}
	s := &Server{ln: ln, root: root}
	go s.acceptLoop()
	return s, nil
}

// Port returns the bound TCP port.
func (s *Server) Port() uint16 {
	addr, ok := s.ln.Addr().(*net.TCPAddr)
	if !ok {
		return 0
	}
	return uint16(addr.Port)
}

// Close stops accepting connections.
func (s *Server) Close() error {
	return s.ln.Close()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	dec := gob.NewDecoder(conn)
	enc := gob.NewEncoder(conn)
	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			return
		}
		resp := s.handle(req)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) handle(req request) response {
	path, err := s.resolve(req.Path)
	if err != nil {
		return response{Err: err.Error()}
	}

	switch req.Op {
	case opStat:
		return s.handleStat(path)
	case opReadDir:
		return s.handleReadDir(path)
	case opRead:
		return s.handleRead(path, req.Offset, req.Length)
	default:
		return response{Err: "unknown op " + req.Op}
	}
}

// resolve joins root and the peer-supplied path. The path is cleaned as
// if rooted at "/", so ".." components stop at root instead of
// escaping it.
func (s *Server) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	full := filepath.Join(s.root, clean)
	if full != s.root && !strings.HasPrefix(full, s.root+string(os.PathSeparator)) {
		return "", os.ErrPermission
	}
	return full, nil
}

func (s *Server) handleStat(path string) response {
	info, err := os.Stat(path)
	if err != nil {
		return response{Err: err.Error()}
	}
	return response{IsDir: info.IsDir(), Size: info.Size()}
}

func (s *Server) handleReadDir(path string) response {
	entries, err := os.ReadDir(path)
	if err != nil {
		return response{Err: err.Error()}
	}
	out := make([]dirEntry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, dirEntry{Name: e.Name(), IsDir: e.IsDir(), Size: info.Size()})
	}
	return response{Entries: out}
}

func (s *Server) handleRead(path string, offset int64, length int) response {
	f, err := os.Open(path)
	if err != nil {
		return response{Err: err.Error()}
	}
	defer f.Close()

	buf := make([]byte, length)
	n, err := f.ReadAt(buf, offset)
	if err != nil && n == 0 {
		return response{Err: err.Error()}
	}
	return response{Data: buf[:n]}
}
