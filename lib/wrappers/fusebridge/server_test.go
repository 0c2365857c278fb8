package fusebridge

import (
	"encoding/gob"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func dialServer(t *testing.T, s *Server) (*gob.Encoder, *gob.Decoder) {
	t.Helper()
	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(int(s.Port()))))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return gob.NewEncoder(conn), gob.NewDecoder(conn)
}

func TestServerStatAndRead(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hello world"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir fixture: %v", err)
	}

	s, err := NewServer(root)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	defer s.Close()

	enc, dec := dialServer(t, s)

	if err := enc.Encode(request{Op: opStat, Path: "hello.txt"}); err != nil {
		t.Fatalf("encode stat: %v", err)
	}
	var statResp response
	if err := dec.Decode(&statResp); err != nil {
		t.Fatalf("decode stat: %v", err)
	}
	if statResp.Err != "" || statResp.IsDir || statResp.Size != int64(len("hello world")) {
		t.Fatalf("stat response = %+v", statResp)
	}

	if err := enc.Encode(request{Op: opRead, Path: "hello.txt", Offset: 6, Length: 5}); err != nil {
		t.Fatalf("encode read: %v", err)
	}
	var readResp response
	if err := dec.Decode(&readResp); err != nil {
		t.Fatalf("decode read: %v", err)
	}
	if string(readResp.Data) != "world" {
		t.Fatalf("read response = %+v, want data=world", readResp)
	}

	if err := enc.Encode(request{Op: opReadDir, Path: ""}); err != nil {
		t.Fatalf("encode readdir: %v", err)
	}
	var dirResp response
	if err := dec.Decode(&dirResp); err != nil {
		t.Fatalf("decode readdir: %v", err)
	}
	if len(dirResp.Entries) != 2 {
		t.Fatalf("readdir response = %+v, want 2 entries", dirResp)
	}
}

func TestResolveContainsPathEscape(t *testing.T) {
	root := t.TempDir()
	s := &Server{root: root}

	resolved, err := s.resolve("../../../etc/passwd")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.HasPrefix(resolved, root) {
		t.Fatalf("resolve(%q) = %q, want a path under %q", "../../../etc/passwd", resolved, root)
	}
}
