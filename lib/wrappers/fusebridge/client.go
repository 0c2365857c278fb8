package fusebridge

import (
	"context"
	"encoding/gob"
	"net"
	"os"
	"sync"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Client dials a peer's Server and mounts its export locally. It
// implements machine.FuseClient.
type Client struct {
	conn net.Conn
	enc  *gob.Encoder
	dec  *gob.Decoder
	mu   sync.Mutex

	mountpoint string
	server     *fuse.Server
}

// NewClient connects to addr and mounts the remote export at
// mountpoint, creating the directory if needed.
func NewClient(addr, mountpoint string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}

	c := &Client{
		conn: conn,
		enc:  gob.NewEncoder(conn),
		dec:  gob.NewDecoder(conn),
	}

	if err := os.MkdirAll(mountpoint, 0o755); err != nil {
		conn.Close()
		return nil, err
	}

	root := &rpcNode{client: c, path: ""}

	entryTimeout := time.Second
	attrTimeout := time.Second
	server, err := gofuse.Mount(mountpoint, root, &gofuse.Options{
		EntryTimeout: &entryTimeout,
		AttrTimeout:  &attrTimeout,
		MountOptions: fuse.MountOptions{
			FsName: "uos-cooperation",
			Name:   "cooperationd",
		},
	})
	if err != nil {
		conn.Close()
		return nil, err
	}

	c.mountpoint = mountpoint
	c.server = server
	return c, nil
}

// Mountpoint implements machine.FuseClient.
func (c *Client) Mountpoint() string { return c.mountpoint }

// Exit unmounts the filesystem and closes the RPC connection.
func (c *Client) Exit() error {
	if c.server != nil {
		if err := c.server.Unmount(); err != nil {
			return err
		}
	}
	return c.conn.Close()
}

// call sends req and waits for the matching response. The connection
// serves exactly one request at a time, matching the strict
// per-connection FIFO ordering this RPC protocol relies on.
func (c *Client) call(req request) (response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enc.Encode(req); err != nil {
		return response{}, err
	}
	var resp response
	if err := c.dec.Decode(&resp); err != nil {
		return response{}, err
	}
	return resp, nil
}

// rpcNode is a go-fuse inode whose operations proxy through Client's
// RPC connection rather than reading local storage directly.
type rpcNode struct {
	gofuse.Inode
	client *Client
	path   string
}

var (
	_ gofuse.InodeEmbedder = (*rpcNode)(nil)
	_ gofuse.NodeLookuper  = (*rpcNode)(nil)
	_ gofuse.NodeReaddirer = (*rpcNode)(nil)
	_ gofuse.NodeGetattrer = (*rpcNode)(nil)
	_ gofuse.NodeOpener    = (*rpcNode)(nil)
	_ gofuse.NodeReader    = (*rpcNode)(nil)
)

func (n *rpcNode) childPath(name string) string {
	if n.path == "" {
		return name
	}
	return n.path + "/" + name
}

func (n *rpcNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	childPath := n.childPath(name)
	resp, err := n.client.call(request{Op: opStat, Path: childPath})
	if err != nil {
		return nil, syscall.EIO
	}
	if resp.Err != "" {
		return nil, syscall.ENOENT
	}

	mode := uint32(syscall.S_IFREG)
	if resp.IsDir {
		mode = syscall.S_IFDIR
	}
	out.Size = uint64(resp.Size)
	out.Mode = mode | 0o444

	child := n.NewInode(ctx, &rpcNode{client: n.client, path: childPath}, gofuse.StableAttr{Mode: mode})
	return child, 0
}

func (n *rpcNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	resp, err := n.client.call(request{Op: opReadDir, Path: n.path})
	if err != nil || resp.Err != "" {
		return nil, syscall.EIO
	}

	entries := make([]fuse.DirEntry, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		mode := uint32(syscall.S_IFREG)
		if e.IsDir {
			mode = syscall.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{Name: e.Name, Mode: mode})
	}
	return &sliceDirStream{entries: entries}, 0
}

// sliceDirStream implements gofuse.DirStream from a fixed slice of
// entries materialized up front by Readdir.
type sliceDirStream struct {
	entries []fuse.DirEntry
	index   int
}

func (s *sliceDirStream) HasNext() bool { return s.index < len(s.entries) }

func (s *sliceDirStream) Next() (fuse.DirEntry, syscall.Errno) {
	if s.index >= len(s.entries) {
		return fuse.DirEntry{}, syscall.EINVAL
	}
	e := s.entries[s.index]
	s.index++
	return e, 0
}

func (s *sliceDirStream) Close() {}

func (n *rpcNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	resp, err := n.client.call(request{Op: opStat, Path: n.path})
	if err != nil || resp.Err != "" {
		return syscall.EIO
	}
	mode := uint32(syscall.S_IFREG)
	if resp.IsDir {
		mode = syscall.S_IFDIR
	}
	out.Mode = mode | 0o444
	out.Size = uint64(resp.Size)
	return 0
}

func (n *rpcNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}
	return nil, 0, 0
}

func (n *rpcNode) Read(ctx context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	resp, err := n.client.call(request{Op: opRead, Path: n.path, Offset: off, Length: len(dest)})
	if err != nil || resp.Err != "" {
		return nil, syscall.EIO
	}
	return fuse.ReadResultData(resp.Data), 0
}
