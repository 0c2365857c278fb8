// Package fusebridge implements the FuseServer/FuseClient
// collaborators: FuseServer exposes a local directory to a single peer
// over a private TCP RPC, and FuseClient mounts that export locally
// via a go-fuse filesystem whose node callbacks issue RPC calls back
// over the same connection.
package fusebridge

const (
	opReadDir = "readdir"
	opStat    = "stat"
	opRead    = "read"
)

// request is the single RPC envelope sent from client to server. Path
// is set for every Op; Offset and Length are used only by opRead. It
// stays private to this package since it never crosses the
// framed-message wire.
type request struct {
	Op     string
	Path   string
	Offset int64
	Length int
}

// dirEntry describes one child of a directory listing.
type dirEntry struct {
	Name  string
	IsDir bool
	Size  int64
}

// response is the single RPC envelope sent from server to client.
type response struct {
	Err     string
	Entries []dirEntry
	IsDir   bool
	Size    int64
	Data    []byte
}
