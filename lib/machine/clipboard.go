package machine

import (
	"strings"

	"github.com/uos-cooperation/daemon/lib/codec"
)

const (
	targetGnomeCopiedFiles = "x-special/gnome-copied-files"
	targetURIList          = "text/uri-list"
)

// handleClipboardNotify synthesizes a text/uri-list target for non-UOS
// peers advertising x-special/gnome-copied-files without it. Manager
// then records this Machine as the current owner for the (possibly
// extended) target set.
func (m *Machine) handleClipboardNotify(n *codec.ClipboardNotify) {
	targets := append([]string{}, n.Targets...)

	if m.OS != codec.OSUOS && contains(targets, targetGnomeCopiedFiles) && !contains(targets, targetURIList) {
		targets = append(targets, targetURIList)
	}

	m.clipboardOwner = true
	m.manager.OnClipboardNotify(m, targets)
}

// handleClipboardGetContentRequest asks the clipboard collaborator for
// the named target's content and replies once the callback fires.
func (m *Machine) handleClipboardGetContentRequest(req *codec.ClipboardGetContentRequest) {
	m.factory.ClipboardReader().Read(req.Target, func(content string) {
		m.sendMessage(codec.NewClipboardGetContentResponse(codec.ClipboardGetContentResponse{
			Target:  req.Target,
			Content: content,
		}))
	})
}

// handleClipboardGetContentResponse rewrites path-like lines in content
// to be prefixed by the local FUSE mountpoint, and for non-UOS peers
// responding about gnome-copied-files, populates text/uri-list from
// the first rewritten path -- both behaviors the original Machine.cc
// implements.
func (m *Machine) handleClipboardGetContentResponse(resp *codec.ClipboardGetContentResponse) {
	rewritten, firstPath := rewriteClipboardContent(resp.Content, m.mountpoint)

	out := codec.ClipboardGetContentResponse{
		Target:  resp.Target,
		Content: rewritten,
	}

	m.deliverClipboardContent(out)

	if resp.Target == targetGnomeCopiedFiles && m.OS != codec.OSUOS && firstPath != "" {
		m.deliverClipboardContent(codec.ClipboardGetContentResponse{
			Target:  targetURIList,
			Content: "file://" + firstPath,
		})
	}
}

// deliverClipboardContent hands the rewritten content to the local
// clipboard collaborator. The desktop clipboard bus itself is out of
// scope for this package; kept as a named seam so the dispatcher's
// contract is complete end-to-end.
func (m *Machine) deliverClipboardContent(codec.ClipboardGetContentResponse) {}

// rewriteClipboardContent rewrites every absolute-path or file://
// line in content to be prefixed by mountpoint, returning the rewritten
// text and the first rewritten path's filesystem-path component (for
// synthesizing text/uri-list).
func rewriteClipboardContent(content, mountpoint string) (string, string) {
	if mountpoint == "" {
		return content, ""
	}

	lines := strings.Split(content, "\n")
	firstPath := ""
	for i, line := range lines {
		path, ok := pathComponent(line)
		if !ok {
			continue
		}
		rewritten := mountpoint + path
		lines[i] = rewritten
		if firstPath == "" {
			firstPath = rewritten
		}
	}
	return strings.Join(lines, "\n"), firstPath
}

// pathComponent extracts the filesystem path from a line that is
// either a bare absolute path or a file:// URI.
func pathComponent(line string) (string, bool) {
	if strings.HasPrefix(line, "file://") {
		return strings.TrimPrefix(line, "file://"), true
	}
	if strings.HasPrefix(line, "/") {
		return line, true
	}
	return "", false
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
