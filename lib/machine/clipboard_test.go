package machine

import "testing"

func TestRewriteClipboardContent(t *testing.T) {
	content := "copy\nfile:///docs/x\n/abs/y\n"
	rewritten, firstPath := rewriteClipboardContent(content, "/mnt/peer")

	wantLines := []string{
		"copy",
		"/mnt/peer/docs/x",
		"/mnt/peer/abs/y",
		"",
	}
	gotLines := splitLines(rewritten)
	if len(gotLines) != len(wantLines) {
		t.Fatalf("got %d lines, want %d: %v", len(gotLines), len(wantLines), gotLines)
	}
	for i := range wantLines {
		if gotLines[i] != wantLines[i] {
			t.Errorf("line %d: got %q, want %q", i, gotLines[i], wantLines[i])
		}
	}

	if firstPath != "/mnt/peer/docs/x" {
		t.Errorf("firstPath = %q, want /mnt/peer/docs/x", firstPath)
	}
}

func TestRewriteClipboardContentNoMountpoint(t *testing.T) {
	content := "file:///docs/x\n"
	rewritten, firstPath := rewriteClipboardContent(content, "")
	if rewritten != content {
		t.Errorf("content should be unchanged without a mountpoint, got %q", rewritten)
	}
	if firstPath != "" {
		t.Errorf("firstPath should be empty without a mountpoint, got %q", firstPath)
	}
}

func TestPathComponent(t *testing.T) {
	cases := []struct {
		line string
		want string
		ok   bool
	}{
		{"file:///a/b", "/a/b", true},
		{"/a/b", "/a/b", true},
		{"plain text", "", false},
		{"relative/path", "", false},
	}
	for _, c := range cases {
		got, ok := pathComponent(c.line)
		if ok != c.ok || got != c.want {
			t.Errorf("pathComponent(%q) = (%q, %v), want (%q, %v)", c.line, got, ok, c.want, c.ok)
		}
	}
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
