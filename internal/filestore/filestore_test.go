package filestore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUploadAndPublicURL(t *testing.T) {
	s := New(t.TempDir(), "/files")
	url, err := s.Upload("abc/report.pdf", []byte("data"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "/files/abc/report.pdf" {
		t.Fatalf("url = %q", url)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, "abc", "report.pdf"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "data" {
		t.Fatalf("content = %q", string(data))
	}
}

func TestUploadRejectsEscapingPaths(t *testing.T) {
	s := New(t.TempDir(), "/files")
	for _, path := range []string{"", "../outside", "a/../../outside"} {
		if _, err := s.Upload(path, []byte("x")); err == nil {
			t.Fatalf("path %q accepted", path)
		}
	}
}
