// Package filestore issues public URLs for uploaded attachments and
// regulatory documents. Files land on local disk under the workspace; the
// server mounts the directory at a configurable base URL.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Store struct {
	Dir     string
	BaseURL string
}

func New(dir, baseURL string) Store {
	if dir == "" {
		dir = filepath.Join(".holdingboard", "files")
	}
	if baseURL == "" {
		baseURL = "/files"
	}
	return Store{Dir: dir, BaseURL: baseURL}
}

// Upload writes bytes under a relative path and returns the public URL.
// Uploads are fire-and-forget from the caller's view: a failure surfaces but
// rolls back nothing already written elsewhere.
func (s Store) Upload(path string, data []byte) (string, error) {
	clean, err := s.cleanPath(path)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.Dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	return s.PublicURL(clean), nil
}

// PublicURL maps a stored path to the URL it is served under.
func (s Store) PublicURL(path string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (s Store) cleanPath(path string) (string, error) {
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return "", errors.New("path required")
	}
	clean := filepath.ToSlash(filepath.Clean(path))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("path %q escapes the store", path)
	}
	return clean, nil
}
