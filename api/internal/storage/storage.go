// Package storage keeps uploaded files and generated artifacts in a local
// working directory. Every stored file gets a fresh uuid-based name so that
// concurrent requests with the same client filename never collide.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Dir struct {
	root string
}

// File is a persisted upload or artifact.
type File struct {
	Path     string
	Original string
	Size     int64
}

// New creates root if it does not exist.
func New(root string) (*Dir, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("storage: empty root")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", root, err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) Root() string { return d.root }

// Save copies r into a new file that keeps the extension of original.
func (d *Dir) Save(original string, r io.Reader) (File, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	f, err := d.Create(ext)
	if err != nil {
		return File{}, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return File{}, fmt.Errorf("storage: write %s: %w", f.Name(), err)
	}
	return File{Path: f.Name(), Original: original, Size: n}, nil
}

// Create opens a new uniquely named file with the given extension (".pdf").
func (d *Dir) Create(ext string) (*os.File, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := filepath.Join(d.root, uuid.NewString()+ext)
	f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("storage: create file: %w", err)
	}
	return f, nil
}

// Remove deletes a file previously returned by Save or Create. Paths outside
// the root are refused.
func (d *Dir) Remove(path string) error {
	rel, err := filepath.Rel(d.root, path)
	if err != nil || strings.HasPrefix(rel, "..") || rel == "." {
		return fmt.Errorf("storage: %s is outside %s", path, d.root)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// DownloadName maps a client filename to the name used for a generated
// artifact, e.g. ("scan.PNG", ".pdf") -> "scan.pdf".
func DownloadName(original, ext string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Map(func(r rune) rune {
		if r == '"' || r < 0x20 {
			return -1
		}
		return r
	}, base)
	if base == "" || base == "." || base == "/" {
		base = "document"
	}
	return base + ext
}
