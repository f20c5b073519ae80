// Package filestore stores receipt photos on local disk.
//
// Files are written under a single directory with server-generated names —
// an xid plus the upload's original extension. xids are globally unique, so
// concurrent uploads can never collide and we never need to ask the client
// for a safe filename.
package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
)

// Store saves, serves, and deletes receipt files by bare filename. Callers
// keep only the returned name; the directory is the store's business.
type Store struct {
	dir string
}

// New creates the storage directory if needed and returns a Store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: creating %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the reader's content to a new uniquely-named file and returns
// the generated filename. ext is the original upload's extension (".jpg");
// anything that isn't a clean extension is dropped.
func (s *Store) Save(r io.Reader, ext string) (string, error) {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	// filepath.Ext keeps only the final ".xyz" part, discarding anything
	// path-like a hostile filename might smuggle in.
	ext = filepath.Ext(ext)
	name := xid.New().String() + ext

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("filestore: creating %s: %w", name, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("filestore: writing %s: %w", name, err)
	}

	return name, nil
}

// Path returns the absolute path for a stored filename, rejecting anything
// that could escape the storage directory.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("filestore: invalid filename %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

// Exists reports whether a stored file is present.
func (s *Store) Exists(name string) bool {
	p, err := s.Path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Delete removes a stored file. Deleting a file that is already gone is not
// an error — cleanup is best-effort by contract.
func (s *Store) Delete(name string) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("filestore: removing %s: %w", name, err)
	}
	return nil
}
