package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidPath is returned for stored paths that would leave the upload directory
	ErrInvalidPath = errors.New("storage: invalid stored path")

	// ErrNotExist is returned when a stored file is missing
	ErrNotExist = fs.ErrNotExist

	// ErrExist is returned when a rename target is already taken
	ErrExist = fs.ErrExist
)

// FileStore keeps uploaded attachment bytes. Paths are flat names relative to the store.
type FileStore interface {
	Save(ctx context.Context, displayName string, r io.Reader) (string, error)
	Rename(ctx context.Context, oldPath, newPath string) error
	Remove(ctx context.Context, path string) error
}

// DiskStore stores files in a single directory on the local filesystem.
type DiskStore struct {
	dir string
	now func() time.Time
}

// NewDiskStore creates the directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", dir, err)
	}
	return &DiskStore{dir: dir, now: time.Now}, nil
}

// Dir returns the directory files are served from.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save writes r under a fresh unique name derived from displayName and returns that name.
func (s *DiskStore) Save(ctx context.Context, displayName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := NewStoredName(displayName, s.now())
	full := filepath.Join(s.dir, name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	return name, nil
}

// Rename moves oldPath to newPath without overwriting an existing file.
func (s *DiskStore) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from, err := s.resolve(oldPath)
	if err != nil {
		return err
	}
	to, err := s.resolve(newPath)
	if err != nil {
		return err
	}

	if _, err := os.Lstat(to); err == nil {
		return fmt.Errorf("rename %s: %w", newPath, ErrExist)
	}

	return os.Rename(from, to)
}

// Remove deletes the stored file. A missing file yields an error wrapping ErrNotExist.
func (s *DiskStore) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

func (s *DiskStore) resolve(path string) (string, error) {
	if path == "" || path == "." || path == ".." || filepath.Base(path) != path || strings.ContainsAny(path, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return filepath.Join(s.dir, path), nil
}

// NewStoredName builds "<unix-millis>-<8 hex>-<sanitized name>".
func NewStoredName(displayName string, now time.Time) string {
	return newPrefix(now) + "-" + SanitizeFilename(displayName)
}

// RenamedStoredName keeps the unique prefix of storedPath and swaps in displayName.
// Stored names without a recognizable prefix get a fresh one.
func RenamedStoredName(storedPath, displayName string, now time.Time) string {
	prefix, ok := uniquePrefix(storedPath)
	if !ok {
		prefix = newPrefix(now)
	}
	return prefix + "-" + SanitizeFilename(displayName)
}

func newPrefix(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString()[:8]
}

// uniquePrefix accepts "<millis>-<hex8>-name" and the older "<millis>-name".
func uniquePrefix(storedPath string) (string, bool) {
	parts := strings.SplitN(storedPath, "-", 3)
	if len(parts) < 2 || !isDigits(parts[0]) {
		return "", false
	}
	if len(parts) == 3 && isHex8(parts[1]) {
		return parts[0] + "-" + parts[1], true
	}
	return parts[0], true
}

// SanitizeFilename strips directories and replaces characters unsafe in stored names.
func SanitizeFilename(name string) string {
	clean := filepath.Base(filepath.Clean(strings.ReplaceAll(name, "\\", "/")))
	clean = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, clean)
	if clean == "." || clean == ".." || strings.TrimSpace(clean) == "" {
		return "unnamed"
	}
	return clean
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isHex8(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}
