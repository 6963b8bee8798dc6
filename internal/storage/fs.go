package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// DefaultFileMode is used when writing a file that does not exist yet.
const DefaultFileMode fs.FileMode = 0o644

// FS lists, reads, writes and copies files on an afero filesystem.
// It satisfies the Lister, Reader, Writer and Copier interfaces of the
// pipeline package.
type FS struct {
	fs afero.Fs
}

// New creates an FS backed by fsys.
func New(fsys afero.Fs) *FS {
	return &FS{fs: fsys}
}

// NewOS creates an FS backed by the operating system.
func NewOS() *FS {
	return New(afero.NewOsFs())
}

// Afero returns the underlying filesystem.
func (f *FS) Afero() afero.Fs {
	return f.fs
}

// List expands a glob pattern that may contain "**" into the regular files
// it matches. The static prefix of the pattern is resolved first, so
// "docs/**/*.html" only walks docs/.
func (f *FS) List(pattern string) ([]string, error) {
	pattern = filepath.ToSlash(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}

	base, rest := doublestar.SplitPattern(pattern)
	fsys := f.fs
	if base != "." {
		info, err := f.fs.Stat(filepath.FromSlash(base))
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			// The whole pattern was a literal path to a file.
			if rest == "" || !doublestar.ContainsMagic(rest) {
				return []string{filepath.FromSlash(pattern)}, nil
			}
			return nil, nil
		}
		fsys = afero.NewBasePathFs(f.fs, filepath.FromSlash(base))
	}

	matches, err := doublestar.Glob(afero.NewIOFS(fsys), rest, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		if base == "." {
			paths = append(paths, filepath.FromSlash(m))
			continue
		}
		paths = append(paths, filepath.Join(filepath.FromSlash(base), filepath.FromSlash(m)))
	}
	return paths, nil
}

// ReadFile returns the content of path.
func (f *FS) ReadFile(path string) (string, error) {
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteFile replaces the content of path, keeping the mode of an existing
// file.
func (f *FS) WriteFile(path, content string) error {
	mode := DefaultFileMode
	if info, err := f.fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return afero.WriteFile(f.fs, path, []byte(content), mode)
}

// Copy copies src to dst, replacing dst. The copy keeps the mode and
// modification time of src.
func (f *FS) Copy(src, dst string) error {
	info, err := f.fs.Stat(src)
	if err != nil {
		return err
	}
	data, err := afero.ReadFile(f.fs, src)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(f.fs, dst, data, info.Mode().Perm()); err != nil {
		return err
	}
	if err := f.fs.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return f.fs.Chtimes(dst, info.ModTime(), info.ModTime())
}
