package adapter

import (
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	m "movemut.dev/pkg/movemut/internal/model"
)

// SandboxFSAdapter abstracts the filesystem operations the sandbox and sweep
// logic rely on. It hides direct `os` access so the domain layer can be tested
// without touching the disk.
type SandboxFSAdapter interface {
	// CreateTempDir creates a fresh private directory for one sandbox.
	CreateTempDir(pattern string) (m.Path, error)

	// RemoveAll removes a directory and all its contents.
	RemoveAll(path m.Path) error

	// CopyTree recursively copies the *contents* of src into dst, preserving
	// the relative tree. The src directory itself is not recreated inside
	// dst.
	CopyTree(src, dst m.Path) error

	// ReadFile loads a file from disk.
	ReadFile(path m.Path) ([]byte, error)

	// WriteFile writes content to a file with the given permissions.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// Remove deletes a single file. Missing files are not an error.
	Remove(path m.Path) error

	// RelPath returns the relative path from base to target.
	RelPath(base, target m.Path) (m.Path, error)

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path

	// HashTree returns a stable fingerprint over every file under root,
	// covering both relative paths and contents.
	HashTree(root m.Path) (string, error)
}

// LocalSandboxFSAdapter is the os-backed SandboxFSAdapter implementation.
type LocalSandboxFSAdapter struct{}

// NewLocalSandboxFSAdapter constructs a LocalSandboxFSAdapter ready to be
// wired into the pipeline.
func NewLocalSandboxFSAdapter() *LocalSandboxFSAdapter {
	return &LocalSandboxFSAdapter{}
}

// CreateTempDir creates a temporary directory for one sandbox instance.
func (a *LocalSandboxFSAdapter) CreateTempDir(pattern string) (m.Path, error) {
	tmpDir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", err
	}

	return m.Path(tmpDir), nil
}

// RemoveAll removes a directory and all its contents.
func (a *LocalSandboxFSAdapter) RemoveAll(path m.Path) error {
	return os.RemoveAll(string(path))
}

// CopyTree recursively copies the contents of src into dst.
func (a *LocalSandboxFSAdapter) CopyTree(src, dst m.Path) error {
	return filepath.Walk(string(src), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(string(src), path)
		if err != nil {
			return err
		}

		if info.IsDir() && filepath.Base(path) == ".git" {
			return filepath.SkipDir
		}

		targetPath := filepath.Join(string(dst), relPath)

		if info.IsDir() {
			return os.MkdirAll(targetPath, info.Mode())
		}

		return a.copyFile(path, targetPath, info.Mode())
	})
}

func (a *LocalSandboxFSAdapter) copyFile(src, dst string, mode os.FileMode) error {
	// #nosec G304 - src is an internal package file path, not user input
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}

	defer func() { _ = sourceFile.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	// #nosec G304 - dst is an internal sandbox path, not user input
	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	defer func() { _ = destFile.Close() }()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return os.Chmod(dst, mode)
}

// ReadFile loads file contents from disk.
func (a *LocalSandboxFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalSandboxFSAdapter) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	return os.WriteFile(string(path), content, perm)
}

// Remove deletes a single file, ignoring missing ones.
func (a *LocalSandboxFSAdapter) Remove(path m.Path) error {
	err := os.Remove(string(path))
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// RelPath returns the relative path from base to target.
func (a *LocalSandboxFSAdapter) RelPath(base, target m.Path) (m.Path, error) {
	rel, err := filepath.Rel(string(base), string(target))
	if err != nil {
		return "", err
	}

	return m.Path(rel), nil
}

// JoinPath joins path elements into a single path.
func (a *LocalSandboxFSAdapter) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}

// HashTree returns the SHA-256 fingerprint of every file under root, hashing
// relative paths and contents in sorted order so the result is stable.
func (a *LocalSandboxFSAdapter) HashTree(root m.Path) (string, error) {
	var files []string

	err := filepath.WalkDir(string(root), func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !entry.IsDir() {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	sort.Strings(files)

	h := sha256.New()

	for _, path := range files {
		rel, err := filepath.Rel(string(root), path)
		if err != nil {
			return "", err
		}

		fmt.Fprintf(h, "%s\x00", rel)

		f, err := os.Open(path) // #nosec G304 - path comes from the walked tree
		if err != nil {
			return "", err
		}

		_, copyErr := io.Copy(h, f)
		_ = f.Close()

		if copyErr != nil {
			return "", copyErr
		}
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
