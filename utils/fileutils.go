package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

var (
	// ErrDestinationExists is returned instead of overwriting an existing file
	ErrDestinationExists = errors.New("destination already exists")
	// ErrSourceMissing is returned when the file to move is no longer there
	ErrSourceMissing = errors.New("source file does not exist")
)

// Move is a planned relocation of one file
type Move struct {
	Source      string
	Destination string
}

// RequireDir fails unless path exists and is a directory
func RequireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return fmt.Errorf("cannot access directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return nil
}

// ListEntries returns the names of every entry in dir, sorted by name
func ListEntries(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

// ListFiles returns the names of the regular, non-hidden files in dir, sorted by name
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !entry.Type().IsRegular() && entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// ListClassDirectories returns the non-hidden subdirectory names of root, sorted by name
func ListClassDirectories(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var classes []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			classes = append(classes, entry.Name())
		}
	}
	return classes, nil
}

// EnsureDir creates dir and its parents if needed
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// CheckDestinations fails on the first planned destination that already exists
// or that is the target of more than one move
func CheckDestinations(moves []Move) error {
	seen := make(map[string]string, len(moves))
	for _, m := range moves {
		if prev, ok := seen[m.Destination]; ok {
			return fmt.Errorf("%w: %s (targeted by %s and %s)", ErrDestinationExists, m.Destination, prev, m.Source)
		}
		seen[m.Destination] = m.Source

		if _, err := os.Lstat(m.Destination); err == nil {
			return fmt.Errorf("%w: %s", ErrDestinationExists, m.Destination)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("cannot check destination %s: %w", m.Destination, err)
		}
	}
	return nil
}

// MoveFile relocates src to dst. It never overwrites: an existing dst yields
// ErrDestinationExists and a missing src yields ErrSourceMissing.
func MoveFile(src, dst string) error {
	if _, err := os.Lstat(src); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, src)
		}
		return fmt.Errorf("cannot stat %s: %w", src, err)
	}

	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot check destination %s: %w", dst, err)
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		return copyAndRemove(src, dst)
	}
	return fmt.Errorf("failed to move %s -> %s: %w", src, dst, err)
}

// copyAndRemove moves a file across filesystems
func copyAndRemove(src, dst string) error {
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("failed to copy %s -> %s: %w", src, dst, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("copied %s -> %s but failed to remove source: %w", src, dst, err)
	}
	return nil
}

// copyFile copies a single file, preserving its permission bits
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}

	_, err = io.Copy(dstFile, srcFile)
	if err == nil {
		err = dstFile.Sync()
	}
	if closeErr := dstFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst)
	}
	return err
}

// JoinAll maps names to moves from srcDir to dstDir, keeping the file names
func JoinAll(srcDir, dstDir string, names []string) []Move {
	moves := make([]Move, 0, len(names))
	for _, name := range names {
		moves = append(moves, Move{
			Source:      filepath.Join(srcDir, name),
			Destination: filepath.Join(dstDir, name),
		})
	}
	return moves
}
