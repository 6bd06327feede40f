package sysfs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/sigreer/amdem/internal/logging"
)

// EMBufferName is the enclosure-management buffer attribute exposed by
// AHCI controllers that support it.
const EMBufferName = "em_buffer"

// nameMax is the longest single path component the kernel accepts.
const nameMax = 255

func logger() *slog.Logger {
	return logging.GetLogger("sysfs")
}

// Join joins path elements like filepath.Join but refuses to build a path
// that would not fit in PATH_MAX, or that has a component longer than
// NAME_MAX, instead of truncating it.
func Join(elem ...string) (string, error) {
	for _, e := range elem {
		for _, part := range strings.Split(e, "/") {
			if len(part) > nameMax {
				return "", fmt.Errorf("%w: %d byte component exceeds NAME_MAX", ErrNameTooLong, len(part))
			}
		}
	}

	p := filepath.Join(elem...)
	if len(p) >= unix.PathMax {
		return "", fmt.Errorf("%w: %d bytes exceeds PATH_MAX", ErrNameTooLong, len(p))
	}
	return p, nil
}

// FindPath walks root depth-first in directory order and returns the
// directory containing the first entry whose name starts with prefix.
// Symlinks are never followed.
func FindPath(root, prefix string) (string, error) {
	dir, ok := findPath(root, prefix)
	if !ok {
		return "", fmt.Errorf("%w: no %q entry under %s", ErrNotFound, prefix, root)
	}
	return dir, nil
}

func findPath(root, prefix string) (string, bool) {
	entries, err := os.ReadDir(root)
	if err != nil {
		logger().Info("Failed to scan directory", "path", root, "error", err)
		return "", false
	}

	for _, entry := range entries {
		path, err := Join(root, entry.Name())
		if err != nil {
			logger().Debug("Skipping entry", "dir", root, "error", err)
			continue
		}

		if strings.HasPrefix(entry.Name(), prefix) {
			return filepath.Dir(path), true
		}

		// DirEntry type comes from lstat, so symlinked directories are skipped
		if entry.IsDir() {
			if dir, ok := findPath(path, prefix); ok {
				return dir, true
			}
		}
	}

	return "", false
}

// EMBufferPath returns the enclosure-management buffer path for a
// controller.
func EMBufferPath(controllerPath string) (string, error) {
	dir, err := FindPath(controllerPath, EMBufferName)
	if err != nil {
		logger().Error("Couldn't find EM buffer", "controller", controllerPath)
		return "", err
	}
	return Join(dir, EMBufferName)
}

// ReadText reads a sysfs attribute and returns it without surrounding
// whitespace.
func ReadText(dir, name string) (string, error) {
	path, err := Join(dir, name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
