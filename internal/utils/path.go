// Package utils provides file and path helpers shared by the stores and the
// snapshot writer.
package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveForWrite follows a symlinked state file so the atomic rename
// replaces the target instead of the link. Missing paths are returned as-is.
func ResolveForWrite(path string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return filepath.EvalSymlinks(path)
	}
	return path, nil
}

// CanonicalizePath returns path made absolute with symlinks resolved. It
// falls back to the absolute form, then to path itself, when a step fails.
func CanonicalizePath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	canonical, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return absPath
	}

	return canonical
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
