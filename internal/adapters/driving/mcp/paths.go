package mcp

import (
	"fmt"
	"path/filepath"
	"strings"
)

// checkUnderRoots reports whether path, after resolving symlinks, lies
// under one of roots.
func checkUnderRoots(path string, roots []string) error {
	target, err := realPath(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	for _, root := range roots {
		base, err := realPath(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(base, target)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrPathOutsideRoots, path)
}

// realPath returns the absolute form of p with symlinks resolved.
// A path that does not exist yet is returned cleaned but unresolved.
func realPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
