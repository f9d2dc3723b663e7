package external

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PathSandbox confines sample-loading paths to a configured base directory
// (documents/subsamples or documents/Drums/<pack>), rejecting any path that
// cleans to a location outside it via ".." traversal. The check is lexical:
// symlinks are not resolved, so a symlink under the base that points outside
// it is not rejected.
type PathSandbox struct {
	base string
}

// NewPathSandbox creates a sandbox rooted at base, which need not exist yet.
func NewPathSandbox(base string) (*PathSandbox, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("external: resolve sandbox base %q: %w", base, err)
	}
	return &PathSandbox{base: filepath.Clean(abs)}, nil
}

// Resolve canonicalizes path relative to the sandbox base and returns it,
// or an error if it escapes the base directory.
func (s *PathSandbox) Resolve(path string) (string, error) {
	joined := filepath.Join(s.base, path)
	clean := filepath.Clean(joined)

	rel, err := filepath.Rel(s.base, clean)
	if err != nil {
		return "", fmt.Errorf("external: path %q does not resolve under sandbox: %w", path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("external: path %q escapes sandbox base %q", path, s.base)
	}
	return clean, nil
}
