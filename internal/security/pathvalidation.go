// Package security keeps generated photometric files inside the directory the
// user asked for.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideDirectory is wrapped by the checks in this package when a path
// would land outside its base directory.
var ErrOutsideDirectory = errors.New("path escapes output directory")

// ValidatePathWithinDirectory checks that filePath resolves inside safeDir on
// the real filesystem. Symlinks are resolved for the deepest existing parent,
// so a link inside safeDir that points elsewhere is rejected. safeDir must
// exist.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}

	canonicalPath := absPath
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		canonicalPath = resolved
	} else {
		// The file does not exist yet: resolve the nearest existing parent,
		// which catches out/evil-link/new.ldt with evil-link -> /etc.
		for check := absPath; ; {
			parent := filepath.Dir(check)
			if parent == check {
				break
			}
			if resolved, err := filepath.EvalSymlinks(parent); err == nil {
				rel, _ := filepath.Rel(parent, absPath)
				canonicalPath = filepath.Join(resolved, rel)
				break
			}
			check = parent
		}
	}

	canonicalSafeDir, err := filepath.EvalSymlinks(absSafeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory symlinks: %w", err)
	}
	if !WithinDirectory(canonicalPath, canonicalSafeDir) {
		return fmt.Errorf("%w: %s is outside %s", ErrOutsideDirectory, filePath, safeDir)
	}
	return nil
}

// WithinDirectory reports whether path lies inside dir after lexical
// cleaning. It does not touch the filesystem, so it works for in-memory
// trees too.
func WithinDirectory(path, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// JoinWithin joins rel onto dir and fails if the result escapes dir.
func JoinWithin(dir, rel string) (string, error) {
	out := filepath.Join(dir, rel)
	if !WithinDirectory(out, dir) {
		return "", fmt.Errorf("%w: %s", ErrOutsideDirectory, rel)
	}
	return out, nil
}

// SanitizeFilename turns a luminaire name or catalogue number into a safe
// file name stem. Anything but ASCII letters, digits, dot, underscore and
// dash becomes a single underscore; the result is at most 128 bytes and never
// empty.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
