package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CanonicalPath returns p as an absolute path with symlinks resolved. For a
// path that does not exist yet, the longest existing ancestor is resolved
// and the missing components are appended, so a new file under a symlinked
// directory still canonicalises to its real location.
func CanonicalPath(p string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rest, _ := filepath.Rel(dir, abs)
			return filepath.Join(resolved, rest), nil
		}
		if filepath.Dir(dir) == dir {
			return abs, nil
		}
	}
}

// WithinDirectory returns an error if path resolves outside dir.
func WithinDirectory(path, dir string) error {
	canonicalPath, err := CanonicalPath(path)
	if err != nil {
		return err
	}
	canonicalDir, err := CanonicalPath(dir)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(canonicalDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("path is outside %s: %w", dir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path traversal detected: %s escapes %s", path, dir)
	}
	return nil
}

// WithinAnyDirectory returns nil if path resolves inside one of dirs.
func WithinAnyDirectory(path string, dirs []string) error {
	if len(dirs) == 0 {
		return fmt.Errorf("no allowed directories specified")
	}
	for _, dir := range dirs {
		if WithinDirectory(path, dir) == nil {
			return nil
		}
	}
	return fmt.Errorf("%s must be within one of %v", path, dirs)
}

// ValidateOutputPath checks a path the CLI is about to write. It must sit
// under the working directory or the temp directory, and it must not
// resolve to any of the inputs: a run never overwrites its own point file.
func ValidateOutputPath(path string, inputs ...string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	if err := WithinAnyDirectory(path, []string{cwd, os.TempDir()}); err != nil {
		return err
	}
	out, err := CanonicalPath(path)
	if err != nil {
		return err
	}
	for _, in := range inputs {
		if in == "" {
			continue
		}
		c, err := CanonicalPath(in)
		if err != nil {
			return err
		}
		if c == out {
			return fmt.Errorf("output %s would overwrite input %s", path, in)
		}
	}
	return nil
}

// SanitizeFilename reduces s to ASCII letters, digits, '.', '_' and '-',
// collapsing every other run of characters to a single underscore. The
// result is at most 128 bytes and never empty.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	underscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
			underscore = r == '_'
		case !underscore:
			b.WriteByte('_')
			underscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
