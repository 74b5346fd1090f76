package utils

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrPathEscapesRoot is returned when a user-supplied path would resolve
// outside the server's filesystem root.
var ErrPathEscapesRoot = errors.New("path escapes server root")

// SecureJoin safely joins root and userPath ensuring the result remains within root.
// It returns a cleaned path or an error if traversal outside root is detected.
// root should be an absolute path. userPath may be relative; empty input returns root.
func SecureJoin(root, userPath string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", errors.New("root required")
	}
	cleanRoot := filepath.Clean(root)
	if strings.TrimSpace(userPath) == "" {
		return cleanRoot, nil
	}
	up := filepath.Clean(userPath)
	// Absolute input is treated as relative to the root, never as a takeover.
	if filepath.IsAbs(up) {
		up = strings.TrimPrefix(up, string(filepath.Separator))
	}
	candidate := filepath.Join(cleanRoot, up)
	rel, err := filepath.Rel(cleanRoot, candidate)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathEscapesRoot
	}
	return candidate, nil
}

// Slugify normalizes a display name into a lowercase hyphen-separated id.
func Slugify(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastHyphen := true
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
