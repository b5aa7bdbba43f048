// Package validation checks file locations read from document headers
// before they are opened. A header names its primary text and standoff
// files relative to its own directory; a location must not escape it.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

// MaxPathLength is the maximum allowed location length.
const MaxPathLength = 4096

// Common validation errors.
var (
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
)

// ValidatePath checks a location for length limits and control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	for _, r := range path {
		if r == 0 || unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// SanitizePath cleans a location and ensures it stays inside baseDir.
// Returns the cleaned path relative to baseDir.
func SanitizePath(baseDir, userPath string) (string, error) {
	if err := ValidatePath(userPath); err != nil {
		return "", err
	}

	cleanPath := filepath.Clean(userPath)
	if filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("%w: absolute path not allowed", ErrPathTraversal)
	}
	if slices.Contains(strings.Split(filepath.ToSlash(cleanPath), "/"), "..") {
		return "", ErrPathTraversal
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(baseDir, cleanPath))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return cleanPath, nil
}

// ResolveLocation returns the path of a header location relative to the
// header's directory, rejecting locations that leave it.
func ResolveLocation(baseDir, loc string) (string, error) {
	clean, err := SanitizePath(baseDir, loc)
	if err != nil {
		return "", fmt.Errorf("location %q: %w", loc, err)
	}
	return filepath.Join(baseDir, clean), nil
}
