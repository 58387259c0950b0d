// Package dataset manages the on-disk layout of collected face images:
// one directory per person, holding that person's captures.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/amirhossein5/faceattend/internal/recognizer"
)

// ErrInvalidName is returned for names that cannot be used as a directory.
var ErrInvalidName = errors.New("invalid person name")

// People returns the names of the person directories in dir, sorted.
func People(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dataset directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ValidateName checks that name is non-empty, safe as a single path element,
// and not the label given to unmatched faces.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	case trimmed == "." || trimmed == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(trimmed, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case trimmed == recognizer.Unknown:
		return fmt.Errorf("%w: %q is reserved for unmatched faces", ErrInvalidName, name)
	}
	return nil
}

// EnsurePerson creates dir/name and returns its path.
func EnsurePerson(dir, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	path := filepath.Join(dir, strings.TrimSpace(name))
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("create person directory: %w", err)
	}
	return path, nil
}

// NextImagePath returns personDir/<name>_<n>.jpg with n one past the highest
// existing capture number, so later sessions add to earlier captures instead
// of replacing them. Gaps in the numbering are not refilled.
func NextImagePath(personDir, name string) (string, error) {
	entries, err := os.ReadDir(personDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read person directory: %w", err)
	}

	prefix := name + "_"
	next := 0
	for _, entry := range entries {
		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if !strings.HasPrefix(base, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(base, prefix))
		if err != nil || n < 0 {
			continue
		}
		if n >= next {
			next = n + 1
		}
	}
	return filepath.Join(personDir, fmt.Sprintf("%s_%d.jpg", name, next)), nil
}
