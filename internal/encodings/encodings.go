package encodings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Kagami/go-face"
)

// ErrNotFound is returned by Load when the encodings file does not exist.
var ErrNotFound = errors.New("encodings file not found")

// Set is the known face descriptors and the name each one belongs to.
// Encodings and Names always have the same length.
type Set struct {
	Encodings []face.Descriptor `json:"encodings"`
	Names     []string          `json:"names"`
}

// Add appends one descriptor for name.
func (s *Set) Add(name string, d face.Descriptor) {
	s.Encodings = append(s.Encodings, d)
	s.Names = append(s.Names, name)
}

// Len reports the number of descriptors.
func (s *Set) Len() int {
	return len(s.Encodings)
}

// People reports how many descriptors each name has.
func (s *Set) People() map[string]int {
	out := make(map[string]int)
	for _, name := range s.Names {
		out[name]++
	}
	return out
}

// Load reads a set from path. On any error an empty set is returned along
// with the error; a missing file yields ErrNotFound.
func Load(path string) (*Set, error) {
	empty := &Set{Encodings: []face.Descriptor{}, Names: []string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return empty, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return empty, fmt.Errorf("read encodings: %w", err)
	}

	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return empty, fmt.Errorf("failed to load encodings: %w", err)
	}
	if len(set.Encodings) != len(set.Names) {
		return empty, fmt.Errorf("failed to load encodings: %d encodings but %d names", len(set.Encodings), len(set.Names))
	}
	return &set, nil
}

// Save writes set to path, replacing any existing file atomically.
func Save(path string, set *Set) error {
	if len(set.Encodings) != len(set.Names) {
		return fmt.Errorf("save encodings: %d encodings but %d names", len(set.Encodings), len(set.Names))
	}
	if set.Encodings == nil {
		set.Encodings = []face.Descriptor{}
	}
	if set.Names == nil {
		set.Names = []string{}
	}

	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal encodings: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create encodings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".encodings-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write encodings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close encodings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace encodings: %w", err)
	}
	return nil
}
