package recognizer

import (
	"errors"
	"fmt"
	"math"

	"github.com/Kagami/go-face"
)

// Unknown is the name given to faces that match nobody.
const Unknown = "Unknown"

// ErrNoSamples is returned when a matcher is built without known faces.
var ErrNoSamples = errors.New("no known face encodings")

// Match is the outcome of comparing one descriptor with the known set.
type Match struct {
	Name  string
	Votes int
	// Distance is the smallest distance among the winning name's samples,
	// or to the nearest sample overall when the face is unknown.
	Distance float64
}

// Matcher names descriptors by majority vote over known samples.
type Matcher struct {
	known     []face.Descriptor
	names     []string
	tolerance float64
}

// NewMatcher builds a matcher. known and names are parallel slices.
func NewMatcher(known []face.Descriptor, names []string, tolerance float64) (*Matcher, error) {
	if len(known) != len(names) {
		return nil, fmt.Errorf("encodings and names differ in length: %d != %d", len(known), len(names))
	}
	if len(known) == 0 {
		return nil, ErrNoSamples
	}
	if tolerance <= 0 {
		return nil, fmt.Errorf("tolerance must be positive, got %v", tolerance)
	}
	return &Matcher{known: known, names: names, tolerance: tolerance}, nil
}

// Distance is the euclidean distance between two descriptors.
func Distance(a, b face.Descriptor) float64 {
	return math.Sqrt(face.SquaredEuclideanDistance(a, b))
}

// Match compares d with every known sample. Samples within tolerance vote
// for their name; the name with most votes wins, and ties go to the name
// whose first vote came earliest in the sample list.
func (m *Matcher) Match(d face.Descriptor) Match {
	votes := make(map[string]int)
	best := make(map[string]float64)
	var order []string
	nearest := math.Inf(1)

	for i, sample := range m.known {
		dist := Distance(sample, d)
		if dist < nearest {
			nearest = dist
		}
		if dist > m.tolerance {
			continue
		}
		name := m.names[i]
		if _, ok := votes[name]; !ok {
			order = append(order, name)
			best[name] = dist
		}
		votes[name]++
		if dist < best[name] {
			best[name] = dist
		}
	}

	if len(order) == 0 {
		return Match{Name: Unknown, Distance: nearest}
	}

	winner := order[0]
	for _, name := range order[1:] {
		if votes[name] > votes[winner] {
			winner = name
		}
	}
	return Match{Name: winner, Votes: votes[winner], Distance: best[winner]}
}

// Len reports the number of known samples.
func (m *Matcher) Len() int {
	return len(m.known)
}
