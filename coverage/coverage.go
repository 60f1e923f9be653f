// Package coverage is the harness-side view of the generated point
// tables: it accumulates the bitmaps reported after each simulation run
// and reports the covered fraction and the points never reached.
package coverage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/xfuzz/hwcover/internal/manifest"
)

// ErrBitmapSize is returned when a bitmap does not match the table size.
var ErrBitmapSize = errors.New("coverage bitmap size mismatch")

// Map tracks one point table. It is safe for concurrent use.
type Map struct {
	name     string
	feedback bool
	names    []string

	mu          sync.RWMutex
	accumulated []bool
	runs        int
}

// New returns an empty map over the given point names.
func New(name string, names []string) *Map {
	return &Map{
		name:        name,
		names:       names,
		accumulated: make([]bool, len(names)),
	}
}

// Name returns the kind name of the table.
func (m *Map) Name() string { return m.name }

// Feedback reports whether the table drives fuzzer feedback.
func (m *Map) Feedback() bool { return m.feedback }

// Len returns the number of points.
func (m *Map) Len() int { return len(m.names) }

// Accumulate merges one run's bitmap: every non-zero byte marks its point
// as covered.
func (m *Map) Accumulate(bitmap []byte) error {
	if len(bitmap) != len(m.names) {
		return fmt.Errorf("%w: %s has %d points, bitmap has %d", ErrBitmapSize, m.name, len(m.names), len(bitmap))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range bitmap {
		if b != 0 {
			m.accumulated[i] = true
		}
	}
	m.runs++
	return nil
}

// Runs returns the number of accumulated bitmaps.
func (m *Map) Runs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runs
}

// Covered returns the number of points seen at least once.
func (m *Map) Covered() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.accumulated {
		if c {
			n++
		}
	}
	return n
}

// Percent returns the accumulated coverage in percent. An empty table is
// reported as 0.
func (m *Map) Percent() float64 {
	if len(m.names) == 0 {
		return 0
	}
	return 100 * float64(m.Covered()) / float64(len(m.names))
}

// Uncovered returns the names of points never seen, in index order.
func (m *Map) Uncovered() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for i, c := range m.accumulated {
		if !c {
			out = append(out, m.names[i])
		}
	}
	return out
}

// Display writes the accumulated coverage line.
func (m *Map) Display(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Total Coverage:       %.3f%%\n", m.Percent())
	return err
}

// Set holds every table of one instrumented circuit.
type Set struct {
	Top  string
	Maps []*Map
}

// Load reads a manifest and returns an empty map per kind.
func Load(r io.Reader) (*Set, error) {
	man, err := manifest.Decode(r)
	if err != nil {
		return nil, err
	}
	s := &Set{Top: man.Top}
	for _, k := range man.Kinds {
		m := New(k.Name, k.Points)
		m.feedback = k.Feedback
		s.Maps = append(s.Maps, m)
	}
	return s, nil
}

// LoadFile reads the manifest at path.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Map returns the table of kind name.
func (s *Set) Map(name string) (*Map, bool) {
	for _, m := range s.Maps {
		if m.name == name {
			return m, true
		}
	}
	return nil, false
}

// Feedback returns the feedback table. The first table is used when none
// is marked.
func (s *Set) Feedback() (*Map, bool) {
	for _, m := range s.Maps {
		if m.feedback {
			return m, true
		}
	}
	if len(s.Maps) > 0 {
		return s.Maps[0], true
	}
	return nil, false
}

// SetFeedback selects the feedback table by kind name.
func (s *Set) SetFeedback(name string) error {
	if _, ok := s.Map(name); !ok {
		return fmt.Errorf("no coverage table named %q", name)
	}
	for _, m := range s.Maps {
		m.feedback = m.name == name
	}
	return nil
}
