package ir

import (
	"fmt"
	"strings"
)

// CoverKind selects how the value of a binding maps to cover points.
type CoverKind int

const (
	// CoverNormal is one point per distinct binary-encoded value. A
	// single-bit binding is a transition detector with one point.
	CoverNormal CoverKind = iota
	// CoverRaw uses the value as the point index; the point count is
	// supplied with the request.
	CoverRaw
	// CoverMultibit is one independent transition point per bit.
	CoverMultibit
)

// AllCoverKinds lists kinds in declaration order.
var AllCoverKinds = []CoverKind{CoverNormal, CoverRaw, CoverMultibit}

func (k CoverKind) String() string {
	switch k {
	case CoverNormal:
		return "normal"
	case CoverRaw:
		return "raw"
	case CoverMultibit:
		return "multibit"
	default:
		return fmt.Sprintf("CoverKind(%d)", k)
	}
}

// ParseCoverKind parses the String form of a kind.
func ParseCoverKind(s string) (CoverKind, error) {
	for _, k := range AllCoverKinds {
		if strings.EqualFold(k.String(), s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown cover kind %q", s)
}

// CoverTarget names a binding inside a module.
type CoverTarget struct {
	Module string
	Name   string
}

func (t CoverTarget) String() string {
	return t.Module + "." + t.Name
}

// CoverRequest asks for one cover site on a target. Points is only used by
// CoverRaw.
type CoverRequest struct {
	Kind   CoverKind
	Points int
}

// CoverTable is the side-table of cover requests keyed by target. Each
// entry is consumed exactly once by Take.
type CoverTable struct {
	entries map[CoverTarget][]CoverRequest

	// order holds targets in insertion order. A slot is live while slot
	// records its position; Take only drops the slot entry and order is
	// compacted once dead slots outnumber live ones.
	order []CoverTarget
	slot  map[CoverTarget]int
	dead  int
	n     int
}

// NewCoverTable returns an empty table.
func NewCoverTable() *CoverTable {
	return &CoverTable{
		entries: make(map[CoverTarget][]CoverRequest),
		slot:    make(map[CoverTarget]int),
	}
}

// Add appends a request for target. Insertion order of targets is kept.
func (t *CoverTable) Add(target CoverTarget, req CoverRequest) {
	if _, ok := t.entries[target]; !ok {
		t.slot[target] = len(t.order)
		t.order = append(t.order, target)
	}
	t.entries[target] = append(t.entries[target], req)
	t.n++
}

// Take removes and returns the requests for target.
func (t *CoverTable) Take(target CoverTarget) ([]CoverRequest, bool) {
	reqs, ok := t.entries[target]
	if !ok {
		return nil, false
	}
	delete(t.entries, target)
	delete(t.slot, target)
	t.n -= len(reqs)
	t.dead++
	if t.dead > len(t.slot) {
		t.compact()
	}
	return reqs, true
}

func (t *CoverTable) compact() {
	live := t.order[:0]
	for i, target := range t.order {
		if t.live(i, target) {
			t.slot[target] = len(live)
			live = append(live, target)
		}
	}
	clear(t.order[len(live):])
	t.order = live
	t.dead = 0
}

func (t *CoverTable) live(i int, target CoverTarget) bool {
	pos, ok := t.slot[target]
	return ok && pos == i
}

// Has reports whether target still has pending requests.
func (t *CoverTable) Has(target CoverTarget) bool {
	_, ok := t.entries[target]
	return ok
}

// Pending returns the targets not yet consumed, in insertion order.
func (t *CoverTable) Pending() []CoverTarget {
	out := make([]CoverTarget, 0, len(t.slot))
	for i, target := range t.order {
		if t.live(i, target) {
			out = append(out, target)
		}
	}
	return out
}

// Len returns the number of pending requests.
func (t *CoverTable) Len() int {
	return t.n
}

// Modules returns the modules that own pending targets, in first-seen
// order.
func (t *CoverTable) Modules() []string {
	var mods []string
	seen := make(map[string]bool)
	for _, target := range t.Pending() {
		if !seen[target.Module] {
			seen[target.Module] = true
			mods = append(mods, target.Module)
		}
	}
	return mods
}
