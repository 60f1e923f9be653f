package cover

import (
	"fmt"
	"strings"

	"github.com/xfuzz/hwcover/ir"
)

type descKey struct {
	kind  ir.CoverKind
	width int
}

// Descriptor is the probe module shared by every site of one
// (kind, width) pair.
type Descriptor struct {
	Kind  ir.CoverKind
	Width int

	// DefName is the name of the generated probe module body.
	DefName string

	// Base is the first index of this descriptor inside its kind's point
	// array. It is assigned once all sites are known.
	Base int

	// Total is the number of points over all sites.
	Total int

	Sites []*Site
}

// Site is one covered binding: a contiguous range of points inside its
// descriptor.
type Site struct {
	Descriptor *Descriptor
	Offset     int
	Points     int
	Module     string
	Name       string // binding name, the point source text
	Info       string
}

// Index returns the first point index of the site inside its kind array.
func (s *Site) Index() int {
	return s.Descriptor.Base + s.Offset
}

// PointNames returns one human-readable name per point of the site.
func (s *Site) PointNames() []string {
	prefix := s.Module + "." + s.Name
	if s.Points == 1 && s.Descriptor.Kind != ir.CoverMultibit {
		return []string{prefix}
	}
	names := make([]string, s.Points)
	for i := range names {
		if s.Descriptor.Kind == ir.CoverMultibit {
			names[i] = fmt.Sprintf("%s[%d]", prefix, i)
		} else {
			names[i] = fmt.Sprintf("%s == %d", prefix, i)
		}
	}
	return names
}

// Transition reports whether the probe compares against the previous
// value rather than using the value as an index.
func (d *Descriptor) Transition() bool {
	return d.Kind == ir.CoverMultibit || (d.Kind == ir.CoverNormal && d.Width == 1)
}

func (d *Descriptor) addSite(points int, req *PointRequest) *Site {
	s := &Site{
		Descriptor: d,
		Offset:     d.Total,
		Points:     points,
		Module:     req.Module,
		Name:       req.Name,
		Info:       req.Node.Info,
	}
	d.Sites = append(d.Sites, s)
	d.Total += points
	return s
}

func defName(kind ir.CoverKind, width int) string {
	k := kind.String()
	return fmt.Sprintf("Cover%s%s_%d", strings.ToUpper(k[:1]), k[1:], width)
}

// descriptor returns the descriptor of (kind, width), creating it on
// first use.
func (c *Context) descriptor(kind ir.CoverKind, width int) *Descriptor {
	key := descKey{kind: kind, width: width}
	if d, ok := c.descByKey[key]; ok {
		return d
	}
	d := &Descriptor{
		Kind:    kind,
		Width:   width,
		DefName: c.modules.Fresh(defName(kind, width)),
	}
	c.descByKey[key] = d
	c.Descriptors = append(c.Descriptors, d)
	return d
}

// KindTotal returns the number of points of one kind.
func (c *Context) KindTotal(kind ir.CoverKind) int {
	total := 0
	for _, d := range c.Descriptors {
		if d.Kind == kind {
			total += d.Total
		}
	}
	return total
}

// UsedKinds returns the kinds with at least one descriptor, in declaration
// order.
func (c *Context) UsedKinds() []ir.CoverKind {
	var kinds []ir.CoverKind
	for _, k := range ir.AllCoverKinds {
		for _, d := range c.Descriptors {
			if d.Kind == k {
				kinds = append(kinds, k)
				break
			}
		}
	}
	return kinds
}

// Sites returns every site in index order: kind by kind, and inside a kind
// by descriptor base then offset.
func (c *Context) Sites() []*Site {
	var out []*Site
	for _, k := range ir.AllCoverKinds {
		for _, d := range c.Descriptors {
			if d.Kind == k {
				out = append(out, d.Sites...)
			}
		}
	}
	return out
}
