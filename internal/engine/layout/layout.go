// Package layout splits a window rectangle into named regions with a
// binary tree of fixed and flexible splits.
package layout

import (
	"errors"
	"fmt"
)

// Layout errors.
var (
	ErrNilNode       = errors.New("layout: nil node")
	ErrNegativeSize  = errors.New("layout: negative fixed size")
	ErrSharedNode    = errors.New("layout: node used more than once")
	ErrDuplicateName = errors.New("layout: duplicate leaf name")
)

// Orientation is the axis a split divides.
type Orientation uint8

const (
	// Horizontal divides the width; the first child is on the left.
	Horizontal Orientation = iota
	// Vertical divides the height; the first child is on top.
	Vertical
)

// FixedSide selects which child of a split has the fixed pixel size.
type FixedSide uint8

const (
	FixedFirst FixedSide = iota
	FixedSecond
)

// Rect is a pixel rectangle with a top-left origin.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= float64(r.X) && x < float64(r.X+r.W) &&
		y >= float64(r.Y) && y < float64(r.Y+r.H)
}

// Area returns W*H.
func (r Rect) Area() int { return r.W * r.H }

// String returns "WxH+X+Y".
func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.W, r.H, r.X, r.Y)
}

// Node is a leaf or a split. Nodes are immutable once built.
type Node struct {
	name string

	split       bool
	orientation Orientation
	fixed       FixedSide
	pixels      int
	first       *Node
	second      *Node
}

// Leaf creates a region. The name may be empty.
func Leaf(name string) *Node {
	return &Node{name: name}
}

// Split creates a node dividing its rectangle between first and second.
// The child on the fixed side gets pixels, saturated at the available
// extent; the other child gets the rest.
func Split(o Orientation, side FixedSide, pixels int, first, second *Node) *Node {
	return &Node{
		split:       true,
		orientation: o,
		fixed:       side,
		pixels:      pixels,
		first:       first,
		second:      second,
	}
}

// IsLeaf reports whether the node is a region.
func (n *Node) IsLeaf() bool { return !n.split }

// divide computes the children's rectangles.
func (n *Node) divide(r Rect) (Rect, Rect) {
	extent := r.W
	if n.orientation == Vertical {
		extent = r.H
	}
	extent = max(extent, 0)

	fixed := min(n.pixels, extent)
	size := fixed
	if n.fixed == FixedSecond {
		size = extent - fixed
	}

	if n.orientation == Horizontal {
		return Rect{X: r.X, Y: r.Y, W: size, H: r.H},
			Rect{X: r.X + size, Y: r.Y, W: extent - size, H: r.H}
	}
	return Rect{X: r.X, Y: r.Y, W: r.W, H: size},
		Rect{X: r.X, Y: r.Y + size, W: r.W, H: extent - size}
}

// Tree numbers the leaves of a node tree 0..N-1, depth first with the
// first child before the second.
type Tree struct {
	root    *Node
	regions map[*Node]int
	names   []string
	byName  map[string]int
}

// NewTree validates a node tree and assigns region IDs.
func NewTree(root *Node) (*Tree, error) {
	t := &Tree{
		root:    root,
		regions: make(map[*Node]int),
		byName:  make(map[string]int),
	}
	seen := make(map[*Node]bool)
	if err := t.index(root, seen); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) index(n *Node, seen map[*Node]bool) error {
	if n == nil {
		return ErrNilNode
	}
	if seen[n] {
		return ErrSharedNode
	}
	seen[n] = true

	if n.split {
		if n.pixels < 0 {
			return fmt.Errorf("%w: %d", ErrNegativeSize, n.pixels)
		}
		if err := t.index(n.first, seen); err != nil {
			return err
		}
		return t.index(n.second, seen)
	}

	id := len(t.names)
	if n.name != "" {
		if _, dup := t.byName[n.name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateName, n.name)
		}
		t.byName[n.name] = id
	}
	t.regions[n] = id
	t.names = append(t.names, n.name)
	return nil
}

// Len returns the number of regions.
func (t *Tree) Len() int { return len(t.names) }

// Region returns the region ID of a named leaf.
func (t *Tree) Region(name string) (int, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// Name returns a region's leaf name.
func (t *Tree) Name(region int) string {
	if region < 0 || region >= len(t.names) {
		return ""
	}
	return t.names[region]
}

// Walk calls fn once per region with its rectangle inside root.
func (t *Tree) Walk(root Rect, fn func(region int, r Rect)) {
	t.walk(t.root, root, fn)
}

func (t *Tree) walk(n *Node, r Rect, fn func(int, Rect)) {
	if !n.split {
		fn(t.regions[n], r)
		return
	}
	a, b := n.divide(r)
	t.walk(n.first, a, fn)
	t.walk(n.second, b, fn)
}

// Regions returns every region's rectangle indexed by region ID.
func (t *Tree) Regions(root Rect) []Rect {
	out := make([]Rect, t.Len())
	t.Walk(root, func(region int, r Rect) {
		out[region] = r
	})
	return out
}

// Locate returns the region containing the point. Points outside root
// resolve to the nearest region along each split axis.
func (t *Tree) Locate(root Rect, x, y float64) int {
	n, r := t.root, root
	for n.split {
		a, b := n.divide(r)
		var first bool
		if n.orientation == Horizontal {
			first = x < float64(a.X+a.W)
		} else {
			first = y < float64(a.Y+a.H)
		}
		if first {
			n, r = n.first, a
		} else {
			n, r = n.second, b
		}
	}
	return t.regions[n]
}
