package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// editorTree is a 40px toolbar over a 200px sidebar beside the main view.
func editorTree(t *testing.T) *Tree {
	t.Helper()
	tree, err := NewTree(
		Split(Vertical, FixedFirst, 40,
			Leaf("toolbar"),
			Split(Horizontal, FixedFirst, 200,
				Leaf("sidebar"),
				Leaf("main"))))
	require.NoError(t, err)
	return tree
}

func TestRegions_Resize(t *testing.T) {
	tree := editorTree(t)
	require.Equal(t, 3, tree.Len())

	before := tree.Regions(Rect{W: 800, H: 600})
	assert.Equal(t, Rect{X: 0, Y: 0, W: 800, H: 40}, before[0])
	assert.Equal(t, Rect{X: 0, Y: 40, W: 200, H: 560}, before[1])
	assert.Equal(t, Rect{X: 200, Y: 40, W: 600, H: 560}, before[2])

	after := tree.Regions(Rect{W: 1024, H: 768})
	assert.Equal(t, Rect{X: 0, Y: 0, W: 1024, H: 40}, after[0])
	assert.Equal(t, Rect{X: 0, Y: 40, W: 200, H: 728}, after[1])
	assert.Equal(t, Rect{X: 200, Y: 40, W: 824, H: 728}, after[2])
}

func TestRegions_FixedSecond(t *testing.T) {
	tree, err := NewTree(
		Split(Horizontal, FixedSecond, 100, Leaf("view"), Leaf("inspector")))
	require.NoError(t, err)

	r := tree.Regions(Rect{X: 10, Y: 20, W: 500, H: 300})
	assert.Equal(t, Rect{X: 10, Y: 20, W: 400, H: 300}, r[0])
	assert.Equal(t, Rect{X: 410, Y: 20, W: 100, H: 300}, r[1])
}

func TestRegions_Clamp(t *testing.T) {
	tests := []struct {
		name  string
		side  FixedSide
		first Rect
		next  Rect
	}{
		{
			name:  "fixed first saturates",
			side:  FixedFirst,
			first: Rect{W: 150, H: 80},
			next:  Rect{X: 150, W: 0, H: 80},
		},
		{
			name:  "fixed second saturates",
			side:  FixedSecond,
			first: Rect{W: 0, H: 80},
			next:  Rect{W: 150, H: 80},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := NewTree(Split(Horizontal, tt.side, 300, Leaf("a"), Leaf("b")))
			require.NoError(t, err)

			r := tree.Regions(Rect{W: 150, H: 80})
			assert.Equal(t, tt.first, r[0])
			assert.Equal(t, tt.next, r[1])
		})
	}
}

func TestRegions_Partition(t *testing.T) {
	trees := map[string]*Node{
		"editor": Split(Vertical, FixedFirst, 40,
			Leaf(""),
			Split(Horizontal, FixedFirst, 200, Leaf(""), Leaf(""))),
		"quad": Split(Vertical, FixedSecond, 300,
			Split(Horizontal, FixedFirst, 320, Leaf(""), Leaf("")),
			Split(Horizontal, FixedSecond, 50, Leaf(""), Leaf(""))),
		"oversized": Split(Horizontal, FixedFirst, 5000,
			Leaf(""),
			Split(Vertical, FixedSecond, 9000, Leaf(""), Leaf(""))),
		"single": Leaf(""),
	}
	roots := []Rect{
		{W: 800, H: 600},
		{X: 13, Y: 7, W: 1024, H: 768},
		{W: 1, H: 1},
		{W: 0, H: 0},
		{W: 37, H: 4000},
	}

	for name, node := range trees {
		tree, err := NewTree(node)
		require.NoError(t, err, name)

		for _, root := range roots {
			rects := tree.Regions(root)

			area := 0
			for i, r := range rects {
				assert.GreaterOrEqual(t, r.W, 0, "%s %v region %d", name, root, i)
				assert.GreaterOrEqual(t, r.H, 0, "%s %v region %d", name, root, i)
				if r.Area() > 0 {
					assert.GreaterOrEqual(t, r.X, root.X)
					assert.GreaterOrEqual(t, r.Y, root.Y)
					assert.LessOrEqual(t, r.X+r.W, root.X+root.W)
					assert.LessOrEqual(t, r.Y+r.H, root.Y+root.H)
				}
				area += r.Area()

				for j := i + 1; j < len(rects); j++ {
					assert.False(t, overlaps(r, rects[j]), "%s %v: regions %d and %d overlap", name, root, i, j)
				}
			}
			// Contained and disjoint with equal area means the union is the root.
			assert.Equal(t, root.Area(), area, "%s %v", name, root)

			assert.Equal(t, rects, tree.Regions(root), "recomputing must be identical")
		}
	}
}

func overlaps(a, b Rect) bool {
	return a.X < b.X+b.W && b.X < a.X+a.W && a.Y < b.Y+b.H && b.Y < a.Y+a.H
}

func TestLocate(t *testing.T) {
	tree := editorTree(t)
	root := Rect{W: 800, H: 600}

	tests := []struct {
		x, y float64
		want string
	}{
		{x: 400, y: 10, want: "toolbar"},
		{x: 100, y: 300, want: "sidebar"},
		{x: 500, y: 300, want: "main"},
		{x: 199.9, y: 40, want: "sidebar"},
		{x: 200, y: 40, want: "main"},
		{x: 0, y: 39.99, want: "toolbar"},
		{x: -50, y: 900, want: "sidebar"},
		{x: 5000, y: -3, want: "toolbar"},
	}

	for _, tt := range tests {
		got := tree.Locate(root, tt.x, tt.y)
		assert.Equal(t, tt.want, tree.Name(got), "point (%v, %v)", tt.x, tt.y)
	}

	// Every point inside a region locates back to that region.
	for id, r := range tree.Regions(root) {
		cx := float64(r.X) + float64(r.W)/2
		cy := float64(r.Y) + float64(r.H)/2
		assert.True(t, r.Contains(cx, cy))
		assert.Equal(t, id, tree.Locate(root, cx, cy))
	}
}

func TestWalk_VisitsEachRegionOnce(t *testing.T) {
	tree := editorTree(t)

	visits := make(map[int]int)
	tree.Walk(Rect{W: 1024, H: 768}, func(region int, r Rect) {
		visits[region]++
	})

	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 1}, visits)
}

func TestNames(t *testing.T) {
	tree := editorTree(t)

	id, ok := tree.Region("main")
	require.True(t, ok)
	assert.Equal(t, 2, id)
	assert.Equal(t, "main", tree.Name(id))

	_, ok = tree.Region("nope")
	assert.False(t, ok)
	assert.Equal(t, "", tree.Name(99))
}

func TestNewTree_Errors(t *testing.T) {
	shared := Leaf("x")

	tests := []struct {
		name string
		root *Node
		want error
	}{
		{name: "nil root", root: nil, want: ErrNilNode},
		{name: "nil child", root: Split(Vertical, FixedFirst, 10, Leaf("a"), nil), want: ErrNilNode},
		{name: "negative", root: Split(Vertical, FixedFirst, -1, Leaf("a"), Leaf("b")), want: ErrNegativeSize},
		{name: "shared", root: Split(Vertical, FixedFirst, 10, shared, shared), want: ErrSharedNode},
		{name: "duplicate name", root: Split(Vertical, FixedFirst, 10, Leaf("a"), Leaf("a")), want: ErrDuplicateName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTree(tt.root)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
