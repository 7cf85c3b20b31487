package assets

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/lightshow/pkg/formats"
)

// vertexKey identifies a unique combination of source attributes.
// Absent attributes are -1.
type vertexKey struct {
	pos, normal, uv int
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the middle of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extent along each axis.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// meshBuild accumulates the reindexed output of an OBJ.
type meshBuild struct {
	obj      *formats.OBJ
	vertices []Vertex
	lookup   map[vertexKey]uint32

	// subMeshes[i] belongs to source material i; the last entry is the
	// default sub-mesh when defaultUsed.
	subMeshes   []SubMesh
	defaultUsed bool
}

// buildMesh reindexes an OBJ into unique vertices grouped by material.
// Every triangle's tangent and bitangent are summed onto each of its corners.
// The bool result reports whether any face needed the default material.
func buildMesh(obj *formats.OBJ) ([]Vertex, []SubMesh, bool) {
	b := &meshBuild{
		obj:       obj,
		lookup:    make(map[vertexKey]uint32),
		subMeshes: make([]SubMesh, len(obj.Materials)+1),
	}
	for i := range b.subMeshes {
		b.subMeshes[i].MaterialIndex = i
	}

	for s := range obj.Shapes {
		shape := &obj.Shapes[s]
		for t := 0; t < shape.NumTriangles(); t++ {
			corners := shape.Indices[t*3 : t*3+3]
			sub := b.subMeshFor(shape.MaterialIDs[t])

			tangent, bitangent := b.triangleTangent(corners)
			for _, c := range corners {
				idx := b.vertexFor(c, tangent, bitangent)
				sub.Indices = append(sub.Indices, idx)
			}
		}
	}

	subMeshes := b.subMeshes
	if !b.defaultUsed {
		subMeshes = subMeshes[:len(subMeshes)-1]
	}
	return b.vertices, subMeshes, b.defaultUsed
}

// subMeshFor returns the sub-mesh of a material, routing -1 and out of
// range indices to the default sub-mesh.
func (b *meshBuild) subMeshFor(material int) *SubMesh {
	if material < 0 || material >= len(b.obj.Materials) {
		b.defaultUsed = true
		return &b.subMeshes[len(b.subMeshes)-1]
	}
	return &b.subMeshes[material]
}

// vertexFor returns the output index for a face corner, creating the vertex
// on first sight and accumulating the tangent frame otherwise.
func (b *meshBuild) vertexFor(c formats.OBJIndex, tangent, bitangent mgl32.Vec3) uint32 {
	key := vertexKey{pos: c.Vertex, normal: c.Normal, uv: c.TexCoord}
	if idx, ok := b.lookup[key]; ok {
		v := &b.vertices[idx]
		v.Tangent = v.Tangent.Add(tangent)
		v.Bitangent = v.Bitangent.Add(bitangent)
		return idx
	}

	idx := uint32(len(b.vertices))
	b.lookup[key] = idx
	b.vertices = append(b.vertices, Vertex{
		Position:  b.position(c.Vertex),
		Normal:    b.normal(c.Normal),
		TexCoord:  b.texCoord(c.TexCoord),
		Tangent:   tangent,
		Bitangent: bitangent,
	})
	return idx
}

// triangleTangent solves the edge/UV-delta system for one triangle.
// Degenerate or missing UVs give a zero frame.
func (b *meshBuild) triangleTangent(corners []formats.OBJIndex) (mgl32.Vec3, mgl32.Vec3) {
	p0 := b.position(corners[0].Vertex)
	p1 := b.position(corners[1].Vertex)
	p2 := b.position(corners[2].Vertex)
	uv0 := b.texCoord(corners[0].TexCoord)
	uv1 := b.texCoord(corners[1].TexCoord)
	uv2 := b.texCoord(corners[2].TexCoord)

	edge1 := p1.Sub(p0)
	edge2 := p2.Sub(p0)
	du1, dv1 := uv1[0]-uv0[0], uv1[1]-uv0[1]
	du2, dv2 := uv2[0]-uv0[0], uv2[1]-uv0[1]

	det := du1*dv2 - dv1*du2
	if det == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	r := 1 / det

	tangent := edge1.Mul(dv2).Sub(edge2.Mul(dv1)).Mul(r)
	bitangent := edge2.Mul(du1).Sub(edge1.Mul(du2)).Mul(r)
	return tangent, bitangent
}

func (b *meshBuild) position(i int) mgl32.Vec3 {
	if i < 0 {
		return mgl32.Vec3{}
	}
	p := b.obj.Positions[i*3:]
	return mgl32.Vec3{p[0], p[1], p[2]}
}

func (b *meshBuild) normal(i int) mgl32.Vec3 {
	if i < 0 {
		return mgl32.Vec3{}
	}
	n := b.obj.Normals[i*3:]
	return mgl32.Vec3{n[0], n[1], n[2]}
}

func (b *meshBuild) texCoord(i int) mgl32.Vec2 {
	if i < 0 {
		return mgl32.Vec2{}
	}
	t := b.obj.TexCoords[i*2:]
	return mgl32.Vec2{t[0], t[1]}
}

// computeBounds returns the bounding box of the vertex positions.
func computeBounds(vertices []Vertex) Bounds {
	if len(vertices) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: vertices[0].Position, Max: vertices[0].Position}
	for i := range vertices[1:] {
		p := vertices[i+1].Position
		for k := 0; k < 3; k++ {
			b.Min[k] = min(b.Min[k], p[k])
			b.Max[k] = max(b.Max[k], p[k])
		}
	}
	return b
}
