package assets

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/lightshow/internal/engine/texture"
)

// Vertex is the GPU vertex layout: 14 tightly packed float32.
type Vertex struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec3
	TexCoord  mgl32.Vec2
	Tangent   mgl32.Vec3
	Bitangent mgl32.Vec3
}

// VertexSize is the size of one Vertex in bytes.
const VertexSize = 14 * 4

// SubMesh is the triangle list drawn with one material.
type SubMesh struct {
	MaterialIndex int
	Indices       []uint32
}

// Mesh groups a model's sub-meshes.
type Mesh struct {
	Name      string
	SubMeshes []SubMesh
}

// IndexCount returns the total number of indices over all sub-meshes.
func (m *Mesh) IndexCount() int {
	n := 0
	for i := range m.SubMeshes {
		n += len(m.SubMeshes[i].Indices)
	}
	return n
}

// Texture is a material texture slot.
type Texture struct {
	// Source is the resolved file path, empty when the slot uses a constant.
	Source string
	// Image is nil when the file was missing or could not be decoded.
	Image *texture.Image
}

// Uses reports whether the material samples this texture instead of a constant.
func (t Texture) Uses() bool { return t.Source != "" }

// Loaded reports whether pixel data is available for upload.
func (t Texture) Loaded() bool { return t.Image != nil }

// Material holds PBR constants and their optional texture overrides.
type Material struct {
	Name string

	Albedo    mgl32.Vec3
	Roughness float32
	Metallic  float32

	AlbedoTexture    Texture
	RoughnessTexture Texture
	MetallicTexture  Texture
	NormalMap        Texture
}

// DefaultMaterial is used for faces that reference no material.
func DefaultMaterial() Material {
	return Material{
		Name:      "default",
		Albedo:    mgl32.Vec3{1, 1, 1},
		Roughness: 0.5,
		Metallic:  0,
	}
}

// Model is an imported mesh with its materials.
type Model struct {
	ID        ID
	Vertices  []Vertex
	Materials []Material
	Mesh      Mesh
	Bounds    Bounds
}

// Shader is an unevaluated vertex and fragment source pair.
type Shader struct {
	ID             ID
	VertexSource   string
	FragmentSource string
	VertexPath     string
	FragmentPath   string
}
