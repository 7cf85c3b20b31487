package gpu

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/lightshow/internal/assets"
	"github.com/Faultbox/lightshow/internal/logger"
)

// IndexBuffer is one uploaded sub-mesh. Buffer is zero for empty sub-meshes.
type IndexBuffer struct {
	Buffer        Buffer
	Count         int
	MaterialIndex int
}

// Material is a material's constants plus its uploaded textures. A zero
// texture means the constant is used.
type Material struct {
	Albedo    mgl32.Vec3
	Roughness float32
	Metallic  float32

	AlbedoTexture    Texture
	RoughnessTexture Texture
	MetallicTexture  Texture
	NormalMap        Texture
}

// Textures returns the material's texture slots in texture-unit order.
func (m *Material) Textures() [4]Texture {
	return [4]Texture{m.AlbedoTexture, m.RoughnessTexture, m.MetallicTexture, m.NormalMap}
}

// ModelHandle is the GPU-resident form of a Model.
type ModelHandle struct {
	VertexArray  VertexArray
	VertexBuffer Buffer
	VertexCount  int
	SubMeshes    []IndexBuffer
	Materials    []Material
}

// Cache maps asset IDs to uploaded GPU objects.
type Cache struct {
	device   Device
	models   map[assets.ID]*ModelHandle
	programs map[assets.ID]Program
}

// NewCache creates an empty cache uploading through device.
func NewCache(device Device) *Cache {
	return &Cache{
		device:   device,
		models:   make(map[assets.ID]*ModelHandle),
		programs: make(map[assets.ID]Program),
	}
}

// Device returns the device the cache uploads through.
func (c *Cache) Device() Device {
	return c.device
}

// UploadModel uploads vertices, per-sub-mesh indices and every material
// texture that carries pixel data. Uploading an ID again replaces the
// previous handles.
func (c *Cache) UploadModel(m *assets.Model) *ModelHandle {
	c.Release(m.ID)

	h := &ModelHandle{VertexCount: len(m.Vertices)}
	h.VertexArray, h.VertexBuffer = c.device.CreateVertexArray(m.Vertices)

	h.SubMeshes = make([]IndexBuffer, len(m.Mesh.SubMeshes))
	for i, sm := range m.Mesh.SubMeshes {
		h.SubMeshes[i] = IndexBuffer{MaterialIndex: sm.MaterialIndex, Count: len(sm.Indices)}
		if len(sm.Indices) > 0 {
			h.SubMeshes[i].Buffer = c.device.CreateIndexBuffer(sm.Indices)
		}
	}

	h.Materials = make([]Material, len(m.Materials))
	for i := range m.Materials {
		src := &m.Materials[i]
		h.Materials[i] = Material{
			Albedo:           src.Albedo,
			Roughness:        src.Roughness,
			Metallic:         src.Metallic,
			AlbedoTexture:    c.uploadTexture(m.ID, src.Name, src.AlbedoTexture),
			RoughnessTexture: c.uploadTexture(m.ID, src.Name, src.RoughnessTexture),
			MetallicTexture:  c.uploadTexture(m.ID, src.Name, src.MetallicTexture),
			NormalMap:        c.uploadTexture(m.ID, src.Name, src.NormalMap),
		}
	}

	c.models[m.ID] = h

	logger.Debug("model uploaded",
		zap.Stringer("id", m.ID),
		zap.Int("vertices", h.VertexCount),
		zap.Int("submeshes", len(h.SubMeshes)),
		zap.Int("materials", len(h.Materials)))

	return h
}

func (c *Cache) uploadTexture(id assets.ID, material string, t assets.Texture) Texture {
	if !t.Loaded() {
		return 0
	}
	img := t.Image
	format, err := FormatFor(img.Channels, img.BitDepth)
	if err != nil {
		logger.Warn("texture format fallback",
			zap.Stringer("model", id),
			zap.String("material", material),
			zap.String("source", t.Source),
			zap.Stringer("format", format),
			zap.Error(err))
	}
	tex, err := c.device.CreateTexture(img, format)
	if err != nil {
		logger.Warn("texture upload failed",
			zap.Stringer("model", id),
			zap.String("source", t.Source),
			zap.Error(err))
		return 0
	}
	return tex
}

// UploadShader compiles and links a shader. On failure the null program is
// cached for the ID and returned along with an error wrapping ErrCompile or
// ErrLink.
func (c *Cache) UploadShader(s *assets.Shader) (Program, error) {
	if old, ok := c.programs[s.ID]; ok && old != 0 {
		c.device.DeleteProgram(old)
	}

	prog, err := c.device.CompileProgram(s.VertexSource, s.FragmentSource)
	if err != nil {
		c.programs[s.ID] = 0
		stage := "compile"
		if errors.Is(err, ErrLink) {
			stage = "link"
		}
		logger.Error("shader "+stage+" failed",
			zap.Stringer("id", s.ID),
			zap.String("vertex", s.VertexPath),
			zap.String("fragment", s.FragmentPath),
			zap.Error(err))
		return 0, fmt.Errorf("shader %s: %w", s.ID, err)
	}

	c.programs[s.ID] = prog
	logger.Debug("shader uploaded", zap.Stringer("id", s.ID), zap.Uint32("program", uint32(prog)))
	return prog, nil
}

// Model returns the handles uploaded for id.
func (c *Cache) Model(id assets.ID) (*ModelHandle, error) {
	h, ok := c.models[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return h, nil
}

// Program returns the program uploaded for id, which is zero if it failed
// to build.
func (c *Cache) Program(id assets.ID) (Program, error) {
	p, ok := c.programs[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// Release destroys the GPU objects uploaded for id.
func (c *Cache) Release(id assets.ID) {
	if h, ok := c.models[id]; ok {
		c.releaseModel(h)
		delete(c.models, id)
	}
	if p, ok := c.programs[id]; ok {
		if p != 0 {
			c.device.DeleteProgram(p)
		}
		delete(c.programs, id)
	}
}

func (c *Cache) releaseModel(h *ModelHandle) {
	for _, sm := range h.SubMeshes {
		if sm.Buffer != 0 {
			c.device.DeleteBuffer(sm.Buffer)
		}
	}
	for i := range h.Materials {
		for _, tex := range h.Materials[i].Textures() {
			if tex != 0 {
				c.device.DeleteTexture(tex)
			}
		}
	}
	c.device.DeleteBuffer(h.VertexBuffer)
	c.device.DeleteVertexArray(h.VertexArray)
}

// Close releases everything.
func (c *Cache) Close() {
	for id := range c.models {
		c.Release(id)
	}
	for id := range c.programs {
		c.Release(id)
	}
}
