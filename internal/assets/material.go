package assets

import (
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/lightshow/internal/engine/texture"
	"github.com/Faultbox/lightshow/internal/logger"
	"github.com/Faultbox/lightshow/pkg/encoding"
	"github.com/Faultbox/lightshow/pkg/formats"
)

// textureLoader decodes material textures once per path for a single load.
type textureLoader struct {
	dir    string
	files  *Cache
	images map[string]*texture.Image
}

func newTextureLoader(dir string, files *Cache) *textureLoader {
	return &textureLoader{
		dir:    dir,
		files:  files,
		images: make(map[string]*texture.Image),
	}
}

// load resolves a texture slot. An empty name yields an unused slot; a file
// that cannot be read or decoded yields a used slot with no image.
func (l *textureLoader) load(name string) Texture {
	if name == "" {
		return Texture{}
	}

	path := filepath.FromSlash(encoding.NormalizePath(name))
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.dir, path)
	}

	if img, ok := l.images[path]; ok {
		return Texture{Source: path, Image: img}
	}

	var img *texture.Image
	data, err := l.files.ReadFile(path)
	if err == nil {
		img, err = texture.Decode(data)
	}
	if err != nil {
		logger.Warn("texture unavailable", zap.String("path", path), zap.Error(err))
	}

	l.images[path] = img
	return Texture{Source: path, Image: img}
}

// resolveMaterial maps a Wavefront material onto the PBR slots:
//
//	albedo    map_Kd, else Kd
//	roughness map_Ns, else 1 - sqrt(Ns)/30
//	metallic  map_Pm or refl, else 0 when Ka is white, otherwise Ka.r
//	normal    bump map only
func resolveMaterial(src *formats.MTLMaterial, textures *textureLoader) Material {
	m := Material{
		Name:             src.Name,
		Albedo:           mgl32.Vec3(src.Diffuse),
		Roughness:        1 - math32.Sqrt(math32.Max(src.Shininess, 0))/30,
		AlbedoTexture:    textures.load(src.DiffuseTex),
		RoughnessTexture: textures.load(src.SpecularHighlightTex),
		MetallicTexture:  textures.load(src.MetallicTex),
		NormalMap:        textures.load(src.BumpTex),
	}

	if src.Ambient != [3]float32{1, 1, 1} {
		m.Metallic = src.Ambient[0]
	}

	return m
}
