// Package assets owns models and shader sources loaded from disk.
package assets

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/lightshow/internal/logger"
	"github.com/Faultbox/lightshow/pkg/formats"
)

// Store errors.
var (
	ErrParse    = errors.New("asset parse failed")
	ErrNotFound = errors.New("asset not found")
)

// Store loads assets and hands out IDs for them. Assets are immutable once
// loaded and live as long as the store.
type Store struct {
	next    uint64
	models  map[ID]*Model
	shaders map[ID]*Shader
	order   []ID
	files   *Cache
}

// Stats summarizes store contents.
type Stats struct {
	Models      int
	Shaders     int
	CacheHits   int
	CacheMisses int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		models:  make(map[ID]*Model),
		shaders: make(map[ID]*Shader),
		files:   NewCache(),
	}
}

func (s *Store) newID(kind Kind) ID {
	s.next++
	id := ID{Kind: kind, Num: s.next}
	s.order = append(s.order, id)
	return id
}

// LoadMesh imports dir/file and its material library from dir.
func (s *Store) LoadMesh(dir, file string) (ID, error) {
	path := filepath.Join(dir, file)

	obj, err := formats.LoadOBJ(path, dir)
	if err != nil {
		return InvalidID, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	for _, w := range obj.Warnings {
		logger.Warn("mesh import", zap.String("path", path), zap.String("warning", w))
	}

	vertices, subMeshes, needsDefault := buildMesh(obj)

	textures := newTextureLoader(dir, s.files)
	materials := make([]Material, 0, len(obj.Materials)+1)
	for i := range obj.Materials {
		materials = append(materials, resolveMaterial(&obj.Materials[i], textures))
	}
	if needsDefault {
		logger.Warn("faces without a material use the default material", zap.String("path", path))
		materials = append(materials, DefaultMaterial())
	}

	model := &Model{
		Vertices:  vertices,
		Materials: materials,
		Mesh: Mesh{
			Name:      strings.TrimSuffix(file, filepath.Ext(file)),
			SubMeshes: subMeshes,
		},
		Bounds: computeBounds(vertices),
	}
	model.ID = s.newID(KindModel)
	s.models[model.ID] = model

	logger.Info("mesh loaded",
		zap.Stringer("id", model.ID),
		zap.String("path", path),
		zap.Int("vertices", len(vertices)),
		zap.Int("indices", model.Mesh.IndexCount()),
		zap.Int("materials", len(materials)))

	return model.ID, nil
}

// LoadShader reads a vertex and fragment source pair. Sources are stored
// as-is and compiled only when uploaded.
func (s *Store) LoadShader(vertexPath, fragmentPath string) (ID, error) {
	vert, err := s.files.ReadFile(vertexPath)
	if err != nil {
		return InvalidID, fmt.Errorf("%w: %w", ErrParse, err)
	}
	frag, err := s.files.ReadFile(fragmentPath)
	if err != nil {
		return InvalidID, fmt.Errorf("%w: %w", ErrParse, err)
	}

	shader := &Shader{
		VertexSource:   string(vert),
		FragmentSource: string(frag),
		VertexPath:     vertexPath,
		FragmentPath:   fragmentPath,
	}
	shader.ID = s.newID(KindShader)
	s.shaders[shader.ID] = shader

	logger.Debug("shader sources loaded",
		zap.Stringer("id", shader.ID),
		zap.String("vertex", vertexPath),
		zap.String("fragment", fragmentPath))

	return shader.ID, nil
}

// Model returns a loaded model.
func (s *Store) Model(id ID) (*Model, error) {
	if id.Kind == KindModel {
		if m, ok := s.models[id]; ok {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Shader returns a loaded shader.
func (s *Store) Shader(id ID) (*Shader, error) {
	if id.Kind == KindShader {
		if sh, ok := s.shaders[id]; ok {
			return sh, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Models returns model IDs in load order.
func (s *Store) Models() []ID {
	return s.idsOf(KindModel)
}

// Shaders returns shader IDs in load order.
func (s *Store) Shaders() []ID {
	return s.idsOf(KindShader)
}

func (s *Store) idsOf(kind Kind) []ID {
	var ids []ID
	for _, id := range s.order {
		if id.Kind == kind {
			ids = append(ids, id)
		}
	}
	return ids
}

// Stats returns asset counts and file cache statistics.
func (s *Store) Stats() Stats {
	hits, misses := s.files.Stats()
	return Stats{
		Models:      len(s.models),
		Shaders:     len(s.shaders),
		CacheHits:   hits,
		CacheMisses: misses,
	}
}

// Close drops cached file contents. Loaded assets remain valid.
func (s *Store) Close() {
	s.files.Clear()
}
