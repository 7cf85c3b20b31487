package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Faultbox/lightshow/pkg/encoding"
)

// OBJ format errors.
var (
	ErrOBJSyntax = errors.New("invalid OBJ data")
	ErrMTLSyntax = errors.New("invalid MTL data")
)

// OBJIndex references one face corner. Indices are zero-based into the
// flat attribute arrays of the owning OBJ; -1 marks an absent attribute.
type OBJIndex struct {
	Vertex   int
	Normal   int
	TexCoord int
}

// OBJShape is a named group of triangles.
type OBJShape struct {
	Name string
	// Indices holds three corners per triangle.
	Indices []OBJIndex
	// MaterialIDs holds one entry per triangle, indexing OBJ.Materials, or -1.
	MaterialIDs []int
}

// NumTriangles returns the number of triangles in the shape.
func (s *OBJShape) NumTriangles() int {
	return len(s.Indices) / 3
}

// OBJ is a parsed Wavefront object file.
type OBJ struct {
	Positions []float32 // xyz
	Normals   []float32 // xyz
	TexCoords []float32 // uv

	Shapes    []OBJShape
	Materials []MTLMaterial

	// MaterialLibs lists mtllib references in file order.
	MaterialLibs []string

	// Warnings collects non-fatal problems met while loading.
	Warnings []string

	// usemtl names in first-seen order; MaterialIDs index this list until
	// BindMaterials remaps them onto Materials.
	materialNames []string
}

// NumPositions returns the number of vertex positions.
func (o *OBJ) NumPositions() int { return len(o.Positions) / 3 }

// NumNormals returns the number of normals.
func (o *OBJ) NumNormals() int { return len(o.Normals) / 3 }

// NumTexCoords returns the number of texture coordinates.
func (o *OBJ) NumTexCoords() int { return len(o.TexCoords) / 2 }

// LoadOBJ reads an OBJ file and the material libraries it references.
// Material libraries are looked up in mtlDir. A library that cannot be
// opened is recorded in Warnings and contributes no materials.
func LoadOBJ(objPath, mtlDir string) (*OBJ, error) {
	data, err := os.ReadFile(objPath)
	if err != nil {
		return nil, fmt.Errorf("opening OBJ file: %w", err)
	}

	obj, err := ParseOBJ(strings.NewReader(encoding.DecodeText(data)))
	if err != nil {
		return nil, err
	}

	var materials []MTLMaterial
	for _, lib := range obj.MaterialLibs {
		mats, err := loadMTLFile(filepath.Join(mtlDir, filepath.FromSlash(encoding.NormalizePath(lib))))
		if errors.Is(err, os.ErrNotExist) {
			obj.Warnings = append(obj.Warnings, fmt.Sprintf("material library %s not found", lib))
			continue
		}
		if err != nil {
			return nil, err
		}
		materials = append(materials, mats...)
	}

	obj.BindMaterials(materials)
	return obj, nil
}

func loadMTLFile(path string) ([]MTLMaterial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseMTL(strings.NewReader(encoding.DecodeText(data)))
}

// BindMaterials attaches materials and rewrites each triangle's material ID
// from its usemtl name to the matching index in materials. Names with no
// matching material become -1.
func (o *OBJ) BindMaterials(materials []MTLMaterial) {
	byName := make(map[string]int, len(materials))
	for i, m := range materials {
		if _, dup := byName[m.Name]; !dup {
			byName[m.Name] = i
		}
	}

	remap := make([]int, len(o.materialNames))
	for i, name := range o.materialNames {
		idx, ok := byName[name]
		if !ok {
			idx = -1
			o.Warnings = append(o.Warnings, fmt.Sprintf("material %q not defined", name))
		}
		remap[i] = idx
	}

	for s := range o.Shapes {
		ids := o.Shapes[s].MaterialIDs
		for i, id := range ids {
			if id >= 0 {
				ids[i] = remap[id]
			}
		}
	}

	o.Materials = materials
	o.materialNames = nil
}

// ParseOBJ parses Wavefront OBJ text. Polygons are fan-triangulated.
// Material IDs refer to usemtl names until BindMaterials is called.
func ParseOBJ(r io.Reader) (*OBJ, error) {
	p := objParser{
		obj:      &OBJ{},
		material: -1,
		names:    make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrOBJSyntax, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	p.flushShape()
	return p.obj, nil
}

type objParser struct {
	obj      *OBJ
	shape    OBJShape
	material int
	names    map[string]int
}

func (p *objParser) parseLine(text string) error {
	if i := strings.IndexByte(text, '#'); i >= 0 {
		text = text[:i]
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "v":
		return p.appendFloats(&p.obj.Positions, fields[1:], 3, 3)
	case "vn":
		return p.appendFloats(&p.obj.Normals, fields[1:], 3, 3)
	case "vt":
		return p.appendFloats(&p.obj.TexCoords, fields[1:], 1, 2)
	case "f":
		return p.parseFace(fields[1:])
	case "o", "g":
		p.flushShape()
		p.shape.Name = strings.Join(fields[1:], " ")
	case "usemtl":
		if len(fields) < 2 {
			return errors.New("usemtl without a name")
		}
		name := strings.Join(fields[1:], " ")
		id, ok := p.names[name]
		if !ok {
			id = len(p.obj.materialNames)
			p.names[name] = id
			p.obj.materialNames = append(p.obj.materialNames, name)
		}
		p.material = id
	case "mtllib":
		p.obj.MaterialLibs = append(p.obj.MaterialLibs, fields[1:]...)
	}
	// s, l, p, vp and unknown statements carry nothing we keep.
	return nil
}

// appendFloats reads at least min values, keeps the first want of them and
// pads with zeros when fewer are present.
func (p *objParser) appendFloats(dst *[]float32, args []string, min, want int) error {
	if len(args) < min {
		return fmt.Errorf("expected %d values, got %d", min, len(args))
	}
	for i := 0; i < want; i++ {
		if i >= len(args) {
			*dst = append(*dst, 0)
			continue
		}
		v, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return fmt.Errorf("bad number %q", args[i])
		}
		*dst = append(*dst, float32(v))
	}
	return nil
}

func (p *objParser) parseFace(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("face needs 3 corners, got %d", len(args))
	}

	corners := make([]OBJIndex, len(args))
	for i, arg := range args {
		c, err := p.parseCorner(arg)
		if err != nil {
			return err
		}
		corners[i] = c
	}

	for k := 1; k+1 < len(corners); k++ {
		p.shape.Indices = append(p.shape.Indices, corners[0], corners[k], corners[k+1])
		p.shape.MaterialIDs = append(p.shape.MaterialIDs, p.material)
	}
	return nil
}

// parseCorner parses v, v/vt, v//vn or v/vt/vn.
func (p *objParser) parseCorner(s string) (OBJIndex, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return OBJIndex{}, fmt.Errorf("bad face corner %q", s)
	}

	idx := OBJIndex{Vertex: -1, Normal: -1, TexCoord: -1}
	var err error

	if idx.Vertex, err = resolveIndex(parts[0], p.obj.NumPositions()); err != nil {
		return idx, err
	}
	if idx.Vertex < 0 {
		return idx, fmt.Errorf("face corner %q has no vertex", s)
	}
	if len(parts) > 1 {
		if idx.TexCoord, err = resolveIndex(parts[1], p.obj.NumTexCoords()); err != nil {
			return idx, err
		}
	}
	if len(parts) > 2 {
		if idx.Normal, err = resolveIndex(parts[2], p.obj.NumNormals()); err != nil {
			return idx, err
		}
	}
	return idx, nil
}

// resolveIndex converts a one-based or negative relative index to zero-based.
// An empty string yields -1.
func resolveIndex(s string, count int) (int, error) {
	if s == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1, fmt.Errorf("bad index %q", s)
	}

	switch {
	case n > 0:
		n--
	case n < 0:
		n += count
	default:
		return -1, errors.New("index 0 is not valid")
	}

	if n < 0 || n >= count {
		return -1, fmt.Errorf("index %s out of range (%d defined)", s, count)
	}
	return n, nil
}

func (p *objParser) flushShape() {
	if len(p.shape.Indices) > 0 {
		p.obj.Shapes = append(p.obj.Shapes, p.shape)
	}
	p.shape = OBJShape{}
}
