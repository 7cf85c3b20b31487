package formats

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const quadOBJ = `# two triangles sharing an edge
mtllib quad.mtl
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
usemtl red
f 1/1/1 2/2/1 3/3/1
f 1/1/1 3/3/1 4/4/1
`

const quadMTL = `newmtl red
Kd 1 0 0
Ns 100
`

func TestParseOBJ_Quad(t *testing.T) {
	obj, err := ParseOBJ(strings.NewReader(quadOBJ))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	if obj.NumPositions() != 4 {
		t.Errorf("expected 4 positions, got %d", obj.NumPositions())
	}
	if obj.NumTexCoords() != 4 {
		t.Errorf("expected 4 texcoords, got %d", obj.NumTexCoords())
	}
	if obj.NumNormals() != 1 {
		t.Errorf("expected 1 normal, got %d", obj.NumNormals())
	}
	if len(obj.Shapes) != 1 {
		t.Fatalf("expected 1 shape, got %d", len(obj.Shapes))
	}

	shape := obj.Shapes[0]
	if shape.Name != "quad" {
		t.Errorf("expected shape name quad, got %q", shape.Name)
	}
	if shape.NumTriangles() != 2 {
		t.Fatalf("expected 2 triangles, got %d", shape.NumTriangles())
	}

	want := OBJIndex{Vertex: 2, TexCoord: 2, Normal: 0}
	if shape.Indices[2] != want {
		t.Errorf("corner 2: expected %+v, got %+v", want, shape.Indices[2])
	}
	if len(obj.MaterialLibs) != 1 || obj.MaterialLibs[0] != "quad.mtl" {
		t.Errorf("unexpected material libs: %v", obj.MaterialLibs)
	}
}

func TestParseOBJ_FanTriangulation(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v -1 0.5 0
f 1 2 3 4 5
`
	obj, err := ParseOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	shape := obj.Shapes[0]
	if shape.NumTriangles() != 3 {
		t.Fatalf("expected 3 triangles, got %d", shape.NumTriangles())
	}

	expected := []int{0, 1, 2, 0, 2, 3, 0, 3, 4}
	for i, v := range expected {
		if shape.Indices[i].Vertex != v {
			t.Errorf("index %d: expected vertex %d, got %d", i, v, shape.Indices[i].Vertex)
		}
		if shape.Indices[i].Normal != -1 || shape.Indices[i].TexCoord != -1 {
			t.Errorf("index %d: expected absent normal/uv, got %+v", i, shape.Indices[i])
		}
	}
	for i, id := range shape.MaterialIDs {
		if id != -1 {
			t.Errorf("triangle %d: expected no material, got %d", i, id)
		}
	}
}

func TestParseOBJ_NegativeIndices(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 1
f -3//-1 -2//-1 -1//-1
`
	obj, err := ParseOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	idx := obj.Shapes[0].Indices
	for i := 0; i < 3; i++ {
		if idx[i].Vertex != i {
			t.Errorf("corner %d: expected vertex %d, got %d", i, i, idx[i].Vertex)
		}
		if idx[i].Normal != 0 {
			t.Errorf("corner %d: expected normal 0, got %d", i, idx[i].Normal)
		}
		if idx[i].TexCoord != -1 {
			t.Errorf("corner %d: expected no texcoord, got %d", i, idx[i].TexCoord)
		}
	}
}

func TestParseOBJ_Groups(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
g empty
g first
f 1 2 3
o second
usemtl a
f 1 2 3
usemtl b
f 3 2 1
usemtl a
f 2 3 1
`
	obj, err := ParseOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	if len(obj.Shapes) != 2 {
		t.Fatalf("expected 2 shapes, got %d", len(obj.Shapes))
	}
	if obj.Shapes[0].Name != "first" || obj.Shapes[1].Name != "second" {
		t.Errorf("unexpected shape names %q, %q", obj.Shapes[0].Name, obj.Shapes[1].Name)
	}

	obj.BindMaterials([]MTLMaterial{newMTLMaterial("b"), newMTLMaterial("a")})

	got := obj.Shapes[1].MaterialIDs
	want := []int{1, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("triangle %d: expected material %d, got %d", i, want[i], got[i])
		}
	}
	if len(obj.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", obj.Warnings)
	}
}

func TestParseOBJ_UndefinedMaterial(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
usemtl missing
f 1 2 3
`
	obj, err := ParseOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	obj.BindMaterials(nil)

	if obj.Shapes[0].MaterialIDs[0] != -1 {
		t.Errorf("expected -1 for undefined material, got %d", obj.Shapes[0].MaterialIDs[0])
	}
	if len(obj.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", obj.Warnings)
	}
}

func TestParseOBJ_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line string
	}{
		{name: "index zero", src: "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", line: "line 4"},
		{name: "out of range", src: "v 0 0 0\nf 1 2 3\n", line: "line 2"},
		{name: "two corners", src: "v 0 0 0\nv 1 0 0\nf 1 2\n", line: "line 3"},
		{name: "bad float", src: "v 0 zero 0\n", line: "line 1"},
		{name: "short vertex", src: "v 1 2\n", line: "line 1"},
		{name: "bad index", src: "v 0 0 0\nf a b c\n", line: "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ(strings.NewReader(tt.src))
			if !errors.Is(err, ErrOBJSyntax) {
				t.Fatalf("expected ErrOBJSyntax, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Errorf("expected %q in error, got %v", tt.line, err)
			}
		})
	}
}

func TestLoadOBJ(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "quad.obj"), quadOBJ)
	writeFile(t, filepath.Join(dir, "quad.mtl"), quadMTL)

	obj, err := LoadOBJ(filepath.Join(dir, "quad.obj"), dir)
	if err != nil {
		t.Fatalf("LoadOBJ failed: %v", err)
	}

	if len(obj.Materials) != 1 {
		t.Fatalf("expected 1 material, got %d", len(obj.Materials))
	}
	if obj.Materials[0].Diffuse != [3]float32{1, 0, 0} {
		t.Errorf("unexpected diffuse %v", obj.Materials[0].Diffuse)
	}
	for i, id := range obj.Shapes[0].MaterialIDs {
		if id != 0 {
			t.Errorf("triangle %d: expected material 0, got %d", i, id)
		}
	}
}

func TestLoadOBJ_MissingMTL(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "quad.obj"), quadOBJ)

	obj, err := LoadOBJ(filepath.Join(dir, "quad.obj"), dir)
	if err != nil {
		t.Fatalf("LoadOBJ failed: %v", err)
	}

	if len(obj.Materials) != 0 {
		t.Errorf("expected no materials, got %d", len(obj.Materials))
	}
	if obj.Shapes[0].MaterialIDs[0] != -1 {
		t.Errorf("expected material -1, got %d", obj.Shapes[0].MaterialIDs[0])
	}
	if len(obj.Warnings) == 0 {
		t.Error("expected a warning for the missing library")
	}
}

func TestLoadOBJ_LegacyEncoding(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "quad.obj"), "\xEF\xBB\xBF"+strings.Replace(quadOBJ, "quad.mtl", `libs\quad.mtl`, 1))
	if err := os.Mkdir(filepath.Join(dir, "libs"), 0755); err != nil {
		t.Fatal(err)
	}
	// Windows-1252 e-acute in the texture name.
	writeFile(t, filepath.Join(dir, "libs", "quad.mtl"), "newmtl red\nKd 1 0 0\nmap_Kd caf\xe9.png\n")

	obj, err := LoadOBJ(filepath.Join(dir, "quad.obj"), dir)
	if err != nil {
		t.Fatalf("LoadOBJ failed: %v", err)
	}
	if len(obj.Materials) != 1 {
		t.Fatalf("expected 1 material, got %d (warnings %v)", len(obj.Materials), obj.Warnings)
	}
	if got := obj.Materials[0].DiffuseTex; got != "café.png" {
		t.Errorf("expected texture café.png, got %q", got)
	}
}

func TestLoadOBJ_MissingFile(t *testing.T) {
	_, err := LoadOBJ("/nonexistent/mesh.obj", "/nonexistent")
	if err == nil {
		t.Error("expected error for missing OBJ file")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
