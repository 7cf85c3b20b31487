package formats

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MTLMaterial is one newmtl block of a Wavefront material library.
type MTLMaterial struct {
	Name string

	Ambient   [3]float32 // Ka
	Diffuse   [3]float32 // Kd
	Specular  [3]float32 // Ks
	Emission  [3]float32 // Ke
	Shininess float32    // Ns
	IOR       float32    // Ni
	Dissolve  float32    // d, or 1-Tr
	Illum     int

	AmbientTex           string // map_Ka
	DiffuseTex           string // map_Kd
	SpecularTex          string // map_Ks
	SpecularHighlightTex string // map_Ns
	BumpTex              string // map_bump, bump, norm
	MetallicTex          string // map_Pm, refl
	AlphaTex             string // map_d
}

func newMTLMaterial(name string) MTLMaterial {
	return MTLMaterial{
		Name:     name,
		Diffuse:  [3]float32{0.6, 0.6, 0.6},
		IOR:      1,
		Dissolve: 1,
	}
}

// ParseMTL parses a Wavefront material library.
func ParseMTL(r io.Reader) ([]MTLMaterial, error) {
	var (
		materials []MTLMaterial
		cur       *MTLMaterial
	)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "newmtl" {
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: line %d: newmtl without a name", ErrMTLSyntax, line)
			}
			materials = append(materials, newMTLMaterial(strings.Join(fields[1:], " ")))
			cur = &materials[len(materials)-1]
			continue
		}
		if cur == nil {
			// Statements before the first newmtl have nothing to apply to.
			continue
		}

		if err := cur.apply(fields[0], fields[1:]); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMTLSyntax, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading MTL: %w", err)
	}

	return materials, nil
}

func (m *MTLMaterial) apply(key string, args []string) error {
	var err error
	switch key {
	case "Ka":
		m.Ambient, err = parseColor(args)
	case "Kd":
		m.Diffuse, err = parseColor(args)
	case "Ks":
		m.Specular, err = parseColor(args)
	case "Ke":
		m.Emission, err = parseColor(args)
	case "Ns":
		m.Shininess, err = parseScalar(args)
	case "Ni":
		m.IOR, err = parseScalar(args)
	case "d":
		m.Dissolve, err = parseScalar(args)
	case "Tr":
		var tr float32
		tr, err = parseScalar(args)
		m.Dissolve = 1 - tr
	case "illum":
		var v float32
		v, err = parseScalar(args)
		m.Illum = int(v)
	case "map_Ka":
		m.AmbientTex = textureFile(args)
	case "map_Kd":
		m.DiffuseTex = textureFile(args)
	case "map_Ks":
		m.SpecularTex = textureFile(args)
	case "map_Ns":
		m.SpecularHighlightTex = textureFile(args)
	case "map_bump", "map_Bump", "bump", "norm":
		m.BumpTex = textureFile(args)
	case "map_Pm", "refl":
		m.MetallicTex = textureFile(args)
	case "map_d":
		m.AlphaTex = textureFile(args)
	}
	return err
}

func parseScalar(args []string) (float32, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("missing value")
	}
	v, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", args[0])
	}
	return float32(v), nil
}

// parseColor reads r [g b]; a single value is replicated.
func parseColor(args []string) ([3]float32, error) {
	var c [3]float32
	if len(args) == 0 {
		return c, fmt.Errorf("missing color")
	}
	if args[0] == "spectral" || args[0] == "xyz" {
		return c, fmt.Errorf("unsupported color form %q", args[0])
	}
	for i := 0; i < 3; i++ {
		src := args[0]
		if i < len(args) {
			src = args[i]
		}
		v, err := strconv.ParseFloat(src, 32)
		if err != nil {
			return c, fmt.Errorf("bad number %q", src)
		}
		c[i] = float32(v)
	}
	return c, nil
}

// textureOptionArgs is the maximum argument count of each texture map option.
var textureOptionArgs = map[string]int{
	"-blendu":  1,
	"-blendv":  1,
	"-boost":   1,
	"-cc":      1,
	"-clamp":   1,
	"-imfchan": 1,
	"-texres":  1,
	"-type":    1,
	"-bm":      1,
	"-mm":      2,
	"-o":       3,
	"-s":       3,
	"-t":       3,
}

// textureFile strips map options and returns the file name, which may
// contain spaces.
func textureFile(args []string) string {
	i := 0
	for i < len(args) && strings.HasPrefix(args[i], "-") {
		opt := args[i]
		i++
		n, ok := textureOptionArgs[opt]
		if !ok {
			n = 1
		}
		if n == 3 {
			// -o, -s and -t take one to three numbers.
			for k := 0; k < 3 && i < len(args) && isNumber(args[i]); k++ {
				i++
			}
			continue
		}
		i += n
	}
	if i >= len(args) {
		return ""
	}
	return strings.Join(args[i:], " ")
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
