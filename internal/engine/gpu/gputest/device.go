// Package gputest provides a recording gpu.Device for tests that run
// without a graphics context.
package gputest

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/lightshow/internal/assets"
	"github.com/Faultbox/lightshow/internal/engine/gpu"
	"github.com/Faultbox/lightshow/internal/engine/texture"
)

// Draw records one draw call.
type Draw struct {
	Program       gpu.Program
	VertexArray   gpu.VertexArray
	Indices       gpu.Buffer
	Count         int
	Instances     gpu.Buffer
	InstanceCount int
	// Units holds the texture bound to units 0 to 3 at draw time.
	Units [4]gpu.Texture
	// Uniforms is a snapshot of the program's uniforms at draw time.
	Uniforms map[string]any
}

// Rect is a viewport or clear rectangle in bottom-left origin.
type Rect struct{ X, Y, W, H int }

// Device records everything sent to it. Programs fail to compile when a
// source has unbalanced braces and fail to link when LinkErr is set.
type Device struct {
	LinkErr string

	Buffers      map[gpu.Buffer]int // element count
	VertexArrays map[gpu.VertexArray]gpu.Buffer
	Textures     map[gpu.Texture]gpu.PixelFormat
	Programs     map[gpu.Program]bool
	Uniforms     map[gpu.Program]map[string]any

	Current   gpu.Program
	Units     [4]gpu.Texture
	Viewports []Rect
	Clears    []Rect
	Reads     []Rect
	Draws     []Draw
	Updates   int

	clearColor mgl32.Vec4
	next       uint32
}

var _ gpu.Device = (*Device)(nil)

// New returns an empty device.
func New() *Device {
	return &Device{
		Buffers:      make(map[gpu.Buffer]int),
		VertexArrays: make(map[gpu.VertexArray]gpu.Buffer),
		Textures:     make(map[gpu.Texture]gpu.PixelFormat),
		Programs:     make(map[gpu.Program]bool),
		Uniforms:     make(map[gpu.Program]map[string]any),
	}
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

func (d *Device) CreateVertexArray(vertices []assets.Vertex) (gpu.VertexArray, gpu.Buffer) {
	vao := gpu.VertexArray(d.handle())
	buf := gpu.Buffer(d.handle())
	d.Buffers[buf] = len(vertices)
	d.VertexArrays[vao] = buf
	return vao, buf
}

func (d *Device) DeleteVertexArray(vao gpu.VertexArray) { delete(d.VertexArrays, vao) }

func (d *Device) CreateIndexBuffer(indices []uint32) gpu.Buffer {
	buf := gpu.Buffer(d.handle())
	d.Buffers[buf] = len(indices)
	return buf
}

func (d *Device) CreateInstanceBuffer(transforms []mgl32.Mat4) gpu.Buffer {
	buf := gpu.Buffer(d.handle())
	d.Buffers[buf] = len(transforms)
	return buf
}

func (d *Device) UpdateInstanceBuffer(buf gpu.Buffer, transforms []mgl32.Mat4) {
	d.Buffers[buf] = len(transforms)
	d.Updates++
}

func (d *Device) DeleteBuffer(buf gpu.Buffer) { delete(d.Buffers, buf) }

func (d *Device) CreateTexture(img *texture.Image, format gpu.PixelFormat) (gpu.Texture, error) {
	if need := img.Width * img.Height * format.BytesPerPixel(); len(img.Pix) < need {
		return 0, fmt.Errorf("pixel data too short: %d < %d", len(img.Pix), need)
	}
	tex := gpu.Texture(d.handle())
	d.Textures[tex] = format
	return tex, nil
}

func (d *Device) DeleteTexture(tex gpu.Texture) { delete(d.Textures, tex) }

func (d *Device) BindTexture(unit int, tex gpu.Texture) {
	if unit >= 0 && unit < len(d.Units) {
		d.Units[unit] = tex
	}
}

func (d *Device) CompileProgram(vertexSource, fragmentSource string) (gpu.Program, error) {
	if err := checkBraces("vertex", vertexSource); err != nil {
		return 0, err
	}
	if err := checkBraces("fragment", fragmentSource); err != nil {
		return 0, err
	}
	if d.LinkErr != "" {
		return 0, fmt.Errorf("%w: %s", gpu.ErrLink, d.LinkErr)
	}
	p := gpu.Program(d.handle())
	d.Programs[p] = true
	d.Uniforms[p] = make(map[string]any)
	return p, nil
}

func checkBraces(stage, src string) error {
	depth := 0
	for i, line := range strings.Split(src, "\n") {
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth < 0 {
			return fmt.Errorf("%w: %s shader: 0(%d) : error: unexpected '}'", gpu.ErrCompile, stage, i+1)
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: %s shader: syntax error, unexpected end of file", gpu.ErrCompile, stage)
	}
	return nil
}

func (d *Device) DeleteProgram(p gpu.Program) {
	delete(d.Programs, p)
	delete(d.Uniforms, p)
}

func (d *Device) UseProgram(p gpu.Program) { d.Current = p }

func (d *Device) setUniform(p gpu.Program, name string, v any) {
	if u, ok := d.Uniforms[p]; ok {
		u[name] = v
	}
}

func (d *Device) SetUniformMat4(p gpu.Program, name string, m mgl32.Mat4) { d.setUniform(p, name, m) }
func (d *Device) SetUniformVec3(p gpu.Program, name string, v mgl32.Vec3) { d.setUniform(p, name, v) }
func (d *Device) SetUniformFloat(p gpu.Program, name string, f float32)   { d.setUniform(p, name, f) }
func (d *Device) SetUniformInt(p gpu.Program, name string, i int32)       { d.setUniform(p, name, i) }

func (d *Device) Viewport(x, y, width, height int) {
	d.Viewports = append(d.Viewports, Rect{x, y, width, height})
}

func (d *Device) Clear(x, y, width, height int, color mgl32.Vec4) {
	d.Clears = append(d.Clears, Rect{x, y, width, height})
	d.clearColor = color
}

// ReadPixels returns the rectangle filled with the last clear color.
func (d *Device) ReadPixels(x, y, width, height int) []byte {
	d.Reads = append(d.Reads, Rect{x, y, width, height})
	var px [4]byte
	for i, c := range d.clearColor {
		px[i] = byte(mgl32.Clamp(c, 0, 1) * 255)
	}
	pixels := make([]byte, width*height*4)
	for i := 0; i < len(pixels); i += 4 {
		copy(pixels[i:], px[:])
	}
	return pixels
}

func (d *Device) DrawIndexed(vao gpu.VertexArray, indices gpu.Buffer, count int) {
	d.Draws = append(d.Draws, d.draw(vao, indices, count, 0, 0))
}

func (d *Device) DrawIndexedInstanced(vao gpu.VertexArray, indices gpu.Buffer, count int, instances gpu.Buffer, instanceCount int) {
	d.Draws = append(d.Draws, d.draw(vao, indices, count, instances, instanceCount))
}

func (d *Device) draw(vao gpu.VertexArray, indices gpu.Buffer, count int, instances gpu.Buffer, instanceCount int) Draw {
	snap := make(map[string]any, len(d.Uniforms[d.Current]))
	for k, v := range d.Uniforms[d.Current] {
		snap[k] = v
	}
	return Draw{
		Program:       d.Current,
		VertexArray:   vao,
		Indices:       indices,
		Count:         count,
		Instances:     instances,
		InstanceCount: instanceCount,
		Units:         d.Units,
		Uniforms:      snap,
	}
}

// Live returns the number of buffers, textures and programs not yet deleted.
func (d *Device) Live() (buffers, textures, programs int) {
	return len(d.Buffers), len(d.Textures), len(d.Programs)
}
