// Package glgpu implements gpu.Device on OpenGL 4.1 core.
package glgpu

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/lightshow/internal/assets"
	"github.com/Faultbox/lightshow/internal/engine/gpu"
	"github.com/Faultbox/lightshow/internal/engine/texture"
	"github.com/Faultbox/lightshow/internal/logger"
)

const mat4Size = 16 * 4

var formats = map[gpu.PixelFormat]struct {
	internal int32
	format   uint32
	xtype    uint32
}{
	gpu.FormatR8:     {gl.R8, gl.RED, gl.UNSIGNED_BYTE},
	gpu.FormatRG8:    {gl.RG8, gl.RG, gl.UNSIGNED_BYTE},
	gpu.FormatRGB8:   {gl.RGB8, gl.RGB, gl.UNSIGNED_BYTE},
	gpu.FormatRGBA8:  {gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE},
	gpu.FormatR16:    {gl.R16, gl.RED, gl.UNSIGNED_SHORT},
	gpu.FormatRG16:   {gl.RG16, gl.RG, gl.UNSIGNED_SHORT},
	gpu.FormatRGB16:  {gl.RGB16, gl.RGB, gl.UNSIGNED_SHORT},
	gpu.FormatRGBA16: {gl.RGBA16, gl.RGBA, gl.UNSIGNED_SHORT},
}

// Device issues OpenGL calls on the current context.
type Device struct {
	uniforms map[gpu.Program]map[string]int32
}

var _ gpu.Device = (*Device)(nil)

// New loads the GL function pointers and sets default state.
// It must be called after a context is current.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))))

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	// Texture rows are tightly packed.
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	return &Device{uniforms: make(map[gpu.Program]map[string]int32)}, nil
}

// CreateVertexArray uploads vertices and configures attributes 0 to 4.
func (d *Device) CreateVertexArray(vertices []assets.Vertex) (gpu.VertexArray, gpu.Buffer) {
	var vao, vbo uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)

	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	if len(vertices) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*assets.VertexSize, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)
	}

	var v assets.Vertex
	attribs := []struct {
		index  uint32
		size   int32
		offset uintptr
	}{
		{gpu.AttribPosition, 3, unsafe.Offsetof(v.Position)},
		{gpu.AttribNormal, 3, unsafe.Offsetof(v.Normal)},
		{gpu.AttribTexCoord, 2, unsafe.Offsetof(v.TexCoord)},
		{gpu.AttribTangent, 3, unsafe.Offsetof(v.Tangent)},
		{gpu.AttribBitangent, 3, unsafe.Offsetof(v.Bitangent)},
	}
	for _, a := range attribs {
		gl.EnableVertexAttribArray(a.index)
		gl.VertexAttribPointerWithOffset(a.index, a.size, gl.FLOAT, false, assets.VertexSize, a.offset)
	}

	gl.BindVertexArray(0)
	return gpu.VertexArray(vao), gpu.Buffer(vbo)
}

func (d *Device) DeleteVertexArray(vao gpu.VertexArray) {
	id := uint32(vao)
	gl.DeleteVertexArrays(1, &id)
}

func (d *Device) CreateIndexBuffer(indices []uint32) gpu.Buffer {
	var ebo uint32
	gl.GenBuffers(1, &ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
	if len(indices) > 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
	}
	return gpu.Buffer(ebo)
}

func (d *Device) CreateInstanceBuffer(transforms []mgl32.Mat4) gpu.Buffer {
	var buf uint32
	gl.GenBuffers(1, &buf)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf)
	if len(transforms) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(transforms)*mat4Size, unsafe.Pointer(&transforms[0]), gl.DYNAMIC_DRAW)
	}
	return gpu.Buffer(buf)
}

func (d *Device) UpdateInstanceBuffer(buf gpu.Buffer, transforms []mgl32.Mat4) {
	if len(transforms) == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(buf))
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(transforms)*mat4Size, unsafe.Pointer(&transforms[0]))
}

func (d *Device) DeleteBuffer(buf gpu.Buffer) {
	id := uint32(buf)
	gl.DeleteBuffers(1, &id)
}

// CreateTexture uploads img with mipmaps and repeat wrapping.
func (d *Device) CreateTexture(img *texture.Image, format gpu.PixelFormat) (gpu.Texture, error) {
	f, ok := formats[format]
	if !ok {
		return 0, fmt.Errorf("%w: %s", gpu.ErrUnsupportedFormat, format)
	}
	if need := img.Width * img.Height * format.BytesPerPixel(); len(img.Pix) < need || need == 0 {
		return 0, fmt.Errorf("pixel data size %d does not fit %dx%d %s", len(img.Pix), img.Width, img.Height, format)
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, f.internal, int32(img.Width), int32(img.Height), 0, f.format, f.xtype, gl.Ptr(img.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return gpu.Texture(tex), nil
}

func (d *Device) DeleteTexture(tex gpu.Texture) {
	id := uint32(tex)
	gl.DeleteTextures(1, &id)
}

func (d *Device) BindTexture(unit int, tex gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
}

// CompileProgram compiles both stages, binds the shared attribute
// locations and links.
func (d *Device) CompileProgram(vertexSource, fragmentSource string) (gpu.Program, error) {
	vertShader, err := compileShader(vertexSource, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	for index, name := range gpu.AttribNames {
		gl.BindAttribLocation(program, index, gl.Str(name+"\x00"))
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		log := infoLog(program, gl.GetProgramiv, gl.GetProgramInfoLog)
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("%w: %s", gpu.ErrLink, log)
	}

	d.uniforms[gpu.Program(program)] = make(map[string]int32)
	return gpu.Program(program), nil
}

func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		log := infoLog(shader, gl.GetShaderiv, gl.GetShaderInfoLog)
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%w: %s shader: %s", gpu.ErrCompile, name, log)
	}

	return shader, nil
}

func infoLog(
	obj uint32,
	getiv func(uint32, uint32, *int32),
	getLog func(uint32, int32, *int32, *uint8),
) string {
	var logLen int32
	getiv(obj, gl.INFO_LOG_LENGTH, &logLen)
	if logLen == 0 {
		return "no diagnostic"
	}
	log := make([]byte, logLen)
	getLog(obj, logLen, nil, &log[0])
	return strings.TrimRight(string(log), "\x00\n")
}

func (d *Device) DeleteProgram(p gpu.Program) {
	gl.DeleteProgram(uint32(p))
	delete(d.uniforms, p)
}

func (d *Device) UseProgram(p gpu.Program) {
	gl.UseProgram(uint32(p))
}

// uniform returns the cached location of name, or -1 when the program has
// no such active uniform. GL ignores writes to -1.
func (d *Device) uniform(p gpu.Program, name string) int32 {
	locs, ok := d.uniforms[p]
	if !ok {
		locs = make(map[string]int32)
		d.uniforms[p] = locs
	}
	loc, ok := locs[name]
	if !ok {
		loc = gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
		locs[name] = loc
	}
	return loc
}

func (d *Device) SetUniformMat4(p gpu.Program, name string, m mgl32.Mat4) {
	gl.UniformMatrix4fv(d.uniform(p, name), 1, false, &m[0])
}

func (d *Device) SetUniformVec3(p gpu.Program, name string, v mgl32.Vec3) {
	gl.Uniform3f(d.uniform(p, name), v[0], v[1], v[2])
}

func (d *Device) SetUniformFloat(p gpu.Program, name string, f float32) {
	gl.Uniform1f(d.uniform(p, name), f)
}

func (d *Device) SetUniformInt(p gpu.Program, name string, i int32) {
	gl.Uniform1i(d.uniform(p, name), i)
}

func (d *Device) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

// Clear clears color and depth inside the rectangle only.
func (d *Device) Clear(x, y, width, height int, color mgl32.Vec4) {
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(int32(x), int32(y), int32(width), int32(height))
	gl.ClearColor(color[0], color[1], color[2], color[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Disable(gl.SCISSOR_TEST)
}

func (d *Device) ReadPixels(x, y, width, height int) []byte {
	pixels := make([]byte, width*height*4)
	if len(pixels) == 0 {
		return pixels
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(int32(x), int32(y), int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&pixels[0]))
	return pixels
}

func (d *Device) DrawIndexed(vao gpu.VertexArray, indices gpu.Buffer, count int) {
	gl.BindVertexArray(uint32(vao))
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(indices))
	gl.DrawElements(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, gl.PtrOffset(0))
	gl.BindVertexArray(0)
}

// DrawIndexedInstanced feeds the instance buffer as a mat4 attribute with
// divisor 1 for the duration of the draw.
func (d *Device) DrawIndexedInstanced(vao gpu.VertexArray, indices gpu.Buffer, count int, instances gpu.Buffer, instanceCount int) {
	gl.BindVertexArray(uint32(vao))
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(instances))
	for col := uint32(0); col < 4; col++ {
		loc := gpu.AttribInstance + col
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribPointerWithOffset(loc, 4, gl.FLOAT, false, mat4Size, uintptr(col*16))
		gl.VertexAttribDivisor(loc, 1)
	}

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(indices))
	gl.DrawElementsInstanced(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, gl.PtrOffset(0), int32(instanceCount))

	for col := uint32(0); col < 4; col++ {
		gl.DisableVertexAttribArray(gpu.AttribInstance + col)
	}
	gl.BindVertexArray(0)
}
