// Package gpu uploads assets to the graphics device and tracks the
// resulting handles by asset ID.
package gpu

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/lightshow/internal/assets"
	"github.com/Faultbox/lightshow/internal/engine/texture"
)

// GPU errors.
var (
	ErrCompile           = errors.New("shader compile failed")
	ErrLink              = errors.New("shader link failed")
	ErrNotFound          = errors.New("gpu resource not found")
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
)

// Device handles. Zero is never a valid handle.
type (
	Buffer      uint32
	VertexArray uint32
	Texture     uint32
	Program     uint32
)

// Vertex attribute locations shared by every program.
const (
	AttribPosition  = 0
	AttribNormal    = 1
	AttribTexCoord  = 2
	AttribTangent   = 3
	AttribBitangent = 4
	// AttribInstance is the first of four vec4 columns of the per-instance
	// model matrix.
	AttribInstance = 5
)

// Vertex attribute names bound to the locations above.
var AttribNames = map[uint32]string{
	AttribPosition:  "vPos",
	AttribNormal:    "vNorm",
	AttribTexCoord:  "vTex",
	AttribTangent:   "tangent",
	AttribBitangent: "biTangent",
	AttribInstance:  "instanceM",
}

// Device is the graphics command layer. Implementations assume a current
// context on the calling thread.
type Device interface {
	// CreateVertexArray uploads vertices and records their attribute layout.
	CreateVertexArray(vertices []assets.Vertex) (VertexArray, Buffer)
	DeleteVertexArray(vao VertexArray)
	CreateIndexBuffer(indices []uint32) Buffer
	CreateInstanceBuffer(transforms []mgl32.Mat4) Buffer
	UpdateInstanceBuffer(buf Buffer, transforms []mgl32.Mat4)
	DeleteBuffer(buf Buffer)

	CreateTexture(img *texture.Image, format PixelFormat) (Texture, error)
	DeleteTexture(tex Texture)
	BindTexture(unit int, tex Texture)

	// CompileProgram compiles and links a program. Failures wrap
	// ErrCompile or ErrLink and carry the driver's diagnostic text.
	CompileProgram(vertexSource, fragmentSource string) (Program, error)
	DeleteProgram(p Program)
	UseProgram(p Program)

	SetUniformMat4(p Program, name string, m mgl32.Mat4)
	SetUniformVec3(p Program, name string, v mgl32.Vec3)
	SetUniformFloat(p Program, name string, f float32)
	SetUniformInt(p Program, name string, i int32)

	// Viewport and Clear take rectangles in the device's bottom-left origin.
	Viewport(x, y, width, height int)
	Clear(x, y, width, height int, color mgl32.Vec4)
	// ReadPixels returns RGBA8 pixels of a framebuffer rectangle, rows
	// bottom-up.
	ReadPixels(x, y, width, height int) []byte

	DrawIndexed(vao VertexArray, indices Buffer, count int)
	DrawIndexedInstanced(vao VertexArray, indices Buffer, count int, instances Buffer, instanceCount int)
}

// PixelFormat is a texture's channel layout and sample size.
type PixelFormat int

// Pixel formats.
const (
	FormatR8 PixelFormat = iota
	FormatRG8
	FormatRGB8
	FormatRGBA8
	FormatR16
	FormatRG16
	FormatRGB16
	FormatRGBA16
)

// Channels returns the number of channels.
func (f PixelFormat) Channels() int {
	return int(f)%4 + 1
}

// BitDepth returns the bits per channel.
func (f PixelFormat) BitDepth() int {
	if f >= FormatR16 {
		return 16
	}
	return 8
}

// BytesPerPixel returns the size of one pixel.
func (f PixelFormat) BytesPerPixel() int {
	return f.Channels() * f.BitDepth() / 8
}

// String returns the format name.
func (f PixelFormat) String() string {
	names := [...]string{"R8", "RG8", "RGB8", "RGBA8", "R16", "RG16", "RGB16", "RGBA16"}
	if f < 0 || int(f) >= len(names) {
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
	return names[f]
}

// FormatFor picks the format for an image's channel count and bit depth.
// Unsupported combinations return the closest format along with an error
// wrapping ErrUnsupportedFormat: RGBA for a bad channel count, 8-bit for a
// bad depth.
func FormatFor(channels, bitDepth int) (PixelFormat, error) {
	var err error

	if channels < 1 || channels > 4 {
		err = fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, channels)
		channels = 4
	}
	base := FormatR8
	switch bitDepth {
	case 8:
	case 16:
		base = FormatR16
	default:
		if err == nil {
			err = fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, bitDepth)
		}
	}

	return base + PixelFormat(channels-1), err
}
