// Package renderer draws GPU-resident models into one region of a window.
package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/lightshow/internal/assets"
	"github.com/Faultbox/lightshow/internal/engine/gpu"
	"github.com/Faultbox/lightshow/internal/engine/layout"
	"github.com/Faultbox/lightshow/internal/logger"
)

// Uniform names the shaders are written against.
const (
	UniformModel       = "ModelM"
	UniformView        = "ViewM"
	UniformProjection  = "ProjectionM"
	UniformCamera      = "cameraPosition"
	UniformInstanced   = "instanced"
	UniformAlbedo      = "albedoConstant"
	UniformRoughness   = "roughnessConstant"
	UniformMetallic    = "metallicConstant"
	UniformAlbedoTex   = "albedoTexture"
	UniformRoughTex    = "roughnessTexture"
	UniformMetallicTex = "metallicTexture"
	UniformNormalTex   = "normalTexture"
)

// Samplers and their "use" flags, in texture-unit order.
var (
	samplerUniforms = [4]string{UniformAlbedoTex, UniformRoughTex, UniformMetallicTex, UniformNormalTex}
	useUniforms     = [4]string{"useAlbedoTexture", "useRoughnessTexture", "useMetallicTexture", "useNormalTexture"}
)

// DefaultClearColor is a dark blue-gray.
var DefaultClearColor = mgl32.Vec4{0.1, 0.1, 0.15, 1.0}

// State is the viewport's draw readiness.
type State uint8

const (
	// Idle has no usable shader bound; draws are no-ops.
	Idle State = iota
	// ShaderBound has a shader but not all camera uniforms.
	ShaderBound
	// Ready has a shader and view, projection and camera position.
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ShaderBound:
		return "shader-bound"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

const (
	haveView uint8 = 1 << iota
	haveProjection
	haveCamera

	haveAll = haveView | haveProjection | haveCamera
)

// Viewport issues draws for one layout region. Viewports may share a
// program; each keeps its own camera uniforms and pushes them again before
// every draw.
type Viewport struct {
	cache  *gpu.Cache
	device gpu.Device

	program gpu.Program
	state   State
	have    uint8

	view       mgl32.Mat4
	projection mgl32.Mat4
	camera     mgl32.Vec3

	region   layout.Rect
	fbHeight int

	ClearColor mgl32.Vec4
}

// NewViewport creates an idle viewport drawing models from cache.
func NewViewport(cache *gpu.Cache) *Viewport {
	return &Viewport{
		cache:      cache,
		device:     cache.Device(),
		view:       mgl32.Ident4(),
		projection: mgl32.Ident4(),
		ClearColor: DefaultClearColor,
	}
}

// State returns the current draw readiness.
func (v *Viewport) State() State { return v.state }

// Program returns the bound program, zero when idle.
func (v *Viewport) Program() gpu.Program { return v.program }

// UseShader binds the program uploaded for id. A program that failed to
// build is logged and leaves the viewport unchanged.
func (v *Viewport) UseShader(id assets.ID) error {
	prog, err := v.cache.Program(id)
	if err != nil {
		return err
	}
	if prog == 0 {
		logger.Warn("shader unavailable, keeping previous state",
			zap.Stringer("shader", id),
			zap.Stringer("state", v.state))
		return nil
	}

	v.program = prog
	v.state = ShaderBound
	v.have = 0

	v.device.UseProgram(prog)
	for unit, name := range samplerUniforms {
		v.device.SetUniformInt(prog, name, int32(unit))
	}
	return nil
}

// SetView sets the view matrix.
func (v *Viewport) SetView(m mgl32.Mat4) {
	v.view = m
	v.supply(haveView, func(p gpu.Program) { v.device.SetUniformMat4(p, UniformView, m) })
}

// SetPerspective sets the projection matrix.
func (v *Viewport) SetPerspective(m mgl32.Mat4) {
	v.projection = m
	v.supply(haveProjection, func(p gpu.Program) { v.device.SetUniformMat4(p, UniformProjection, m) })
}

// SetCameraPosition sets the eye position used for lighting.
func (v *Viewport) SetCameraPosition(pos mgl32.Vec3) {
	v.camera = pos
	v.supply(haveCamera, func(p gpu.Program) { v.device.SetUniformVec3(p, UniformCamera, pos) })
}

func (v *Viewport) supply(bit uint8, push func(gpu.Program)) {
	if v.state == Idle {
		return
	}
	v.device.UseProgram(v.program)
	push(v.program)
	v.have |= bit
	if v.have == haveAll {
		v.state = Ready
	}
}

// RenderModel draws every sub-mesh of a model with transform. Idle
// viewports draw nothing.
func (v *Viewport) RenderModel(id assets.ID, transform mgl32.Mat4) error {
	h, ok, err := v.begin(id)
	if !ok {
		return err
	}
	v.device.SetUniformInt(v.program, UniformInstanced, 0)
	v.device.SetUniformMat4(v.program, UniformModel, transform)

	for _, sm := range h.SubMeshes {
		if sm.Buffer == 0 {
			continue
		}
		v.bindMaterial(h, sm.MaterialIndex)
		v.device.DrawIndexed(h.VertexArray, sm.Buffer, sm.Count)
	}
	return nil
}

// RenderModelInstanced draws a model once per transform in instances. A nil
// or empty buffer draws nothing.
func (v *Viewport) RenderModelInstanced(id assets.ID, instances *gpu.InstanceBuffer) error {
	h, ok, err := v.begin(id)
	if !ok {
		return err
	}
	if instances == nil || instances.Len() == 0 {
		return nil
	}
	v.device.SetUniformInt(v.program, UniformInstanced, 1)

	for _, sm := range h.SubMeshes {
		if sm.Buffer == 0 {
			continue
		}
		v.bindMaterial(h, sm.MaterialIndex)
		v.device.DrawIndexedInstanced(h.VertexArray, sm.Buffer, sm.Count, instances.Buffer(), instances.Len())
	}
	return nil
}

// begin resolves the model and prepares device state. ok is false when
// nothing should be drawn.
func (v *Viewport) begin(id assets.ID) (*gpu.ModelHandle, bool, error) {
	if v.state == Idle {
		return nil, false, nil
	}
	h, err := v.cache.Model(id)
	if err != nil {
		return nil, false, err
	}
	if v.state != Ready {
		logger.Debug("drawing without full camera state",
			zap.Stringer("model", id),
			zap.Stringer("state", v.state))
	}
	v.device.UseProgram(v.program)
	v.pushCamera()
	v.applyRegion()
	return h, true, nil
}

// pushCamera restores the camera uniforms this viewport supplied, which
// another viewport on the same program may have overwritten.
func (v *Viewport) pushCamera() {
	if v.have&haveView != 0 {
		v.device.SetUniformMat4(v.program, UniformView, v.view)
	}
	if v.have&haveProjection != 0 {
		v.device.SetUniformMat4(v.program, UniformProjection, v.projection)
	}
	if v.have&haveCamera != 0 {
		v.device.SetUniformVec3(v.program, UniformCamera, v.camera)
	}
}

func (v *Viewport) bindMaterial(h *gpu.ModelHandle, index int) {
	var m gpu.Material
	if index >= 0 && index < len(h.Materials) {
		m = h.Materials[index]
	}

	v.device.SetUniformVec3(v.program, UniformAlbedo, m.Albedo)
	v.device.SetUniformFloat(v.program, UniformRoughness, m.Roughness)
	v.device.SetUniformFloat(v.program, UniformMetallic, m.Metallic)

	for unit, tex := range m.Textures() {
		v.device.BindTexture(unit, tex)
		var use int32
		if tex != 0 {
			use = 1
		}
		v.device.SetUniformInt(v.program, useUniforms[unit], use)
	}
}

// Clear clears color and depth inside the viewport's region.
func (v *Viewport) Clear() {
	x, y, w, h := v.deviceRect()
	v.device.Clear(x, y, w, h, v.ClearColor)
}

// SetRegion moves the viewport. fbHeight is the framebuffer height used to
// flip the top-left origin into the device's bottom-left one.
func (v *Viewport) SetRegion(r layout.Rect, fbHeight int) {
	v.region = r
	v.fbHeight = fbHeight
}

// Region returns the viewport's rectangle in window coordinates.
func (v *Viewport) Region() layout.Rect { return v.region }

// Aspect returns width over height, or 1 for an empty region.
func (v *Viewport) Aspect() float32 {
	if v.region.W <= 0 || v.region.H <= 0 {
		return 1
	}
	return float32(v.region.W) / float32(v.region.H)
}

func (v *Viewport) deviceRect() (x, y, w, h int) {
	r := v.region
	return r.X, v.fbHeight - (r.Y + r.H), r.W, r.H
}

func (v *Viewport) applyRegion() {
	x, y, w, h := v.deviceRect()
	v.device.Viewport(x, y, w, h)
}
