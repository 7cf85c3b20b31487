package gpu

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/lightshow/internal/logger"
)

// InstanceBuffer holds per-instance model matrices for instanced draws.
// Its element count is fixed at creation.
type InstanceBuffer struct {
	device Device
	buf    Buffer
	count  int
}

// NewInstanceBuffer uploads transforms into a new buffer.
func NewInstanceBuffer(device Device, transforms []mgl32.Mat4) *InstanceBuffer {
	return &InstanceBuffer{
		device: device,
		buf:    device.CreateInstanceBuffer(transforms),
		count:  len(transforms),
	}
}

// Update replaces the transforms. A slice of a different length is
// rejected with a warning and nothing is uploaded.
func (b *InstanceBuffer) Update(transforms []mgl32.Mat4) bool {
	if len(transforms) != b.count {
		logger.Warn("instance buffer size mismatch",
			zap.Int("have", b.count),
			zap.Int("got", len(transforms)))
		return false
	}
	b.device.UpdateInstanceBuffer(b.buf, transforms)
	return true
}

// Len returns the number of instances.
func (b *InstanceBuffer) Len() int { return b.count }

// Buffer returns the device buffer.
func (b *InstanceBuffer) Buffer() Buffer { return b.buf }

// Destroy frees the buffer.
func (b *InstanceBuffer) Destroy() {
	if b.buf != 0 {
		b.device.DeleteBuffer(b.buf)
		b.buf = 0
		b.count = 0
	}
}
