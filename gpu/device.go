// Package gpu mirrors scene storage into GPU buffers and probes the
// uploaded scene with a compute shader.
//
// The Uploader keeps two wgpu/hal storage buffers in sync with an
// alloc.Arena: one for the relocating storage region (primitive streams,
// glyph records, grid words) and one for the fixed metadata region. Only
// coalesced dirty ranges are re-uploaded on Flush, so steady-state frames
// with a handful of edits cost a handful of small writes.
//
// The Probe dispatches a grid-lookup compute shader against the uploaded
// buffers and reads back the entries covering a scene-space point. It
// exists to validate the buffer layout end to end on real hardware; the
// shader performs the same cell walk a renderer would.
//
// Device access follows the shared-device model: the host application
// owns the GPU device and hands it over through a DeviceHandle. Open is
// available for standalone use (tools, tests) and creates a private
// Vulkan device instead.
package gpu

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
//
// The host (e.g. a gogpu.App) implements DeviceHandle and passes it to
// FromProvider, allowing scene upload to share the application's GPU
// device instead of creating a second one. Providers that also expose
// HAL types via HalDevice()/HalQueue() are required; gpucontext-only
// providers are rejected because buffer upload needs direct hal access.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, providing a
// local name for the interface while maintaining full compatibility
// with the gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Used for CPU-only operation where no GPU is available.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}
