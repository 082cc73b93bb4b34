//go:build !nogpu

package gpu

import (
	"context"
	"fmt"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sdfscene"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// defaultWait bounds fence waits when the context carries no deadline.
const defaultWait = 5 * time.Second

// Device bundles the hal handles scene upload needs. Obtain one from
// Open (standalone) or FromProvider (shared device from a host app).
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	name     string
	owned    bool // false when the host app owns device and queue
}

// Open creates a standalone Vulkan device on the best available adapter,
// preferring discrete over integrated GPUs. Callers that already run
// inside a GPU application should use FromProvider instead so the scene
// shares the application's device.
func Open() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("gpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open device: %w", err)
	}
	d := &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		name:     selected.Info.Name,
		owned:    true,
	}
	sdfscene.Logger().Info("gpu device opened", "adapter", d.name)
	return d, nil
}

// FromProvider resolves hal handles from a shared device provider. The
// provider must also implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue; gpucontext-only providers cannot
// serve buffer upload.
func FromProvider(provider DeviceHandle) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}
	return &Device{device: device, queue: queue, name: "shared"}, nil
}

// Close releases the device when this package owns it. Shared devices
// from FromProvider are left alone; the host app owns their lifetime.
func (d *Device) Close() {
	if d.owned {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
}

// Name returns the adapter name, or "shared" for provider devices.
func (d *Device) Name() string { return d.name }

// compileWGSL compiles WGSL source to SPIR-V uint32 words for hal.
func compileWGSL(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile shader: %w", err)
	}
	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}

// waitBudget derives a fence timeout from the context deadline.
func waitBudget(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return defaultWait
	}
	budget := time.Until(deadline)
	if budget <= 0 {
		return time.Millisecond
	}
	return budget
}

// copySize pads n up to the 256-byte buffer copy alignment.
func copySize(n int) uint64 {
	return (uint64(n) + 255) &^ 255 //nolint:gosec // n is a slice length
}

func structToBytes(ptr unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(ptr), size) //nolint:gosec // safe struct serialization
}
