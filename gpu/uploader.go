//go:build !nogpu

package gpu

import (
	"context"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sdfscene"
	"github.com/gogpu/sdfscene/alloc"
)

// mirror is one GPU-side copy of a CPU staging region.
type mirror struct {
	buf hal.Buffer
	cap uint64
}

// Uploader keeps GPU storage buffers in sync with an arena. The storage
// and metadata regions each get one buffer with usage Storage|CopyDst,
// created lazily on the first Flush and recreated (with a full upload)
// whenever the arena outgrows them. Between recreations only the arena's
// coalesced dirty ranges are written.
//
// Flush must not run concurrently with Probe.Query on the same Uploader;
// both follow the single-writer model of the scene builder.
type Uploader struct {
	mu    sync.Mutex
	dev   *Device
	arena *alloc.Arena

	storage  mirror
	metadata mirror
}

// NewUploader binds a device to an arena. No GPU resources are created
// until the first Flush.
func NewUploader(dev *Device, arena *alloc.Arena) *Uploader {
	return &Uploader{dev: dev, arena: arena}
}

// Flush uploads pending arena changes to the GPU. A buffer that does not
// exist yet, or is too small for a grown arena, is (re)created and filled
// with a full copy; otherwise only the coalesced dirty ranges are written.
// Relocations inside the arena always land in the dirty set, so partial
// uploads stay coherent. Clears the arena's dirty state on success.
func (u *Uploader) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("gpu: flush: %w", err)
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	storageWritten, storageRanges, err := u.syncMirror(&u.storage, "scene_storage",
		u.arena.StorageBytes(), u.arena.CoalescedDirty(alloc.DefaultDirtyGap))
	if err != nil {
		return err
	}
	metaWritten, metaRanges, err := u.syncMirror(&u.metadata, "scene_metadata",
		u.arena.MetadataBytes(), u.arena.CoalescedMetadataDirty(alloc.DefaultDirtyGap))
	if err != nil {
		return err
	}
	u.arena.ClearDirty()

	sdfscene.Logger().Debug("gpu flush",
		"storageBytes", storageWritten,
		"storageRanges", storageRanges,
		"metadataBytes", metaWritten,
		"metadataRanges", metaRanges,
	)
	return nil
}

// syncMirror brings one GPU buffer up to date with its staging region.
// Returns the bytes written and the number of copy ranges used.
func (u *Uploader) syncMirror(m *mirror, label string, staging []byte, dirty []alloc.Range) (int, int, error) {
	recreated, err := u.ensureCapacity(m, label, len(staging))
	if err != nil {
		return 0, 0, err
	}
	if recreated {
		u.dev.queue.WriteBuffer(m.buf, 0, staging)
		return len(staging), 1, nil
	}
	written := 0
	for _, r := range dirty {
		u.dev.queue.WriteBuffer(m.buf, uint64(r.Offset), staging[r.Offset:r.Offset+r.Size])
		written += int(r.Size)
	}
	return written, len(dirty), nil
}

// ensureCapacity creates or replaces the buffer so it can hold n bytes.
// Reports whether a new buffer was created, which forces a full upload.
func (u *Uploader) ensureCapacity(m *mirror, label string, n int) (bool, error) {
	need := copySize(n)
	if m.buf != nil && m.cap >= need {
		return false, nil
	}
	if m.buf != nil {
		u.dev.device.DestroyBuffer(m.buf)
		m.buf = nil
		m.cap = 0
	}
	buf, err := u.dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  need,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return false, fmt.Errorf("gpu: create %s buffer: %w", label, err)
	}
	m.buf = buf
	m.cap = need
	return true, nil
}

// buffers exposes the live hal buffers to the probe. Nil until the
// first Flush has run.
func (u *Uploader) buffers() (storage, metadata hal.Buffer, storageSize, metadataSize uint64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.storage.buf, u.metadata.buf, u.storage.cap, u.metadata.cap
}

// Close destroys the GPU buffers. The arena and device stay usable.
func (u *Uploader) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.storage.buf != nil {
		u.dev.device.DestroyBuffer(u.storage.buf)
		u.storage = mirror{}
	}
	if u.metadata.buf != nil {
		u.dev.device.DestroyBuffer(u.metadata.buf)
		u.metadata = mirror{}
	}
}
