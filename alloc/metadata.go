package alloc

import (
	"fmt"

	"github.com/gogpu/sdfscene"
)

// metadataPool hands out fixed-size slots from one contiguous region of
// the metadata table. Slots are recycled LIFO so a freed slot is the next
// one returned.
type metadataPool struct {
	slotSize uint32
	base     uint32
	count    uint32
	free     []uint32 // free slot offsets, last element is next out
}

// newMetadataPool builds a pool of count slots of slotSize bytes starting
// at base. The free stack is seeded so the lowest offset pops first.
func newMetadataPool(slotSize, base, count uint32) *metadataPool {
	p := &metadataPool{slotSize: slotSize, base: base, count: count}
	p.free = make([]uint32, 0, count)
	for i := count; i > 0; i-- {
		p.free = append(p.free, base+(i-1)*slotSize)
	}
	return p
}

// allocate pops a free slot offset, reporting false when the pool is full.
func (p *metadataPool) allocate() (uint32, bool) {
	if len(p.free) == 0 {
		return 0, false
	}
	off := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return off, true
}

// release returns a slot offset to the pool after validating it belongs
// to this pool's region and lands on a slot boundary.
func (p *metadataPool) release(offset uint32) error {
	if offset < p.base || offset >= p.base+p.count*p.slotSize {
		return fmt.Errorf("alloc: metadata offset %d outside the %d-byte slot class", offset, p.slotSize)
	}
	if (offset-p.base)%p.slotSize != 0 {
		return fmt.Errorf("alloc: metadata offset %d misaligned for %d-byte slots", offset, p.slotSize)
	}
	p.free = append(p.free, offset)
	return nil
}

// usedSlots returns how many slots are currently allocated.
func (p *metadataPool) usedSlots() uint32 {
	return p.count - uint32(len(p.free))
}

// AllocateMetadata reserves a metadata slot from the smallest class whose
// slot size is at least size bytes. The returned handle's Size is the
// class slot size, not the requested size. The slot is zeroed.
//
// The error wraps ErrMetadataExhausted both when the matching class has no
// free slots and when size exceeds the largest class.
func (a *Arena) AllocateMetadata(size uint32) (sdfscene.MetadataHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, p := range a.pools {
		if size > p.slotSize {
			continue
		}
		off, ok := p.allocate()
		if !ok {
			return sdfscene.MetadataHandle{}, fmt.Errorf("%w: all %d slots of the %d-byte class in use",
				ErrMetadataExhausted, p.count, p.slotSize)
		}
		clear(a.metadata[off : off+p.slotSize])
		a.metadataDirty.mark(off, p.slotSize)
		return sdfscene.MetadataHandle{Offset: off, Size: p.slotSize}, nil
	}

	largest := a.pools[len(a.pools)-1].slotSize
	return sdfscene.MetadataHandle{}, fmt.Errorf("%w: %d bytes exceeds the largest slot class (%d bytes)",
		ErrMetadataExhausted, size, largest)
}

// FreeMetadata returns a metadata slot to its class for reuse.
func (a *Arena) FreeMetadata(h sdfscene.MetadataHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, p := range a.pools {
		if p.slotSize == h.Size {
			return p.release(h.Offset)
		}
	}
	return fmt.Errorf("%w: no %d-byte metadata slot class", ErrStaleHandle, h.Size)
}

// WriteMetadata replaces the slot contents starting at its base.
func (a *Arena) WriteMetadata(h sdfscene.MetadataHandle, data []byte) error {
	return a.WriteMetadataAt(h, 0, data)
}

// WriteMetadataAt copies data into the slot at the given byte offset and
// marks the touched range for upload.
func (a *Arena) WriteMetadataAt(h sdfscene.MetadataHandle, off uint32, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !h.Valid() || uint64(h.Offset)+uint64(h.Size) > uint64(len(a.metadata)) {
		return fmt.Errorf("%w: metadata offset %d size %d", ErrStaleHandle, h.Offset, h.Size)
	}
	if uint64(off)+uint64(len(data)) > uint64(h.Size) {
		return fmt.Errorf("%w: %d bytes at offset %d in a %d-byte slot",
			ErrWriteOutOfRange, len(data), off, h.Size)
	}

	pos := h.Offset + off
	copy(a.metadata[pos:], data)
	//nolint:gosec // G115: len(data) bounded by h.Size above
	a.metadataDirty.mark(pos, uint32(len(data)))
	return nil
}

// MetadataBytes returns the CPU staging copy of the metadata table. The
// table never relocates, so the slice stays valid for the arena lifetime.
func (a *Arena) MetadataBytes() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.metadata
}

// CoalescedMetadataDirty returns the merged metadata ranges pending upload.
// See CoalescedDirty for the merge rule.
func (a *Arena) CoalescedMetadataDirty(maxGap uint32) []Range {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.metadataDirty.coalesced(maxGap)
}
