package sdfscene

// Handle identifies one buffer allocation inside a storage arena.
// Offset and Size are in bytes. Generation guards against use after the
// arena has relocated or freed the block.
type Handle struct {
	Slot       uint32
	Scope      string
	Offset     uint32
	Size       uint32
	Generation uint32
}

// Valid reports whether h refers to an allocation.
func (h Handle) Valid() bool { return h.Size != 0 }

// Arena is the storage service the build pipeline writes GPU data through.
// The contract is two-phase: Reserve during DeclareNeeds, one
// CommitReservations, then AllocateBuffer for each block. Committing may
// relocate earlier allocations; handles from before the commit go stale
// and Write always rewrites full regions from staging.
type Arena interface {
	// Reserve accumulates size bytes into the pending reservation.
	Reserve(size uint32)

	// CommitReservations makes the pending reservation available for
	// AllocateBuffer calls, growing or compacting backing storage as
	// needed.
	CommitReservations() error

	// AllocateBuffer carves size bytes for the (slot, scope) pair.
	// Re-allocating a live pair frees the previous block.
	AllocateBuffer(slot uint32, scope string, size uint32) (Handle, error)

	// BufferHandle returns the live handle for (slot, scope), if any.
	BufferHandle(slot uint32, scope string) (Handle, bool)

	// Bytes returns the backing bytes of h, or nil for a stale handle.
	Bytes(h Handle) []byte

	// MarkDirty records that the bytes of h changed and need upload.
	MarkDirty(h Handle)
}

// MetadataHandle identifies a fixed-size metadata slot. Offset is in bytes
// from the start of the metadata table.
type MetadataHandle struct {
	Offset uint32
	Size   uint32
}

// Valid reports whether h refers to a metadata slot.
func (h MetadataHandle) Valid() bool { return h.Size != 0 }

// SlotIndex returns the 64-byte slot index shaders use to find the header.
func (h MetadataHandle) SlotIndex() uint32 { return h.Offset / MetadataSize }

// MetadataSink receives the per-scene metadata header.
type MetadataSink interface {
	// AllocateMetadata reserves a metadata slot of at least size bytes.
	AllocateMetadata(size uint32) (MetadataHandle, error)

	// WriteMetadata replaces the slot contents starting at its base.
	WriteMetadata(h MetadataHandle, data []byte) error

	// WriteMetadataAt updates data at a byte offset within the slot.
	WriteMetadataAt(h MetadataHandle, off uint32, data []byte) error
}
