package alloc

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/sdfscene"
)

// Arena errors.
var (
	// ErrStorageExhausted is returned when an allocation or commit cannot
	// be satisfied within the storage capacity limit.
	ErrStorageExhausted = errors.New("alloc: storage space exhausted")

	// ErrMetadataExhausted is returned when no metadata slot fits a request.
	ErrMetadataExhausted = errors.New("alloc: metadata pool exhausted")

	// ErrStaleHandle is returned when a handle does not refer to a live
	// allocation, typically because a commit relocated it.
	ErrStaleHandle = errors.New("alloc: handle does not refer to a live allocation")

	// ErrBufferNotFound is returned when freeing a slot and scope pair
	// that has no allocation.
	ErrBufferNotFound = errors.New("alloc: buffer not found in arena")

	// ErrWriteOutOfRange is returned when a write does not fit inside the
	// allocation it targets.
	ErrWriteOutOfRange = errors.New("alloc: write exceeds allocation bounds")
)

// Default storage limits.
const (
	// DefaultStorageCapacity is the initial storage size (1 MiB).
	DefaultStorageCapacity = 1 << 20

	// DefaultMaxStorageCapacity is the growth limit for storage (16 MiB).
	DefaultMaxStorageCapacity = 16 << 20
)

// Config holds configuration for creating an Arena.
type Config struct {
	// StorageCapacity is the initial storage size in bytes.
	// Defaults to DefaultStorageCapacity if zero.
	StorageCapacity uint32

	// MaxStorageCapacity bounds storage growth during CommitReservations.
	// Defaults to DefaultMaxStorageCapacity if zero, and is raised to
	// StorageCapacity when smaller.
	MaxStorageCapacity uint32

	// MetadataPoolSizes lists the metadata slot classes in bytes, strictly
	// ascending. Defaults to 32/64/128/256 when empty.
	MetadataPoolSizes []uint32

	// MetadataPoolCounts gives the slot count per class, index-matched
	// with MetadataPoolSizes. Defaults to 64/64/32/16 when empty.
	MetadataPoolCounts []uint32
}

// ConfigError describes an invalid Config field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("alloc: config %s: %s", e.Field, e.Reason)
}

// DefaultConfig returns the configuration New applies for zero-value
// fields: 1 MiB of storage growable to 16 MiB, and metadata slot classes
// of 32, 64, 128, and 256 bytes.
func DefaultConfig() Config {
	return Config{
		StorageCapacity:    DefaultStorageCapacity,
		MaxStorageCapacity: DefaultMaxStorageCapacity,
		MetadataPoolSizes:  []uint32{32, 64, 128, 256},
		MetadataPoolCounts: []uint32{64, 64, 32, 16},
	}
}

// withDefaults fills zero-value fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.StorageCapacity == 0 {
		c.StorageCapacity = def.StorageCapacity
	}
	if c.MaxStorageCapacity == 0 {
		c.MaxStorageCapacity = def.MaxStorageCapacity
	}
	if c.MaxStorageCapacity < c.StorageCapacity {
		c.MaxStorageCapacity = c.StorageCapacity
	}
	if len(c.MetadataPoolSizes) == 0 && len(c.MetadataPoolCounts) == 0 {
		c.MetadataPoolSizes = def.MetadataPoolSizes
		c.MetadataPoolCounts = def.MetadataPoolCounts
	}
	return c
}

// Validate checks the metadata pool layout. Each slot class must have a
// positive, word-aligned slot size, classes must ascend strictly, and each
// class must start at an offset aligned to its own slot size so byte
// offsets divide evenly into slot indices.
func (c Config) Validate() error {
	if len(c.MetadataPoolSizes) != len(c.MetadataPoolCounts) {
		return &ConfigError{Field: "MetadataPoolCounts", Reason: "length must match MetadataPoolSizes"}
	}
	var base, prev uint32
	for i, size := range c.MetadataPoolSizes {
		if size == 0 {
			return &ConfigError{Field: "MetadataPoolSizes", Reason: "slot sizes must be positive"}
		}
		if size%4 != 0 {
			return &ConfigError{Field: "MetadataPoolSizes", Reason: "slot sizes must be multiples of 4"}
		}
		if size <= prev {
			return &ConfigError{Field: "MetadataPoolSizes", Reason: "slot sizes must be strictly ascending"}
		}
		if base%size != 0 {
			return &ConfigError{
				Field:  "MetadataPoolCounts",
				Reason: fmt.Sprintf("%d-byte class starts at offset %d, misaligned for its slot size", size, base),
			}
		}
		base += size * c.MetadataPoolCounts[i]
		prev = size
	}
	return nil
}

// PoolStats describes the occupancy of one metadata slot class.
type PoolStats struct {
	SlotSize  uint32
	UsedSlots uint32
	SlotCount uint32
}

// ArenaStats is a snapshot of arena occupancy and upload state.
type ArenaStats struct {
	// StorageUsed is the byte total held by live allocations.
	StorageUsed uint32

	// StorageCapacity is the current backing array size in bytes.
	StorageCapacity uint32

	// StorageHighWater is the highest bump offset ever reached.
	StorageHighWater uint32

	// BufferCount is the number of live (slot, scope) allocations.
	BufferCount int

	// MetadataUsed is the byte total of allocated metadata slots.
	MetadataUsed uint32

	// MetadataCapacity is the metadata table size in bytes.
	MetadataCapacity uint32

	// MetadataPools breaks metadata usage down per slot class.
	MetadataPools []PoolStats

	// DirtyRanges counts pending upload ranges across storage and metadata.
	DirtyRanges int

	// Commits is the number of CommitReservations calls.
	Commits uint64

	// Relocations is the number of commits that compacted live allocations.
	Relocations uint64
}

// String returns a human-readable summary of the stats.
func (s ArenaStats) String() string {
	return fmt.Sprintf("Arena[storage %d/%d B (high %d), %d buffers, metadata %d/%d B, %d dirty, %d commits, %d relocations]",
		s.StorageUsed, s.StorageCapacity, s.StorageHighWater, s.BufferCount,
		s.MetadataUsed, s.MetadataCapacity, s.DirtyRanges, s.Commits, s.Relocations)
}

// bufferKey identifies one allocation by its owning slot and scope.
type bufferKey struct {
	slot  uint32
	scope string
}

// Arena is an in-memory storage arena implementing sdfscene.Arena and
// sdfscene.MetadataSink. Scene data lives in CPU staging arrays; dirty
// ranges record what a GPU uploader still has to copy out.
//
// Allocation is two-phase: Reserve sizes during a build's declaration
// step, then one CommitReservations guarantees the space, compacting or
// growing storage as needed. Compaction relocates live allocations, so
// handles obtained before a commit can go stale; Bytes returns nil for
// those and BufferHandle returns the replacement.
//
// Arena is safe for concurrent use, but slices returned by Bytes and
// StorageBytes are only valid until the next CommitReservations.
type Arena struct {
	mu sync.RWMutex

	// Storage region
	storage     []byte
	maxCapacity uint32
	next        uint32 // bump offset for the next allocation
	used        uint32 // bytes held by live allocations
	highWater   uint32
	buffers     map[bufferKey]sdfscene.Handle
	gen         uint32

	// Reservation phase
	reserved uint32

	// Metadata table
	metadata []byte
	pools    []*metadataPool

	// Upload tracking
	storageDirty  dirtyTracker
	metadataDirty dirtyTracker

	// Statistics
	commits     uint64
	relocations uint64
}

var (
	_ sdfscene.Arena        = (*Arena)(nil)
	_ sdfscene.MetadataSink = (*Arena)(nil)
)

// New creates an arena with the given configuration. Zero-value fields
// take defaults, so New(Config{}) and New(DefaultConfig()) are equivalent.
func New(cfg Config) (*Arena, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Arena{
		storage:     make([]byte, cfg.StorageCapacity),
		maxCapacity: cfg.MaxStorageCapacity,
		buffers:     make(map[bufferKey]sdfscene.Handle),
	}

	var base uint32
	for i, size := range cfg.MetadataPoolSizes {
		a.pools = append(a.pools, newMetadataPool(size, base, cfg.MetadataPoolCounts[i]))
		base += size * cfg.MetadataPoolCounts[i]
	}
	a.metadata = make([]byte, base)

	return a, nil
}

// Reserve accumulates size bytes into the pending reservation. The size is
// rounded up to whole words, matching what AllocateBuffer will carve.
func (a *Arena) Reserve(size uint32) {
	if size == 0 {
		return
	}
	a.mu.Lock()
	a.reserved += alignUp(size)
	a.mu.Unlock()
}

// CommitReservations guarantees the pending reservation fits in storage.
// Holes left by freed buffers are compacted first; if capacity still falls
// short the backing array grows, doubling up to the configured limit.
// Growth preserves offsets, so only compaction invalidates handles.
func (a *Arena) CommitReservations() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	need := a.reserved
	a.reserved = 0
	a.commits++

	want := uint64(a.next) + uint64(need)
	if want > uint64(len(a.storage)) {
		a.compactLocked()
		want = uint64(a.next) + uint64(need)
	}
	if want > uint64(len(a.storage)) {
		if err := a.growLocked(want); err != nil {
			return err
		}
	}

	sdfscene.Logger().Debug("arena reservations committed",
		"reserved", need,
		"stats", a.statsLocked())
	return nil
}

// AllocateBuffer carves size bytes for the (slot, scope) pair from the
// committed space, rounded up to whole words. Re-allocating a live pair
// frees the previous block first; the hole it leaves is reclaimed by the
// next compacting commit.
func (a *Arena) AllocateBuffer(slot uint32, scope string, size uint32) (sdfscene.Handle, error) {
	if size == 0 {
		return sdfscene.Handle{}, fmt.Errorf("alloc: zero-byte buffer for %s slot %d", scope, slot)
	}
	aligned := alignUp(size)

	a.mu.Lock()
	defer a.mu.Unlock()

	key := bufferKey{slot: slot, scope: scope}
	if old, ok := a.buffers[key]; ok {
		a.freeLocked(key, old)
	}

	if uint64(a.next)+uint64(aligned) > uint64(len(a.storage)) {
		free := uint32(len(a.storage)) - a.next
		return sdfscene.Handle{}, fmt.Errorf("%w: %d bytes for %s slot %d with %d free, reserve and commit first",
			ErrStorageExhausted, aligned, scope, slot, free)
	}

	h := sdfscene.Handle{
		Slot:       slot,
		Scope:      scope,
		Offset:     a.next,
		Size:       aligned,
		Generation: a.gen,
	}
	a.next += aligned
	a.used += aligned
	if a.next > a.highWater {
		a.highWater = a.next
	}
	a.buffers[key] = h
	clear(a.storage[h.Offset : h.Offset+h.Size])

	return h, nil
}

// BufferHandle returns the live handle for (slot, scope), if any.
func (a *Arena) BufferHandle(slot uint32, scope string) (sdfscene.Handle, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	h, ok := a.buffers[bufferKey{slot: slot, scope: scope}]
	return h, ok
}

// Bytes returns the staging bytes of h, or nil when h no longer matches
// the live allocation for its slot and scope.
func (a *Arena) Bytes(h sdfscene.Handle) []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.liveLocked(h) {
		return nil
	}
	return a.storage[h.Offset : h.Offset+h.Size]
}

// WriteBuffer copies data into the allocation at the given byte offset and
// marks the touched range for upload.
func (a *Arena) WriteBuffer(h sdfscene.Handle, off uint32, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.liveLocked(h) {
		return fmt.Errorf("%w: %s slot %d generation %d", ErrStaleHandle, h.Scope, h.Slot, h.Generation)
	}
	if uint64(off)+uint64(len(data)) > uint64(h.Size) {
		return fmt.Errorf("%w: %d bytes at offset %d in a %d-byte block",
			ErrWriteOutOfRange, len(data), off, h.Size)
	}

	copy(a.storage[h.Offset+off:], data)
	//nolint:gosec // G115: len(data) bounded by h.Size above
	a.storageDirty.mark(h.Offset+off, uint32(len(data)))
	return nil
}

// MarkDirty records that the full range of h changed and needs upload.
// Stale handles are ignored.
func (a *Arena) MarkDirty(h sdfscene.Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.liveLocked(h) {
		return
	}
	a.storageDirty.mark(h.Offset, h.Size)
}

// Free releases the allocation for (slot, scope).
func (a *Arena) Free(slot uint32, scope string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := bufferKey{slot: slot, scope: scope}
	h, ok := a.buffers[key]
	if !ok {
		return fmt.Errorf("%w: %s slot %d", ErrBufferNotFound, scope, slot)
	}
	a.freeLocked(key, h)
	return nil
}

// FreeSlot releases every allocation owned by slot, across all scopes.
// Freeing a slot with no allocations is a no-op.
func (a *Arena) FreeSlot(slot uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for key, h := range a.buffers {
		if key.slot == slot {
			a.freeLocked(key, h)
		}
	}
}

// CoalescedDirty returns the merged storage ranges pending upload, sorted
// by offset with neighbors closer than maxGap bytes joined. The pending
// set is kept; call ClearDirty once the upload lands.
func (a *Arena) CoalescedDirty(maxGap uint32) []Range {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.storageDirty.coalesced(maxGap)
}

// ClearDirty forgets all pending upload ranges for storage and metadata.
func (a *Arena) ClearDirty() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.storageDirty.clear()
	a.metadataDirty.clear()
}

// StorageBytes returns the CPU staging copy of the storage region. The
// slice is replaced when CommitReservations grows storage.
func (a *Arena) StorageBytes() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.storage
}

// Stats returns current arena occupancy statistics.
func (a *Arena) Stats() ArenaStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.statsLocked()
}

// liveLocked reports whether h matches the current registry entry for its
// slot and scope. Caller must hold mu.
func (a *Arena) liveLocked(h sdfscene.Handle) bool {
	cur, ok := a.buffers[bufferKey{slot: h.Slot, scope: h.Scope}]
	return ok && cur == h
}

// freeLocked drops the registry entry for key and returns its bytes to the
// pool. A trailing block rolls the bump offset back so the space is
// immediately reusable; interior blocks become holes until the next
// compacting commit. Caller must hold mu.
func (a *Arena) freeLocked(key bufferKey, h sdfscene.Handle) {
	delete(a.buffers, key)
	a.used -= h.Size
	if h.Offset+h.Size == a.next {
		a.next = h.Offset
	}
}

// compactLocked slides live allocations front-to-back, closing holes left
// by freed buffers. Every live handle is reissued under a new generation,
// so callers must re-fetch through BufferHandle. The whole live prefix is
// marked dirty because offsets moved. Caller must hold mu.
func (a *Arena) compactLocked() {
	if a.used == a.next {
		return
	}

	keys := make([]bufferKey, 0, len(a.buffers))
	for key := range a.buffers {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return a.buffers[keys[i]].Offset < a.buffers[keys[j]].Offset
	})

	a.gen++
	var next uint32
	for _, key := range keys {
		h := a.buffers[key]
		if h.Offset != next {
			copy(a.storage[next:], a.storage[h.Offset:h.Offset+h.Size])
		}
		h.Offset = next
		h.Generation = a.gen
		a.buffers[key] = h
		next += h.Size
	}
	a.next = next
	a.relocations++

	a.storageDirty.clear()
	if next > 0 {
		a.storageDirty.mark(0, next)
	}
}

// growLocked resizes backing storage to hold at least want bytes, doubling
// capacity up to the configured limit. Offsets are unchanged, so existing
// handles stay valid. Caller must hold mu.
func (a *Arena) growLocked(want uint64) error {
	if want > uint64(a.maxCapacity) {
		return fmt.Errorf("%w: need %d bytes, capacity limit %d bytes",
			ErrStorageExhausted, want, a.maxCapacity)
	}

	newCap := uint64(len(a.storage))
	for newCap < want {
		newCap *= 2
		if newCap > uint64(a.maxCapacity) {
			newCap = uint64(a.maxCapacity)
		}
	}

	prev := len(a.storage)
	grown := make([]byte, newCap)
	copy(grown, a.storage)
	a.storage = grown

	sdfscene.Logger().Info("arena grown",
		"capacity", newCap,
		"previous", prev)
	return nil
}

// statsLocked snapshots the stats. Caller must hold mu.
func (a *Arena) statsLocked() ArenaStats {
	st := ArenaStats{
		StorageUsed:      a.used,
		StorageCapacity:  uint32(len(a.storage)),
		StorageHighWater: a.highWater,
		BufferCount:      len(a.buffers),
		MetadataCapacity: uint32(len(a.metadata)),
		DirtyRanges:      len(a.storageDirty.ranges) + len(a.metadataDirty.ranges),
		Commits:          a.commits,
		Relocations:      a.relocations,
	}
	for _, p := range a.pools {
		used := p.usedSlots()
		st.MetadataUsed += used * p.slotSize
		st.MetadataPools = append(st.MetadataPools, PoolStats{
			SlotSize:  p.slotSize,
			UsedSlots: used,
			SlotCount: p.count,
		})
	}
	return st
}

// alignUp rounds n up to the next multiple of four bytes, the word size of
// every GPU-visible stream.
func alignUp(n uint32) uint32 { return (n + 3) &^ 3 }
