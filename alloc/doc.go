// Package alloc provides an in-memory arena for staging GPU scene data.
//
// Arena implements the sdfscene.Arena and sdfscene.MetadataSink interfaces
// with CPU byte arrays standing in for device buffers: scene builds write
// into staging, and dirty-range tracking records exactly which byte spans
// an uploader (package gpu) still has to copy to the device.
//
// Storage uses a two-phase bump allocator. Callers reserve sizes while
// declaring a build, then a single CommitReservations guarantees the
// space, compacting freed holes or growing the backing array when needed.
// Compaction relocates live allocations and reissues their handles under a
// new generation; stale handles read as nil and error on write.
//
// Metadata lives in fixed-size slot classes (32/64/128/256 bytes by
// default), each a small LIFO free list, matching how scene headers are
// addressed by slot index on the GPU.
package alloc
