package alloc

import "sort"

// DefaultDirtyGap is the merge distance for coalescing dirty ranges.
// Ranges separated by fewer than this many bytes upload as one write,
// trading a little extra bandwidth for fewer queue submissions.
const DefaultDirtyGap = 64

// Range is a contiguous span of staging bytes pending GPU upload.
type Range struct {
	Offset uint32
	Size   uint32
}

// dirtyTracker accumulates byte ranges written since the last flush.
// Ranges are recorded as-is; sorting and merging happen in coalesced.
type dirtyTracker struct {
	ranges []Range
}

// mark records that size bytes at offset changed.
func (t *dirtyTracker) mark(offset, size uint32) {
	if size == 0 {
		return
	}
	t.ranges = append(t.ranges, Range{Offset: offset, Size: size})
}

// clear forgets all pending ranges, keeping the backing slice.
func (t *dirtyTracker) clear() {
	t.ranges = t.ranges[:0]
}

// hasDirty reports whether any range is pending.
func (t *dirtyTracker) hasDirty() bool {
	return len(t.ranges) > 0
}

// coalesced sorts the pending ranges and merges neighbors separated by at
// most maxGap bytes. The tracker keeps its ranges; callers clear after the
// upload succeeds.
func (t *dirtyTracker) coalesced(maxGap uint32) []Range {
	if len(t.ranges) == 0 {
		return nil
	}

	sort.Slice(t.ranges, func(i, j int) bool {
		return t.ranges[i].Offset < t.ranges[j].Offset
	})

	merged := make([]Range, 0, len(t.ranges))
	cur := t.ranges[0]
	for _, r := range t.ranges[1:] {
		if uint64(r.Offset) <= uint64(cur.Offset)+uint64(cur.Size)+uint64(maxGap) {
			if end := r.Offset + r.Size; end > cur.Offset+cur.Size {
				cur.Size = end - cur.Offset
			}
		} else {
			merged = append(merged, cur)
			cur = r
		}
	}
	return append(merged, cur)
}
