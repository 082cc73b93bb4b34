package alloc

import (
	"testing"

	"github.com/gogpu/sdfscene"
)

func TestDirtyTracker_Coalesced(t *testing.T) {
	tests := []struct {
		name   string
		marks  []Range
		maxGap uint32
		want   []Range
	}{
		{
			name: "empty",
		},
		{
			name:  "single range",
			marks: []Range{{Offset: 10, Size: 5}},
			want:  []Range{{Offset: 10, Size: 5}},
		},
		{
			name:   "within gap merges",
			marks:  []Range{{Offset: 0, Size: 10}, {Offset: 20, Size: 10}},
			maxGap: 64,
			want:   []Range{{Offset: 0, Size: 30}},
		},
		{
			name:   "beyond gap stays split",
			marks:  []Range{{Offset: 0, Size: 10}, {Offset: 100, Size: 10}},
			maxGap: 64,
			want:   []Range{{Offset: 0, Size: 10}, {Offset: 100, Size: 10}},
		},
		{
			name:   "exactly at gap merges",
			marks:  []Range{{Offset: 0, Size: 10}, {Offset: 74, Size: 10}},
			maxGap: 64,
			want:   []Range{{Offset: 0, Size: 84}},
		},
		{
			name:   "adjacent with zero gap",
			marks:  []Range{{Offset: 0, Size: 10}, {Offset: 10, Size: 5}},
			maxGap: 0,
			want:   []Range{{Offset: 0, Size: 15}},
		},
		{
			name:   "contained range absorbed",
			marks:  []Range{{Offset: 0, Size: 20}, {Offset: 5, Size: 5}},
			maxGap: 0,
			want:   []Range{{Offset: 0, Size: 20}},
		},
		{
			name:   "unsorted input",
			marks:  []Range{{Offset: 200, Size: 8}, {Offset: 0, Size: 8}, {Offset: 4, Size: 8}},
			maxGap: 0,
			want:   []Range{{Offset: 0, Size: 12}, {Offset: 200, Size: 8}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tr dirtyTracker
			for _, m := range tt.marks {
				tr.mark(m.Offset, m.Size)
			}
			got := tr.coalesced(tt.maxGap)
			if len(got) != len(tt.want) {
				t.Fatalf("coalesced = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("coalesced[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDirtyTracker_ZeroSizeIgnored(t *testing.T) {
	var tr dirtyTracker
	tr.mark(10, 0)
	if tr.hasDirty() {
		t.Error("zero-size mark recorded as dirty")
	}
}

func TestCoalescedDirty_KeepsPending(t *testing.T) {
	a := mustArena(t, Config{StorageCapacity: 64})
	h := mustAlloc(t, a, 1, sdfscene.ScopePrims, 16)
	a.MarkDirty(h)

	first := a.CoalescedDirty(DefaultDirtyGap)
	second := a.CoalescedDirty(DefaultDirtyGap)
	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Errorf("repeated CoalescedDirty = %+v then %+v, want identical single range", first, second)
	}
}

func TestClearDirty(t *testing.T) {
	a := mustArena(t, Config{StorageCapacity: 64})
	h := mustAlloc(t, a, 1, sdfscene.ScopePrims, 16)
	a.MarkDirty(h)
	if _, err := a.AllocateMetadata(16); err != nil {
		t.Fatalf("AllocateMetadata: %v", err)
	}

	if got := a.CoalescedDirty(0); len(got) == 0 {
		t.Fatal("no storage dirty ranges before clear")
	}
	if got := a.CoalescedMetadataDirty(0); len(got) == 0 {
		t.Fatal("no metadata dirty ranges before clear")
	}

	a.ClearDirty()
	if got := a.CoalescedDirty(0); got != nil {
		t.Errorf("storage dirty after clear = %+v, want nil", got)
	}
	if got := a.CoalescedMetadataDirty(0); got != nil {
		t.Errorf("metadata dirty after clear = %+v, want nil", got)
	}
}
