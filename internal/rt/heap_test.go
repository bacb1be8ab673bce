package rt

import "testing"

func TestAllocateTaggedReturnsEvenInBoundsAddress(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	for i := 0; i < 200; i++ {
		v := h.AllocateNumber(false, float64(i))
		addr := v.Address()
		if uintptr(addr)%2 != 0 {
			t.Fatalf("allocation %d returned an odd address", i)
		}
		if !h.newSpace.contains(addr) {
			t.Fatalf("allocation %d did not land in new space", i)
		}
	}
}

func TestAllocateTaggedTenuredGoesToOldSpace(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	v := h.AllocateNumber(true, 1)
	if !h.oldSpace.contains(v.Address()) {
		t.Fatal("a tenured allocation should land in old space")
	}
	nv, _ := AsNumber(v)
	_ = nv
}

func TestAllocateTaggedFlagsNeedsGCOnExhaustion(t *testing.T) {
	cfg := HeapConfig{NewSpacePageSize: 64, OldSpacePageSize: 64, TenuringThreshold: DefaultTenuringThreshold}
	h := NewHeap(cfg)
	for i := 0; i < 50 && h.NeedsGC() == GCNone; i++ {
		h.AllocateNumber(false, float64(i))
	}
	if h.NeedsGC() != GCNewSpace {
		t.Fatal("growing the new space past its soft size limit should flag a pending new-space collection")
	}
}

func TestCollectIfNeededNoopWhenClean(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	if stats := h.CollectIfNeeded(); stats != nil {
		t.Fatal("CollectIfNeeded should be a no-op on a heap with nothing pending")
	}
}

func TestHeapStatsReflectsFactoryAndHandles(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	h.CreateString([]byte("x"))
	var slot Value
	h.AcquireHandle(HandlePersistent, &slot, h.Nil, nil)

	stats := h.Stats()
	if stats.FactoryCount != 1 {
		t.Fatalf("FactoryCount = %d, want 1", stats.FactoryCount)
	}
	if stats.Persistent != 1 {
		t.Fatalf("Persistent = %d, want 1", stats.Persistent)
	}
}
