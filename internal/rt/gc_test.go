package rt

import "testing"

func TestCollectForwardsPersistentHandle(t *testing.T) {
	cfg := HeapConfig{NewSpacePageSize: 4096, OldSpacePageSize: 4096, TenuringThreshold: 100}
	h := NewHeap(cfg)

	var root Value
	h.AcquireHandle(HandlePersistent, &root, h.AllocateNumber(false, 7), nil)

	h.Collect()

	nv, ok := AsNumber(root)
	if !ok {
		t.Fatal("a persistent handle's target should still decode as a number after collection")
	}
	if nv.Value() != 7 {
		t.Fatalf("value survived as %v, want 7", nv.Value())
	}
	if !h.newSpace.contains(root.Address()) {
		t.Fatal("the survivor should have been evacuated into the (new) to-space")
	}
}

func TestCollectIncrementsGenerationByOne(t *testing.T) {
	cfg := HeapConfig{NewSpacePageSize: 4096, OldSpacePageSize: 4096, TenuringThreshold: 100}
	h := NewHeap(cfg)

	var root Value
	h.AcquireHandle(HandlePersistent, &root, h.AllocateNumber(false, 1), nil)
	genBefore := readHeader(root.Address()).Generation()

	h.Collect()

	genAfter := readHeader(root.Address()).Generation()
	if genAfter != genBefore+1 {
		t.Fatalf("generation went from %d to %d, want exactly +1", genBefore, genAfter)
	}
}

func TestCollectTenuresAtThreshold(t *testing.T) {
	cfg := HeapConfig{NewSpacePageSize: 4096, OldSpacePageSize: 4096, TenuringThreshold: 2}
	h := NewHeap(cfg)

	var root Value
	h.AcquireHandle(HandlePersistent, &root, h.AllocateNumber(false, 1), nil)

	h.Collect() // generation 0 -> 1, still new space
	if !h.newSpace.contains(root.Address()) {
		t.Fatal("below the tenuring threshold, the survivor should stay in new space")
	}

	h.Collect() // generation 1 -> 2, reaches threshold
	if !h.oldSpace.contains(root.Address()) {
		t.Fatal("at the tenuring threshold, the survivor should be promoted to old space")
	}
}

func TestCollectDropsUnreachableObjects(t *testing.T) {
	cfg := HeapConfig{NewSpacePageSize: 4096, OldSpacePageSize: 4096, TenuringThreshold: 100}
	h := NewHeap(cfg)

	garbage := h.AllocateNumber(false, 99)
	_ = garbage

	before := h.newSpace.Stats().Used
	h.Collect()
	after := h.newSpace.Stats().Used

	if after >= before {
		t.Fatalf("an unrooted object should not survive collection: used %d before, %d after", before, after)
	}
}

func TestCollectTracesContextSlotsTransitively(t *testing.T) {
	cfg := HeapConfig{NewSpacePageSize: 4096, OldSpacePageSize: 4096, TenuringThreshold: 100}
	h := NewHeap(cfg)

	inner := h.AllocateNumber(false, 55)
	ctx := h.AllocateContext(false, h.Nil, 1)
	cv, _ := AsContext(ctx)
	cv.SetSlot(0, inner)

	var root Value
	h.AcquireHandle(HandlePersistent, &root, ctx, nil)

	h.Collect()

	cv2, ok := AsContext(root)
	if !ok {
		t.Fatal("root should still decode as a context")
	}
	slot := cv2.Slot(0)
	nv, ok := AsNumber(slot)
	if !ok || nv.Value() != 55 {
		t.Fatal("a value reachable only through a traced context's slot should survive collection")
	}
}

func TestCollectFiresWeakCallbackExactlyOnceOnDeath(t *testing.T) {
	cfg := HeapConfig{NewSpacePageSize: 4096, OldSpacePageSize: 4096, TenuringThreshold: 100}
	h := NewHeap(cfg)

	target := h.AllocateNumber(false, 1)
	var slot Value
	fired := 0
	h.AcquireHandle(HandleWeak, &slot, target, func(*Value) { fired++ })

	h.Collect()
	if fired != 1 {
		t.Fatalf("weak callback fired %d times, want exactly 1", fired)
	}

	_, _, w := h.handles.Stats()
	if w != 0 {
		t.Fatal("a fired weak handle should be removed from the registry")
	}

	h.Collect()
	if fired != 1 {
		t.Fatalf("weak callback fired again on a later cycle: %d", fired)
	}
}

func TestCollectDoesNotFireWeakCallbackWhenTargetSurvives(t *testing.T) {
	cfg := HeapConfig{NewSpacePageSize: 4096, OldSpacePageSize: 4096, TenuringThreshold: 100}
	h := NewHeap(cfg)

	target := h.AllocateNumber(false, 1)
	var root, weakSlot Value
	h.AcquireHandle(HandlePersistent, &root, target, nil)
	fired := 0
	h.AcquireHandle(HandleWeak, &weakSlot, target, func(*Value) { fired++ })

	h.Collect()
	if fired != 0 {
		t.Fatal("a weak callback must not fire while its target is still reachable")
	}
	if h.ReadHandle(&weakSlot) != root {
		t.Fatal("a surviving weak handle's stored value should be rewritten to the forwarding address")
	}
}

func TestCollectUnderPressureEscalatesToOldSpace(t *testing.T) {
	// A small old space that a wave of tenuring promotions can exceed
	// mid-cycle should leave needs_gc pointing at old space afterward,
	// even though this cycle targeted new space.
	cfg := HeapConfig{NewSpacePageSize: 4096, OldSpacePageSize: 64, TenuringThreshold: 1}
	h := NewHeap(cfg)

	var roots []Value
	for i := 0; i < 16; i++ {
		var slot Value
		h.AcquireHandle(HandlePersistent, &slot, h.AllocateNumber(false, float64(i)), nil)
		roots = append(roots, slot)
	}

	h.Collect()

	if h.NeedsGC() != GCOldSpace {
		t.Fatalf("NeedsGC() = %v, want GCOldSpace after tenuring exceeds the old space's soft limit", h.NeedsGC())
	}
	_ = roots
}
