package rt

import "testing"

func TestContextSlots(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	ctx := h.AllocateContext(false, h.Nil, 3)
	cv, ok := AsContext(ctx)
	if !ok {
		t.Fatal("AsContext failed on a freshly allocated context")
	}
	if cv.SlotCount() != 3 {
		t.Fatalf("SlotCount() = %d, want 3", cv.SlotCount())
	}
	for i := int64(0); i < 3; i++ {
		if cv.Slot(i) != h.Nil {
			t.Errorf("slot %d should start nil", i)
		}
	}
	n := h.AllocateNumber(false, 13589)
	cv.SetSlot(1, n)
	if cv.Slot(1) != n {
		t.Error("SetSlot/Slot round trip failed")
	}
}

func TestContextSlotOutOfRangePanics(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	ctx := h.AllocateContext(false, h.Nil, 2)
	cv, _ := AsContext(ctx)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-range slot access")
		}
	}()
	cv.Slot(2)
}

func TestFunctionFields(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	parent := h.AllocateContext(false, h.Nil, 0)
	root := h.AllocateContext(false, h.Nil, 0)
	fn := h.AllocateFunction(false, parent, 0xdeadbeef, root, 2)

	fv, ok := AsFunction(fn)
	if !ok {
		t.Fatal("AsFunction failed")
	}
	if fv.ParentContext() != parent {
		t.Error("ParentContext mismatch")
	}
	if fv.RootContext() != root {
		t.Error("RootContext mismatch")
	}
	if fv.CodeAddress() != 0xdeadbeef {
		t.Error("CodeAddress mismatch")
	}
	if fv.Argc() != 2 {
		t.Error("Argc mismatch")
	}

	var visited []Value
	fv.ForEachSlot(func(v Value) { visited = append(visited, v) })
	if len(visited) != 2 || visited[0] != parent || visited[1] != root {
		t.Errorf("ForEachSlot visited %v, want [parent root]", visited)
	}
}

func TestNumberAndBoolean(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	n := h.AllocateNumber(false, 2.5)
	nv, ok := AsNumber(n)
	if !ok || nv.Value() != 2.5 {
		t.Fatalf("number round trip failed: ok=%v value=%v", ok, nv.Value())
	}
	nv.SetValue(-1.5)
	if nv.Value() != -1.5 {
		t.Error("SetValue did not take effect")
	}

	bTrue := h.AllocateBoolean(false, true)
	bv, ok := AsBoolean(bTrue)
	if !ok || !bv.Value() {
		t.Fatal("boolean(true) round trip failed")
	}
	bFalse := h.AllocateBoolean(false, false)
	bv2, _ := AsBoolean(bFalse)
	if bv2.Value() {
		t.Fatal("boolean(false) round trip failed")
	}
}

func TestAsViewRejectsWrongTag(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	n := h.AllocateNumber(false, 1)
	if _, ok := AsContext(n); ok {
		t.Fatal("AsContext should reject a number")
	}
	if _, ok := AsObject(n); ok {
		t.Fatal("AsObject should reject a number")
	}
	smallInt := FromSmallInt(5)
	if _, ok := AsNumber(smallInt); ok {
		t.Fatal("AsNumber should reject an unboxed small int")
	}
}

func TestStringNormalValue(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	s := h.AllocateString(false, []byte("hello"))
	sv, ok := AsString(h, s)
	if !ok {
		t.Fatal("AsString failed on a normal string")
	}
	if string(sv.Value()) != "hello" {
		t.Errorf("Value() = %q, want %q", sv.Value(), "hello")
	}
	if sv.IsCons() {
		t.Error("a normal string should not report IsCons")
	}
}

func TestConsStringFlattenIsIdempotent(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	left := h.AllocateString(false, []byte("hello, "))
	right := h.AllocateString(false, []byte("world"))
	cons := h.AllocateCons(false, left, right, 12)

	cv, ok := AsString(h, cons)
	if !ok {
		t.Fatal("AsString failed on a cons string")
	}
	if !cv.IsCons() {
		t.Fatal("expected a cons view")
	}

	first := append([]byte(nil), cv.Value()...)
	if string(first) != "hello, world" {
		t.Fatalf("Value() = %q, want %q", first, "hello, world")
	}

	// Idempotence: a second call returns the same bytes and takes the
	// cached-shortcut path (right is nil after the first flatten).
	second := cv.Value()
	if string(second) != string(first) {
		t.Fatalf("second Value() = %q, want %q", second, first)
	}
	if cv.right() != h.Nil {
		t.Fatal("after flattening, a cons string's right child should be nil")
	}
}

func TestStringHashZeroSentinel(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	s := h.AllocateString(false, []byte("x"))
	sv, _ := AsString(h, s)
	if sv.Hash() == 0 {
		t.Fatal("Hash() must never return 0 (reserved as the unset sentinel)")
	}
	// Hash should be cached: a second read returns the same value.
	if sv.Hash() != sv.Hash() {
		t.Fatal("Hash() should be stable across calls")
	}
}

func TestObjectSetGet(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	proto := h.AllocateObject(true, h.Nil)
	obj, _ := AsObject(h.AllocateObject(false, proto))

	key := h.CreateString([]byte("x"))
	val := h.AllocateNumber(false, 42)
	obj.Set(h, key, HashValue(h, key), val)

	got, ok := obj.Get(h, key, HashValue(h, key))
	if !ok {
		t.Fatal("Get failed to find a key that was Set")
	}
	gv, _ := AsNumber(got)
	if gv.Value() != 42 {
		t.Errorf("Get returned %v, want 42", gv.Value())
	}

	missing := h.CreateString([]byte("y"))
	if _, ok := obj.Get(h, missing, HashValue(h, missing)); ok {
		t.Fatal("Get should not find a key that was never Set")
	}
}

func TestObjectGrowsAndRetainsEntries(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	proto := h.AllocateObject(true, h.Nil)
	obj, _ := AsObject(h.AllocateObject(false, proto))

	const n = 64
	keys := make([]Value, n)
	for i := 0; i < n; i++ {
		k := h.CreateNumber(float64(i))
		keys[i] = k
		obj.Set(h, k, HashValue(h, k), FromSmallInt(int64(i)))
	}
	for i := 0; i < n; i++ {
		v, ok := obj.Get(h, keys[i], HashValue(h, keys[i]))
		if !ok {
			t.Fatalf("key %d missing after growth", i)
		}
		if v.SmallInt() != int64(i) {
			t.Fatalf("key %d maps to %d, want %d", i, v.SmallInt(), i)
		}
	}
}

func TestArrayLength(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	arr, ok := AsArray(h.AllocateArray(false, h.Nil, 10))
	if !ok {
		t.Fatal("AsArray failed")
	}
	if arr.Length() != 10 {
		t.Fatalf("Length() = %d, want 10", arr.Length())
	}
	arr.SetLength(20)
	if arr.Length() != 20 {
		t.Fatal("SetLength did not take effect")
	}
}

func TestCDataBytes(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	data := []byte{1, 2, 3, 4, 5}
	cd, ok := AsCData(h.AllocateCData(false, data))
	if !ok {
		t.Fatal("AsCData failed")
	}
	if cd.Size() != int64(len(data)) {
		t.Fatalf("Size() = %d, want %d", cd.Size(), len(data))
	}
	got := cd.Bytes()
	for i, b := range data {
		if got[i] != b {
			t.Fatalf("byte %d = %d, want %d", i, got[i], b)
		}
	}
}
