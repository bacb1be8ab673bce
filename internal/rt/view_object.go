package rt

import "unsafe"

const wordSize = 8

// ObjectView is a non-owning view onto an object: a hash table (the
// separately-allocated map buffer) plus a prototype pointer identifying
// its shape for PIC purposes, per spec.md §3.2/§6.
type ObjectView struct {
	base unsafe.Pointer
}

func AsObject(v Value) (ObjectView, bool) {
	if !v.IsBoxed() {
		return ObjectView{}, false
	}
	addr := v.Address()
	if readHeader(addr).Tag() != TagObject {
		return ObjectView{}, false
	}
	return ObjectView{base: addr}, true
}

// Mask is (capacity-1)*wordSize, precomputed so machine code can turn a
// key hash into a byte offset into the map buffer without a multiply.
func (o ObjectView) Mask() uint64 {
	return loadU64(o.base, offObjectMask)
}

func (o ObjectView) SetMask(mask uint64) {
	storeU64(o.base, offObjectMask, mask)
}

func (o ObjectView) Capacity() int64 {
	return int64(o.Mask()/wordSize) + 1
}

func (o ObjectView) Map() Value {
	return loadValue(o.base, offObjectMap)
}

func (o ObjectView) SetMap(v Value) {
	storeValue(o.base, offObjectMap, v)
}

func (o ObjectView) Proto() Value {
	return loadValue(o.base, offObjectProto)
}

func (o ObjectView) SetProto(v Value) {
	storeValue(o.base, offObjectProto, v)
}

// ForEachSlot visits the map and proto pointers. The map's own pairs are
// walked separately via MapView.ForEachSlot.
func (o ObjectView) ForEachSlot(fn func(Value)) {
	fn(o.Map())
	fn(o.Proto())
}

// Get performs the open-addressed lookup machine code performs inline:
// mask the hash into a slot index, then linearly probe until the key
// matches, an empty slot is found, or every slot has been visited.
func (o ObjectView) Get(h *Heap, key Value, hash uint32) (Value, bool) {
	m, ok := AsMap(o.Map())
	if !ok {
		return Value(0), false
	}
	cap := m.Capacity()
	if cap == 0 {
		return Value(0), false
	}
	start := int64(hash) & (cap - 1)
	for i := int64(0); i < cap; i++ {
		idx := (start + i) % cap
		k := m.Key(idx)
		if k.IsNil(h) {
			return Value(0), false
		}
		if valuesEqual(h, k, key) {
			return m.PairValue(idx), true
		}
	}
	return Value(0), false
}

// Set writes key/value into the map's open-addressed table, growing the
// table (and rewriting Mask) first if it's full or would become too
// dense. Growth allocates a new map and installs it on the object.
func (o ObjectView) Set(h *Heap, key Value, hash uint32, val Value) {
	m, ok := AsMap(o.Map())
	if !ok || m.shouldGrow(h.Nil) {
		m = o.grow(h, m, ok)
	}
	cap := m.Capacity()
	start := int64(hash) & (cap - 1)
	for i := int64(0); i < cap; i++ {
		idx := (start + i) % cap
		k := m.Key(idx)
		if k.IsNil(h) || valuesEqual(h, k, key) {
			m.SetPair(idx, key, val)
			return
		}
	}
	// Every slot probed without finding room; grow and retry once. This
	// only happens if shouldGrow's headroom estimate was wrong.
	m = o.grow(h, m, true)
	o.Set(h, key, hash, val)
}

func (o ObjectView) grow(h *Heap, old MapView, hadOld bool) MapView {
	newCap := int64(8)
	if hadOld {
		newCap = old.Capacity() * 2
	}
	nm := allocateMap(h, false, newCap, h.Nil)
	nv, _ := AsMap(nm)
	if hadOld {
		oldCap := old.Capacity()
		for i := int64(0); i < oldCap; i++ {
			k := old.Key(i)
			if k.IsNil(h) {
				continue
			}
			rehashInto(h, nv, k, old.PairValue(i))
		}
	}
	o.SetMap(nm)
	o.SetMask(uint64(newCap-1) * wordSize)
	return nv
}

func rehashInto(h *Heap, m MapView, key, val Value) {
	hash := HashValue(h, key)
	cap := m.Capacity()
	start := int64(hash) & (cap - 1)
	for i := int64(0); i < cap; i++ {
		idx := (start + i) % cap
		if m.Key(idx).IsNil(h) {
			m.SetPair(idx, key, val)
			return
		}
	}
}

func allocateObject(h *Heap, tenure bool, proto Value) Value {
	addr := h.allocateTagged(TagObject, tenure, objectSize)
	ov := ObjectView{base: addr}
	ov.SetMask(0)
	ov.SetMap(h.Nil)
	ov.SetProto(proto)
	return FromAddress(addr)
}

// ArrayView is an ObjectView with an explicit element count. Elements
// live in the same open-addressed map, keyed by small-int index.
type ArrayView struct {
	ObjectView
}

func AsArray(v Value) (ArrayView, bool) {
	if !v.IsBoxed() {
		return ArrayView{}, false
	}
	addr := v.Address()
	if readHeader(addr).Tag() != TagArray {
		return ArrayView{}, false
	}
	return ArrayView{ObjectView{base: addr}}, true
}

func (a ArrayView) Length() int64 {
	return int64(loadU64(a.base, offArrayLength))
}

func (a ArrayView) SetLength(n int64) {
	storeU64(a.base, offArrayLength, uint64(n))
}

func (a ArrayView) ForEachSlot(fn func(Value)) {
	a.ObjectView.ForEachSlot(fn)
}

func allocateArray(h *Heap, tenure bool, proto Value, length int64) Value {
	addr := h.allocateTagged(TagArray, tenure, arraySize)
	ov := ObjectView{base: addr}
	ov.SetMask(0)
	ov.SetMap(h.Nil)
	ov.SetProto(proto)
	storeU64(addr, offArrayLength, uint64(length))
	return FromAddress(addr)
}
