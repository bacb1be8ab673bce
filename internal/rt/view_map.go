package rt

import "unsafe"

// MapView is the open-addressed key/value table backing an object's
// properties, per spec.md §3.2/§6: capacity, then capacity pairs of
// (key, value), each pair 16 bytes.
type MapView struct {
	base unsafe.Pointer
}

func AsMap(v Value) (MapView, bool) {
	if !v.IsBoxed() {
		return MapView{}, false
	}
	addr := v.Address()
	if readHeader(addr).Tag() != TagMap {
		return MapView{}, false
	}
	return MapView{base: addr}, true
}

func (m MapView) Capacity() int64 {
	return int64(loadU64(m.base, offMapCapacity))
}

func (m MapView) pairOffset(i int64) uintptr {
	return offMapPairs + uintptr(i)*mapPairSize
}

func (m MapView) Key(i int64) Value {
	return loadValue(m.base, m.pairOffset(i))
}

func (m MapView) PairValue(i int64) Value {
	return loadValue(m.base, m.pairOffset(i)+8)
}

func (m MapView) SetPair(i int64, key, val Value) {
	storeValue(m.base, m.pairOffset(i), key)
	storeValue(m.base, m.pairOffset(i)+8, val)
}

// ForEachSlot visits every occupied key and value. nilValue identifies
// empty slots so they can be skipped.
func (m MapView) ForEachSlot(nilValue Value, fn func(Value)) {
	cap := m.Capacity()
	for i := int64(0); i < cap; i++ {
		k := m.Key(i)
		if k == nilValue {
			continue
		}
		fn(k)
		fn(m.PairValue(i))
	}
}

// shouldGrow reports whether the table is dense enough (load factor
// beyond 0.7) that Set should grow before inserting.
func (m MapView) shouldGrow(nilValue Value) bool {
	cap := m.Capacity()
	if cap == 0 {
		return true
	}
	occupied := int64(0)
	for i := int64(0); i < cap; i++ {
		if m.Key(i) != nilValue {
			occupied++
		}
	}
	return occupied*10 >= cap*7
}

func mapSize(capacity int64) uintptr {
	return offMapPairs + uintptr(capacity)*mapPairSize
}

func allocateMap(h *Heap, tenure bool, capacity int64, nilValue Value) Value {
	addr := h.allocateTagged(TagMap, tenure, mapSize(capacity))
	storeU64(addr, offMapCapacity, uint64(capacity))
	mv := MapView{base: addr}
	for i := int64(0); i < capacity; i++ {
		mv.SetPair(i, nilValue, nilValue)
	}
	return FromAddress(addr)
}
