package rt

import "unsafe"

// StringView is a non-owning view onto either representation of a boxed
// string (normal, bytes inline; or cons, a pair of children) per
// spec.md §3.2/§4.3/§6. Value() is the uniform accessor that flattens a
// cons tree on first demand and caches the result; flattening allocates,
// so StringView carries the owning Heap.
type StringView struct {
	base unsafe.Pointer
	heap *Heap
}

func AsString(h *Heap, v Value) (StringView, bool) {
	if !v.IsBoxed() {
		return StringView{}, false
	}
	addr := v.Address()
	switch readHeader(addr).Tag() {
	case TagStringNormal, TagStringCons:
		return StringView{base: addr, heap: h}, true
	default:
		return StringView{}, false
	}
}

func (s StringView) IsCons() bool {
	return readHeader(s.base).Tag() == TagStringCons
}

func (s StringView) Length() int64 {
	if s.IsCons() {
		return int64(loadU64(s.base, offConsLength))
	}
	return int64(loadU64(s.base, offStringLength))
}

// Hash returns the cached hash, computing and caching it on first use.
// An unset hash is stored as 0; the hash function treats 0 as a sentinel
// and remaps a naturally-zero hash to 1, per spec.md §4.3.
func (s StringView) Hash() uint32 {
	var off uintptr = offStringHash
	if s.IsCons() {
		off = offConsHash
	}
	h := uint32(loadU64(s.base, off))
	if h != 0 {
		return h
	}
	h = hashBytes(s.Value())
	if h == 0 {
		h = 1
	}
	storeU64(s.base, off, uint64(h))
	return h
}

func hashBytes(b []byte) uint32 {
	// FNV-1a: simple, cheap, matches the "lazy and cached" requirement
	// without pulling in a dependency for something this small.
	const prime = 16777619
	hv := uint32(2166136261)
	for _, c := range b {
		hv ^= uint32(c)
		hv *= prime
	}
	return hv
}

// rawBytes returns the inline byte slice of a normal string view. Only
// valid when !IsCons().
func (s StringView) rawBytes() []byte {
	length := int64(loadU64(s.base, offStringLength))
	ptr := unsafe.Add(s.base, offStringBytes)
	return unsafe.Slice((*byte)(ptr), length)
}

func (s StringView) left() Value {
	return loadValue(s.base, offConsLeft)
}

func (s StringView) setLeft(v Value) {
	storeValue(s.base, offConsLeft, v)
}

func (s StringView) right() Value {
	return loadValue(s.base, offConsRight)
}

func (s StringView) setRight(v Value) {
	storeValue(s.base, offConsRight, v)
}

func (s StringView) child(v Value) StringView {
	c, _ := AsString(s.heap, v)
	return c
}

// Value returns the string's bytes, flattening a cons tree the first time
// it's demanded, per spec.md §4.3:
//
//  1. Normal: return the inline bytes.
//  2. Cons with nil right: the left child already holds the flattened
//     form (a previous call's cache) — recurse into it.
//  3. Otherwise: allocate a fresh normal string, traverse the tree
//     writing bytes left to right (recursing into the smaller child,
//     iterating into the larger one so depth stays O(log n) for balanced
//     trees), then rewrite this node's left to the flattened string and
//     right to nil so later calls take the shortcut.
func (s StringView) Value() []byte {
	if !s.IsCons() {
		return s.rawBytes()
	}

	hdr := readHeader(s.base)
	if hdr.Flags()&flagConsFlattened != 0 {
		return s.child(s.left()).Value()
	}

	out := make([]byte, s.Length())
	n := 0
	s.flattenInto(out, &n)

	flat := newNormalStringFromBytes(s.heap, out)
	s.setLeft(flat)
	s.setRight(s.heap.Nil)
	hdr.SetFlags(hdr.Flags() | flagConsFlattened)
	return out
}

func (s StringView) flattenInto(out []byte, n *int) {
	end := *n + int(s.Length())
	for s.IsCons() {
		left := s.child(s.left())
		right := s.child(s.right())
		if left.Length() <= right.Length() {
			left.flattenInto(out, n)
			s = right
		} else {
			p := *n + int(left.Length())
			right.flattenInto(out, &p)
			s = left
		}
	}
	copy(out[*n:], s.rawBytes())
	*n = end
}

func allocateNormalString(h *Heap, tenure bool, data []byte) Value {
	addr := h.allocateTagged(TagStringNormal, tenure, stringHeaderSize+uintptr(len(data)))
	storeU64(addr, offStringHash, 0)
	storeU64(addr, offStringLength, uint64(len(data)))
	dst := unsafe.Slice((*byte)(unsafe.Add(addr, offStringBytes)), len(data))
	copy(dst, data)
	return FromAddress(addr)
}

// newNormalStringFromBytes allocates a normal string untenured, since it
// only ever lives as long as its parent cons node does.
func newNormalStringFromBytes(h *Heap, data []byte) Value {
	return allocateNormalString(h, false, data)
}

func allocateConsString(h *Heap, tenure bool, left, right Value, length int64) Value {
	addr := h.allocateTagged(TagStringCons, tenure, consSize)
	storeU64(addr, offConsHash, 0)
	storeU64(addr, offConsLength, uint64(length))
	storeValue(addr, offConsLeft, left)
	storeValue(addr, offConsRight, right)
	return FromAddress(addr)
}
