package rt

import "unsafe"

// CDataView is an opaque blob shape: a size followed by raw bytes never
// interpreted by this package, used to carry foreign-owned payloads
// across the boundary described in spec.md §1.
type CDataView struct {
	base unsafe.Pointer
}

func AsCData(v Value) (CDataView, bool) {
	if !v.IsBoxed() {
		return CDataView{}, false
	}
	addr := v.Address()
	if readHeader(addr).Tag() != TagCData {
		return CDataView{}, false
	}
	return CDataView{base: addr}, true
}

func (c CDataView) Size() int64 {
	return int64(loadU64(c.base, offCDataSize))
}

func (c CDataView) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Add(c.base, offCDataBytes)), c.Size())
}

func allocateCData(h *Heap, tenure bool, data []byte) Value {
	addr := h.allocateTagged(TagCData, tenure, cdataHeaderSize+uintptr(len(data)))
	storeU64(addr, offCDataSize, uint64(len(data)))
	dst := unsafe.Slice((*byte)(unsafe.Add(addr, offCDataBytes)), len(data))
	copy(dst, data)
	return FromAddress(addr)
}
