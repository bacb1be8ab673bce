package rt

import (
	"time"
	"unsafe"
)

// collector implements the moving, tri-colour, generational collector
// described in spec.md §4.4. One instance is created per Heap and
// reused across cycles; its working sets are cleared at the start of
// each collect call.
//
// Hard and soft marks are kept as per-cycle side tables rather than bits
// in the object header: the header word in layout.go is bit-exact per
// spec.md §6 and has no room for a forwarding address, and since the
// marks are only meaningful during one cycle there's no reason to give
// them a permanent home in every object.
type collector struct {
	heap *Heap

	collected *Space // the from-space this cycle is sweeping
	tmp       *Space // the to-space objects evacuate into
	oldSpace  bool   // true when this cycle targets the old space

	hard map[unsafe.Pointer]unsafe.Pointer // from-space address -> forwarding address
	soft map[unsafe.Pointer]bool

	grey []*Value
	black []unsafe.Pointer

	stats CollectStats
}

func newCollector(h *Heap) *collector {
	return &collector{heap: h}
}

// collect runs one full cycle against target, per spec.md §4.4.2.
func (c *collector) collect(target GCTarget) *CollectStats {
	start := time.Now()

	c.collected = c.heap.newSpace
	c.oldSpace = target == GCOldSpace
	if c.oldSpace {
		c.collected = c.heap.oldSpace
	}
	c.tmp = NewSpace(c.collected.Name(), c.collected.pageSize)
	c.hard = make(map[unsafe.Pointer]unsafe.Pointer)
	c.soft = make(map[unsafe.Pointer]bool)
	c.grey = c.grey[:0]
	c.black = c.black[:0]
	c.stats = CollectStats{Target: target}

	// Root collection: persistent handles, pushed and drained one at a
	// time per spec.md §4.4.2 step 2.
	c.heap.handles.forEachPersistent(func(slot *Value) {
		c.pushGrey(slot)
		c.drain()
	})

	// Root collection: the mutator's frame stack.
	c.heap.forEachFrameSlot(func(slot *Value) {
		c.pushGrey(slot)
	})
	c.drain()

	// Soft-mark reset.
	for _, addr := range c.black {
		delete(c.soft, addr)
	}
	c.black = c.black[:0]

	// Normal handle relocation.
	c.heap.handles.forEachNormal(func(slot *Value) {
		v := *slot
		if !v.IsBoxed() || v == c.heap.Nil {
			return
		}
		if fwd, ok := c.hard[v.Address()]; ok {
			*slot = FromAddress(fwd)
			c.stats.NormalRelocated++
		}
	})

	// Weak references.
	c.heap.handles.forEachWeak(func(slot *Value, cb weakCallback) bool {
		v := *slot
		if !v.IsBoxed() || v == c.heap.Nil {
			return false
		}
		addr := v.Address()
		if !c.collected.contains(addr) {
			return false
		}
		if fwd, ok := c.hard[addr]; ok {
			*slot = FromAddress(fwd)
			return false
		}
		if cb != nil {
			cb(slot)
		}
		c.stats.WeakCallbacksFired++
		return true
	})
	_, _, weakRemaining := c.heap.handles.Stats()
	c.stats.WeakRemaining = weakRemaining

	// Swap the from-space with the to-space and release the to-space.
	c.collected.Swap(c.tmp)
	c.tmp = nil

	if c.heap.needsGC == target {
		c.heap.needsGC = GCNone
	}

	c.stats.Duration = time.Since(start)
	result := c.stats
	return &result
}

// pushGrey records ref for tracing. The drain loop itself filters out
// unboxed and nil references, so pushGrey never needs to inspect *ref.
func (c *collector) pushGrey(ref *Value) {
	c.grey = append(c.grey, ref)
}

// drain implements spec.md §4.4.3.
func (c *collector) drain() {
	for len(c.grey) > 0 {
		n := len(c.grey) - 1
		ref := c.grey[n]
		c.grey = c.grey[:n]
		c.visit(ref)
	}
}

func (c *collector) visit(ref *Value) {
	v := *ref
	if !v.IsBoxed() || v == c.heap.Nil || v == c.heap.BindingContext {
		return
	}
	addr := v.Address()

	if fwd, ok := c.hard[addr]; ok {
		*ref = FromAddress(fwd)
		return
	}

	if !c.collected.contains(addr) {
		if !c.soft[addr] {
			c.soft[addr] = true
			c.black = append(c.black, addr)
			c.stats.SoftMarked++
			tag := readHeader(addr).Tag()
			forEachChildRef(addr, tag, c.pushGrey)
		}
		return
	}

	newAddr := c.evacuate(addr)
	c.hard[addr] = newAddr
	*ref = FromAddress(newAddr)

	tag := readHeader(newAddr).Tag()
	forEachChildRef(newAddr, tag, c.pushGrey)
}

// evacuate copies the object at addr to its destination space (old
// space if the new-space GC's evacuee has reached the tenuring
// threshold, otherwise the to-space; unconditionally to the to-space
// for an old-space GC) and bumps its generation, per spec.md §4.4.3/
// §4.4.5.
func (c *collector) evacuate(addr unsafe.Pointer) unsafe.Pointer {
	tag := readHeader(addr).Tag()
	size := objectTotalSize(addr, tag)
	gen := readHeader(addr).Generation()
	newGen := gen + 1

	dest := c.tmp
	tenured := false
	if !c.oldSpace && newGen >= c.heap.tenuringThreshold {
		dest = c.heap.oldSpace
		tenured = true
	}

	newAddr, exceeded := dest.Allocate(size)
	if newAddr == nil {
		panic(&AllocationError{Space: dest.Name(), RequestBytes: size})
	}
	src := unsafe.Slice((*byte)(addr), size)
	dst := unsafe.Slice((*byte)(newAddr), size)
	copy(dst, src)
	readHeader(newAddr).SetGeneration(newGen)

	if exceeded && dest != c.tmp {
		c.heap.needsGC = GCOldSpace
	}

	c.stats.Evacuated++
	c.stats.EvacuatedBytes += size
	if tenured {
		c.stats.Tenured++
	}
	return newAddr
}

// objectTotalSize computes an object's full byte size (header included)
// from its tag and, for variable-length shapes, its own fields.
func objectTotalSize(addr unsafe.Pointer, tag Tag) uintptr {
	switch tag {
	case TagNil, TagBindingContext:
		return headerSize
	case TagContext:
		n := int64(loadU64(addr, offContextSlotCount))
		return ContextSize(n)
	case TagFunction:
		return functionSize
	case TagNumber:
		return numberSize
	case TagBoolean:
		return booleanSize
	case TagStringNormal:
		length := loadU64(addr, offStringLength)
		return stringHeaderSize + uintptr(length)
	case TagStringCons:
		return consSize
	case TagObject:
		return objectSize
	case TagArray:
		return arraySize
	case TagMap:
		capacity := int64(loadU64(addr, offMapCapacity))
		return mapSize(capacity)
	case TagCData:
		size := loadU64(addr, offCDataSize)
		return cdataHeaderSize + uintptr(size)
	default:
		panic("rt: objectTotalSize: invalid tag")
	}
}

// forEachChildRef yields a pointer to every GC-traceable field of the
// object at addr, so the collector can both read and rewrite it in
// place.
func forEachChildRef(addr unsafe.Pointer, tag Tag, fn func(*Value)) {
	switch tag {
	case TagContext:
		fn((*Value)(unsafe.Add(addr, offContextParent)))
		n := int64(loadU64(addr, offContextSlotCount))
		for i := int64(0); i < n; i++ {
			fn((*Value)(unsafe.Add(addr, offContextSlots+uintptr(i)*8)))
		}
	case TagFunction:
		fn((*Value)(unsafe.Add(addr, offFunctionParent)))
		fn((*Value)(unsafe.Add(addr, offFunctionRootContext)))
	case TagStringCons:
		fn((*Value)(unsafe.Add(addr, offConsLeft)))
		fn((*Value)(unsafe.Add(addr, offConsRight)))
	case TagObject, TagArray:
		fn((*Value)(unsafe.Add(addr, offObjectMap)))
		fn((*Value)(unsafe.Add(addr, offObjectProto)))
	case TagMap:
		capacity := int64(loadU64(addr, offMapCapacity))
		for i := int64(0); i < capacity; i++ {
			off := offMapPairs + uintptr(i)*mapPairSize
			fn((*Value)(unsafe.Add(addr, off)))
			fn((*Value)(unsafe.Add(addr, off+8)))
		}
	default:
		// Number, Boolean, StringNormal, CData, Nil, BindingContext: no
		// child references.
	}
}
