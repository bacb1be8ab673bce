package rt

import "unsafe"

// GCTarget names which space a pending collection will sweep, per
// spec.md §4.2 (the needs_gc flag's three values).
type GCTarget uint8

const (
	GCNone GCTarget = iota
	GCNewSpace
	GCOldSpace
)

func (t GCTarget) String() string {
	switch t {
	case GCNewSpace:
		return "new-space"
	case GCOldSpace:
		return "old-space"
	default:
		return "none"
	}
}

// DefaultTenuringThreshold is the generation count at which an evacuated
// object is promoted to the old space rather than copied within the new
// space, per spec.md §3.2/§4.4.5. Configurable via internal/rtconfig.
const DefaultTenuringThreshold = 3

// HeapConfig controls the two spaces' page sizes and the tenuring
// threshold; internal/rtconfig loads this from a TOML manifest.
type HeapConfig struct {
	NewSpacePageSize  int
	OldSpacePageSize  int
	TenuringThreshold uint32
}

func DefaultHeapConfig() HeapConfig {
	return HeapConfig{
		NewSpacePageSize:  DefaultPageSize,
		OldSpacePageSize:  DefaultPageSize * 4,
		TenuringThreshold: DefaultTenuringThreshold,
	}
}

// Heap owns the new and old spaces, the factory, the handle registry,
// the pending-exception slot, and the needs_gc flag, per spec.md §4.2.
// It is the sole entry point generated code and the embedder allocate
// through; per the design notes, no package-level "current heap"
// pointer exists — every call that needs one takes it explicitly.
type Heap struct {
	newSpace *Space
	oldSpace *Space

	factory *Factory
	handles *HandleRegistry

	pendingException  Value
	needsGC           GCTarget
	tenuringThreshold uint32

	gc *collector

	topFrame *Frame

	// Nil and BindingContext are fixed Go-allocated sentinels, never
	// placed into a Page. The drain loop (§4.4.3) explicitly never
	// traces or evacuates them, so there's no need for their address to
	// ever change — backing them with heap-owned pages would just be
	// extra bookkeeping for objects that are never moved.
	nilStorage     [headerSize]byte
	bindingStorage [headerSize]byte

	Nil            Value
	BindingContext Value
}

// NewHeap constructs a Heap with fresh, empty spaces.
func NewHeap(cfg HeapConfig) *Heap {
	h := &Heap{
		newSpace:          NewSpace("new", cfg.NewSpacePageSize),
		oldSpace:          NewSpace("old", cfg.OldSpacePageSize),
		factory:           newFactory(),
		handles:           newHandleRegistry(),
		tenuringThreshold: cfg.TenuringThreshold,
	}
	writeHeader(unsafe.Pointer(&h.nilStorage[0]), TagNil, 0, 0)
	writeHeader(unsafe.Pointer(&h.bindingStorage[0]), TagBindingContext, 0, 0)
	h.Nil = FromAddress(unsafe.Pointer(&h.nilStorage[0]))
	h.BindingContext = FromAddress(unsafe.Pointer(&h.bindingStorage[0]))
	h.pendingException = h.Nil
	h.gc = newCollector(h)
	return h
}

// allocateTagged allocates totalBytes (header word included) from the
// space tenure selects, writes the header with an initial generation
// (0 for a fresh new-space object, the tenuring threshold for one
// allocated directly into old space), and returns its address.
//
// An allocation failure is fatal per spec.md §7.2: it panics rather than
// returning a sentinel, since there is no recovery path for it short of
// the embedder catching the panic at the API boundary.
func (h *Heap) allocateTagged(tag Tag, tenure bool, totalBytes uintptr) unsafe.Pointer {
	sp := h.newSpace
	target := GCNewSpace
	if tenure {
		sp = h.oldSpace
		target = GCOldSpace
	}

	addr, exceeded := sp.Allocate(totalBytes)
	if addr == nil {
		panic(&AllocationError{Space: sp.Name(), RequestBytes: totalBytes})
	}

	gen := uint32(0)
	if tenure {
		gen = h.tenuringThreshold
	}
	writeHeader(addr, tag, 0, gen)

	if exceeded {
		h.needsGC = target
	}
	return addr
}

// NeedsGC reports whether an allocation flagged a pending collection.
// Generated code polls this at safe points (function prologues and
// explicit GC invocations); allocation itself never triggers collection.
func (h *Heap) NeedsGC() GCTarget {
	return h.needsGC
}

// CollectIfNeeded runs a collection cycle if one is pending, per the
// cooperative model in spec.md §5.
func (h *Heap) CollectIfNeeded() *CollectStats {
	if h.needsGC == GCNone {
		return nil
	}
	return h.Collect()
}

// Collect forces a collection cycle against whichever space needsGC
// currently names, defaulting to the new space if none is set (an
// explicit mutator-invoked GC, per spec.md §5's suspension points).
func (h *Heap) Collect() *CollectStats {
	target := h.needsGC
	if target == GCNone {
		target = GCNewSpace
	}
	return h.gc.collect(target)
}

// AllocateContext carves out a context with n slots, all initialized to
// nil, parented to parent.
func (h *Heap) AllocateContext(tenure bool, parent Value, n int64) Value {
	_, v := allocateContext(h, tenure, parent, n, h.Nil)
	return v
}

func (h *Heap) AllocateFunction(tenure bool, parent Value, code uint64, root Value, argc int64) Value {
	return allocateFunction(h, tenure, parent, code, root, argc)
}

func (h *Heap) AllocateNumber(tenure bool, f float64) Value {
	return allocateNumber(h, tenure, f)
}

func (h *Heap) AllocateBoolean(tenure bool, v bool) Value {
	return allocateBoolean(h, tenure, v)
}

// AllocateString creates a fresh normal string, uninterned. Use
// CreateString (factory.go) for canonical, content-interned constants.
func (h *Heap) AllocateString(tenure bool, data []byte) Value {
	return allocateNormalString(h, tenure, data)
}

func (h *Heap) AllocateCons(tenure bool, left, right Value, length int64) Value {
	return allocateConsString(h, tenure, left, right, length)
}

func (h *Heap) AllocateObject(tenure bool, proto Value) Value {
	return allocateObject(h, tenure, proto)
}

func (h *Heap) AllocateArray(tenure bool, proto Value, length int64) Value {
	return allocateArray(h, tenure, proto, length)
}

func (h *Heap) AllocateCData(tenure bool, data []byte) Value {
	return allocateCData(h, tenure, data)
}

// ToFactory canonicalises candidate against the content-interning table.
func (h *Heap) ToFactory(candidate Value) Value {
	return h.factory.ToFactory(h, candidate)
}

// AcquireHandle registers storage under kind, writing value into it.
// cb is consulted only for HandleWeak.
func (h *Heap) AcquireHandle(kind HandleKind, storage *Value, value Value, cb func(*Value)) *Value {
	return h.handles.Acquire(kind, storage, value, cb)
}

func (h *Heap) ReleaseHandle(storage *Value) {
	h.handles.Release(storage)
}

func (h *Heap) ReadHandle(storage *Value) Value {
	return h.handles.Read(storage)
}

// HeapStats is a point-in-time snapshot for the CLI/TUI and tests.
type HeapStats struct {
	New           SpaceStats
	Old           SpaceStats
	FactoryCount  int
	Persistent    int
	NormalHandles int
	WeakHandles   int
	NeedsGC       GCTarget
}

func (h *Heap) Stats() HeapStats {
	p, n, w := h.handles.Stats()
	return HeapStats{
		New:           h.newSpace.Stats(),
		Old:           h.oldSpace.Stats(),
		FactoryCount:  h.factory.Len(),
		Persistent:    p,
		NormalHandles: n,
		WeakHandles:   w,
		NeedsGC:       h.needsGC,
	}
}
