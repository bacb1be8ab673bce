package rt

// CacheState describes a PIC's current fill level, mirroring the
// Empty/Monomorphic/Polymorphic/Megamorphic progression a per-call-site
// inline cache goes through as it observes more receiver shapes.
type CacheState uint8

const (
	CacheEmpty CacheState = iota
	CacheMonomorphic
	CachePolymorphic
	CacheMegamorphic
)

func (s CacheState) String() string {
	switch s {
	case CacheEmpty:
		return "empty"
	case CacheMonomorphic:
		return "monomorphic"
	case CachePolymorphic:
		return "polymorphic"
	case CacheMegamorphic:
		return "megamorphic"
	default:
		return "invalid"
	}
}

type picEntry struct {
	proto   Value
	offset  uintptr
	storage *Value // the weak-handle slot this entry's proto is registered under
}

// PIC is one property-access call site's fixed-capacity cache, per
// spec.md §4.5: it maps a receiver prototype identity to a resolved
// property-slot offset. This is the runtime-side twin of the
// compare/jump chain a JIT backend would emit; there is no JIT backend
// in this package, so PIC is driven directly by the property lookup
// helper instead of by patched machine code (see pic_persistence.go for
// the patch-site table this cache would otherwise drive).
type PIC struct {
	heap     *Heap
	capacity int
	entries  []picEntry
	disabled bool
	hits     uint64
	misses   uint64

	// warmHint is a cross-run offset hint loaded via pic_persistence.go.
	// It is not a cache entry: nothing validates it against a proto, so
	// callers may only use it as a speculative first guess to verify
	// before falling back to a full property lookup.
	warmHint uint64
}

// WarmHint returns the offset hint loaded by PICRegistry.Warm, if any.
func (p *PIC) WarmHint() (uintptr, bool) {
	return uintptr(p.warmHint), p.warmHint != 0
}

// NewPIC creates a cache of the given capacity (spec.md §4.5 suggests
// 3-5 entries per call site).
func NewPIC(h *Heap, capacity int) *PIC {
	return &PIC{heap: h, capacity: capacity}
}

func (p *PIC) State() CacheState {
	switch {
	case p.disabled:
		return CacheMegamorphic
	case len(p.entries) == 0:
		return CacheEmpty
	case len(p.entries) == 1:
		return CacheMonomorphic
	default:
		return CachePolymorphic
	}
}

// Lookup implements spec.md §4.5's lookup flow: guard the receiver,
// reject a disabled cache, then linearly scan populated entries for a
// proto match.
func (p *PIC) Lookup(receiver Value) (uintptr, bool) {
	if receiver.IsNil(p.heap) || receiver.IsSmallInt() {
		p.misses++
		return 0, false
	}
	if receiver.Tag() != TagObject {
		p.misses++
		return 0, false
	}
	if p.disabled {
		p.misses++
		return 0, false
	}

	ov, _ := AsObject(receiver)
	proto := ov.Proto()
	for _, e := range p.entries {
		if e.proto == proto {
			p.hits++
			return e.offset, true
		}
	}
	p.misses++
	return 0, false
}

// OnMiss is the runtime miss stub invoked on a lookup failure: it
// performs the resolution the caller already did (offset is supplied
// by the caller's full property lookup) and, if the cache has room,
// installs the new (proto, offset) pair. Exceeding capacity transitions
// the cache to megamorphic and disables it, rather than evicting —
// the cheapest available answer to an unbounded polymorphism site.
func (p *PIC) OnMiss(receiver Value, offset uintptr) {
	if p.disabled || receiver.IsNil(p.heap) || receiver.IsSmallInt() || receiver.Tag() != TagObject {
		return
	}
	if len(p.entries) >= p.capacity {
		p.disabled = true
		for _, e := range p.entries {
			p.heap.ReleaseHandle(e.storage)
		}
		p.entries = nil
		return
	}

	ov, _ := AsObject(receiver)
	proto := ov.Proto()
	for _, e := range p.entries {
		if e.proto == proto {
			return
		}
	}

	storage := new(Value)
	p.heap.AcquireHandle(HandleWeak, storage, proto, func(s *Value) {
		p.invalidate(s)
	})
	p.entries = append(p.entries, picEntry{proto: proto, offset: offset, storage: storage})
}

// invalidate drops the entry whose weak-handle storage slot is s, when
// its proto's weak callback fires, per spec.md §4.5's "shape death"
// clause. Matching by storage pointer rather than a captured index
// keeps this correct regardless of how many other entries have been
// removed in the meantime.
func (p *PIC) invalidate(s *Value) {
	for i, e := range p.entries {
		if e.storage == s {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			return
		}
	}
}

// Stats exposes hit-rate counters for the CLI/TUI and tests.
type PICStats struct {
	State   CacheState
	Entries int
	Hits    uint64
	Misses  uint64
}

func (p *PIC) Stats() PICStats {
	return PICStats{State: p.State(), Entries: len(p.entries), Hits: p.hits, Misses: p.misses}
}
