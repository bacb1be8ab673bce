package rt

import "unsafe"

// DefaultPageSize is the page size a Space grows by when none is
// configured explicitly (see internal/rtconfig).
const DefaultPageSize = 1 << 20 // 1 MiB

// Space owns an ordered sequence of Pages plus allocation bookkeeping. It
// implements spec.md §4.1: bump allocation with page-gap scanning, growth,
// and a destructive Swap used by the collector to install a to-space.
type Space struct {
	name      string
	pageSize  int
	pages     []*Page
	cur       int
	size      uintptr // running total of bytes allocated across all pages
	sizeLimit uintptr // soft threshold; exceeding it on growth flags a GC
}

// NewSpace creates a Space with one initial page of pageSize bytes.
func NewSpace(name string, pageSize int) *Space {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	s := &Space{name: name, pageSize: pageSize}
	s.pages = append(s.pages, newPage(pageSize))
	s.computeSizeLimit()
	return s
}

func (s *Space) Name() string { return s.name }

// Allocate rounds bytes up to an even count and bump-allocates from the
// current page. If the current page is full it scans the remaining pages
// for a gap; if none has room, it grows by a new page sized to fit the
// request. The second return value reports whether the space was already
// over its soft size limit when this allocation had to add a page,
// signaling the caller (the Heap) to flag a collection; it is false for
// any allocation that fits in an existing page. Allocation itself never
// triggers the collector.
func (s *Space) Allocate(bytes uintptr) (unsafe.Pointer, bool) {
	bytes = roundUpEven(bytes)

	if ptr, ok := s.pages[s.cur].allocate(bytes); ok {
		s.size += bytes
		return ptr, false
	}

	for i, p := range s.pages {
		if i == s.cur {
			continue
		}
		if ptr, ok := p.allocate(bytes); ok {
			s.cur = i
			s.size += bytes
			return ptr, false
		}
	}

	exceeded := s.size > s.sizeLimit

	newSize := roundUp(bytes+1, uintptr(s.pageSize))
	np := newPage(int(newSize))
	s.pages = append(s.pages, np)
	s.cur = len(s.pages) - 1

	ptr, ok := np.allocate(bytes)
	if !ok {
		// A freshly sized page that can't satisfy its own sizing request
		// means the caller asked for more than uintptr can represent after
		// rounding; this is an allocation failure per spec.md §7.2.
		return nil, true
	}
	s.size += bytes
	return ptr, exceeded
}

// Swap drops this space's pages and adopts other's, then resets other to
// empty. Used by the collector to atomically replace a from-space with
// its to-space.
func (s *Space) Swap(other *Space) {
	s.pages, other.pages = other.pages, s.pages
	s.cur, other.cur = other.cur, s.cur
	s.size, other.size = other.size, s.size
	s.computeSizeLimit()

	other.pages = nil
	other.cur = 0
	other.size = 0
	other.computeSizeLimit()
}

// Clear releases all pages.
func (s *Space) Clear() {
	s.pages = nil
	s.cur = 0
	s.size = 0
	s.computeSizeLimit()
}

// computeSizeLimit sets the next collection threshold proportional to
// currently occupied size — a simple growth policy, run after Swap and on
// construction.
func (s *Space) computeSizeLimit() {
	occupied := s.occupiedBytes()
	limit := occupied * 2
	floor := uintptr(s.pageSize) * 2
	if limit < floor {
		limit = floor
	}
	s.sizeLimit = limit
}

func (s *Space) occupiedBytes() uintptr {
	var total uintptr
	for _, p := range s.pages {
		total += p.used()
	}
	return total
}

// contains reports whether addr lies within one of this space's pages.
func (s *Space) contains(addr unsafe.Pointer) bool {
	for _, p := range s.pages {
		if p.contains(addr) {
			return true
		}
	}
	return false
}

// SpaceStats is a point-in-time snapshot of a Space's occupancy, used by
// the CLI/TUI (cmd/wisp) and tests.
type SpaceStats struct {
	Name      string
	PageCount int
	Used      uintptr
	SizeLimit uintptr
}

func (s *Space) Stats() SpaceStats {
	return SpaceStats{
		Name:      s.name,
		PageCount: len(s.pages),
		Used:      s.occupiedBytes(),
		SizeLimit: s.sizeLimit,
	}
}
