package rt

import "unsafe"

// Page is a contiguous byte region with a bump-allocation cursor.
//
// The backing array is Go-owned memory; page addresses handed out by
// Allocate remain stable for the page's lifetime because Go's collector
// does not relocate heap allocations. Mutators outside this package never
// see a *Page — only the unsafe.Pointer addresses it hands out.
type Page struct {
	buf   []byte
	top   uintptr // offset of the next free byte
	limit uintptr // one past the end of buf
}

func newPage(size int) *Page {
	if size <= 0 {
		size = 1
	}
	return &Page{
		buf:   make([]byte, size),
		top:   0,
		limit: uintptr(size),
	}
}

func (p *Page) base() unsafe.Pointer {
	return unsafe.Pointer(&p.buf[0])
}

// allocate bumps top by n bytes and returns the address of the region it
// just carved out. Returns (nil, false) if the page has no room.
func (p *Page) allocate(n uintptr) (unsafe.Pointer, bool) {
	if p.top+n > p.limit {
		return nil, false
	}
	ptr := unsafe.Add(p.base(), p.top)
	p.top += n
	return ptr, true
}

func (p *Page) used() uintptr {
	return p.top
}

func (p *Page) available() uintptr {
	return p.limit - p.top
}

// contains reports whether addr lies within this page's byte range.
func (p *Page) contains(addr unsafe.Pointer) bool {
	if len(p.buf) == 0 {
		return false
	}
	base := uintptr(p.base())
	a := uintptr(addr)
	return a >= base && a < base+p.limit
}
