package rt

import "testing"

func TestSpaceAllocateEvenAndWithinPage(t *testing.T) {
	s := NewSpace("test", 256)
	for i := 0; i < 20; i++ {
		ptr, _ := s.Allocate(17)
		if ptr == nil {
			t.Fatalf("allocation %d failed", i)
		}
		if uintptr(ptr)%2 != 0 {
			t.Errorf("allocation %d returned an odd address", i)
		}
		if !s.contains(ptr) {
			t.Errorf("allocation %d does not lie within any page of the space", i)
		}
	}
}

func TestSpaceGrowsOnExhaustion(t *testing.T) {
	s := NewSpace("test", 64)
	before := len(s.pages)
	for i := 0; i < 50; i++ {
		if ptr, _ := s.Allocate(32); ptr == nil {
			t.Fatalf("allocation %d failed", i)
		}
	}
	if len(s.pages) <= before {
		t.Fatal("space should have grown past its first page")
	}
}

func TestSpaceSwap(t *testing.T) {
	a := NewSpace("a", 128)
	b := NewSpace("b", 128)

	pa, _ := a.Allocate(8)
	_, _ = b.Allocate(8)

	a.Swap(b)

	// a.Swap(b) makes a adopt b's former pages and b adopt a's former
	// pages, so the address originally allocated from a now lives in b.
	if a.contains(pa) {
		t.Fatal("after Swap, a should no longer contain its pre-swap allocation")
	}
	if !b.contains(pa) {
		t.Fatal("after Swap, b should contain a's pre-swap allocation")
	}
}

func TestSpaceClear(t *testing.T) {
	s := NewSpace("test", 128)
	_, _ = s.Allocate(8)
	s.Clear()
	if len(s.pages) != 0 {
		t.Fatal("Clear should drop all pages")
	}
	if s.size != 0 {
		t.Fatal("Clear should reset size")
	}
}
