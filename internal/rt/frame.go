package rt

// Frame is a mutator call frame, per spec.md §4.4.4: a link to the
// previous frame plus the tagged-value slots the frame generator
// declared live at this point.
//
// The original contract describes a frame as raw stack memory laid out
// as [previous frame pointer][slots-count word][slots...], with a
// marker value signalling a transition into a native trampoline so the
// collector can skip it. This package has no native call stack to scan
// — there is no code generator emitting frames into raw memory — so the
// contract is expressed instead as an explicit, Go-owned linked list
// that an embedder pushes and pops around calls into generated or
// interpreted code. The call-prelude/trampoline marker has no
// counterpart here: every frame on this list is a mutator frame by
// construction.
type Frame struct {
	Prev  *Frame
	Slots []Value
}

// PushFrame links f onto the top of the heap's frame stack.
func (h *Heap) PushFrame(f *Frame) {
	f.Prev = h.topFrame
	h.topFrame = f
}

// PopFrame unlinks the top frame. Panics if the stack is empty, since
// that indicates a mismatched Push/Pop in the embedder.
func (h *Heap) PopFrame() {
	if h.topFrame == nil {
		panic("rt: PopFrame: frame stack is empty")
	}
	h.topFrame = h.topFrame.Prev
}

// forEachFrameSlot walks every frame from the top down to the root,
// stopping when the previous-frame link is nil, and yields a pointer to
// each slot so the collector can rewrite it in place.
func (h *Heap) forEachFrameSlot(fn func(*Value)) {
	for f := h.topFrame; f != nil; f = f.Prev {
		for i := range f.Slots {
			fn(&f.Slots[i])
		}
	}
}
