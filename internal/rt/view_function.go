package rt

import "unsafe"

// FunctionView is a non-owning view onto a boxed function object: the
// closed-over context, the native code address the JIT emitted, the
// function's root (top-level) context, and its declared argument count.
type FunctionView struct {
	base unsafe.Pointer
}

func AsFunction(v Value) (FunctionView, bool) {
	if !v.IsBoxed() {
		return FunctionView{}, false
	}
	addr := v.Address()
	if readHeader(addr).Tag() != TagFunction {
		return FunctionView{}, false
	}
	return FunctionView{base: addr}, true
}

func (f FunctionView) ParentContext() Value {
	return loadValue(f.base, offFunctionParent)
}

func (f FunctionView) SetParentContext(v Value) {
	storeValue(f.base, offFunctionParent, v)
}

// CodeAddress is the native entry point; it is opaque to this package
// (owned by the code generator, an external collaborator per spec.md §1).
func (f FunctionView) CodeAddress() uint64 {
	return loadU64(f.base, offFunctionCodeAddress)
}

func (f FunctionView) SetCodeAddress(addr uint64) {
	storeU64(f.base, offFunctionCodeAddress, addr)
}

func (f FunctionView) RootContext() Value {
	return loadValue(f.base, offFunctionRootContext)
}

func (f FunctionView) SetRootContext(v Value) {
	storeValue(f.base, offFunctionRootContext, v)
}

func (f FunctionView) Argc() int64 {
	return int64(loadU64(f.base, offFunctionArgc))
}

func (f FunctionView) SetArgc(argc int64) {
	storeU64(f.base, offFunctionArgc, uint64(argc))
}

// ForEachSlot visits the two GC-traceable fields: parent and root context.
// CodeAddress and Argc are not tagged values and are never roots.
func (f FunctionView) ForEachSlot(fn func(Value)) {
	fn(f.ParentContext())
	fn(f.RootContext())
}

func allocateFunction(h *Heap, tenure bool, parent Value, code uint64, root Value, argc int64) Value {
	addr := h.allocateTagged(TagFunction, tenure, functionSize)
	storeValue(addr, offFunctionParent, parent)
	storeU64(addr, offFunctionCodeAddress, code)
	storeValue(addr, offFunctionRootContext, root)
	storeU64(addr, offFunctionArgc, uint64(argc))
	return FromAddress(addr)
}
