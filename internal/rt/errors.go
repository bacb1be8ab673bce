package rt

import "fmt"

// CompileError enumerates the front-end's compile-time error kinds
// (spec.md §7.1). These abort compilation; they never touch the heap.
type CompileError uint8

const (
	ErrIncorrectLHS CompileError = iota
	ErrCallWithoutVariable
	ErrExpectedLoop
)

func (e CompileError) String() string {
	switch e {
	case ErrIncorrectLHS:
		return "incorrect left-hand side"
	case ErrCallWithoutVariable:
		return "call without variable"
	case ErrExpectedLoop:
		return "expected loop"
	default:
		return "unknown compile error"
	}
}

// RuntimeTrapKind enumerates the traps generated code can raise
// (spec.md §7.3). These are recoverable: the embedder reads the pending
// exception after any API call and decides how to proceed.
type RuntimeTrapKind uint8

const (
	TrapCallNonCallable RuntimeTrapKind = iota
	TrapPropertyOfNil
	TrapWrongArgumentCount
	TrapNotAnObject
	TrapDivisionByZero
)

func (t RuntimeTrapKind) String() string {
	switch t {
	case TrapCallNonCallable:
		return "call of non-callable value"
	case TrapPropertyOfNil:
		return "property access on nil"
	case TrapWrongArgumentCount:
		return "wrong argument count"
	case TrapNotAnObject:
		return "property access on non-object"
	case TrapDivisionByZero:
		return "division by zero"
	default:
		return "unknown runtime trap"
	}
}

// ErrorToString is the single mapping the embedder consults for any
// error surfaced from this package, per spec.md §6.
func ErrorToString(kind any) string {
	switch k := kind.(type) {
	case CompileError:
		return k.String()
	case RuntimeTrapKind:
		return k.String()
	case *AllocationError:
		return k.Error()
	default:
		return fmt.Sprintf("unrecognized error value: %v", kind)
	}
}

// AllocationError is fatal (spec.md §7.2): the allocator could not grow
// to satisfy a request. The runtime aborts rather than recovering.
type AllocationError struct {
	Space        string
	RequestBytes uintptr
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("rt: %s space exhausted: could not satisfy a %d byte allocation", e.Space, e.RequestBytes)
}

// SetPendingException records a runtime trap on the heap; generated code
// polls PendingException after returning from a helper call.
func (h *Heap) SetPendingException(kind RuntimeTrapKind) {
	h.pendingException = FromSmallInt(int64(kind))
}

// PendingException reports the currently pending trap, if any.
func (h *Heap) PendingException() (RuntimeTrapKind, bool) {
	if h.pendingException == h.Nil {
		return 0, false
	}
	return RuntimeTrapKind(h.pendingException.SmallInt()), true
}

func (h *Heap) ClearPendingException() {
	h.pendingException = h.Nil
}
