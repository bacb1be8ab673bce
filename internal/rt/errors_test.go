package rt

import "testing"

func TestPendingExceptionRoundTrip(t *testing.T) {
	h := NewHeap(DefaultHeapConfig())
	if _, ok := h.PendingException(); ok {
		t.Fatal("a fresh heap should have no pending exception")
	}
	h.SetPendingException(TrapDivisionByZero)
	kind, ok := h.PendingException()
	if !ok || kind != TrapDivisionByZero {
		t.Fatalf("PendingException() = (%v, %v), want (TrapDivisionByZero, true)", kind, ok)
	}
	h.ClearPendingException()
	if _, ok := h.PendingException(); ok {
		t.Fatal("ClearPendingException should clear the pending trap")
	}
}

func TestErrorToString(t *testing.T) {
	if ErrorToString(ErrIncorrectLHS) == "" {
		t.Fatal("ErrorToString should describe a CompileError")
	}
	if ErrorToString(TrapNotAnObject) == "" {
		t.Fatal("ErrorToString should describe a RuntimeTrapKind")
	}
}

func TestAllocationErrorMessage(t *testing.T) {
	err := &AllocationError{Space: "old", RequestBytes: 128}
	if err.Error() == "" {
		t.Fatal("AllocationError.Error() should not be empty")
	}
}
