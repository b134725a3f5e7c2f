package core

import "testing"

func TestNewSymbolId_RejectsZero(t *testing.T) {
	if _, err := NewSymbolId(0); err == nil {
		t.Fatal("expected error wrapping zero as SymbolId")
	}
}

func TestNewSymbolId_AcceptsPositive(t *testing.T) {
	id, err := NewSymbolId(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Value() != 42 {
		t.Fatalf("expected value 42, got %d", id.Value())
	}
	if id.IsNull() {
		t.Fatal("42 should not be null")
	}
}

func TestIdAllocator_MonotonicThenReusesFreed(t *testing.T) {
	a := NewIdAllocator()

	first := a.Alloc()
	second := a.Alloc()
	if first != 1 || second != 2 {
		t.Fatalf("expected 1,2 got %d,%d", first, second)
	}

	a.Release(first)
	third := a.Alloc()
	if third != first {
		t.Fatalf("expected freelist reuse of %d, got %d", first, third)
	}

	fourth := a.Alloc()
	if fourth != 3 {
		t.Fatalf("expected counter to resume at 3, got %d", fourth)
	}
}

func TestRange_Contains(t *testing.T) {
	outer := Range{StartLine: 1, StartCol: 0, EndLine: 10, EndCol: 0}
	inner := Range{StartLine: 3, StartCol: 2, EndLine: 5, EndCol: 4}
	if !outer.Contains(inner) {
		t.Fatal("expected outer to contain inner")
	}

	notContained := Range{StartLine: 0, StartCol: 0, EndLine: 2, EndCol: 0}
	if outer.Contains(notContained) {
		t.Fatal("expected outer to not contain a range starting before it")
	}
}
