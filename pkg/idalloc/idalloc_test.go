package idalloc

import "testing"

func TestAllocateSmallestFree(t *testing.T) {
	r := Range{Min: 1000, Max: 2000}
	used := map[uint32]struct{}{1000: {}, 1001: {}}

	id, err := Allocate(r, used, nil)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if id != 1002 {
		t.Errorf("Allocate() = %d, want 1002", id)
	}
}

func TestAllocatePreferredHonored(t *testing.T) {
	r := Range{Min: 1000, Max: 2000}
	used := map[uint32]struct{}{1000: {}}
	preferred := uint32(1500)

	id, err := Allocate(r, used, &preferred)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if id != 1500 {
		t.Errorf("Allocate() = %d, want preferred 1500", id)
	}
}

func TestAllocatePreferredTakenFallsBackToScan(t *testing.T) {
	r := Range{Min: 1000, Max: 2000}
	used := map[uint32]struct{}{1000: {}, 1500: {}}
	preferred := uint32(1500)

	id, err := Allocate(r, used, &preferred)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if id != 1001 {
		t.Errorf("Allocate() = %d, want fallback to smallest free 1001", id)
	}
}

func TestAllocatePreferredOutOfRangeFallsBackToScan(t *testing.T) {
	r := Range{Min: 1000, Max: 2000}
	used := map[uint32]struct{}{}
	preferred := uint32(3000)

	id, err := Allocate(r, used, &preferred)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if id != 1000 {
		t.Errorf("Allocate() = %d, want 1000", id)
	}
}

func TestAllocateExhausted(t *testing.T) {
	r := Range{Min: 1000, Max: 1001}
	used := map[uint32]struct{}{1000: {}, 1001: {}}

	if _, err := Allocate(r, used, nil); err == nil {
		t.Error("Allocate() on an exhausted range returned nil error")
	}
}

func TestAllocateSingleValueRangeDoesNotWrap(t *testing.T) {
	r := Range{Min: 4294967295, Max: 4294967295}
	used := map[uint32]struct{}{4294967295: {}}

	if _, err := Allocate(r, used, nil); err == nil {
		t.Error("Allocate() at the uint32 maximum returned nil error, want exhaustion")
	}
}
