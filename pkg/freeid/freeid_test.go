package freeid

import "testing"

func TestAllocator_Sequential(t *testing.T) {
	a := New(3)
	for want := 3; want < 8; want++ {
		if got := a.Next(); got != want {
			t.Fatalf("Next() = %d, want %d", got, want)
		}
	}
	if a.Limit() != 8 {
		t.Errorf("Limit() = %d, want 8", a.Limit())
	}
}

func TestAllocator_ReuseBeforeGrowing(t *testing.T) {
	a := New(0)
	a.Next()
	id := a.Next()
	a.Next()

	a.MakeAvailable(id)
	if got := a.Next(); got != id {
		t.Errorf("Next() after release = %d, want %d", got, id)
	}
	if got := a.Next(); got != 3 {
		t.Errorf("Next() = %d, want 3", got)
	}
}

func TestAllocator_MostRecentlyReleasedFirst(t *testing.T) {
	a := New(1)
	for range 4 {
		a.Next()
	}
	a.MakeAvailable(2)
	a.MakeAvailable(4)

	if got := a.Next(); got != 4 {
		t.Errorf("Next() = %d, want 4", got)
	}
	if got := a.Next(); got != 2 {
		t.Errorf("Next() = %d, want 2", got)
	}
	if got := a.Next(); got != 5 {
		t.Errorf("Next() = %d, want 5", got)
	}
}

func TestAllocator_DoubleReleaseIsNoop(t *testing.T) {
	a := New(0)
	id := a.Next()
	a.MakeAvailable(id)
	a.MakeAvailable(id)

	if got := a.Next(); got != id {
		t.Fatalf("Next() = %d, want %d", got, id)
	}
	if got := a.Next(); got != 1 {
		t.Errorf("Next() = %d, want 1 (id must not be issued twice)", got)
	}
}

func TestAllocator_ReleaseUnissuedIsNoop(t *testing.T) {
	a := New(0)
	a.MakeAvailable(10)
	if got := a.Next(); got != 0 {
		t.Errorf("Next() = %d, want 0", got)
	}
	if !a.IsFree(10) {
		t.Error("IsFree(10) = false, want true")
	}
}

func TestAllocator_IsFree(t *testing.T) {
	a := New(0)
	id := a.Next()
	if a.IsFree(id) {
		t.Errorf("IsFree(%d) = true after Next", id)
	}
	a.MakeAvailable(id)
	if !a.IsFree(id) {
		t.Errorf("IsFree(%d) = false after MakeAvailable", id)
	}
}

func TestAllocator_ZeroValue(t *testing.T) {
	var a Allocator
	if got := a.Next(); got != 0 {
		t.Errorf("Next() = %d, want 0", got)
	}
	a.MakeAvailable(0)
	if got := a.Next(); got != 0 {
		t.Errorf("Next() = %d, want 0", got)
	}
}

func TestAllocator_BelowFirst(t *testing.T) {
	a := New(1)
	a.MakeAvailable(0)
	a.MakeAvailable(-3)

	if a.IsFree(0) {
		t.Error("IsFree(0) = true, want false below the first id")
	}
	if got := a.Next(); got != 1 {
		t.Errorf("Next() = %d, want 1", got)
	}
	if got := a.Next(); got != 2 {
		t.Errorf("Next() = %d, want 2", got)
	}
}
