// Package freeid provides a reusable source of integer identifiers.
//
// An [Allocator] logically represents the infinite range [first, ∞) as a set of
// free identifiers. [Allocator.Next] removes one identifier from the set and
// [Allocator.MakeAvailable] puts one back, so identifiers released by removed
// objects are reused before the allocator grows past its high-water mark.
//
// Group managers use this to keep node-group identifiers small and stable, and
// the change hub uses it for listener handles.
//
// # Concurrency
//
// Allocator is not safe for concurrent use.
package freeid

// Allocator hands out integer identifiers starting at a configurable first value.
//
// The free set is stored as a stack of released identifiers plus a continuation
// marker: the smallest identifier that has never been issued. The continuation
// is only advanced when no released identifier is available.
//
// The zero value is an allocator starting at 0.
type Allocator struct {
	free     []int
	released map[int]struct{}
	first    int
	next     int
}

// New creates an allocator whose free set is [first, ∞).
func New(first int) *Allocator {
	return &Allocator{first: first, next: first}
}

// Next removes an identifier from the free set and returns it.
// The most recently released identifier is returned first; when nothing has
// been released the continuation marker is issued and incremented.
func (a *Allocator) Next() int {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		delete(a.released, id)
		return id
	}
	id := a.next
	a.next++
	return id
}

// MakeAvailable returns id to the free set so a later call to Next can reuse it.
// Releasing an identifier that is already free, one that has never been issued
// or one below the first identifier is a no-op.
func (a *Allocator) MakeAvailable(id int) {
	if id < a.first || id >= a.next {
		return
	}
	if _, ok := a.released[id]; ok {
		return
	}
	if a.released == nil {
		a.released = make(map[int]struct{})
	}
	a.released[id] = struct{}{}
	a.free = append(a.free, id)
}

// IsFree reports whether id is currently in the free set. Identifiers below
// the first one are never free.
func (a *Allocator) IsFree(id int) bool {
	if id < a.first {
		return false
	}
	if id >= a.next {
		return true
	}
	_, ok := a.released[id]
	return ok
}

// Limit returns the continuation marker: every identifier at or above it has
// never been issued.
func (a *Allocator) Limit() int { return a.next }
