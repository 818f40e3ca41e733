// Package watch provides a minimal observable value.
//
// A [Watchable] holds a current value and synchronously notifies observers when
// it changes. [Derive] composes watchables: the derived value is a pure function
// of its source and is recomputed on every source notification. This is how a
// "graph changed" signal becomes a "layout is stale" signal without anyone
// polling.
//
// Notification uses a snapshot of the observer list, mirroring the batching
// discipline of the change hub: observers added while a notification is in
// progress are not visited in that round.
package watch

import (
	"slices"

	"github.com/matzehuels/ddlayout/pkg/freeid"
)

// DataState describes whether derived data reflects its inputs.
type DataState int

const (
	// UpToDate means the data reflects the latest inputs.
	UpToDate DataState = iota
	// Stale means inputs changed since the data was computed.
	Stale
	// Loading means a recomputation is in progress.
	Loading
)

func (s DataState) String() string {
	switch s {
	case UpToDate:
		return "up-to-date"
	case Stale:
		return "stale"
	case Loading:
		return "loading"
	default:
		return "unknown"
	}
}

type observer[T any] struct {
	id int
	fn func(T)
}

// Watchable is an observable value. The zero value holds the zero T and has
// no observers. Watchables are not safe for concurrent use.
type Watchable[T any] struct {
	value     T
	ids       freeid.Allocator
	observers []observer[T]
	detach    func()
}

// New creates a watchable holding initial.
func New[T any](initial T) *Watchable[T] {
	return &Watchable[T]{value: initial}
}

// NewTracker creates a DataState watchable that starts out up to date.
func NewTracker() *Watchable[DataState] { return New(UpToDate) }

// Get returns the current value.
func (w *Watchable[T]) Get() T { return w.value }

// Set stores v and notifies every observer registered before the call.
func (w *Watchable[T]) Set(v T) {
	w.value = v
	for _, o := range slices.Clone(w.observers) {
		o.fn(v)
	}
}

// ChangeState is an alias for Set.
func (w *Watchable[T]) ChangeState(v T) { w.Set(v) }

// Observe registers fn and returns a function that unregisters it.
// The returned function is idempotent.
func (w *Watchable[T]) Observe(fn func(T)) (dispose func()) {
	id := w.ids.Next()
	w.observers = append(w.observers, observer[T]{id: id, fn: fn})
	done := false
	return func() {
		if done {
			return
		}
		done = true
		w.observers = slices.DeleteFunc(w.observers, func(o observer[T]) bool { return o.id == id })
		w.ids.MakeAvailable(id)
	}
}

// Observers returns the number of registered observers.
func (w *Watchable[T]) Observers() int { return len(w.observers) }

// Dispose detaches a derived watchable from its source. It is a no-op for
// watchables created with New.
func (w *Watchable[T]) Dispose() {
	if w.detach != nil {
		w.detach()
		w.detach = nil
	}
}

// Derive returns a watchable whose value is fn applied to src's value. The
// derived value is recomputed, and its observers notified, every time src
// notifies.
func Derive[S, T any](src *Watchable[S], fn func(S) T) *Watchable[T] {
	d := New(fn(src.Get()))
	d.detach = src.Observe(func(v S) { d.Set(fn(v)) })
	return d
}
