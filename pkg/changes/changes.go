// Package changes implements batched structural change notification.
//
// Graph implementations record [Change] events on a [Hub] as they mutate and
// then dispatch them in one batch. Every listener sees the full set of changes
// accumulated since the previous dispatch, never one event at a time, so a
// layout pass always observes a consistent view of what changed.
//
// # Dispatch Semantics
//
// Dispatch works on a snapshot: listeners registered or removed while a batch
// is being delivered do not affect that batch, and changes recorded by a
// listener are held for the next dispatch. A listener that calls Dispatch on
// the hub that is currently delivering to it does not recurse; the nested
// dispatch is deferred until the current one has finished.
//
// Hubs are not safe for concurrent use. The layout engine is single-threaded
// and callers serialize access.
package changes

import (
	"fmt"
	"slices"

	"github.com/matzehuels/ddlayout/pkg/freeid"
	"github.com/matzehuels/ddlayout/pkg/observability"
)

// Kind identifies what happened to a node.
type Kind int

const (
	// NodeLabelChanged means the display label of a node changed.
	NodeLabelChanged Kind = iota
	// LevelChanged means a node moved to a different level.
	LevelChanged
	// LevelLabelChanged means the label of the level a node lives on changed.
	LevelLabelChanged
	// ConnectionsChanged means the outgoing edges of a node changed.
	ConnectionsChanged
	// NodeRemoved means the node no longer exists.
	NodeRemoved
	// NodeInserted means a new node became reachable.
	NodeInserted
)

var kindNames = [...]string{
	NodeLabelChanged:   "node-label-changed",
	LevelChanged:       "level-changed",
	LevelLabelChanged:  "level-label-changed",
	ConnectionsChanged: "connections-changed",
	NodeRemoved:        "node-removed",
	NodeInserted:       "node-inserted",
}

// String returns the kebab-case name of the kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Change is a single structural event about one raw graph node.
// Node holds the graph's node identifier; it is an int so that this package
// does not depend on any particular graph implementation.
type Change struct {
	Kind Kind
	Node int
}

func (c Change) String() string { return fmt.Sprintf("%s(%d)", c.Kind, c.Node) }

// Listener receives a batch of changes. The slice must not be retained or
// modified after the call returns.
type Listener func(batch []Change)

// Handle identifies a registered listener. Handle ids are reused after
// removal; the generation keeps a stale handle from matching a newer
// registration that got the same id.
type Handle struct {
	id  int
	gen uint64
}

// ID returns the reusable listener id.
func (h Handle) ID() int { return h.id }

type registration struct {
	handle   Handle
	listener Listener
}

// Hub accumulates changes and dispatches them to registered listeners.
// The zero value is ready to use.
type Hub struct {
	ids       freeid.Allocator
	gen       uint64
	listeners []registration
	pending   []Change

	dispatching bool
	deferred    bool
}

// NewHub creates an empty hub.
func NewHub() *Hub { return &Hub{} }

// Add registers a listener and returns a handle for removing it.
// Listeners are invoked in registration order.
func (h *Hub) Add(l Listener) Handle {
	h.gen++
	handle := Handle{id: h.ids.Next(), gen: h.gen}
	h.listeners = append(h.listeners, registration{handle: handle, listener: l})
	return handle
}

// Remove unregisters the listener with the given handle.
// Removing an unknown or already removed handle is a no-op, even after its id
// has been handed to another listener.
func (h *Hub) Remove(handle Handle) {
	i := slices.IndexFunc(h.listeners, func(r registration) bool { return r.handle == handle })
	if i < 0 {
		return
	}
	h.listeners = slices.Delete(h.listeners, i, i+1)
	h.ids.MakeAvailable(handle.id)
}

// Len returns the number of registered listeners.
func (h *Hub) Len() int { return len(h.listeners) }

// AddChange appends c to the pending batch without notifying anyone.
func (h *Hub) AddChange(c Change) {
	h.pending = append(h.pending, c)
}

// Pending returns a copy of the changes recorded since the last dispatch.
func (h *Hub) Pending() []Change { return slices.Clone(h.pending) }

// Dispatch delivers the pending batch to every registered listener exactly
// once and clears it. Listeners are notified even when the batch is empty.
func (h *Hub) Dispatch() {
	if h.dispatching {
		h.deferred = true
		return
	}
	h.dispatching = true
	defer func() { h.dispatching = false }()

	for {
		batch := h.pending
		h.pending = nil
		listeners := slices.Clone(h.listeners)

		for _, r := range listeners {
			r.listener(batch)
		}
		observability.Changes().OnDispatch(len(batch), len(listeners))

		if !h.deferred {
			return
		}
		h.deferred = false
	}
}

// DispatchChanges appends changes to the pending batch and dispatches immediately.
func (h *Hub) DispatchChanges(changes []Change) {
	h.pending = append(h.pending, changes...)
	h.Dispatch()
}
