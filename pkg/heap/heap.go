// Package heap is a small reference-counted object heap built on top of
// the cycle collector in pkg/gc. It provides the two things the
// collector deliberately leaves external: an accounting allocator
// (allocate, take/drop references, free on zero) and concrete container
// types implementing the traversal protocol (Cell, Vector, Table).
package heap

import "cyclegc/pkg/gc"

// Stats tracks heap activity.
type Stats struct {
	Cells   int64
	Vectors int64
	Tables  int64
}

// Heap binds container constructors to one collector.
type Heap struct {
	gc    *gc.Collector
	stats Stats
}

// New creates a heap over c. A nil c gets a fresh collector.
func New(c *gc.Collector) *Heap {
	if c == nil {
		c = gc.New()
	}
	return &Heap{gc: c}
}

// Collector returns the underlying cycle collector.
func (h *Heap) Collector() *gc.Collector { return h.gc }

// Stats returns heap allocation counts.
func (h *Heap) Stats() Stats { return h.stats }

// Retain takes an additional reference to o.
func (h *Heap) Retain(o *gc.Object) { h.gc.Incref(o) }

// Release drops a reference to o, freeing it (and cascading) at zero.
func (h *Heap) Release(o *gc.Object) { h.gc.Decref(o) }

// alloc creates a tracked object for data with refcount 1. Allocation
// pressure may trigger a collection before the object is tracked, so
// data must already be safe to traverse.
func (h *Heap) alloc(data gc.Traceable) *gc.Object {
	o := h.gc.NewObject(data)
	h.gc.Track(o)
	return o
}

// setRef implements the store-with-accounting idiom shared by all
// container types: retain the incoming reference before dropping the
// outgoing one, so storing an object over itself is safe.
func (h *Heap) setRef(slot **gc.Object, target *gc.Object) {
	if target != nil {
		h.gc.Incref(target)
	}
	old := *slot
	*slot = target
	if old != nil {
		h.gc.Decref(old)
	}
}
