package heap

import "cyclegc/pkg/gc"

// Cell is a two-slot container, the smallest thing that can form a
// cycle. Either slot may be nil.
type Cell struct {
	h         *Heap
	first     *gc.Object
	second    *gc.Object
	finalizer func()
}

// NewCell allocates an empty tracked cell.
func (h *Heap) NewCell() *gc.Object {
	h.stats.Cells++
	return h.alloc(&Cell{h: h})
}

// CellOf returns o's payload as a Cell.
func CellOf(o *gc.Object) *Cell {
	return o.Data().(*Cell)
}

// First returns the first slot.
func (c *Cell) First() *gc.Object { return c.first }

// Second returns the second slot.
func (c *Cell) Second() *gc.Object { return c.second }

// SetFirst stores target in the first slot, adjusting refcounts.
func (c *Cell) SetFirst(target *gc.Object) {
	c.h.setRef(&c.first, target)
}

// SetSecond stores target in the second slot, adjusting refcounts.
func (c *Cell) SetSecond(target *gc.Object) {
	c.h.setRef(&c.second, target)
}

// SetFinalizer attaches a finalizer. The collector never invokes it; a
// non-nil finalizer routes the cell to the garbage list when its cycle
// dies, and the embedding program decides what to do from there.
func (c *Cell) SetFinalizer(fn func()) { c.finalizer = fn }

// Finalizer returns the attached finalizer, if any.
func (c *Cell) Finalizer() func() { return c.finalizer }

func (c *Cell) Traverse(visit gc.Visitor) {
	if c.first != nil {
		visit(c.first)
	}
	if c.second != nil {
		visit(c.second)
	}
}

func (c *Cell) Clear() error {
	// Detach before dropping so a re-entrant Clear sees empty slots.
	first, second := c.first, c.second
	c.first, c.second = nil, nil
	if first != nil {
		c.h.gc.Decref(first)
	}
	if second != nil {
		c.h.gc.Decref(second)
	}
	return nil
}

func (c *Cell) HasFinalizer() bool { return c.finalizer != nil }
