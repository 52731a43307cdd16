package heap

import "cyclegc/pkg/gc"

// Vector is a growable sequence of object references.
type Vector struct {
	h         *Heap
	elems     []*gc.Object
	finalizer func()
}

// NewVector allocates an empty tracked vector.
func (h *Heap) NewVector() *gc.Object {
	h.stats.Vectors++
	return h.alloc(&Vector{h: h})
}

// VectorOf returns o's payload as a Vector.
func VectorOf(o *gc.Object) *Vector {
	return o.Data().(*Vector)
}

// Len returns the number of elements.
func (v *Vector) Len() int { return len(v.elems) }

// At returns the element at index i.
func (v *Vector) At(i int) *gc.Object { return v.elems[i] }

// Append appends target, taking a reference to it.
func (v *Vector) Append(target *gc.Object) {
	v.h.gc.Incref(target)
	v.elems = append(v.elems, target)
}

// SetAt replaces the element at index i, adjusting refcounts.
func (v *Vector) SetAt(i int, target *gc.Object) {
	v.h.setRef(&v.elems[i], target)
}

// SetFinalizer attaches a finalizer; see Cell.SetFinalizer.
func (v *Vector) SetFinalizer(fn func()) { v.finalizer = fn }

func (v *Vector) Traverse(visit gc.Visitor) {
	for _, e := range v.elems {
		if e != nil {
			visit(e)
		}
	}
}

func (v *Vector) Clear() error {
	elems := v.elems
	v.elems = nil
	for _, e := range elems {
		if e != nil {
			v.h.gc.Decref(e)
		}
	}
	return nil
}

func (v *Vector) HasFinalizer() bool { return v.finalizer != nil }
