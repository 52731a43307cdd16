package gc

// Debugging introspection over the tracked-object graph. None of this
// is used by the collection pass itself.

// Objects returns every currently tracked object, youngest generation
// first.
func (c *Collector) Objects() []*Object {
	var out []*Object
	for i := range c.gens {
		l := &c.gens[i].objects
		for o := l.head.next; o != l.sentinel(); o = o.next {
			out = append(out, o)
		}
	}
	return out
}

// Referrers returns the tracked objects that directly reference any of
// the targets. Targets themselves are skipped.
func (c *Collector) Referrers(targets ...*Object) []*Object {
	want := make(map[*Object]struct{}, len(targets))
	for _, t := range targets {
		want[t] = struct{}{}
	}
	var out []*Object
	for i := range c.gens {
		l := &c.gens[i].objects
		for o := l.head.next; o != l.sentinel(); o = o.next {
			if _, isTarget := want[o]; isTarget {
				continue
			}
			refers := false
			o.data.Traverse(func(t *Object) {
				if _, ok := want[t]; ok {
					refers = true
				}
			})
			if refers {
				out = append(out, o)
			}
		}
	}
	return out
}

// Referents returns every object directly referenced by the targets,
// including duplicates and untracked objects, in traversal order.
func (c *Collector) Referents(targets ...*Object) []*Object {
	var out []*Object
	for _, t := range targets {
		if t.data == nil {
			continue
		}
		t.data.Traverse(func(o *Object) {
			out = append(out, o)
		})
	}
	return out
}

// Garbage returns the uncollectable objects accumulated so far. The
// collector keeps one reference per entry, so they stay alive until
// ReleaseGarbage is called.
func (c *Collector) Garbage() []*Object {
	out := make([]*Object, len(c.garbage))
	copy(out, c.garbage)
	return out
}

// ReleaseGarbage empties the garbage list, dropping the collector's
// reference to each entry. Acyclic entries held by nothing else die
// immediately; members of a still-intact finalizer cycle survive and
// will be quarantined again unless the program breaks the cycle first.
func (c *Collector) ReleaseGarbage() {
	entries := c.garbage
	c.garbage = nil
	for _, o := range entries {
		c.Decref(o)
	}
}
