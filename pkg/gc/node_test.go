package gc

// node is the test payload: an arbitrary-fanout container with hooks
// for finalizer declaration, clear errors, and clear side effects.
type node struct {
	c         *Collector
	refs      []*Object
	finalizer bool
	clearErr  error
	onClear   func()
	cleared   int
}

// newNode allocates and tracks an empty node, refcount 1.
func newNode(c *Collector) *Object {
	o := c.NewObject(&node{c: c})
	c.Track(o)
	return o
}

func nodeOf(o *Object) *node {
	return o.Data().(*node)
}

// link makes from hold a reference to to.
func link(from, to *Object) {
	n := nodeOf(from)
	n.c.Incref(to)
	n.refs = append(n.refs, to)
}

func (n *node) Traverse(visit Visitor) {
	for _, r := range n.refs {
		visit(r)
	}
}

func (n *node) Clear() error {
	n.cleared++
	if n.refs == nil {
		// Already cleared; stay a no-op, side effects included.
		return nil
	}
	refs := n.refs
	n.refs = nil
	if n.onClear != nil {
		n.onClear()
	}
	for _, r := range refs {
		n.c.Decref(r)
	}
	return n.clearErr
}

func (n *node) HasFinalizer() bool {
	return n.finalizer
}
