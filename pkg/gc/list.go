package gc

// Intrusive circular doubly-linked lists over Object headers. Each list
// has a sentinel head node that is never an object itself; an empty list
// is one whose head points at itself. All splice operations are O(1),
// which is what makes moving objects between generations and transient
// buckets (unreachable, finalizers) cheap during a pass.
//
// objectList must not be copied after init: the sentinel links point at
// the embedded head.

type objectList struct {
	head Object
}

func (l *objectList) init() {
	l.head.prev = &l.head
	l.head.next = &l.head
}

func (l *objectList) sentinel() *Object {
	return &l.head
}

func (l *objectList) empty() bool {
	return l.head.next == &l.head
}

// append links o in front of the sentinel (at the tail).
func (l *objectList) append(o *Object) {
	o.next = &l.head
	o.prev = l.head.prev
	o.prev.next = o
	l.head.prev = o
}

// listRemove unlinks o from whatever list holds it. The nil linkage
// afterwards is what marks the object as not currently tracked.
func listRemove(o *Object) {
	o.prev.next = o.next
	o.next.prev = o.prev
	o.next = nil
	o.prev = nil
}

// merge appends the whole of from onto l and leaves from empty.
func (l *objectList) merge(from *objectList) {
	if !from.empty() {
		tail := l.head.prev
		tail.next = from.head.next
		tail.next.prev = tail
		l.head.prev = from.head.prev
		l.head.prev.next = &l.head
	}
	from.init()
}

func (l *objectList) size() int {
	n := 0
	for o := l.head.next; o != &l.head; o = o.next {
		n++
	}
	return n
}
