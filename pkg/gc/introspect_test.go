package gc

import "testing"

func TestObjects_ListsAllTracked(t *testing.T) {
	c := New()

	a := newNode(c)
	b := newNode(c)

	objs := c.Objects()
	if len(objs) != 2 {
		t.Fatalf("Expected 2 tracked objects, got %d", len(objs))
	}

	// Promote a so the walk covers multiple generations
	if _, err := c.Collect(0); err != nil {
		t.Fatalf("Collect(0): %v", err)
	}
	cc := newNode(c)
	objs = c.Objects()
	if len(objs) != 3 {
		t.Fatalf("Expected 3 tracked objects, got %d", len(objs))
	}
	found := map[*Object]bool{}
	for _, o := range objs {
		found[o] = true
	}
	if !found[a] || !found[b] || !found[cc] {
		t.Error("Objects() should cover every generation")
	}

	c.Untrack(cc)
	if len(c.Objects()) != 2 {
		t.Error("Untracked objects should not be listed")
	}
}

func TestReferrers(t *testing.T) {
	c := New()

	a := newNode(c)
	b := newNode(c)
	cc := newNode(c)
	link(a, b)
	link(cc, b)

	refs := c.Referrers(b)
	if len(refs) != 2 {
		t.Fatalf("Expected 2 referrers, got %d", len(refs))
	}
	found := map[*Object]bool{}
	for _, o := range refs {
		found[o] = true
	}
	if !found[a] || !found[cc] {
		t.Error("Referrers should be a and c")
	}

	// Targets never report themselves, even self-referential ones
	link(b, b)
	refs = c.Referrers(b)
	if len(refs) != 2 {
		t.Errorf("Self-reference should not add a referrer, got %d", len(refs))
	}
}

func TestReferents(t *testing.T) {
	c := New()

	a := newNode(c)
	b := newNode(c)
	cc := newNode(c)
	link(a, b)
	link(a, cc)

	refs := c.Referents(a)
	if len(refs) != 2 {
		t.Fatalf("Expected 2 referents, got %d", len(refs))
	}
	if refs[0] != b || refs[1] != cc {
		t.Error("Referents should come back in traversal order")
	}

	if got := c.Referents(b); len(got) != 0 {
		t.Errorf("Leaf object should have no referents, got %d", len(got))
	}
}
