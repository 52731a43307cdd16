package heap

import "cyclegc/pkg/gc"

// Table is a string-keyed mapping of object references.
type Table struct {
	h         *Heap
	entries   map[string]*gc.Object
	finalizer func()
}

// NewTable allocates an empty tracked table.
func (h *Heap) NewTable() *gc.Object {
	h.stats.Tables++
	return h.alloc(&Table{h: h, entries: make(map[string]*gc.Object)})
}

// TableOf returns o's payload as a Table.
func TableOf(o *gc.Object) *Table {
	return o.Data().(*Table)
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Get returns the entry for key, or nil.
func (t *Table) Get(key string) *gc.Object { return t.entries[key] }

// Set stores target under key, adjusting refcounts. A nil target
// deletes the key.
func (t *Table) Set(key string, target *gc.Object) {
	old := t.entries[key]
	if target != nil {
		t.h.gc.Incref(target)
		t.entries[key] = target
	} else {
		delete(t.entries, key)
	}
	if old != nil {
		t.h.gc.Decref(old)
	}
}

// Delete removes key, dropping the reference it held.
func (t *Table) Delete(key string) { t.Set(key, nil) }

// SetFinalizer attaches a finalizer; see Cell.SetFinalizer.
func (t *Table) SetFinalizer(fn func()) { t.finalizer = fn }

func (t *Table) Traverse(visit gc.Visitor) {
	for _, e := range t.entries {
		visit(e)
	}
}

func (t *Table) Clear() error {
	// Swap in a fresh map first: a cleared table that survives its
	// cycle stays usable, and a re-entrant Clear sees it empty.
	entries := t.entries
	t.entries = make(map[string]*gc.Object)
	for _, e := range entries {
		t.h.gc.Decref(e)
	}
	return nil
}

func (t *Table) HasFinalizer() bool { return t.finalizer != nil }
