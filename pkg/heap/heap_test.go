package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyclegc/pkg/gc"
)

func TestCellCycleCollected(t *testing.T) {
	h := New(nil)
	c := h.Collector()

	a := h.NewCell()
	b := h.NewCell()
	CellOf(a).SetFirst(b)
	CellOf(b).SetFirst(a)
	h.Release(a)
	h.Release(b)

	n, err := c.CollectAll()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, a.Freed())
	assert.True(t, b.Freed())
}

func TestVectorKeepsElementsAlive(t *testing.T) {
	h := New(nil)
	c := h.Collector()

	root := h.NewVector()
	a := h.NewCell()
	b := h.NewCell()
	CellOf(a).SetFirst(b)
	CellOf(b).SetFirst(a)
	VectorOf(root).Append(a)
	h.Release(a)
	h.Release(b)

	n, err := c.CollectAll()
	require.NoError(t, err)
	assert.Equal(t, 0, n, "cycle held through the root vector must survive")
	assert.False(t, a.Freed())
	assert.False(t, b.Freed())

	// Dropping the root frees the acyclic vector outright and leaves
	// the cycle for the next pass.
	h.Release(root)
	assert.True(t, root.Freed())
	n, err = c.CollectAll()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, a.Freed())
	assert.True(t, b.Freed())
}

func TestVectorSetAt(t *testing.T) {
	h := New(nil)

	v := h.NewVector()
	a := h.NewCell()
	b := h.NewCell()
	VectorOf(v).Append(a)
	require.Equal(t, 2, a.Refcount())

	VectorOf(v).SetAt(0, b)
	assert.Equal(t, 1, a.Refcount(), "replaced element loses the vector's reference")
	assert.Equal(t, 2, b.Refcount())
	assert.Same(t, b, VectorOf(v).At(0))

	// Storing an element over itself must not free it
	VectorOf(v).SetAt(0, b)
	assert.Equal(t, 2, b.Refcount())
	assert.False(t, b.Freed())
}

func TestTableCycleThroughMap(t *testing.T) {
	h := New(nil)
	c := h.Collector()

	ta := h.NewTable()
	tb := h.NewTable()
	TableOf(ta).Set("peer", tb)
	TableOf(tb).Set("peer", ta)
	h.Release(ta)
	h.Release(tb)

	n, err := c.CollectAll()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, ta.Freed())
	assert.True(t, tb.Freed())
}

func TestTableSetAndDelete(t *testing.T) {
	h := New(nil)

	ta := h.NewTable()
	a := h.NewCell()
	TableOf(ta).Set("k", a)
	require.Equal(t, 2, a.Refcount())
	require.Equal(t, 1, TableOf(ta).Len())

	TableOf(ta).Delete("k")
	assert.Equal(t, 1, a.Refcount())
	assert.Nil(t, TableOf(ta).Get("k"))
	assert.Zero(t, TableOf(ta).Len())

	// Releasing the last reference frees through plain refcounting
	h.Release(a)
	assert.True(t, a.Freed())
}

func TestFinalizerCellQuarantined(t *testing.T) {
	h := New(nil)
	c := h.Collector()

	a := h.NewCell()
	b := h.NewCell()
	ran := false
	CellOf(a).SetFirst(b)
	CellOf(b).SetFirst(a)
	CellOf(a).SetFinalizer(func() { ran = true })
	h.Release(a)
	h.Release(b)

	n, err := c.CollectAll()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, a.Freed())
	assert.False(t, b.Freed())
	assert.False(t, ran, "the collector never invokes finalizers")

	garbage := c.Garbage()
	require.Len(t, garbage, 2)

	// The embedding program breaks the cycle and runs finalizers itself
	for _, o := range garbage {
		if fn := CellOf(o).Finalizer(); fn != nil {
			fn()
		}
	}
	assert.True(t, ran)

	// Breaking the cycle by hand lets plain refcounting reclaim it
	// once the garbage list lets go.
	require.NoError(t, CellOf(a).Clear())
	c.ReleaseGarbage()
	assert.True(t, a.Freed())
	assert.True(t, b.Freed())
}

func TestAutomaticCollectionUnderPressure(t *testing.T) {
	h := New(nil)
	c := h.Collector()
	c.SetThresholds(50, gc.DefaultThreshold1, gc.DefaultThreshold2)

	// Allocate orphaned two-cell rings until the threshold trips
	for i := 0; i < 500; i++ {
		a := h.NewCell()
		b := h.NewCell()
		CellOf(a).SetFirst(b)
		CellOf(b).SetFirst(a)
		h.Release(a)
		h.Release(b)
	}

	stats := c.Stats()
	require.NotZero(t, stats.Generations[0].Collections,
		"allocation pressure should have triggered collections")
	assert.NotZero(t, stats.Frees)

	_, err := c.CollectAll()
	require.NoError(t, err)
	assert.Equal(t, int64(1000), c.Stats().Frees, "every ring was orphaned")
	assert.Zero(t, c.GenerationSizes()[0]+c.GenerationSizes()[1]+c.GenerationSizes()[2])
}

func TestHeapStats(t *testing.T) {
	h := New(nil)

	h.NewCell()
	h.NewCell()
	h.NewVector()
	h.NewTable()

	stats := h.Stats()
	assert.Equal(t, int64(2), stats.Cells)
	assert.Equal(t, int64(1), stats.Vectors)
	assert.Equal(t, int64(1), stats.Tables)
	assert.Equal(t, int64(4), h.Collector().Stats().Allocations)
}

func TestClearedTableStaysUsable(t *testing.T) {
	h := New(nil)

	ta := h.NewTable()
	a := h.NewCell()
	TableOf(ta).Set("k", a)
	require.NoError(t, TableOf(ta).Clear())
	assert.Equal(t, 1, a.Refcount())

	// A table that survives clearing keeps working
	TableOf(ta).Set("again", a)
	assert.Same(t, a, TableOf(ta).Get("again"))
}

func TestRetainRelease(t *testing.T) {
	h := New(nil)

	a := h.NewCell()
	h.Retain(a)
	require.Equal(t, 2, a.Refcount())
	h.Release(a)
	require.Equal(t, 1, a.Refcount())
	assert.False(t, a.Freed())
	h.Release(a)
	assert.True(t, a.Freed())
	assert.False(t, h.Collector().IsTracked(a))
}
