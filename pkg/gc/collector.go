package gc

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// Generational cycle collector for reference-counted heaps.
//
// Pure reference counting cannot reclaim cycles: a ring of objects keeps
// itself alive forever once the last external reference drops. The
// collector finds such rings by running a three-phase pass over one
// generation of tracked objects:
//
//  1. accounting:  copy each refcount aside, then subtract every
//     reference held inside the candidate set (update/subtract refs)
//  2. partition:   split the set into externally-reachable survivors
//     and tentatively-unreachable garbage (fixpoint scan)
//  3. disposal:    quarantine finalizer-carrying garbage, clear the rest
//     so ordinary refcounting reclaims it
//
// Survivors are promoted to the next older generation, so long-lived
// objects are examined less and less often.
//
// The collector is single-execution-context by design: the embedding
// runtime must guarantee that no other goroutine mutates tracked objects
// or refcounts while a pass runs. There are no locks in here.

// NumGenerations is the number of age-based partitions of tracked objects.
const NumGenerations = 3

// Default collection thresholds, youngest to oldest.
const (
	DefaultThreshold0 = 700
	DefaultThreshold1 = 10
	DefaultThreshold2 = 10
)

type generation struct {
	objects   objectList
	threshold int
	// count is allocations since the last collection for generation 0,
	// collections of the next younger generation for 1 and 2.
	count int
}

// GenerationStats accumulates per-generation collection totals.
type GenerationStats struct {
	Collections   int64 // passes run on this generation
	Collected     int64 // clearable objects found
	Uncollectable int64 // objects quarantined for finalizers
}

// Stats is a snapshot of collector activity since creation.
type Stats struct {
	Generations [NumGenerations]GenerationStats
	Allocations int64 // headers handed out
	Frees       int64 // headers reclaimed by the refcount-zero path
}

// Collector owns the three generation lists and the process-visible
// garbage list. Create one with New; the zero value is not usable.
type Collector struct {
	gens [NumGenerations]generation

	enabled    bool
	collecting bool

	debug DebugFlags
	log   logrus.FieldLogger

	// garbage accumulates uncollectable objects (finalizer cycles). The
	// collector holds one reference per entry; it grows until the
	// embedding program drains it with ReleaseGarbage.
	garbage []*Object

	// clearErr aggregates errors raised by application code inside Clear
	// during the current pass; surfaced by Collect once the pass is done.
	clearErr *multierror.Error

	stats Stats
}

// New creates a collector with default thresholds, automatic collection
// enabled, and the standard logger.
func New() *Collector {
	c := &Collector{
		enabled: true,
		log:     logrus.StandardLogger(),
	}
	for i := range c.gens {
		c.gens[i].objects.init()
	}
	c.gens[0].threshold = DefaultThreshold0
	c.gens[1].threshold = DefaultThreshold1
	c.gens[2].threshold = DefaultThreshold2
	return c
}

// NewObject hands out an untracked header for data with refcount 1. This
// is the allocation-pressure entry point: it bumps the generation-0
// counter and, when the threshold is exceeded, runs an automatic
// collection before returning. The caller must Track the object once the
// payload is fully initialized.
func (c *Collector) NewObject(data Traceable) *Object {
	o := &Object{
		st:       stateUntracked,
		refcount: 1,
		data:     data,
	}
	c.stats.Allocations++
	c.gens[0].count++
	if c.gens[0].count > c.gens[0].threshold &&
		c.gens[0].threshold > 0 &&
		c.enabled &&
		!c.collecting {
		c.collecting = true
		c.collectGenerations()
		c.collecting = false
	}
	return o
}

// Track adds o to generation 0. The payload must be ready for Traverse.
func (c *Collector) Track(o *Object) {
	if o.st != stateUntracked {
		panic("gc: Track called on already tracked object")
	}
	if o.freed {
		panic("gc: Track called on freed object")
	}
	o.st = stateReachable
	c.gens[0].objects.append(o)
}

// Untrack removes o from its generation list. Calling it on an
// untracked object is a no-op; deallocation paths may untrack twice.
func (c *Collector) Untrack(o *Object) {
	if o.st == stateUntracked {
		return
	}
	listRemove(o)
	o.st = stateUntracked
	o.gcRefs = 0
}

// IsTracked reports whether o currently lives in a generation list.
func (c *Collector) IsTracked(o *Object) bool {
	return o.st != stateUntracked
}

// Enable turns automatic threshold-triggered collection on.
func (c *Collector) Enable() { c.enabled = true }

// Disable turns automatic collection off. Explicit Collect still works.
func (c *Collector) Disable() { c.enabled = false }

// Enabled reports whether automatic collection is on.
func (c *Collector) Enabled() bool { return c.enabled }

// SetThresholds sets the three generation thresholds. A t0 of zero
// disables allocation-triggered collection.
func (c *Collector) SetThresholds(t0, t1, t2 int) {
	c.gens[0].threshold = t0
	c.gens[1].threshold = t1
	c.gens[2].threshold = t2
}

// Thresholds returns the current generation thresholds.
func (c *Collector) Thresholds() (int, int, int) {
	return c.gens[0].threshold, c.gens[1].threshold, c.gens[2].threshold
}

// GenerationCounts returns each generation's trigger counter, youngest
// first. Exposed for the stats surface; tests and tooling use it.
func (c *Collector) GenerationCounts() [NumGenerations]int {
	var counts [NumGenerations]int
	for i := range c.gens {
		counts[i] = c.gens[i].count
	}
	return counts
}

// GenerationSizes returns the number of tracked objects per generation.
func (c *Collector) GenerationSizes() [NumGenerations]int {
	var sizes [NumGenerations]int
	for i := range c.gens {
		sizes[i] = c.gens[i].objects.size()
	}
	return sizes
}

// Stats returns a snapshot of collector activity.
func (c *Collector) Stats() Stats { return c.stats }

// Collect runs one collection on the given generation (and everything
// younger) and returns the number of unreachable objects found, cleared
// or quarantined. If a collection is already in progress the call is a
// no-op returning 0: re-entrant triggering from inside clear side
// effects must not recurse.
func (c *Collector) Collect(gen int) (int, error) {
	if gen < 0 || gen >= NumGenerations {
		return 0, fmt.Errorf("gc: invalid generation %d", gen)
	}
	if c.collecting {
		return 0, nil
	}
	c.collecting = true
	defer func() { c.collecting = false }()
	return c.collect(gen)
}

// CollectAll runs a full collection over all generations.
func (c *Collector) CollectAll() (int, error) {
	return c.Collect(NumGenerations - 1)
}

// collectGenerations finds the oldest generation whose counter exceeds
// its threshold and collects it; younger generations are merged in.
// Caller holds the collecting flag.
func (c *Collector) collectGenerations() {
	for i := NumGenerations - 1; i >= 0; i-- {
		if c.gens[i].count > c.gens[i].threshold {
			if _, err := c.collect(i); err != nil {
				c.log.WithField("error", err).Error("gc: errors during automatic collection")
			}
			break
		}
	}
}
