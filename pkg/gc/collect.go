package gc

import "github.com/sirupsen/logrus"

// The collection pass. Read collect at the bottom for the high-level
// shape; the phase functions above it appear in execution order.

// updateRefs snapshots every candidate's refcount into gcRefs. Every
// live tracked object must have a positive refcount here; anything else
// means the heap is already corrupt and continuing would make it worse.
func updateRefs(containers *objectList) {
	for o := containers.head.next; o != containers.sentinel(); o = o.next {
		if o.st != stateReachable {
			panic("gc: object in generation list is " + o.st.String() + ", want reachable")
		}
		if o.refcount <= 0 {
			panic("gc: tracked object with nonpositive refcount")
		}
		o.st = stateCounting
		o.gcRefs = o.refcount
	}
}

// visitDecref cancels one in-set reference. Objects outside the
// candidate set (reachable in another generation, or untracked) are
// left alone: only counting objects belong to the set.
func visitDecref(o *Object) {
	if o.st != stateCounting {
		return
	}
	// A zero here means more references to o exist than its refcount
	// admits, i.e. somebody forgot an Incref. Always checked, never
	// clamped: underflow would misclassify live objects as garbage.
	if o.gcRefs == 0 {
		panic("gc: refcount smaller than in-set reference count")
	}
	o.gcRefs--
}

// subtractRefs cancels all references held between candidates. A
// surviving gcRefs > 0 afterwards means something outside the set holds
// the object directly.
func subtractRefs(containers *objectList) {
	for o := containers.head.next; o != containers.sentinel(); o = o.next {
		o.data.Traverse(visitDecref)
	}
}

// visitReachable propagates reachability from an object known to be
// alive. Referents still ahead in the scan just get a nonzero gcRefs;
// referents already moved to the unreachable bucket are spliced back
// into the scan list so moveUnreachable revisits them.
func visitReachable(o *Object, young *objectList) {
	switch o.st {
	case stateCounting:
		if o.gcRefs == 0 {
			// Not scanned yet; make sure the scan keeps it.
			o.gcRefs = 1
		}
	case stateUnreachable:
		// Provisionally classified garbage earlier in the scan, but it
		// turns out to be reachable after all. Put it back at the tail
		// of the scan list; the scan will reach it again.
		listRemove(o)
		young.append(o)
		o.st = stateCounting
		o.gcRefs = 1
	}
	// stateReachable: in another generation, or this scan already
	// settled it. stateUntracked: not the collector's business.
}

// moveUnreachable partitions young into survivors (left in young,
// reachable from outside directly or transitively) and the unreachable
// bucket. A single front-to-back scan reaches a fixpoint because
// visitReachable re-appends misclassified objects to the unscanned tail.
func moveUnreachable(young, unreachable *objectList) {
	o := young.head.next
	for o != young.sentinel() {
		var next *Object
		if o.gcRefs != 0 {
			// Definitely reachable from outside young. Settle its
			// state before traversing so self-references are no-ops,
			// and pick next only after Traverse may have grown the
			// list behind us.
			o.st = stateReachable
			o.gcRefs = 0
			o.data.Traverse(func(t *Object) {
				visitReachable(t, young)
			})
			next = o.next
		} else {
			// Nothing outside the set references it so far. Assume
			// garbage to make progress; a later reachable object still
			// holding it will pull it back.
			next = o.next
			listRemove(o)
			unreachable.append(o)
			o.st = stateUnreachable
		}
		o = next
	}
}

// moveFinalizers pulls objects declaring a finalizer out of the
// unreachable bucket. Their destruction order is the application's
// problem, not ours, so they are quarantined instead of cleared.
func moveFinalizers(unreachable, finalizers *objectList) {
	o := unreachable.head.next
	for o != unreachable.sentinel() {
		next := o.next
		if o.st != stateUnreachable {
			panic("gc: non-unreachable object in unreachable set")
		}
		if o.data.HasFinalizer() {
			listRemove(o)
			finalizers.append(o)
			o.st = stateReachable
		}
		o = next
	}
}

// moveFinalizerReachable completes the quarantine transitively: whatever
// is reachable only from a finalizer object must not be cleared either,
// or the finalizer could observe a half-destroyed world. The list grows
// while we walk it; appended objects are traversed in turn.
func moveFinalizerReachable(finalizers *objectList) {
	for o := finalizers.head.next; o != finalizers.sentinel(); o = o.next {
		o.data.Traverse(func(t *Object) {
			if t.st == stateUnreachable {
				listRemove(t)
				finalizers.append(t)
				t.st = stateReachable
			}
		})
	}
}

// appendGarbage adds o to the process-visible garbage list, which owns
// one reference per entry.
func (c *Collector) appendGarbage(o *Object) {
	c.Incref(o)
	c.garbage = append(c.garbage, o)
}

// handleFinalizers reports the whole quarantine, finalizer objects and
// everything reachable only from them, on the garbage list and parks it
// in the older generation. The embedding program decides how to break
// these cycles; the collector never runs a finalizer itself.
func (c *Collector) handleFinalizers(finalizers, old *objectList) {
	for o := finalizers.head.next; o != finalizers.sentinel(); o = o.next {
		c.appendGarbage(o)
	}
	old.merge(finalizers)
}

// deleteGarbage drains the unreachable bucket by clearing each object so
// plain reference counting can reclaim the cycle. This is deliberately a
// queue drain, not an iteration: clearing the head may free any other
// member of the list as a side effect, so each step takes the current
// head, clears it, and only then looks at the list again. An object that
// survives its own clear (another cycle member still holds it) is parked
// in old; it may die on a later pass.
func (c *Collector) deleteGarbage(collectable, old *objectList) {
	for !collectable.empty() {
		o := collectable.head.next
		if o.st != stateUnreachable {
			panic("gc: non-unreachable object in collectable set")
		}
		if c.debug&DebugSaveAll != 0 {
			c.appendGarbage(o)
		} else {
			// Pin o for the duration of its own clear; side effects
			// must not free it mid-call.
			c.Incref(o)
			if err := o.data.Clear(); err != nil {
				c.recordClearError(err)
			}
			c.Decref(o)
		}
		if collectable.head.next == o {
			// Still alive after clearing. Do not assume it is dead.
			listRemove(o)
			old.append(o)
			o.st = stateReachable
		}
	}
}

// collect runs one full pass over generation gen (younger generations
// merged in). Returns the number of unreachable objects found, whether
// cleared or quarantined. Caller holds the collecting flag.
func (c *Collector) collect(gen int) (int, error) {
	if c.debug&DebugStats != 0 {
		c.statsLogger(gen).Info("gc: collecting")
	}

	// Bump the next older generation's counter, reset our own and every
	// younger one, then merge the younger generations into gen.
	if gen+1 < NumGenerations {
		c.gens[gen+1].count++
	}
	for i := 0; i <= gen; i++ {
		c.gens[i].count = 0
	}
	for i := 0; i < gen; i++ {
		c.gens[gen].objects.merge(&c.gens[i].objects)
	}

	young := &c.gens[gen].objects
	old := young
	if gen < NumGenerations-1 {
		old = &c.gens[gen+1].objects
	}

	// Phase 1: find out which candidates are held from outside the set.
	updateRefs(young)
	subtractRefs(young)

	// Phase 2: partition into survivors and tentative garbage. What is
	// left in young afterwards is reachable and gets promoted.
	var unreachable objectList
	unreachable.init()
	moveUnreachable(young, &unreachable)
	if young != old {
		old.merge(young)
	}

	// Phase 3a: quarantine finalizer cycles and their dependents.
	var finalizers objectList
	finalizers.init()
	moveFinalizers(&unreachable, &finalizers)
	moveFinalizerReachable(&finalizers)

	collected := 0
	for o := unreachable.head.next; o != unreachable.sentinel(); o = o.next {
		collected++
		if c.debug&DebugCollectable != 0 {
			c.debugObject("gc: collectable", o)
		}
	}

	// Phase 3b: break the cycles that are safe to break.
	c.deleteGarbage(&unreachable, old)

	uncollectable := 0
	for o := finalizers.head.next; o != finalizers.sentinel(); o = o.next {
		uncollectable++
		if c.debug&DebugUncollectable != 0 {
			c.debugObject("gc: uncollectable", o)
		}
	}

	if c.debug&DebugStats != 0 {
		c.log.WithFields(logrus.Fields{
			"generation":    gen,
			"unreachable":   collected + uncollectable,
			"uncollectable": uncollectable,
		}).Info("gc: done")
	}

	c.handleFinalizers(&finalizers, old)

	c.stats.Generations[gen].Collections++
	c.stats.Generations[gen].Collected += int64(collected)
	c.stats.Generations[gen].Uncollectable += int64(uncollectable)

	err := c.clearErr.ErrorOrNil()
	c.clearErr = nil
	return collected + uncollectable, err
}
