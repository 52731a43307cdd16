package gc

import "github.com/hashicorp/go-multierror"

// Reference accounting. The collector never frees an object directly:
// it severs cycle edges with Clear and lets the refcount-to-zero path
// here do the reclamation, in whatever order the cascade dictates.

// Incref takes a new reference to o.
func (c *Collector) Incref(o *Object) {
	if o.freed {
		panic("gc: Incref on freed object")
	}
	o.refcount++
}

// Decref drops a reference to o, reclaiming it when the count reaches
// zero. Reclamation clears the payload, so a Decref can cascade into
// further frees, including of objects sitting in a list the collector
// is in the middle of draining; the disposal loop tolerates that.
func (c *Collector) Decref(o *Object) {
	if o.freed {
		panic("gc: Decref on freed object")
	}
	o.refcount--
	if o.refcount < 0 {
		panic("gc: negative refcount")
	}
	if o.refcount == 0 {
		c.free(o)
	}
}

// free reclaims a zero-refcount object: unlink it from any generation
// list, mark it dead, then drop its internal references. The payload is
// detached first so re-entrant observers see a dead object.
func (c *Collector) free(o *Object) {
	c.Untrack(o)
	if c.gens[0].count > 0 {
		c.gens[0].count--
	}
	o.freed = true
	data := o.data
	o.data = nil
	c.stats.Frees++
	if data != nil {
		if err := data.Clear(); err != nil {
			c.recordClearError(err)
		}
	}
}

// recordClearError stashes an application error raised inside Clear.
// During a pass it is surfaced by Collect after disposal finishes;
// outside a pass there is no caller to report to, so it is logged.
func (c *Collector) recordClearError(err error) {
	if c.collecting {
		c.clearErr = multierror.Append(c.clearErr, err)
		return
	}
	c.log.WithField("error", err).Error("gc: error ignored while clearing object")
}
