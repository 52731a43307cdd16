package gc

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// DebugFlags select diagnostic output during collection. Logging is a
// side concern: flags never change what gets collected, with the one
// exception of DebugSaveAll, which reroutes clearable garbage to the
// garbage list instead of clearing it.
type DebugFlags uint32

const (
	// DebugStats logs collection statistics per pass.
	DebugStats DebugFlags = 1 << iota
	// DebugCollectable logs every clearable object found.
	DebugCollectable
	// DebugUncollectable logs every quarantined object.
	DebugUncollectable
	// DebugSaveAll saves all unreachable objects to the garbage list
	// rather than clearing them. For debugging leaking programs.
	DebugSaveAll
)

// DebugLeak is the combination used to debug leaking programs.
const DebugLeak = DebugCollectable | DebugUncollectable | DebugSaveAll

// SetDebug replaces the debug flags.
func (c *Collector) SetDebug(flags DebugFlags) { c.debug = flags }

// Debug returns the current debug flags.
func (c *Collector) Debug() DebugFlags { return c.debug }

// SetLogger replaces the logger used for debug-flag output and for
// errors with no caller to report to. The default is the standard
// logrus logger.
func (c *Collector) SetLogger(log logrus.FieldLogger) { c.log = log }

func (c *Collector) statsLogger(gen int) logrus.FieldLogger {
	return c.log.WithFields(logrus.Fields{
		"generation": gen,
		"gen0":       c.gens[0].objects.size(),
		"gen1":       c.gens[1].objects.size(),
		"gen2":       c.gens[2].objects.size(),
	})
}

func (c *Collector) debugObject(msg string, o *Object) {
	c.log.WithFields(logrus.Fields{
		"object":   fmt.Sprintf("%p", o),
		"type":     fmt.Sprintf("%T", o.data),
		"refcount": o.refcount,
	}).Info(msg)
}
