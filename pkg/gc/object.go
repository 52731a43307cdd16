package gc

// Cycle-Aware Object Headers
//
// Every heap object that can participate in a reference cycle carries an
// Object header. The header owns three things:
// - the reference count (authoritative between collections)
// - the collector state (see state below)
// - the intrusive prev/next linkage into a generation list
//
// The collector owns list membership only. It never owns object lifetime:
// its single destructive action is invoking the payload's Clear, and the
// ordinary refcount-to-zero path does the actual reclamation.

// Visitor is invoked once per reference during a traversal.
type Visitor func(*Object)

// Traceable is the capability every cycle-managed payload must provide.
type Traceable interface {
	// Traverse calls visit for every Object this payload directly
	// references. It must not mutate the payload.
	Traverse(visit Visitor)

	// Clear drops all internal references, decrementing each referent's
	// refcount. Must be idempotent: the second call is a no-op.
	Clear() error

	// HasFinalizer reports whether the payload declares a finalizer.
	// Finalizer-carrying cycles are quarantined, never cleared.
	HasFinalizer() bool
}

// state encodes what the collector currently knows about an object.
//
// Between collections every object is either stateUntracked (not in any
// generation list, Traverse must not be called) or stateReachable (in a
// generation list). During a collection pass stateCounting and
// stateUnreachable appear transiently; both are gone again, for every
// object that stays tracked, by the time the pass returns.
type state int8

const (
	stateUntracked state = iota
	stateReachable
	stateCounting    // gcRefs holds the external-reference estimate
	stateUnreachable // tentatively garbage, may still be reclassified
)

func (s state) String() string {
	switch s {
	case stateUntracked:
		return "untracked"
	case stateReachable:
		return "reachable"
	case stateCounting:
		return "counting"
	case stateUnreachable:
		return "unreachable"
	default:
		return "invalid"
	}
}

// Object is the collector's header for one tracked allocation.
type Object struct {
	// Intrusive generation-list linkage. nil/nil while untracked.
	prev, next *Object

	st state

	// gcRefs is meaningful only while st == stateCounting. After the
	// accounting pass it holds the number of references to this object
	// that originate outside the candidate set.
	gcRefs int

	refcount int
	freed    bool

	data Traceable
}

// Refcount returns the current external reference count.
func (o *Object) Refcount() int { return o.refcount }

// Data returns the payload, or nil once the object has been freed.
func (o *Object) Data() Traceable { return o.data }

// Tracked reports whether the object currently lives in a generation list.
func (o *Object) Tracked() bool { return o.st != stateUntracked }

// Freed reports whether the accounting path has reclaimed the object.
func (o *Object) Freed() bool { return o.freed }
