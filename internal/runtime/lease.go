package runtime

// Lease is a single-use completion token for asynchronous work started by a routine.
// Releasing it satisfies one signal of the scheduled block that issued it.
// A lease goes stale once released, once its context moves to another conversation,
// or once the block's signal slots are recycled for the next node.
type Lease struct {
	signalled bool
	owner     *Context
	seq       uint64
	block     *scheduledBlock
	slot      int
	gen       uint64
}

// spentLease returns a lease that is already invalid.
func spentLease() *Lease {
	return &Lease{signalled: true}
}

// IsValid reports whether Release would still have an effect.
func (l *Lease) IsValid() bool {
	if l == nil || l.signalled || l.owner == nil {
		return false
	}
	return l.owner.seq == l.seq && l.block.signals[l.slot].gen == l.gen
}

// Release marks the lease's signal as fired. Invalid leases are ignored.
func (l *Lease) Release() {
	if !l.IsValid() {
		return
	}
	l.signalled = true
	l.block.signals[l.slot].fired = true
}
