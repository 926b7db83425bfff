package runtime

const initialSignalPool = 8

// signal is one completion slot of a scheduled block.
// gen advances whenever the slot is recycled so older leases on it go stale.
type signal struct {
	fired bool
	gen   uint64
}

// scheduledBlock tracks one scheduled block of the routine running in a context.
type scheduledBlock struct {
	executed   bool
	flagsFired bool
	signals    []signal
	used       int
}

func newScheduledBlock() *scheduledBlock {
	return &scheduledBlock{signals: make([]signal, initialSignalPool)}
}

// acquire allocates the next signal slot, growing the pool when needed.
func (b *scheduledBlock) acquire(owner *Context, seq uint64) *Lease {
	slot := b.used
	b.used++
	if slot == len(b.signals) {
		b.signals = append(b.signals, signal{})
	}
	return &Lease{owner: owner, seq: seq, block: b, slot: slot, gen: b.signals[slot].gen}
}

func (b *scheduledBlock) haveAllSignalsFired() bool {
	for i := 0; i < b.used; i++ {
		if !b.signals[i].fired {
			return false
		}
	}
	return true
}

func (b *scheduledBlock) reset() {
	b.executed = false
	b.flagsFired = false
	for i := 0; i < b.used; i++ {
		b.signals[i].fired = false
		b.signals[i].gen++
	}
	b.used = 0
}
