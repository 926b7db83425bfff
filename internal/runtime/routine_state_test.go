package runtime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/routine"
)

func runningContext(t *testing.T, maxFlags int) *Context {
	t.Helper()
	c := newContext(7, routine.NewDirectory(), domain.Settings{MaxFlags: maxFlags}, domain.LifecycleHooks{}, logging.NewNop())
	c.seq = 42
	return c
}

func TestLease_ReleaseOnce(t *testing.T) {
	c := runningContext(t, 1)
	c.SetBlocksInUse(1)

	lease := c.AcquireLease(0, c.seq)
	assert.True(t, lease.IsValid())
	assert.False(t, c.HaveBlockSignalsFired(0))

	lease.Release()
	assert.False(t, lease.IsValid())
	assert.True(t, c.HaveBlockSignalsFired(0))

	lease.Release()
	assert.True(t, c.HaveBlockSignalsFired(0))
}

func TestLease_StaleAfterSequenceChange(t *testing.T) {
	c := runningContext(t, 1)
	c.SetBlocksInUse(1)
	lease := c.AcquireLease(0, c.seq)

	c.seq = 43
	assert.False(t, lease.IsValid())
	lease.Release()
	assert.False(t, c.HaveBlockSignalsFired(0))
}

func TestLease_StaleAfterSlotRecycled(t *testing.T) {
	c := runningContext(t, 1)
	c.SetBlocksInUse(1)
	old := c.AcquireLease(0, c.seq)

	c.routines.reset()
	c.SetBlocksInUse(1)
	fresh := c.AcquireLease(0, c.seq)

	assert.False(t, old.IsValid())
	old.Release()
	assert.False(t, c.HaveBlockSignalsFired(0))
	assert.True(t, fresh.IsValid())
}

func TestLease_StaleSequenceYieldsSpentLease(t *testing.T) {
	c := runningContext(t, 1)
	c.SetBlocksInUse(1)

	lease := c.AcquireLease(0, c.seq-1)
	assert.False(t, lease.IsValid())
	lease.Release()
	assert.True(t, c.HaveBlockSignalsFired(0))
	assert.Zero(t, c.routines.blocks[0].used)
}

func TestScheduledBlock_GrowsSignalPool(t *testing.T) {
	c := runningContext(t, 1)
	c.SetBlocksInUse(1)

	leases := make([]routine.Lease, initialSignalPool+3)
	for i := range leases {
		leases[i] = c.AcquireLease(0, c.seq)
	}
	for _, l := range leases[:len(leases)-1] {
		l.Release()
	}
	assert.False(t, c.HaveBlockSignalsFired(0))
	leases[len(leases)-1].Release()
	assert.True(t, c.HaveBlockSignalsFired(0))
}

func TestRoutineState_CompletionIgnoresOrder(t *testing.T) {
	for _, order := range [][]int{{0, 1}, {1, 0}} {
		c := runningContext(t, 1)
		c.SetBlocksInUse(2)
		leases := []routine.Lease{c.AcquireLease(0, c.seq), c.AcquireLease(1, c.seq)}
		c.SetBlockExecuted(0)
		c.SetBlockExecuted(1)
		assert.False(t, c.routines.isComplete())

		leases[order[0]].Release()
		assert.False(t, c.routines.isComplete())
		leases[order[1]].Release()
		assert.True(t, c.routines.isComplete(), "order %v", order)
	}
}

func TestRoutineState_CompletionNeedsExecution(t *testing.T) {
	s := newRoutineState(0)
	assert.True(t, s.isComplete(), "no blocks in use")

	s.setBlocksInUse(initialBlockPool + 2)
	assert.Len(t, s.blocks, initialBlockPool+2)
	for i := 0; i < initialBlockPool+1; i++ {
		s.block(i).executed = true
	}
	assert.False(t, s.isComplete())
	s.block(initialBlockPool + 1).executed = true
	assert.True(t, s.isComplete())
}

func TestRoutineState_ConditionResult(t *testing.T) {
	s := newRoutineState(0)
	_, err := s.result()
	assert.ErrorIs(t, err, domain.ErrNotCondition)

	s.setConditionResult(true)
	ok, err := s.result()
	require.NoError(t, err)
	assert.True(t, ok)

	s.reset()
	_, err = s.result()
	assert.ErrorIs(t, err, domain.ErrNotCondition)
}

func TestRoutineState_Flags(t *testing.T) {
	c := runningContext(t, 3)

	c.SetFlags([]int{0, 2})
	assert.True(t, c.IsFlagSet(0))
	assert.False(t, c.IsFlagSet(1))
	assert.True(t, c.AreFlagsSet([]int{0, 2}))
	assert.False(t, c.AreFlagsSet([]int{0, 1}))
	assert.True(t, c.AreFlagsSet(nil))

	c.routines.reset()
	assert.False(t, c.IsFlagSet(0))

	var perr error
	func() {
		defer func() { perr, _ = recover().(error) }()
		c.SetFlag(3)
	}()
	assert.True(t, errors.Is(perr, domain.ErrFlagOutOfRange))
}

func TestContext_FlagListeners(t *testing.T) {
	c := runningContext(t, 2)
	var seen []int
	first := c.addFlagListener(func(f int) { seen = append(seen, f) })
	c.addFlagListener(func(f int) { seen = append(seen, f*10) })

	c.SetFlag(1)
	assert.Equal(t, []int{1, 10}, seen)

	c.removeFlagListener(first)
	c.SetFlag(1)
	assert.Equal(t, []int{1, 10, 10}, seen)
}

func TestContext_FlagListenerStoppingConversation(t *testing.T) {
	c := runningContext(t, 1)
	calls := 0
	c.addFlagListener(func(int) {
		calls++
		c.seq = 0
	})
	c.addFlagListener(func(int) { calls++ })

	c.SetFlag(0)
	assert.Equal(t, 1, calls)
}

func TestContext_CurrentNode(t *testing.T) {
	c := runningContext(t, 0)
	c.node = &domain.Node{ID: "n"}

	assert.Equal(t, c.node, c.CurrentNode(42))
	assert.Nil(t, c.CurrentNode(41))

	c.reset()
	assert.Nil(t, c.CurrentNode(0))
	assert.Equal(t, StateIdle, c.State())
	assert.False(t, c.Tick())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "node_decision_wait", StateNodeDecisionWait.String())
	assert.Equal(t, "State(99)", State(99).String())
}
