package runtime

import (
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
)

const initialBlockPool = 8

// routineState is the scratch space of the routine running in a context.
// It is reset after a node's code completes and after every condition.
type routineState struct {
	blocks []*scheduledBlock
	inUse  int

	flags []bool

	isCondition     bool
	conditionResult bool
}

func newRoutineState(maxFlags int) *routineState {
	s := &routineState{flags: make([]bool, maxFlags)}
	s.ensurePool(initialBlockPool)
	return s
}

func (s *routineState) ensurePool(n int) {
	for len(s.blocks) < n {
		s.blocks = append(s.blocks, newScheduledBlock())
	}
}

func (s *routineState) setBlocksInUse(n int) {
	s.inUse = n
	s.ensurePool(n)
}

func (s *routineState) block(i int) *scheduledBlock {
	if i < 0 || i >= s.inUse {
		panic(fmt.Errorf("scheduled block %d not in use (%d in use)", i, s.inUse))
	}
	return s.blocks[i]
}

// isComplete reports whether every block in use has executed and had all signals fire.
func (s *routineState) isComplete() bool {
	for _, b := range s.blocks[:s.inUse] {
		if !b.executed || !b.haveAllSignalsFired() {
			return false
		}
	}
	return true
}

func (s *routineState) setConditionResult(result bool) {
	s.isCondition = true
	s.conditionResult = result
}

func (s *routineState) result() (bool, error) {
	if !s.isCondition {
		return false, domain.ErrNotCondition
	}
	return s.conditionResult, nil
}

func (s *routineState) checkFlag(flag int) {
	if flag < 0 || flag >= len(s.flags) {
		panic(fmt.Errorf("%w: %d not in [0,%d)", domain.ErrFlagOutOfRange, flag, len(s.flags)))
	}
}

func (s *routineState) setFlag(flag int) {
	s.checkFlag(flag)
	s.flags[flag] = true
}

func (s *routineState) isFlagSet(flag int) bool {
	s.checkFlag(flag)
	return s.flags[flag]
}

func (s *routineState) reset() {
	for _, b := range s.blocks[:s.inUse] {
		b.reset()
	}
	s.inUse = 0
	clear(s.flags)
	s.isCondition = false
	s.conditionResult = false
}
