package routine

import (
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
)

// Kind distinguishes condition routines from code routines.
type Kind int

const (
	// KindCode routines run statements, optionally split into scheduled blocks.
	KindCode Kind = iota
	// KindCondition routines evaluate a single boolean expression.
	KindCondition
)

func (k Kind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindCondition:
		return "condition"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Routine is an executable unit. Returning an error terminates the conversation.
type Routine func(ctx Context) error

// Lease is a single-use completion token handed to asynchronous work.
type Lease interface {
	// IsValid reports whether Release would still have an effect.
	IsValid() bool
	// Release marks the lease's signal satisfied. It is a no-op on invalid leases.
	Release()
}

// Context is the execution surface a routine runs against.
type Context interface {
	// SequenceNumber identifies the conversation currently running in the context.
	SequenceNumber() uint64
	// CurrentNode returns the active node, or nil if seq no longer matches.
	CurrentNode(seq uint64) *domain.Node

	SetConditionResult(result bool)

	SetBlocksInUse(count int)
	IsBlockExecuted(block int) bool
	SetBlockExecuted(block int)
	HaveBlockFlagsFired(block int) bool
	SetBlockFlagsFired(block int)
	// AcquireLease allocates a signal slot in the given block. A stale seq yields an invalid lease.
	AcquireLease(block int, seq uint64) Lease
	HaveBlockSignalsFired(block int) bool

	SetFlag(flag int)
	IsFlagSet(flag int) bool
	SetFlags(flags []int)
	AreFlagsSet(flags []int) bool
}
