package domain

import "errors"

// ErrWrongGoroutine is raised when a scheduler entry point is used off its designated goroutine.
var ErrWrongGoroutine = errors.New("parley APIs can only be used from the driver goroutine")

// ErrFlagOutOfRange is raised when a flag index does not fit the flag array.
var ErrFlagOutOfRange = errors.New("flag index out of range")

// ErrNotCondition is returned when a condition result is read after a non-condition routine.
var ErrNotCondition = errors.New("tried to access condition result from a non-condition routine")

// ErrConversationNotFound is returned when a conversation id is not in the database.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrInvalidDecision is returned when a listener decides on a node that was not offered.
var ErrInvalidDecision = errors.New("decision is not one of the offered nodes")
