// Package routine defines the contract between compiled routines and the execution context
// that runs them, and the directory that indexes compiled routines.
//
// A Routine is a closure produced by the compiler. It receives the execution Context of the
// conversation it runs in and drives that context's scheduling primitives: condition results,
// scheduled block trackers, leases and flags.
package routine
