/*
Package domain contains the runtime entities consumed by the Parley engine.

A compiled conversation graph is immutable once loaded: conversations own nodes, nodes own their
outgoing edges, and every node refers to its condition and code routines by index into the routine
directory. This package is kept free of I/O and of the execution machinery so that loaders, the importer
and the runtime can all depend on it.

# Key Entities

  - Conversation: a named graph with exactly one root node.
  - Node: a line of dialogue spoken by an Actor, gated by a condition routine and carrying a code routine.
  - Edge: a prioritised link between two nodes of the same conversation.
  - Settings: runtime knobs shared by every execution context.
  - LifecycleHooks: observability callbacks fired by the state machine.
*/
package domain
