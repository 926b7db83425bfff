/*
Package parley is a conversation execution engine for branching dialogue.

A graph document describes conversations: nodes spoken by actors, prioritised edges between them,
and small embedded scripts ("routines") that gate a node (conditions) or run when it is entered
(code). Parley compiles the routines once at load time and then drives any number of conversations
cooperatively, one tick at a time, on a single designated goroutine.

# Concept

Each running conversation lives in a pooled execution context, a state machine that enters nodes,
runs their code routines across as many ticks as they need, evaluates the conditions of the outgoing
edges and either advances on its own or asks the host to choose. Presentation belongs to the host: the
engine calls a Listener at every step and waits until the host signals, through a one-shot notifier,
that it is done presenting.

Code routines can be split into scheduled blocks that wait on flags and release leases held by
asynchronous work:

	@begin
	  playAnimation(@lease);
	@end (greeted)
	@begin (greeted, doorOpen)
	  visits += 1;
	@end

# Usage

	eng, err := parley.New(file.New("tavern.yaml"), parley.WithBindings(bindings))
	if err != nil {
		log.Fatal(err)
	}
	conv, err := eng.Start("welcome", listener)
	if err != nil {
		log.Fatal(err)
	}
	for conv.IsActive() {
		eng.Tick()
	}

Hosts that cannot dedicate their main loop to the engine use runner.Driver, which ticks the engine
on its own goroutine and accepts work from other goroutines through a mailbox.
*/
package parley
