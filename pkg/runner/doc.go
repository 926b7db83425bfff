/*
Package runner hosts a Parley engine outside of a game loop.

The core engine is strictly single-goroutine and cooperative. This package supplies the
goroutine: a Driver ticks the engine at a fixed frame interval and runs work posted from other
goroutines between ticks. Listeners that wait on people, such as terminal prompts, read on their
own goroutines and hand the selection back through the Driver's mailbox.

# Key Components

  - Driver: the designated goroutine, with Post/Call mailbox entry points.
  - TextListener: an interactive terminal presentation with numbered choices.
  - JSONListener: a headless JSON-Lines presentation for scripting and tests.
  - AutoListener: takes the first candidate at every decision, for unattended hosts.
  - Relay: a Poster attached to a driver after host functions were bound.
  - Runner: plays one conversation to completion, optionally reloading the graph on change.

# Usage

	r := runner.NewRunner(engine, runner.WithWatch(true))
	err := r.Run(ctx, "tavern", func(p runner.Poster) runner.Session {
		return runner.NewTextListener(p, os.Stdin, os.Stdout)
	})
*/
package runner
