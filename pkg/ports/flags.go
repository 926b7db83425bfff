package ports

import "context"

// FlagPublisher broadcasts a flag by name to other processes running the same graph.
type FlagPublisher interface {
	Publish(ctx context.Context, flag string) error
}

// FlagSink receives flags that arrived from outside the process.
// It is called off the driver goroutine and must hand the flag over through the driver mailbox.
type FlagSink func(flag string)
