package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/ports"
)

// Session is a listener that reports when its conversation is over.
// TextListener and JSONListener are sessions.
type Session interface {
	ports.Listener
	Done() <-chan struct{}
	Err() error
}

// SessionFactory creates the session for one run of a conversation. Input collected off the
// driver goroutine must be handed back through poster.
type SessionFactory func(poster Poster) Session

// Runner plays a single conversation to completion on a Driver.
type Runner struct {
	engine   *parley.Engine
	logger   *slog.Logger
	interval time.Duration
	watch    bool
	relay    *Relay
}

// NewRunner creates a Runner for engine.
func NewRunner(engine *parley.Engine, opts ...Option) *Runner {
	r := &Runner{engine: engine, interval: DefaultFrameInterval}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	return r
}

// Run starts conversationID and drives it until its session is done or ctx is cancelled.
// An exhausted input and a cancelled ctx both end the run without error.
func (r *Runner) Run(ctx context.Context, conversationID string, newSession SessionFactory) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	driver := NewDriver(r.engine, WithFrameInterval(r.interval), WithDriverLogger(r.logger))
	if r.relay != nil {
		r.relay.Attach(driver)
		defer r.relay.Attach(nil)
	}
	driverErr := make(chan error, 1)
	go func() { driverErr <- driver.Run(ctx) }()
	defer func() {
		cancel()
		<-driverErr
	}()

	var changes <-chan struct{}
	if r.watch {
		ch, err := r.engine.Watch(ctx)
		if err != nil {
			return err
		}
		changes = ch
	}

	var session Session
	restart := true
	for {
		if restart {
			restart = false
			session = newSession(driver)
			err := driver.Call(ctx, func() error {
				_, err := r.engine.Start(conversationID, session)
				return err
			})
			if err != nil {
				return r.result(ctx, fmt.Errorf("failed to start %s: %w", conversationID, err))
			}
		}

		select {
		case <-ctx.Done():
			return r.result(ctx, ctx.Err())
		case <-session.Done():
			_ = driver.Call(ctx, func() error {
				r.engine.StopAll()
				return nil
			})
			return r.result(ctx, session.Err())
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			r.logger.Info("graph changed, reloading")
			if err := driver.Call(ctx, func() error { return r.engine.Reload(ctx) }); err != nil {
				// Keep playing the current graph.
				r.logger.Error("reload failed", "error", err)
				continue
			}
			restart = true
		}
	}
}

func (r *Runner) result(ctx context.Context, err error) error {
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case ctx.Err() != nil:
		// Cancelled runs end cleanly.
		return nil
	default:
		return err
	}
}
