package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/parley/internal/logging"
)

// ErrDriverStopped is returned when work is posted to a driver that is no longer running.
var ErrDriverStopped = errors.New("driver stopped")

// DefaultFrameInterval is the tick period used when none is configured (60 frames per second).
const DefaultFrameInterval = time.Second / 60

// DefaultMailboxSize is the number of posted functions buffered before Post blocks.
const DefaultMailboxSize = 64

// Engine is the part of parley.Engine the driver needs.
type Engine interface {
	Tick()
	Bind()
}

// Poster hands work to the driver goroutine. Listeners that collect input on other
// goroutines use it to call notifiers safely.
type Poster interface {
	Post(fn func()) error
}

// Driver owns the engine's designated goroutine. It ticks the engine at a fixed interval and,
// between ticks, runs functions posted from other goroutines.
type Driver struct {
	engine   Engine
	interval time.Duration
	logger   *slog.Logger

	mailbox  chan func()
	done     chan struct{}
	stopOnce sync.Once
	ticks    uint64
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithFrameInterval sets the tick period.
func WithFrameInterval(d time.Duration) DriverOption {
	return func(dr *Driver) {
		if d > 0 {
			dr.interval = d
		}
	}
}

// WithDriverLogger configures the structured logger.
func WithDriverLogger(logger *slog.Logger) DriverOption {
	return func(dr *Driver) {
		if logger != nil {
			dr.logger = logger
		}
	}
}

// WithMailboxSize sets how many posted functions are buffered.
func WithMailboxSize(n int) DriverOption {
	return func(dr *Driver) {
		if n > 0 {
			dr.mailbox = make(chan func(), n)
		}
	}
}

// NewDriver creates a driver for engine. Functions may be posted before Run starts.
func NewDriver(engine Engine, opts ...DriverOption) *Driver {
	d := &Driver{
		engine:   engine,
		interval: DefaultFrameInterval,
		logger:   logging.NewNop(),
		mailbox:  make(chan func(), DefaultMailboxSize),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run binds the engine to the calling goroutine and drives it until ctx is done.
// It returns ctx.Err().
func (d *Driver) Run(ctx context.Context) error {
	d.engine.Bind()
	defer d.stopOnce.Do(func() { close(d.done) })

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Debug("driver started", "interval", d.interval)
	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("driver stopped", "ticks", d.ticks, "reason", ctx.Err())
			return ctx.Err()
		case fn := <-d.mailbox:
			d.run(fn)
		case <-ticker.C:
			d.drain()
			d.engine.Tick()
			d.ticks++
		}
	}
}

// drain runs whatever is queued without waiting for more.
func (d *Driver) drain() {
	for {
		select {
		case fn := <-d.mailbox:
			d.run(fn)
		default:
			return
		}
	}
}

func (d *Driver) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("posted function panicked", "error", fmt.Errorf("panic: %v", r))
		}
	}()
	fn()
}

// Post queues fn to run on the driver goroutine. It blocks while the mailbox is full.
func (d *Driver) Post(fn func()) error {
	if fn == nil {
		return errors.New("nil function posted")
	}
	select {
	case <-d.done:
		return ErrDriverStopped
	default:
	}
	select {
	case d.mailbox <- fn:
		return nil
	case <-d.done:
		return ErrDriverStopped
	}
}

// Call runs fn on the driver goroutine and waits for its result.
func (d *Driver) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	err := d.Post(func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("panic: %v", r)
			}
		}()
		result <- fn()
	})
	if err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		// The function may still have run before the driver stopped.
		select {
		case err := <-result:
			return err
		default:
			return ErrDriverStopped
		}
	}
}

// Done is closed when Run returns.
func (d *Driver) Done() <-chan struct{} {
	return d.done
}
