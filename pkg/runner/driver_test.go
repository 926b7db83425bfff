package runner_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	ticks atomic.Int64
	binds atomic.Int64
}

func (f *fakeEngine) Tick() { f.ticks.Add(1) }
func (f *fakeEngine) Bind() { f.binds.Add(1) }

func startDriver(t *testing.T, d *runner.Driver) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- d.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, errc
}

func TestDriver_TicksAndStops(t *testing.T) {
	eng := &fakeEngine{}
	d := runner.NewDriver(eng, runner.WithFrameInterval(time.Millisecond))
	cancel, errc := startDriver(t, d)

	assert.Eventually(t, func() bool { return eng.ticks.Load() >= 3 }, 2*time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.Equal(t, int64(1), eng.binds.Load())
	<-d.Done()

	assert.ErrorIs(t, d.Post(func() {}), runner.ErrDriverStopped)
	assert.ErrorIs(t, d.Call(context.Background(), func() error { return nil }), runner.ErrDriverStopped)
}

func TestDriver_PostedWorkRunsInOrder(t *testing.T) {
	d := runner.NewDriver(&fakeEngine{}, runner.WithFrameInterval(time.Millisecond))

	// Posting before Run is allowed.
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		require.NoError(t, d.Post(func() { order = append(order, i) }))
	}
	startDriver(t, d)

	var got []int
	require.NoError(t, d.Call(context.Background(), func() error {
		got = append(got, order...)
		return nil
	}))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestDriver_CallErrors(t *testing.T) {
	d := runner.NewDriver(&fakeEngine{}, runner.WithFrameInterval(time.Millisecond), runner.WithMailboxSize(1))
	startDriver(t, d)

	boom := errors.New("boom")
	assert.ErrorIs(t, d.Call(context.Background(), func() error { return boom }), boom)

	err := d.Call(context.Background(), func() error { panic("kaboom") })
	assert.ErrorContains(t, err, "panic: kaboom")

	// A panicking posted function does not take the driver down.
	require.NoError(t, d.Post(func() { panic("ignored") }))
	assert.NoError(t, d.Call(context.Background(), func() error { return nil }))

	assert.Error(t, d.Post(nil))
}

func TestDriver_CallHonoursContext(t *testing.T) {
	d := runner.NewDriver(&fakeEngine{}, runner.WithFrameInterval(time.Millisecond))
	startDriver(t, d)

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- d.Call(ctx, func() error {
			<-release
			return nil
		})
	}()
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	close(release)
}

func TestRelay(t *testing.T) {
	relay := &runner.Relay{}
	assert.ErrorIs(t, relay.Post(func() {}), runner.ErrNotAttached)

	d := runner.NewDriver(&fakeEngine{}, runner.WithFrameInterval(time.Millisecond))
	relay.Attach(d)
	startDriver(t, d)

	ran := make(chan struct{})
	require.NoError(t, relay.Post(func() { close(ran) }))
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("posted work did not run")
	}

	relay.Attach(nil)
	assert.ErrorIs(t, relay.Post(func() {}), runner.ErrNotAttached)
}
