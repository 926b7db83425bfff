package registry_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/aretw0/parley/pkg/routine"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, b parley.Bindings, name string, args ...any) (any, error) {
	t.Helper()
	fn, ok := b.Functions[name]
	require.True(t, ok, name)
	var ctx routine.Context
	return fn(ctx, args)
}

func TestRegistry(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("double", func(_ routine.Context, args []any) (any, error) {
		return args[0].(int64) * 2, nil
	})
	registry.RegisterStandard(r, logging.NewNop(), nil)

	assert.Equal(t, []string{"concat", "double", "log", "random", "wait"}, r.Names())

	vars := parley.MapStore{"x": int64(1)}
	b := r.Bindings(vars)
	assert.Equal(t, vars, b.Variables)

	got, err := call(t, b, "double", int64(21))
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	got, err = call(t, b, "concat", "a", int64(1), true)
	require.NoError(t, err)
	assert.Equal(t, "a1true", got)

	r.Register("late", nil)
	assert.NotContains(t, b.Functions, "late")
}

func TestRandom(t *testing.T) {
	r := registry.NewRegistry()
	registry.RegisterStandard(r, logging.NewNop(), nil)
	b := r.Bindings(nil)

	for i := 0; i < 50; i++ {
		got, err := call(t, b, "random", int64(1), int64(3))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.(int64), int64(1))
		assert.LessOrEqual(t, got.(int64), int64(3))
	}

	_, err := call(t, b, "random", int64(1))
	assert.EqualError(t, err, "random expects 2 arguments, got 1")
	_, err = call(t, b, "random", int64(3), int64(1))
	assert.EqualError(t, err, "random: empty range [3, 1]")
	_, err = call(t, b, "random", "a", int64(1))
	assert.Error(t, err)
}

type fakeLease struct{ released atomic.Bool }

func (l *fakeLease) IsValid() bool { return !l.released.Load() }
func (l *fakeLease) Release()      { l.released.Store(true) }

func TestWait_Arguments(t *testing.T) {
	r := registry.NewRegistry()
	registry.RegisterStandard(r, logging.NewNop(), nil)
	b := r.Bindings(nil)

	_, err := call(t, b, "wait", &fakeLease{})
	assert.EqualError(t, err, "wait expects 2 arguments, got 1")
	_, err = call(t, b, "wait", int64(1), int64(1))
	assert.EqualError(t, err, "wait expects a lease and an int")
	_, err = call(t, b, "wait", &fakeLease{}, int64(-5))
	assert.EqualError(t, err, "wait: negative delay -5")
	_, err = call(t, b, "wait", &fakeLease{}, int64(5))
	assert.ErrorIs(t, err, registry.ErrNoPoster)
}

// postNow runs posted work on the calling goroutine.
type postNow struct{}

func (postNow) Post(fn func()) error {
	fn()
	return nil
}

func TestWait_ReleasesAfterDelay(t *testing.T) {
	r := registry.NewRegistry()
	registry.RegisterStandard(r, logging.NewNop(), postNow{})
	b := r.Bindings(nil)

	lease := &fakeLease{}
	start := time.Now()
	_, err := call(t, b, "wait", lease, int64(20))
	require.NoError(t, err)
	assert.True(t, lease.IsValid())

	require.Eventually(t, func() bool { return !lease.IsValid() }, 2*time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestWait_DetachedRelayDropsRelease(t *testing.T) {
	r := registry.NewRegistry()
	relay := &runner.Relay{}
	registry.RegisterStandard(r, logging.NewNop(), relay)

	lease := &fakeLease{}
	_, err := call(t, r.Bindings(nil), "wait", lease, int64(0))
	require.NoError(t, err)

	assert.Never(t, func() bool { return !lease.IsValid() }, 50*time.Millisecond, 5*time.Millisecond)
}

const door = `
actors:
  - {id: porter, name: Porter}
conversations:
  - id: door
    nodes:
      - id: start
      - id: knock
        actor: porter
        voice: One moment.
        code: |
          @begin
            wait(@lease, 30);
          @end (opened)
          @begin (opened)
            unlock();
          @end
      - id: enter
        actor: porter
        voice: Come in.
    edges:
      - {from: start, to: knock}
      - {from: knock, to: enter}
`

func TestWait_ThroughDriver(t *testing.T) {
	var opened atomic.Bool
	r := registry.NewRegistry()
	relay := &runner.Relay{}
	registry.RegisterStandard(r, logging.NewNop(), relay)
	r.Register("unlock", func(routine.Context, []any) (any, error) {
		opened.Store(true)
		return nil, nil
	})

	eng, err := parley.New(memory.NewLoader(door), parley.WithBindings(r.Bindings(nil)))
	require.NoError(t, err)

	driver := runner.NewDriver(eng, runner.WithFrameInterval(time.Millisecond))
	relay.Attach(driver)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = driver.Run(ctx) }()

	l := runner.NewAutoListener(nil)
	require.NoError(t, driver.Call(ctx, func() error {
		_, err := eng.Start("door", l)
		return err
	}))

	select {
	case <-l.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("conversation stalled on its lease")
	}
	assert.NoError(t, l.Err())
	assert.True(t, opened.Load())
}
