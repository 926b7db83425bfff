package runner_test

import (
	"context"
	"io"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/aretw0/parley/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_UnknownConversation(t *testing.T) {
	r := runner.NewRunner(newEngine(t), runner.WithInterval(time.Millisecond))
	err := r.Run(context.Background(), "cellar", func(p runner.Poster) runner.Session {
		return runner.NewJSONListener(p, nil, io.Discard)
	})
	assert.ErrorContains(t, err, "failed to start cellar")
}

func TestRunner_Cancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	r := runner.NewRunner(newEngine(t), runner.WithInterval(time.Millisecond))
	go func() {
		done <- r.Run(ctx, "tavern", func(p runner.Poster) runner.Session {
			return runner.NewJSONListener(p, pr, io.Discard)
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunner_WatchReloads(t *testing.T) {
	g, err := schema.Decode([]byte(tavern))
	require.NoError(t, err)
	loader := file.New(filepath.Join(t.TempDir(), "tavern.yaml"))
	require.NoError(t, loader.Save(context.Background(), g))

	eng, err := parley.New(loader)
	require.NoError(t, err)

	pr, pw := io.Pipe()
	defer pw.Close()

	var sessions atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	r := runner.NewRunner(eng, runner.WithInterval(time.Millisecond), runner.WithWatch(true))
	go func() {
		done <- r.Run(ctx, "tavern", func(p runner.Poster) runner.Session {
			sessions.Add(1)
			return runner.NewJSONListener(p, pr, io.Discard)
		})
	}()
	require.Eventually(t, func() bool { return eng.ActiveCount() == 1 }, 5*time.Second, time.Millisecond)

	g.Conversations[0].Nodes[1].Voice = "Welcome back!"
	require.NoError(t, loader.Save(context.Background(), g))

	assert.Eventually(t, func() bool { return sessions.Load() >= 2 }, 5*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return eng.ActiveCount() == 1 }, 5*time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
}
