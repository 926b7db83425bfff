package redis_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/ports/tests"
	"github.com/aretw0/parley/pkg/schema"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleGraph() *schema.Graph {
	return &schema.Graph{
		Actors: []schema.Actor{{ID: "guard", Name: "Guard"}},
		Conversations: []schema.Conversation{{
			ID:    "gate",
			Nodes: []schema.Node{{ID: "start"}, {ID: "halt", Actor: "guard", Voice: "Halt!"}},
			Edges: []schema.Edge{{From: "start", To: "halt"}},
		}},
	}
}

func TestLoader_Contract(t *testing.T) {
	_, client := newClient(t)
	loader := redis.NewLoader(client, "parley:graph")
	require.NoError(t, loader.Save(context.Background(), sampleGraph()))

	tests.GraphLoaderContractTest(t, loader, sampleGraph())
}

func TestLoader_Missing(t *testing.T) {
	_, client := newClient(t)
	_, err := redis.NewLoader(client, "nothing").Load(context.Background())
	assert.ErrorIs(t, err, redis.ErrGraphNotFound)
}

func TestLoader_BadDocument(t *testing.T) {
	mr, client := newClient(t)
	require.NoError(t, mr.Set("parley:graph", "conversations: [\n"))

	_, err := redis.NewLoader(client, "parley:graph").Load(context.Background())
	assert.ErrorContains(t, err, "parley:graph: failed to parse graph yaml")
}

func TestFlagBus_PublishSubscribe(t *testing.T) {
	_, client := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	bus := redis.NewFlagBus(client, redis.WithChannel("test:flags"))
	sub, err := bus.Subscribe(ctx, func(flag string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, flag)
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "alarm"))
	require.NoError(t, bus.Publish(ctx, " door_open "))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 10*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{"alarm", "door_open"}, got)
	mu.Unlock()

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription did not stop")
	}
	assert.NoError(t, sub.Close())
}

func TestFlagBus_EmptyFlag(t *testing.T) {
	_, client := newClient(t)
	bus := redis.NewFlagBus(client)
	assert.ErrorIs(t, bus.Publish(context.Background(), "  "), redis.ErrEmptyFlag)
}
