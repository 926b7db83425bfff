package runner_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tavern = `
actors:
  - {id: keeper, name: Innkeeper}
  - {id: hero, name: Hero}
conversations:
  - id: tavern
    name: The Tavern
    nodes:
      - {id: start}
      - {id: welcome, actor: keeper, voice: Welcome!}
      - {id: ale, actor: hero, response: An ale.}
      - {id: room, actor: hero, response: A room.}
      - {id: bye, actor: keeper, voice: Enjoy your stay.}
    edges:
      - {from: start, to: welcome}
      - {from: welcome, to: ale}
      - {from: welcome, to: room}
      - {from: room, to: bye}
`

func newEngine(t *testing.T) *parley.Engine {
	t.Helper()
	eng, err := parley.New(memory.NewLoader(tavern))
	require.NoError(t, err)
	return eng
}

func run(t *testing.T, eng *parley.Engine, factory runner.SessionFactory) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r := runner.NewRunner(eng, runner.WithInterval(time.Millisecond))
	require.NoError(t, r.Run(ctx, "tavern", factory))
	require.NoError(t, ctx.Err(), "run timed out")
}

func TestTextListener_Conversation(t *testing.T) {
	var out bytes.Buffer
	run(t, newEngine(t), func(p runner.Poster) runner.Session {
		return runner.NewTextListener(p, strings.NewReader("7\nabc\n2\n"), &out,
			runner.WithNameStyler(strings.ToUpper))
	})

	text := out.String()
	assert.Contains(t, text, "== The Tavern ==\n")
	assert.Contains(t, text, "INNKEEPER: Welcome!\n")
	assert.Contains(t, text, "  1) An ale.\n  2) A room.\n> ")
	assert.Contains(t, text, `invalid choice "7": enter a number between 1 and 2`)
	assert.Contains(t, text, `invalid choice "abc"`)
	assert.Contains(t, text, "INNKEEPER: Enjoy your stay.\n")
	assert.True(t, strings.HasSuffix(text, "== end ==\n"))
}

func TestTextListener_Renderer(t *testing.T) {
	var out bytes.Buffer
	run(t, newEngine(t), func(p runner.Poster) runner.Session {
		return runner.NewTextListener(p, strings.NewReader("1\n"), &out,
			runner.WithRenderer(func(s string) (string, error) { return "**" + s + "**\n", nil }))
	})
	assert.Contains(t, out.String(), "Innkeeper: **Welcome!**\n")
}

func TestTextListener_InputExhausted(t *testing.T) {
	var out bytes.Buffer
	var session *runner.TextListener
	run(t, newEngine(t), func(p runner.Poster) runner.Session {
		session = runner.NewTextListener(p, strings.NewReader(""), &out)
		return session
	})
	assert.ErrorIs(t, session.Err(), io.EOF)
	assert.Contains(t, out.String(), "== end ==\n")
	assert.NotContains(t, out.String(), "Enjoy your stay.")
}

func TestJSONListener_Conversation(t *testing.T) {
	var out bytes.Buffer
	run(t, newEngine(t), func(p runner.Poster) runner.Session {
		return runner.NewJSONListener(p, strings.NewReader("\"nowhere\"\n\"room\"\n"), &out)
	})

	var events []runner.JSONEvent
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var ev runner.JSONEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}

	var types []domain.EventType
	for _, ev := range events {
		types = append(types, ev.Type)
		assert.Equal(t, "tavern", ev.ConversationID)
	}
	assert.Equal(t, []domain.EventType{
		domain.EventConversationEnter,
		domain.EventNodeEnter, domain.EventNodeExit,
		domain.EventNodeEnter, domain.EventNodeExit,
		domain.EventNodeDecision,
		domain.EventError,
		domain.EventNodeEnter, domain.EventNodeExit,
		domain.EventNodeEnter, domain.EventNodeExit,
		domain.EventConversationExit,
	}, types)

	assert.Equal(t, "welcome", events[3].NodeID)
	assert.Equal(t, "keeper", events[3].ActorID)
	assert.Equal(t, "Welcome!", events[3].Voice)
	assert.Equal(t, []runner.JSONCandidate{
		{NodeID: "ale", Response: "An ale."},
		{NodeID: "room", Response: "A room."},
	}, events[5].Candidates)
	assert.Equal(t, `unknown choice "nowhere"`, events[6].Error)
	assert.Equal(t, "room", events[7].NodeID)
}
