package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/parley"
	parleyhttp "github.com/aretw0/parley/pkg/adapters/http"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/control"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gate = `
conversations:
  - id: gate
    nodes:
      - id: start
      - id: halt
        voice: Halt!
        code: |
          @begin (alarm)
          @end
    edges:
      - {from: start, to: halt}
`

// hold never readies, so started conversations stay put.
type hold struct{}

func (hold) OnConversationEnter(*domain.Conversation, ports.ReadyNotifier) {}
func (hold) OnNodeEnter(*domain.Node, ports.ReadyNotifier)                 {}
func (hold) OnNodeDecision([]*domain.Node, ports.DecisionNotifier)         {}
func (hold) OnNodeExit(*domain.Node, ports.ReadyNotifier)                  {}
func (hold) OnConversationExit(*domain.Conversation, ports.ReadyNotifier)  {}
func (hold) OnError(*domain.Conversation, error)                           {}

type recordingPublisher struct {
	mu    sync.Mutex
	flags []string
}

func (p *recordingPublisher) Publish(_ context.Context, flag string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flags = append(p.flags, flag)
	return nil
}

func setup(t *testing.T, ctrlOpts []control.Option, opts ...parleyhttp.Option) (*parley.Engine, *runner.Driver, http.Handler) {
	t.Helper()
	eng, err := parley.New(memory.NewLoader(gate))
	require.NoError(t, err)

	driver := runner.NewDriver(eng, runner.WithFrameInterval(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = driver.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-driver.Done()
	})

	return eng, driver, parleyhttp.NewHandler(control.New(eng, driver, ctrlOpts...), opts...)
}

func do(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	_, _, h := setup(t, nil)
	rec := do(h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestInfo(t *testing.T) {
	_, _, h := setup(t, nil)
	rec := do(h, http.MethodGet, "/info")
	require.Equal(t, http.StatusOK, rec.Code)

	var info parleyhttp.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "parley-http", info.App)
	assert.Equal(t, "1.0.0", info.ApiVersion)
}

func TestConversations(t *testing.T) {
	eng, driver, h := setup(t, nil)

	rec := do(h, http.MethodGet, "/conversations")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	require.NoError(t, driver.Call(context.Background(), func() error {
		_, err := eng.Start("gate", hold{})
		return err
	}))

	rec = do(h, http.MethodGet, "/conversations")
	require.Equal(t, http.StatusOK, rec.Code)
	var views []parleyhttp.ConversationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "gate", views[0].ConversationId)
	assert.NotZero(t, views[0].Seq)
	assert.NotEmpty(t, views[0].State)
	require.NotNil(t, views[0].NodeId)
	assert.Equal(t, "start", *views[0].NodeId)
}

func TestFlags(t *testing.T) {
	_, _, h := setup(t, nil)

	rec := do(h, http.MethodGet, "/flags")
	assert.JSONEq(t, `["alarm"]`, rec.Body.String())

	rec = do(h, http.MethodPost, "/flags/alarm")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(h, http.MethodPost, "/flags/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown flag: nope")

	rec = do(h, http.MethodPost, "/flags/%20")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFlags_Publisher(t *testing.T) {
	pub := &recordingPublisher{}
	_, _, h := setup(t, []control.Option{control.WithPublisher(pub)})

	assert.Equal(t, http.StatusNoContent, do(h, http.MethodPost, "/flags/alarm").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/flags/nope").Code)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, []string{"alarm"}, pub.flags)
}

func TestGraph(t *testing.T) {
	_, _, h := setup(t, nil)

	rec := do(h, http.MethodGet, "/graph/gate")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "graph TD")
	assert.Contains(t, rec.Body.String(), "start --> halt")

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/graph/missing").Code)
}

func TestMetricsMount(t *testing.T) {
	_, _, h := setup(t, nil)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/metrics").Code)

	_, _, h = setup(t, nil, parleyhttp.WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})))
	rec := do(h, http.MethodGet, "/metrics")
	assert.Equal(t, "ok", rec.Body.String())
}

func TestOpenAPIDocument(t *testing.T) {
	swagger, err := parleyhttp.GetSwagger()
	require.NoError(t, err)
	require.NoError(t, swagger.Validate(context.Background()))

	_, _, h := setup(t, nil)
	rec := do(h, http.MethodGet, "/openapi.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"operationId":"raiseFlag"`)

	// Every routed operation is described by the document.
	routes, ok := h.(chi.Routes)
	require.True(t, ok)
	err = chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if route == "/openapi.json" || route == "/metrics" {
			return nil
		}
		item := swagger.Paths.Value(route)
		if assert.NotNil(t, item, route) {
			assert.NotNil(t, item.GetOperation(strings.ToUpper(method)), "%s %s", method, route)
		}
		return nil
	})
	require.NoError(t, err)
}
