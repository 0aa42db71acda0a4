package assistant

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/agents"
	"github.com/rutopia/productobot/internal/circuitbreaker"
	"github.com/rutopia/productobot/internal/interceptors"
	"github.com/rutopia/productobot/internal/session"
)

// fakeEngine records calls and returns canned replies per path.
type fakeEngine struct {
	mu              sync.Mutex
	reply           string
	err             error
	parallelCalls   int
	sequentialCalls int
	states          []agents.ContextState
}

func (f *fakeEngine) Process(_ context.Context, _ string, state *agents.ContextState) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parallelCalls++
	f.states = append(f.states, *state)
	return f.reply, f.err
}

func (f *fakeEngine) ProcessSequential(_ context.Context, _ string, state *agents.ContextState) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sequentialCalls++
	f.states = append(f.states, *state)
	return f.reply, f.err
}

func newTestAssistant(t *testing.T, engine Engine) (*Assistant, *session.Store) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	wrapper := circuitbreaker.NewRedisWrapper(client, "conversation-store", zap.NewNop())
	store := session.NewStore(wrapper, time.Hour, zap.NewNop())
	return New(store, engine, zap.NewNop()), store
}

func TestChatSequentialTurn(t *testing.T) {
	engine := &fakeEngine{reply: "Claro, te ayudo con eso."}
	a, store := newTestAssistant(t, engine)

	out := a.Chat(context.Background(), Request{
		Query:       "busco hotel en Oaxaca",
		Channel:     "C1",
		Thread:      "t1",
		DisplayName: "Ana",
	})
	assert.Equal(t, "Claro, te ayudo con eso.", out)
	assert.Equal(t, 1, engine.sequentialCalls)
	assert.Zero(t, engine.parallelCalls)

	require.Len(t, engine.states, 1)
	assert.Equal(t, "Ana", engine.states[0].DisplayName)
	assert.Contains(t, engine.states[0].History, "user: busco hotel en Oaxaca")

	conv, err := store.Get(context.Background(), session.Identity{Channel: "C1", Thread: "t1"})
	require.NoError(t, err)
	require.Len(t, conv.History, 2)
	assert.Equal(t, "user", conv.History[0].Role)
	assert.Equal(t, "assistant", conv.History[1].Role)
	assert.Equal(t, "Claro, te ayudo con eso.", conv.History[1].Content)
	assert.Equal(t, "general", conv.LastAgent)
}

func TestChatParallelTurn(t *testing.T) {
	engine := &fakeEngine{reply: "plan combinado"}
	a, store := newTestAssistant(t, engine)

	out := a.Chat(context.Background(), Request{
		Query:       "dame todo sobre Cancún",
		Channel:     "C1",
		Thread:      "t1",
		UseParallel: true,
	})
	assert.Equal(t, "plan combinado", out)
	assert.Equal(t, 1, engine.parallelCalls)
	assert.Zero(t, engine.sequentialCalls)

	conv, err := store.Get(context.Background(), session.Identity{Channel: "C1", Thread: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "parallel", conv.LastAgent)
}

func TestChatOffModeFirstInteractionGreeting(t *testing.T) {
	engine := &fakeEngine{reply: "respuesta"}
	a, _ := newTestAssistant(t, engine)

	req := Request{Query: "hola", Channel: "C1", Thread: "t1", Mode: ModeOff}
	first := a.Chat(context.Background(), req)
	assert.True(t, strings.HasPrefix(first, "Hola 👋, soy ProductoBot 🤖"))
	assert.Contains(t, first, "respuesta")

	// Second turn on the same conversation has no greeting.
	second := a.Chat(context.Background(), req)
	assert.Equal(t, "respuesta", second)
}

func TestChatOnModeNoGreeting(t *testing.T) {
	engine := &fakeEngine{reply: "respuesta"}
	a, _ := newTestAssistant(t, engine)

	out := a.Chat(context.Background(), Request{Query: "hola", Channel: "C1", Thread: "t1", Mode: ModeOn})
	assert.Equal(t, "respuesta", out)
}

func TestChatEngineFailureYieldsApology(t *testing.T) {
	engine := &fakeEngine{err: errors.New("reasoning service unavailable")}
	a, store := newTestAssistant(t, engine)

	out := a.Chat(context.Background(), Request{Query: "hola", Channel: "C1", Thread: "t1"})
	assert.Equal(t, apology, out)

	// The conversation was created, but the failed turn left no history.
	conv, err := store.Get(context.Background(), session.Identity{Channel: "C1", Thread: "t1"})
	require.NoError(t, err)
	assert.Empty(t, conv.History)
}

func TestChatDefaultIdentity(t *testing.T) {
	engine := &fakeEngine{reply: "respuesta"}
	a, store := newTestAssistant(t, engine)

	_ = a.Chat(context.Background(), Request{Query: "hola"})
	conv, err := store.Get(context.Background(), session.Identity{})
	require.NoError(t, err)
	assert.Equal(t, session.DefaultIdentityKey, session.Identity{}.Key())
	assert.Len(t, conv.History, 2)
}

func TestChatConcurrentTurnsSerialize(t *testing.T) {
	engine := &fakeEngine{reply: "respuesta"}
	a, store := newTestAssistant(t, engine)

	const turns = 6
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Chat(context.Background(), Request{Query: "hola", Channel: "C1", Thread: "t1"})
		}()
	}
	wg.Wait()

	conv, err := store.Get(context.Background(), session.Identity{Channel: "C1", Thread: "t1"})
	require.NoError(t, err)
	// Every turn lands both of its messages without interleaving losses.
	assert.Len(t, conv.History, 2*turns)
}

func TestChatTrimsReply(t *testing.T) {
	engine := &fakeEngine{reply: "  con espacios  \n"}
	a, _ := newTestAssistant(t, engine)

	out := a.Chat(context.Background(), Request{Query: "hola", Channel: "C1", Thread: "t1"})
	assert.Equal(t, "con espacios", out)
}

// ctxEngine runs a callback against the turn context.
type ctxEngine struct {
	fn func(ctx context.Context) (string, error)
}

func (e *ctxEngine) Process(ctx context.Context, _ string, _ *agents.ContextState) (string, error) {
	return e.fn(ctx)
}

func (e *ctxEngine) ProcessSequential(ctx context.Context, _ string, _ *agents.ContextState) (string, error) {
	return e.fn(ctx)
}

func TestTurnTagsContextWithConversationMetadata(t *testing.T) {
	var convIDs, turnIDs []string
	engine := &ctxEngine{fn: func(ctx context.Context) (string, error) {
		convIDs = append(convIDs, interceptors.ConversationIDFromContext(ctx))
		turnIDs = append(turnIDs, interceptors.TurnIDFromContext(ctx))
		return "ok", nil
	}}
	a, _ := newTestAssistant(t, engine)

	a.Chat(context.Background(), Request{Query: "hola", Channel: "C9", Thread: "t3"})
	a.Chat(context.Background(), Request{Query: "otra", Channel: "C9", Thread: "t3"})

	require.Len(t, convIDs, 2)
	assert.Equal(t, "C9_t3", convIDs[0])
	assert.Equal(t, "C9_t3", convIDs[1])
	require.Len(t, turnIDs, 2)
	assert.NotEmpty(t, turnIDs[0])
	assert.NotEmpty(t, turnIDs[1])
	assert.NotEqual(t, turnIDs[0], turnIDs[1])
}

func TestConversationHeadersReachDownstream(t *testing.T) {
	var gotConv, gotTurn string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotConv = r.Header.Get("X-Conversation-ID")
		gotTurn = r.Header.Get("X-Turn-ID")
	}))
	defer srv.Close()

	client := &http.Client{Transport: interceptors.NewConversationHTTPRoundTripper(nil)}
	engine := &ctxEngine{fn: func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
		if err != nil {
			return "", err
		}
		resp, err := client.Do(req)
		if err != nil {
			return "", err
		}
		resp.Body.Close()
		return "ok", nil
	}}
	a, _ := newTestAssistant(t, engine)

	a.Chat(context.Background(), Request{Query: "hola", Channel: "C1", Thread: "t1"})

	assert.Equal(t, "C1_t1", gotConv)
	assert.NotEmpty(t, gotTurn)
}
