// Package assistant is the chat entry point: it resolves the conversation
// identity, serializes turns per identity, runs the orchestrator, and
// guarantees the user always receives a reply.
package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/agents"
	"github.com/rutopia/productobot/internal/interceptors"
	"github.com/rutopia/productobot/internal/metrics"
	"github.com/rutopia/productobot/internal/session"
)

const (
	ModeOn  = "on"
	ModeOff = "off"

	// greeting is prepended to the first reply of a conversation while the
	// bot runs in off mode.
	greeting = "Hola 👋, soy ProductoBot 🤖, estoy en desarrollo pero me puedes preguntar sobre viajes, destinos, alojamientos o experiencias"

	// apology replaces any propagated failure; the user never sees an
	// error.
	apology = "Lo siento, tuve un problema procesando tu mensaje. Por favor, intenta de nuevo más tarde."

	defaultDisplayName = "Usuario"
)

// Engine is the orchestration surface the assistant drives. The hybrid
// orchestrator satisfies it.
type Engine interface {
	Process(ctx context.Context, query string, state *agents.ContextState) (string, error)
	ProcessSequential(ctx context.Context, query string, state *agents.ContextState) (string, error)
}

// Request is one inbound chat message.
type Request struct {
	Query       string
	Channel     string
	Thread      string
	Mode        string // on | off, defaults to on
	DisplayName string
	// UseParallel opts the turn in to parallel execution; false forces the
	// sequential path.
	UseParallel bool
}

// Assistant processes chat turns against a conversation store.
type Assistant struct {
	store         *session.Store
	engine        Engine
	historyWindow int
	logger        *zap.Logger
}

// Option customizes an Assistant
type Option func(*Assistant)

// WithHistoryWindow caps how many stored messages feed the model prompt
func WithHistoryWindow(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.historyWindow = n
		}
	}
}

// New creates an assistant
func New(store *session.Store, engine Engine, logger *zap.Logger, opts ...Option) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Assistant{store: store, engine: engine, historyWindow: session.MaxHistoryMessages, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Chat answers one user message. Turns on the same conversation identity
// serialize on a per-identity lock, so concurrent messages in one thread
// never interleave their history updates. Chat never returns an error to
// the caller: failures are logged and replaced with a generic apology.
func (a *Assistant) Chat(ctx context.Context, req Request) string {
	mode := req.Mode
	if mode != ModeOff {
		mode = ModeOn
	}
	name := req.DisplayName
	if name == "" {
		name = defaultDisplayName
	}

	start := time.Now()
	id := session.Identity{Channel: req.Channel, Thread: req.Thread}

	a.logger.Info("Processing message",
		zap.String("user", name),
		zap.String("conversation", id.Key()),
		zap.String("mode", mode),
	)

	unlock := a.store.Lock(id)
	defer unlock()

	reply, ok := a.turn(ctx, req, id, name, mode)
	status := "ok"
	if !ok {
		status = "error"
		reply = apology
	}

	metrics.ChatTurns.WithLabelValues(mode, status).Inc()
	metrics.ChatTurnDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	return strings.TrimSpace(reply)
}

func (a *Assistant) turn(ctx context.Context, req Request, id session.Identity, name, mode string) (string, bool) {
	// Outbound HTTP calls made anywhere below this point carry the
	// conversation and turn identifiers as correlation headers.
	ctx = interceptors.WithConversationID(ctx, id.Key())
	ctx = interceptors.WithTurnID(ctx, uuid.NewString())

	conv, err := a.store.GetOrCreate(ctx, id)
	if err != nil {
		a.logger.Error("Failed to load conversation", zap.String("conversation", id.Key()), zap.Error(err))
		return "", false
	}

	firstInteraction := conv.IsFirstInteraction()
	conv.Append(session.Message{Role: "user", Content: req.Query, Timestamp: time.Now().UTC()})

	state := &agents.ContextState{
		DisplayName: name,
		History:     conv.HistoryText(a.historyWindow),
	}

	var reply string
	if req.UseParallel {
		conv.LastAgent = "parallel"
		reply, err = a.engine.Process(ctx, req.Query, state)
	} else {
		conv.LastAgent = "general"
		reply, err = a.engine.ProcessSequential(ctx, req.Query, state)
	}
	if err != nil {
		a.logger.Error("Failed to process message", zap.String("conversation", id.Key()), zap.Error(err))
		return "", false
	}

	conv.Append(session.Message{Role: "assistant", Content: reply, Timestamp: time.Now().UTC()})
	if err := a.store.Update(ctx, id, conv); err != nil {
		// The reply is already computed; losing one history write is
		// better than losing the turn.
		a.logger.Warn("Failed to persist conversation", zap.String("conversation", id.Key()), zap.Error(err))
	}

	if firstInteraction && mode == ModeOff {
		reply = greeting + reply
	}
	return reply, true
}
