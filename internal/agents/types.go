// Package agents hosts the travel specialists, the parallel runner that
// fans a query out to them, the meta-synthesizer that combines their
// outputs, and the general agent used on the sequential path.
package agents

import (
	"context"
	"time"
)

// Status classifies how a specialist task ended.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
)

// Specialist is one domain expert. Answer receives a private view of the
// conversation context; derived writes to the view are merged back by the
// runner after the whole batch completes.
type Specialist interface {
	Name() string
	Description() string
	Answer(ctx context.Context, query string, view *ContextView) (string, error)
}

// Result is the outcome of one specialist task.
type Result struct {
	Specialist string
	Status     Status
	Output     string
	Elapsed    time.Duration
}

// ContextView is the per-task snapshot of conversation context. Each task
// works on its own copy, so concurrent specialists never share mutable
// state.
type ContextView struct {
	DisplayName string
	History     string

	// ProcessedQuery is a derived write: the last query a specialist ran
	// against the knowledge base.
	ProcessedQuery string
}

// ContextState is the shared conversation context owned by the caller. The
// runner hands each specialist a copy and merges derived writes back in
// fixed specialist-list order once the batch is done.
type ContextState struct {
	DisplayName    string
	History        string
	ProcessedQuery string
}

// View returns an independent snapshot of the state.
func (s *ContextState) View() ContextView {
	return ContextView{
		DisplayName: s.DisplayName,
		History:     s.History,
	}
}

// absorb folds one task's derived writes into the shared state. Only
// derived fields merge; the snapshot fields stay caller-owned.
func (s *ContextState) absorb(v *ContextView) {
	if v == nil {
		return
	}
	if v.ProcessedQuery != "" {
		s.ProcessedQuery = v.ProcessedQuery
	}
}
