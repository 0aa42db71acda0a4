package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/metrics"
)

const (
	// DefaultParallelTimeout bounds one whole specialist batch.
	DefaultParallelTimeout = 60 * time.Second
	// graceTimeout is the extra wait granted per unresolved task once the
	// batch deadline has passed.
	graceTimeout = time.Second

	timedOutMessage = "Agent execution timed out"
)

// Runner fans one query out to every specialist concurrently and combines
// the survivors' outputs through the synthesizer.
type Runner struct {
	specialists []Specialist
	synthesizer *Synthesizer
	timeout     time.Duration
	logTimeline bool
	logger      *zap.Logger
}

// RunnerOption customizes a Runner
type RunnerOption func(*Runner)

// WithExecutionTimeline logs per-specialist timings after each batch
func WithExecutionTimeline(enabled bool) RunnerOption {
	return func(r *Runner) { r.logTimeline = enabled }
}

// NewRunner creates a parallel runner over a fixed specialist list. The
// list order is the merge order for context writes.
func NewRunner(specialists []Specialist, synthesizer *Synthesizer, timeout time.Duration, logger *zap.Logger, opts ...RunnerOption) *Runner {
	if timeout <= 0 {
		timeout = DefaultParallelTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		specialists: specialists,
		synthesizer: synthesizer,
		timeout:     timeout,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type taskOutcome struct {
	index  int
	result Result
	view   *ContextView
}

// RunParallel executes every specialist against the query, each with a
// private copy of the context view, and synthesizes the successful outputs
// into one reply. A task that misses the deadline plus a short grace is
// reported as timed out; errors and timeouts are logged and excluded from
// the synthesized text but never fail the batch.
func (r *Runner) RunParallel(ctx context.Context, query string, state *ContextState) (string, error) {
	if len(r.specialists) == 0 {
		return "", fmt.Errorf("no specialists configured")
	}

	r.logger.Info("Running specialists in parallel",
		zap.Int("count", len(r.specialists)),
	)

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make(chan taskOutcome, len(r.specialists))
	for i, sp := range r.specialists {
		view := state.View()
		go r.runTask(taskCtx, i, sp, query, &view, outcomes)
	}

	completed := r.collect(outcomes)

	if r.logTimeline {
		fields := make([]zap.Field, 0, len(completed))
		for _, oc := range completed {
			fields = append(fields, zap.String(oc.result.Specialist,
				fmt.Sprintf("%s %s", oc.result.Status, oc.result.Elapsed.Round(time.Millisecond))))
		}
		r.logger.Info("Execution timeline", fields...)
	}

	sections := make([]string, 0, len(completed))
	views := make([]*ContextView, len(r.specialists))
	for _, oc := range completed {
		res := oc.result
		metrics.RecordSpecialistMetrics(res.Specialist, string(res.Status), res.Elapsed.Seconds())
		if res.Status != StatusSuccess {
			r.logger.Warn("Specialist excluded from synthesis",
				zap.String("specialist", res.Specialist),
				zap.String("status", string(res.Status)),
				zap.String("output", res.Output),
			)
			continue
		}
		sections = append(sections, fmt.Sprintf("### %s\n%s\n", res.Specialist, res.Output))
		views[oc.index] = oc.view
	}

	// Merge derived context writes in specialist-list order so the outcome
	// is deterministic regardless of completion order.
	for _, v := range views {
		state.absorb(v)
	}

	return r.synthesizer.Synthesize(ctx, query, strings.Join(sections, "\n"))
}

func (r *Runner) runTask(ctx context.Context, index int, sp Specialist, query string, view *ContextView, out chan<- taskOutcome) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Specialist panicked",
				zap.String("specialist", sp.Name()),
				zap.Any("panic", rec),
			)
			out <- taskOutcome{
				index: index,
				result: Result{
					Specialist: sp.Name(),
					Status:     StatusError,
					Output:     fmt.Sprintf("panic: %v", rec),
					Elapsed:    time.Since(start),
				},
			}
		}
	}()

	answer, err := sp.Answer(ctx, query, view)
	elapsed := time.Since(start)
	if err != nil {
		status := StatusError
		if ctx.Err() != nil {
			status = StatusTimeout
		}
		out <- taskOutcome{
			index: index,
			result: Result{
				Specialist: sp.Name(),
				Status:     status,
				Output:     err.Error(),
				Elapsed:    elapsed,
			},
		}
		return
	}

	r.logger.Debug("Specialist completed",
		zap.String("specialist", sp.Name()),
		zap.Duration("elapsed", elapsed),
	)
	out <- taskOutcome{
		index: index,
		result: Result{
			Specialist: sp.Name(),
			Status:     StatusSuccess,
			Output:     answer,
			Elapsed:    elapsed,
		},
		view: view,
	}
}

// collect gathers outcomes in completion order until all tasks resolve or
// the deadline passes. After the deadline each unresolved task gets one
// more grace interval before it is written off as timed out.
func (r *Runner) collect(outcomes <-chan taskOutcome) []taskOutcome {
	total := len(r.specialists)
	collected := make([]taskOutcome, 0, total)
	resolved := make(map[int]bool, total)

	deadline := time.NewTimer(r.timeout)
	defer deadline.Stop()

	for len(collected) < total {
		select {
		case oc := <-outcomes:
			collected = append(collected, oc)
			resolved[oc.index] = true
		case <-deadline.C:
			r.logger.Warn("Parallel execution timeout",
				zap.Duration("timeout", r.timeout),
				zap.Int("unresolved", total-len(collected)),
			)
			metrics.ParallelBatchTimeouts.Inc()
			return r.collectGrace(outcomes, collected, resolved)
		}
	}
	return collected
}

// collectGrace grants each still-unresolved task one grace interval. A
// task whose interval expires is written off with a timeout result.
func (r *Runner) collectGrace(outcomes <-chan taskOutcome, collected []taskOutcome, resolved map[int]bool) []taskOutcome {
	total := len(r.specialists)
	for len(collected) < total {
		select {
		case oc := <-outcomes:
			collected = append(collected, oc)
			resolved[oc.index] = true
		case <-time.After(graceTimeout):
			for i, sp := range r.specialists {
				if resolved[i] {
					continue
				}
				resolved[i] = true
				collected = append(collected, taskOutcome{
					index: i,
					result: Result{
						Specialist: sp.Name(),
						Status:     StatusTimeout,
						Output:     timedOutMessage,
						Elapsed:    r.timeout,
					},
				})
				break
			}
		}
	}
	return collected
}
