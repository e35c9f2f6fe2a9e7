package circuit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/photonq/lumen/pkg/journal"
	"github.com/photonq/lumen/pkg/logging"
	"github.com/photonq/lumen/pkg/measure"
	"github.com/photonq/lumen/pkg/state"
)

// Runner executes circuits: it prepares a fresh state vector per run,
// applies the gate sequence, and hands the final state to the measurement
// engine. Optionally it records each run in a journal.
type Runner struct {
	precision state.Precision
	logger    logging.Logger
	journal   *journal.Store
}

// Option configures a Runner.
type Option func(*Runner)

// WithPrecision selects the amplitude precision for new state vectors.
func WithPrecision(p state.Precision) Option {
	return func(r *Runner) { r.precision = p }
}

// WithLogger sets the runner's logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithJournal records every run in the given journal.
func WithJournal(j *journal.Store) Option {
	return func(r *Runner) { r.journal = j }
}

// NewRunner returns a Runner with double precision and no journaling by
// default.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{precision: state.Double, logger: logging.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunResult is the outcome of one circuit execution. Result is the bare
// measurement result for a single-measurement circuit, or an ordered []any
// otherwise.
type RunResult struct {
	ID      string
	Result  any
	Elapsed time.Duration
}

// Run executes the circuit against a fresh |0...0> state.
func (r *Runner) Run(ctx context.Context, c *Circuit) (*RunResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	vec, err := state.New(r.precision, c.Wires)
	if err != nil {
		return nil, err
	}
	if err := vec.ApplyOperations(c.Operations); err != nil {
		return nil, err
	}

	m, err := measure.New(vec)
	if err != nil {
		return nil, err
	}
	result, err := m.MeasureFinalState(c.Shots, c.Measurements)
	if err != nil {
		return nil, err
	}

	out := &RunResult{
		ID:      uuid.New().String(),
		Result:  result,
		Elapsed: time.Since(start),
	}
	r.logger.Info("circuit executed",
		"id", out.ID, "wires", c.Wires, "measurements", len(c.Measurements), "elapsed", out.Elapsed)

	if r.journal != nil {
		if err := r.record(ctx, c, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Runner) record(ctx context.Context, c *Circuit, out *RunResult) error {
	desc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("circuit: encode for journal: %w", err)
	}

	run := &journal.Run{
		ID:        out.ID,
		Wires:     c.Wires,
		Shots:     c.Shots,
		Precision: r.precision.String(),
		Circuit:   string(desc),
		Elapsed:   out.Elapsed,
	}

	var results []any
	if len(c.Measurements) == 1 {
		results = []any{out.Result}
	} else {
		results = out.Result.([]any)
	}
	for i, res := range results {
		jr, err := toJournalResult(c.Measurements[i].Kind().String(), res)
		if err != nil {
			return err
		}
		run.Results = append(run.Results, jr)
	}

	if err := r.journal.RecordRun(ctx, run); err != nil {
		return err
	}
	r.logger.Debug("run journaled", "id", run.ID)
	return nil
}

func toJournalResult(kind string, res any) (journal.Result, error) {
	switch v := res.(type) {
	case float64:
		return journal.Result{Kind: kind, Scalar: &v}, nil
	case []float64:
		return journal.Result{Kind: kind, Values: v}, nil
	case []complex128:
		return journal.Result{Kind: kind, Amplitudes: v}, nil
	default:
		return journal.Result{}, fmt.Errorf("circuit: unjournalable result type %T", res)
	}
}
