// Package measure is the measurement dispatch and expectation-value engine.
//
// A Measurements value binds a precision-matched backend engine to one state
// vector for the duration of a single simulation run. Each measurement
// request is classified once and routed to the cheapest path that can serve
// it: a closed-form named-operator primitive, a sparse primitive, a
// serialized composite primitive, or the generic diagonalizing fallback.
//
// The fallback path rotates the shared state vector in place. Two
// consecutive fallback measurements against the same vector therefore
// compose their gate effects; callers that need independent results must
// reset or clone the state between them. The engine provides no
// synchronization, and callers must not run two measurements concurrently
// against the same vector.
package measure

import (
	"fmt"
	"math/bits"

	"github.com/photonq/lumen/pkg/backend"
	"github.com/photonq/lumen/pkg/observable"
	"github.com/photonq/lumen/pkg/state"
)

// Measurements computes measurement results against one bound state vector.
// It is stateless apart from its bindings and is discarded after the run.
type Measurements struct {
	vec       state.Vector
	engine    backend.Engine
	precision state.Precision
}

// New binds the precision-matched backend variant to a vector. An
// unsupported precision tag fails here, at construction, never lazily.
func New(vec state.Vector) (*Measurements, error) {
	if !vec.Precision().Valid() {
		return nil, wrapError("new", ErrPrecisionMismatch)
	}
	eng, err := backend.For(vec)
	if err != nil {
		return nil, wrapError("new", err)
	}
	return NewWithEngine(vec, eng)
}

// NewWithEngine binds an explicitly injected backend engine. The engine and
// vector precision tags must agree; this is checked once here and never
// rechecked per call.
func NewWithEngine(vec state.Vector, eng backend.Engine) (*Measurements, error) {
	if !vec.Precision().Valid() || eng.Precision() != vec.Precision() {
		return nil, wrapError("new", ErrPrecisionMismatch)
	}
	return &Measurements{vec: vec, engine: eng, precision: vec.Precision()}, nil
}

// Precision returns the engine's bound precision.
func (m *Measurements) Precision() state.Precision { return m.precision }

// path identifies which computation path dispatch selected.
type path uint8

const (
	pathFallback path = iota + 1
	pathExpval
)

// measurementFunc decides the computation path for a request. Precedence,
// first match wins:
//
//  1. expectation of an Identity/Projector observable -> fallback; their
//     closed forms are degenerate and basis rotation is cheaper and robust
//  2. any other expectation -> expectation path
//  3. state measurement with no observable, or with a diagonalizable
//     observable -> fallback
//  4. anything else -> dispatch failure
func (m *Measurements) measurementFunc(p *Process) (func(*Process) (any, error), path, error) {
	if p.isStateMeasurement() {
		if p.kind == KindExpectation && p.obs != nil {
			if p.obs.Kind() == observable.KindDiagonalizing {
				return m.stateDiagonalizing, pathFallback, nil
			}
			return m.expval, pathExpval, nil
		}
		if p.kind != KindExpectation && (p.obs == nil || p.obs.HasDiagonalizingGates()) {
			return m.stateDiagonalizing, pathFallback, nil
		}
	}
	return nil, 0, wrapError("dispatch", ErrDispatchFailure)
}

// expval routes an expectation request to the backend primitive matching the
// observable's kind. All three sub-paths are read-only on the state.
func (m *Measurements) expval(p *Process) (any, error) {
	obs := p.obs
	switch obs.Kind() {
	case observable.KindSparse:
		c := obs.Sparse()
		return m.engine.ExpvalSparse(c.RowPtr, c.ColIdx, c.Values)

	case observable.KindComposite:
		// Serialization cost buys support for arbitrary algebraic
		// combinations.
		d, err := observable.Serialize(obs)
		if err != nil {
			return nil, err
		}
		return m.engine.ExpvalDescriptor(d)

	default:
		return m.engine.Expval(obs.Name(), obs.Wires())
	}
}

// stateDiagonalizing rotates the state into the observable's eigenbasis in
// place (a raw-state request is already diagonal), then hands the amplitude
// buffer to the request's own reduction. The wire count is inferred from the
// buffer size and the ordering is canonical ascending.
func (m *Measurements) stateDiagonalizing(p *Process) (any, error) {
	if err := m.vec.ApplyOperations(p.DiagonalizingGates()); err != nil {
		return nil, err
	}
	amps := m.vec.Amplitudes()
	wires := bits.Len(uint(len(amps))) - 1
	order := make([]int, wires)
	for i := range order {
		order[i] = i
	}
	return p.ProcessState(amps, order)
}

// Measure applies a single measurement request to the state.
func (m *Measurements) Measure(p *Process) (any, error) {
	fn, _, err := m.measurementFunc(p)
	if err != nil {
		return nil, err
	}
	return fn(p)
}

// MeasureFinalState performs a circuit's measurements against the bound
// state. Shots are rejected before any computation path runs. A single
// request returns its bare result; multiple requests return an ordered
// slice preserving request order, each computed independently. An empty
// request list is treated as a dispatch failure rather than an empty
// result set; a circuit without measurements is a contract violation here.
func (m *Measurements) MeasureFinalState(shots int, processes []*Process) (any, error) {
	if shots > 0 {
		return nil, wrapError("measure", ErrUnsupportedMeasurementMode)
	}
	if len(processes) == 0 {
		return nil, wrapError("measure", fmt.Errorf("%w: empty measurement list", ErrDispatchFailure))
	}
	if len(processes) == 1 {
		return m.Measure(processes[0])
	}
	out := make([]any, len(processes))
	for i, p := range processes {
		r, err := m.Measure(p)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}
