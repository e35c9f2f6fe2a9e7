package measure

import (
	"fmt"

	"github.com/photonq/lumen/pkg/gate"
	"github.com/photonq/lumen/pkg/observable"
)

// ProcessKind tags what a measurement request asks for.
type ProcessKind uint8

const (
	// KindExpectation asks for <psi|O|psi>.
	KindExpectation ProcessKind = iota + 1
	// KindVariance asks for <O^2> - <O>^2.
	KindVariance
	// KindProbability asks for computational-basis probabilities over a
	// wire subset.
	KindProbability
	// KindState asks for the raw amplitude vector.
	KindState
	// KindSample asks for finite samples. It is not a state measurement
	// and is always rejected by dispatch.
	KindSample
)

func (k ProcessKind) String() string {
	switch k {
	case KindExpectation:
		return "expval"
	case KindVariance:
		return "var"
	case KindProbability:
		return "probs"
	case KindState:
		return "state"
	case KindSample:
		return "sample"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Process is a single measurement request: a kind, optionally an observable,
// and its own state reduction used by the fallback path.
type Process struct {
	kind  ProcessKind
	obs   *observable.Observable
	wires []int // probability target wires; nil means the observable's or all
}

// Expectation requests the expectation value of an observable.
func Expectation(obs *observable.Observable) *Process {
	return &Process{kind: KindExpectation, obs: obs}
}

// Variance requests the variance of an observable.
func Variance(obs *observable.Observable) *Process {
	return &Process{kind: KindVariance, obs: obs}
}

// Probability requests marginal computational-basis probabilities. With no
// wires, all wires are reported.
func Probability(wires ...int) *Process {
	return &Process{kind: KindProbability, wires: wires}
}

// State requests the raw amplitude vector.
func State() *Process {
	return &Process{kind: KindState}
}

// Sample requests finite-sample measurement. The engine rejects it; the
// constructor exists so callers can express the request and observe the
// rejection.
func Sample(obs *observable.Observable) *Process {
	return &Process{kind: KindSample, obs: obs}
}

// Kind returns the request kind tag.
func (p *Process) Kind() ProcessKind { return p.kind }

// Observable returns the targeted observable, or nil for raw-state requests.
func (p *Process) Observable() *observable.Observable { return p.obs }

// RequestedWires returns the explicitly requested probability wires, if any.
func (p *Process) RequestedWires() []int { return p.wires }

// isStateMeasurement reports whether the request reads the (possibly
// rotated) state vector rather than sampling it.
func (p *Process) isStateMeasurement() bool {
	return p.kind != KindSample
}

// DiagonalizingGates returns the observable's diagonalizing sequence, or
// nothing when the raw state is already the measurement basis.
func (p *Process) DiagonalizingGates() []gate.Operation {
	if p.obs == nil {
		return nil
	}
	return p.obs.DiagonalizingGates()
}

// ProcessState reduces a diagonalized amplitude buffer to the request's
// result. wireOrder is the canonical ascending ordering of all wires.
func (p *Process) ProcessState(amps []complex128, wireOrder []int) (any, error) {
	switch p.kind {
	case KindState:
		out := make([]complex128, len(amps))
		copy(out, amps)
		return out, nil

	case KindProbability:
		target := p.targetWires(wireOrder)
		if err := checkTargetWires(target, len(wireOrder)); err != nil {
			return nil, err
		}
		return marginalProbs(amps, wireOrder, target), nil

	case KindExpectation, KindVariance:
		if p.obs == nil {
			return nil, fmt.Errorf("measure: %s without an observable", p.kind)
		}
		ev, ok := p.obs.DiagonalEigenvalues()
		if !ok {
			return nil, fmt.Errorf("measure: %s has no diagonal form", p.obs.Name())
		}
		if err := checkTargetWires(p.obs.Wires(), len(wireOrder)); err != nil {
			return nil, err
		}
		probs := marginalProbs(amps, wireOrder, p.obs.Wires())
		var mean, meanSq float64
		for i, q := range probs {
			mean += ev[i] * q
			meanSq += ev[i] * ev[i] * q
		}
		if p.kind == KindVariance {
			return meanSq - mean*mean, nil
		}
		return mean, nil

	default:
		return nil, fmt.Errorf("measure: %s cannot reduce a state", p.kind)
	}
}

// checkTargetWires rejects wires outside the register before they reach the
// marginal index arithmetic.
func checkTargetWires(wires []int, n int) error {
	for _, w := range wires {
		if w < 0 || w >= n {
			return fmt.Errorf("measure: wire %d out of range for %d wires", w, n)
		}
	}
	return nil
}

func (p *Process) targetWires(wireOrder []int) []int {
	if len(p.wires) > 0 {
		return p.wires
	}
	if p.obs != nil && len(p.obs.Wires()) > 0 {
		return p.obs.Wires()
	}
	return wireOrder
}

// marginalProbs sums |amp|^2 over all wires outside the target subset. The
// output index orders the target wires as given, first wire most
// significant.
func marginalProbs(amps []complex128, wireOrder, target []int) []float64 {
	n := len(wireOrder)
	out := make([]float64, 1<<len(target))
	for i, a := range amps {
		pr := real(a)*real(a) + imag(a)*imag(a)
		idx := 0
		for _, w := range target {
			bit := (i >> (n - 1 - w)) & 1
			idx = idx<<1 | bit
		}
		out[idx] += pr
	}
	return out
}
