package measure

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/photonq/lumen/pkg/backend"
	"github.com/photonq/lumen/pkg/gate"
	"github.com/photonq/lumen/pkg/observable"
	"github.com/photonq/lumen/pkg/state"
)

// countingEngine records every backend primitive invocation.
type countingEngine struct {
	precision   state.Precision
	named       int
	sparse      int
	descriptor  int
	namedResult float64
}

func (e *countingEngine) Precision() state.Precision { return e.precision }

func (e *countingEngine) Expval(name string, wires []int) (float64, error) {
	e.named++
	return e.namedResult, nil
}

func (e *countingEngine) ExpvalSparse(rowPtr, colIdx []int, values []complex128) (float64, error) {
	e.sparse++
	return 0, nil
}

func (e *countingEngine) ExpvalDescriptor(d *observable.Descriptor) (float64, error) {
	e.descriptor++
	return 0, nil
}

func (e *countingEngine) calls() int { return e.named + e.sparse + e.descriptor }

func newVector(t *testing.T, p state.Precision, wires int, ops ...gate.Operation) state.Vector {
	t.Helper()
	v, err := state.New(p, wires)
	if err != nil {
		t.Fatalf("state.New: %v", err)
	}
	if err := v.ApplyOperations(ops); err != nil {
		t.Fatalf("ApplyOperations: %v", err)
	}
	return v
}

func mustMeasurements(t *testing.T, v state.Vector) *Measurements {
	t.Helper()
	m, err := New(v)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func mustProjector(t *testing.T, basis, wires []int) *observable.Observable {
	t.Helper()
	p, err := observable.Projector(basis, wires)
	if err != nil {
		t.Fatalf("Projector: %v", err)
	}
	return p
}

func TestConstruction(t *testing.T) {
	v := newVector(t, state.Double, 1)
	m := mustMeasurements(t, v)
	if m.Precision() != state.Double {
		t.Errorf("precision = %s, want double", m.Precision())
	}

	// An injected engine must carry the vector's precision tag.
	if _, err := NewWithEngine(v, &countingEngine{precision: state.Single}); !errors.Is(err, ErrPrecisionMismatch) {
		t.Errorf("err = %v, want ErrPrecisionMismatch", err)
	}
	if _, err := NewWithEngine(v, &countingEngine{precision: state.Double}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDispatchTable(t *testing.T) {
	hamiltonian, err := observable.Hamiltonian([]float64{1}, []*observable.Observable{observable.PauliZ(0)})
	if err != nil {
		t.Fatalf("Hamiltonian: %v", err)
	}
	csr, err := observable.NewCSR(2, []int{0, 1, 2}, []int{1, 0}, []complex128{1, 1})
	if err != nil {
		t.Fatalf("NewCSR: %v", err)
	}
	sparse, err := observable.SparseHamiltonian(csr, []int{0})
	if err != nil {
		t.Fatalf("SparseHamiltonian: %v", err)
	}
	hermitian, err := observable.Hermitian(mat.NewCDense(2, 2, []complex128{0, 1, 1, 0}), []int{0})
	if err != nil {
		t.Fatalf("Hermitian: %v", err)
	}

	tests := []struct {
		name       string
		process    *Process
		wantPath   path
		shouldFail bool
	}{
		{name: "expval of identity goes fallback", process: Expectation(observable.Identity(0)), wantPath: pathFallback},
		{name: "expval of projector goes fallback", process: Expectation(mustProjector(t, []int{0}, []int{0})), wantPath: pathFallback},
		{name: "expval of pauli goes expval", process: Expectation(observable.PauliZ(0)), wantPath: pathExpval},
		{name: "expval of hamiltonian goes expval", process: Expectation(hamiltonian), wantPath: pathExpval},
		{name: "expval of sparse goes expval", process: Expectation(sparse), wantPath: pathExpval},
		{name: "expval of hermitian goes expval", process: Expectation(hermitian), wantPath: pathExpval},
		{name: "variance of hermitian goes fallback", process: Variance(hermitian), wantPath: pathFallback},
		{name: "raw state goes fallback", process: State(), wantPath: pathFallback},
		{name: "probability goes fallback", process: Probability(), wantPath: pathFallback},
		{name: "variance of pauli goes fallback", process: Variance(observable.PauliX(0)), wantPath: pathFallback},
		{name: "expval without observable fails", process: Expectation(nil), shouldFail: true},
		{name: "variance of a composite fails", process: Variance(hamiltonian), shouldFail: true},
		{name: "sample fails", process: Sample(observable.PauliZ(0)), shouldFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustMeasurements(t, newVector(t, state.Double, 1))
			fn, got, err := m.measurementFunc(tt.process)
			if tt.shouldFail {
				if !errors.Is(err, ErrDispatchFailure) {
					t.Fatalf("err = %v, want ErrDispatchFailure", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fn == nil {
				t.Fatal("no measurement function returned")
			}
			if got != tt.wantPath {
				t.Errorf("path = %d, want %d", got, tt.wantPath)
			}
		})
	}
}

func TestExpvalRouting(t *testing.T) {
	csr, err := observable.NewCSR(2, []int{0, 1, 2}, []int{1, 0}, []complex128{1, 1})
	if err != nil {
		t.Fatalf("NewCSR: %v", err)
	}
	sparse, err := observable.SparseHamiltonian(csr, []int{0})
	if err != nil {
		t.Fatalf("SparseHamiltonian: %v", err)
	}
	hamiltonian, err := observable.Hamiltonian([]float64{2}, []*observable.Observable{observable.PauliZ(0)})
	if err != nil {
		t.Fatalf("Hamiltonian: %v", err)
	}

	tests := []struct {
		name  string
		obs   *observable.Observable
		check func(*countingEngine) bool
	}{
		{
			name:  "named operator uses the closed-form primitive",
			obs:   observable.PauliZ(0),
			check: func(e *countingEngine) bool { return e.named == 1 && e.calls() == 1 },
		},
		{
			name:  "sparse uses the sparse primitive",
			obs:   sparse,
			check: func(e *countingEngine) bool { return e.sparse == 1 && e.calls() == 1 },
		},
		{
			name:  "hamiltonian serializes to the descriptor primitive",
			obs:   hamiltonian,
			check: func(e *countingEngine) bool { return e.descriptor == 1 && e.calls() == 1 },
		},
		{
			name:  "nested composite serializes to the descriptor primitive",
			obs:   observable.SProd(0.5, observable.Prod(observable.PauliX(0), observable.PauliZ(1))),
			check: func(e *countingEngine) bool { return e.descriptor == 1 && e.calls() == 1 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &countingEngine{precision: state.Double}
			m, err := NewWithEngine(newVector(t, state.Double, 2), eng)
			if err != nil {
				t.Fatalf("NewWithEngine: %v", err)
			}
			if _, err := m.Measure(Expectation(tt.obs)); err != nil {
				t.Fatalf("Measure: %v", err)
			}
			if !tt.check(eng) {
				t.Errorf("primitive counts: named=%d sparse=%d descriptor=%d", eng.named, eng.sparse, eng.descriptor)
			}
		})
	}
}

func TestFallbackObservables(t *testing.T) {
	// Identity and projector expectations run through basis rotation and must
	// match their analytic values on a bell state.
	bell := []gate.Operation{
		gate.New(gate.Hadamard, 0),
		gate.New(gate.CNOT, 0, 1),
	}

	tests := []struct {
		name string
		obs  *observable.Observable
		want float64
	}{
		{name: "identity", obs: observable.Identity(0), want: 1},
		{name: "projector on |00>", obs: mustProjector(t, []int{0, 0}, []int{0, 1}), want: 0.5},
		{name: "projector on |01>", obs: mustProjector(t, []int{0, 1}, []int{0, 1}), want: 0},
		{name: "projector on |11>", obs: mustProjector(t, []int{1, 1}, []int{0, 1}), want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustMeasurements(t, newVector(t, state.Double, 2, bell...))
			got, err := m.Measure(Expectation(tt.obs))
			if err != nil {
				t.Fatalf("Measure: %v", err)
			}
			if math.Abs(got.(float64)-tt.want) > 1e-9 {
				t.Errorf("expectation = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFallbackWireRange(t *testing.T) {
	// Wires outside the register must come back as errors from the fallback
	// reduction, not reach the marginal bit arithmetic.
	tests := []struct {
		name    string
		wires   int
		process *Process
	}{
		{name: "probability wire past the register", wires: 1, process: Probability(5)},
		{name: "projector wire past the register", wires: 2, process: Expectation(mustProjector(t, []int{1}, []int{5}))},
		{name: "variance wire past the register", wires: 2, process: Variance(observable.PauliZ(5))},
		{name: "negative probability wire", wires: 2, process: Probability(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustMeasurements(t, newVector(t, state.Double, tt.wires))
			if _, err := m.Measure(tt.process); err == nil {
				t.Fatal("expected error for out-of-range wire")
			}
		})
	}
}

func TestHermitianFallback(t *testing.T) {
	// A dense Hermitian block has no closed-form variance; the fallback
	// rotates into its eigenbasis instead. With the X matrix the variance is
	// 1 on |0> and 0 on |+>.
	xMatrix := mat.NewCDense(2, 2, []complex128{0, 1, 1, 0})

	tests := []struct {
		name string
		ops  []gate.Operation
		want float64
	}{
		{name: "variance on |0>", ops: nil, want: 1},
		{name: "variance on |+>", ops: []gate.Operation{gate.New(gate.Hadamard, 0)}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := observable.Hermitian(xMatrix, []int{0})
			if err != nil {
				t.Fatalf("Hermitian: %v", err)
			}
			m := mustMeasurements(t, newVector(t, state.Double, 1, tt.ops...))
			got, err := m.Measure(Variance(obs))
			if err != nil {
				t.Fatalf("Measure: %v", err)
			}
			if math.Abs(got.(float64)-tt.want) > 1e-9 {
				t.Errorf("variance = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFallbackRotatesForPauliX(t *testing.T) {
	// <X> on |+> through the variance/fallback machinery: the fallback
	// rotates with Hadamard first, so the variance of X on |+> is 0.
	plus := newVector(t, state.Double, 1, gate.New(gate.Hadamard, 0))
	m := mustMeasurements(t, plus)
	got, err := m.Measure(Variance(observable.PauliX(0)))
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if math.Abs(got.(float64)) > 1e-9 {
		t.Errorf("var(X) on |+> = %v, want 0", got)
	}
}

func TestFallbackMutationHazard(t *testing.T) {
	// The fallback rotates the shared vector in place. Two consecutive
	// fallback measurements therefore compose: the second probability read
	// sees the rotation left behind by the first variance request.
	ops := []gate.Operation{gate.New(gate.Hadamard, 0)}

	fresh := mustMeasurements(t, newVector(t, state.Double, 1, ops...))
	clean, err := fresh.Measure(Probability(0))
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	cleanProbs := clean.([]float64)
	if math.Abs(cleanProbs[0]-0.5) > 1e-9 {
		t.Fatalf("probs on |+> = %v, want [0.5 0.5]", cleanProbs)
	}

	shared := newVector(t, state.Double, 1, ops...)
	m := mustMeasurements(t, shared)
	if _, err := m.Measure(Variance(observable.PauliX(0))); err != nil {
		t.Fatalf("Measure: %v", err)
	}
	dirty, err := m.Measure(Probability(0))
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	dirtyProbs := dirty.([]float64)
	// After the X diagonalization |+> collapsed to |0>, so the second read
	// differs from the fresh-state read.
	if math.Abs(dirtyProbs[0]-1) > 1e-9 {
		t.Errorf("probs after a fallback measurement = %v, want [1 0]", dirtyProbs)
	}
}

func TestMeasureFinalStateShotsRejected(t *testing.T) {
	eng := &countingEngine{precision: state.Double}
	m, err := NewWithEngine(newVector(t, state.Double, 1), eng)
	if err != nil {
		t.Fatalf("NewWithEngine: %v", err)
	}
	_, err = m.MeasureFinalState(100, []*Process{Expectation(observable.PauliZ(0))})
	if !errors.Is(err, ErrUnsupportedMeasurementMode) {
		t.Fatalf("err = %v, want ErrUnsupportedMeasurementMode", err)
	}
	// The rejection happens before any backend primitive runs.
	if eng.calls() != 0 {
		t.Errorf("backend primitives ran %d times, want 0", eng.calls())
	}
}

func TestMeasureFinalStateEmpty(t *testing.T) {
	m := mustMeasurements(t, newVector(t, state.Double, 1))
	if _, err := m.MeasureFinalState(0, nil); !errors.Is(err, ErrDispatchFailure) {
		t.Errorf("err = %v, want ErrDispatchFailure", err)
	}
}

func TestMeasureFinalStateSingle(t *testing.T) {
	// One measurement returns its bare result, not a one-element slice.
	m := mustMeasurements(t, newVector(t, state.Double, 1))
	got, err := m.MeasureFinalState(0, []*Process{Expectation(observable.PauliZ(0))})
	if err != nil {
		t.Fatalf("MeasureFinalState: %v", err)
	}
	v, ok := got.(float64)
	if !ok {
		t.Fatalf("result type = %T, want float64", got)
	}
	if math.Abs(v-1) > 1e-9 {
		t.Errorf("result = %v, want 1", v)
	}
}

func TestMeasureFinalStateOrdering(t *testing.T) {
	eng := &countingEngine{precision: state.Double, namedResult: 0.75}
	m, err := NewWithEngine(newVector(t, state.Double, 2), eng)
	if err != nil {
		t.Fatalf("NewWithEngine: %v", err)
	}
	got, err := m.MeasureFinalState(0, []*Process{
		Expectation(observable.PauliZ(0)),
		State(),
		Expectation(observable.PauliX(1)),
	})
	if err != nil {
		t.Fatalf("MeasureFinalState: %v", err)
	}
	results, ok := got.([]any)
	if !ok {
		t.Fatalf("result type = %T, want []any", got)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if v := results[0].(float64); v != 0.75 {
		t.Errorf("results[0] = %v, want 0.75", v)
	}
	if _, ok := results[1].([]complex128); !ok {
		t.Errorf("results[1] type = %T, want []complex128", results[1])
	}
	if v := results[2].(float64); v != 0.75 {
		t.Errorf("results[2] = %v, want 0.75", v)
	}
	if eng.named != 2 {
		t.Errorf("named primitive ran %d times, want 2", eng.named)
	}
}

func TestMeasureFinalStateEndToEnd(t *testing.T) {
	// A bell state measured for <Z0>, probabilities and the raw state.
	for _, p := range []state.Precision{state.Single, state.Double} {
		t.Run(p.String(), func(t *testing.T) {
			v := newVector(t, p, 2,
				gate.New(gate.Hadamard, 0),
				gate.New(gate.CNOT, 0, 1),
			)
			m := mustMeasurements(t, v)
			got, err := m.MeasureFinalState(0, []*Process{
				Expectation(observable.PauliZ(0)),
				Probability(),
			})
			if err != nil {
				t.Fatalf("MeasureFinalState: %v", err)
			}
			tol := 1e-9
			if p == state.Single {
				tol = 1e-6
			}
			results := got.([]any)
			if z := results[0].(float64); math.Abs(z) > tol {
				t.Errorf("<Z0> = %v, want 0", z)
			}
			probs := results[1].([]float64)
			want := []float64{0.5, 0, 0, 0.5}
			for i := range want {
				if math.Abs(probs[i]-want[i]) > tol {
					t.Errorf("probs[%d] = %v, want %v", i, probs[i], want[i])
				}
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	err := wrapError("dispatch", ErrDispatchFailure)
	var me *MeasureError
	if !errors.As(err, &me) {
		t.Fatalf("err type = %T, want *MeasureError", err)
	}
	if me.Op != "dispatch" {
		t.Errorf("op = %q, want dispatch", me.Op)
	}
	if !errors.Is(err, ErrDispatchFailure) {
		t.Error("wrapped error must match its sentinel")
	}
	if wrapError("x", nil) != nil {
		t.Error("wrapping nil must stay nil")
	}
}

var _ backend.Engine = (*countingEngine)(nil)
