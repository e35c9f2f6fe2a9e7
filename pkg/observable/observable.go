// Package observable models the operators whose statistics are measured
// against a simulated state.
//
// Every observable carries a Kind resolved once at construction. The
// measurement engine dispatches on that single discriminant instead of
// re-deriving the shape from names or properties at each call site.
package observable

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/photonq/lumen/pkg/gate"
)

// Kind classifies how an observable's statistics are computed.
type Kind uint8

const (
	// KindSimple is an atomic named operator with a closed-form expectation
	// (PauliX, PauliY, PauliZ, Hadamard).
	KindSimple Kind = iota + 1
	// KindSparse is a Hamiltonian in compressed-row form.
	KindSparse
	// KindComposite is an algebraic combination of operators or a dense
	// Hermitian matrix; it is serialized before the backend sees it.
	KindComposite
	// KindDiagonalizing has a degenerate or ill-conditioned closed form
	// (Identity, Projector) and is always evaluated via basis rotation.
	KindDiagonalizing
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindSparse:
		return "sparse"
	case KindComposite:
		return "composite"
	case KindDiagonalizing:
		return "diagonalizing"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Observable is an immutable operator description. Construct through the
// package functions; the zero value is not valid.
type Observable struct {
	name  string
	kind  Kind
	wires []int
	depth int

	coeff    float64       // SProd scale
	coeffs   []float64     // Hamiltonian term coefficients
	operands []*Observable // children of a combination
	matrix   *mat.CDense   // Hermitian block
	eigvals  []float64     // Hermitian eigenvalues, ascending
	rot      []complex128  // Hermitian diagonalizing rotation, row-major
	sparse   *CSR          // SparseHamiltonian payload
	basis    []int         // Projector basis assignment, one bit per wire
}

// Name returns the operator name tag ("PauliZ", "Hamiltonian", ...).
func (o *Observable) Name() string { return o.name }

// Kind returns the computation-path discriminant.
func (o *Observable) Kind() Kind { return o.kind }

// Wires returns the wires the observable acts on, in declaration order.
func (o *Observable) Wires() []int { return o.wires }

// ArithmeticDepth is 0 for atomic operators and grows with each algebraic
// combination.
func (o *Observable) ArithmeticDepth() int { return o.depth }

// Sparse returns the CSR payload of a SparseHamiltonian, or nil.
func (o *Observable) Sparse() *CSR { return o.sparse }

// Matrix returns the dense Hermitian block, or nil.
func (o *Observable) Matrix() *mat.CDense { return o.matrix }

// Basis returns a Projector's basis assignment, or nil.
func (o *Observable) Basis() []int { return o.basis }

// Operands returns the children of an algebraic combination.
func (o *Observable) Operands() []*Observable { return o.operands }

// Coeffs returns a Hamiltonian's term coefficients.
func (o *Observable) Coeffs() []float64 { return o.coeffs }

// Coeff returns an SProd's scalar, 1 otherwise.
func (o *Observable) Coeff() float64 {
	if o.name == "SProd" {
		return o.coeff
	}
	return 1
}

func (o *Observable) String() string {
	return fmt.Sprintf("%s%v", o.name, o.wires)
}

// PauliX returns the Pauli X operator on a wire.
func PauliX(wire int) *Observable {
	return &Observable{name: gate.PauliX, kind: KindSimple, wires: []int{wire}}
}

// PauliY returns the Pauli Y operator on a wire.
func PauliY(wire int) *Observable {
	return &Observable{name: gate.PauliY, kind: KindSimple, wires: []int{wire}}
}

// PauliZ returns the Pauli Z operator on a wire.
func PauliZ(wire int) *Observable {
	return &Observable{name: gate.PauliZ, kind: KindSimple, wires: []int{wire}}
}

// Hadamard returns the Hadamard operator on a wire.
func Hadamard(wire int) *Observable {
	return &Observable{name: gate.Hadamard, kind: KindSimple, wires: []int{wire}}
}

// Identity returns the identity operator on the given wires.
func Identity(wires ...int) *Observable {
	if len(wires) == 0 {
		wires = []int{0}
	}
	return &Observable{name: "Identity", kind: KindDiagonalizing, wires: wires}
}

// Projector returns the projector onto a computational basis assignment of
// the given wires. basis holds one 0/1 value per wire.
func Projector(basis []int, wires []int) (*Observable, error) {
	if len(basis) != len(wires) {
		return nil, fmt.Errorf("observable: projector basis length %d != wire count %d", len(basis), len(wires))
	}
	if len(wires) == 0 {
		return nil, fmt.Errorf("observable: projector needs at least one wire")
	}
	for _, b := range basis {
		if b != 0 && b != 1 {
			return nil, fmt.Errorf("observable: projector basis values must be 0 or 1, got %d", b)
		}
	}
	return &Observable{name: "Projector", kind: KindDiagonalizing, wires: wires, basis: basis}, nil
}

// Hermitian returns an observable backed by a dense Hermitian matrix acting
// on the given wires.
func Hermitian(m *mat.CDense, wires []int) (*Observable, error) {
	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("observable: hermitian matrix must be square, got %dx%d", r, c)
	}
	if len(wires) == 0 || r != 1<<len(wires) {
		return nil, fmt.Errorf("observable: hermitian dimension %d does not match %d wires", r, len(wires))
	}
	for i := 0; i < r; i++ {
		for j := i; j < c; j++ {
			if cmplx.Abs(m.At(i, j)-cmplx.Conj(m.At(j, i))) > 1e-8 {
				return nil, fmt.Errorf("observable: matrix is not hermitian at (%d,%d)", i, j)
			}
		}
	}
	// Eigendecompose once here so the diagonalizing fallback and the
	// eigenvalue reduction are available without per-measurement work.
	eigvals, rot, err := eigh(m)
	if err != nil {
		return nil, err
	}
	return &Observable{
		name:    "Hermitian",
		kind:    KindComposite,
		wires:   wires,
		matrix:  m,
		eigvals: eigvals,
		rot:     rot,
	}, nil
}

// Hamiltonian returns a weighted sum of observables.
func Hamiltonian(coeffs []float64, terms []*Observable) (*Observable, error) {
	if len(coeffs) != len(terms) {
		return nil, fmt.Errorf("observable: %d coefficients for %d terms", len(coeffs), len(terms))
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("observable: empty hamiltonian")
	}
	return &Observable{
		name:     "Hamiltonian",
		kind:     KindComposite,
		wires:    unionWires(terms),
		coeffs:   coeffs,
		operands: terms,
	}, nil
}

// SparseHamiltonian returns an observable backed by a CSR matrix over the
// given wires. The matrix dimension must be 2^len(wires); this is validated
// here rather than delegated to the backend.
func SparseHamiltonian(c *CSR, wires []int) (*Observable, error) {
	if len(wires) == 0 || c.Dim != 1<<len(wires) {
		return nil, fmt.Errorf("observable: sparse dimension %d does not match %d wires", c.Dim, len(wires))
	}
	return &Observable{name: "SparseHamiltonian", kind: KindSparse, wires: wires, sparse: c}, nil
}

// Sum returns the sum of observables as a composite.
func Sum(ops ...*Observable) *Observable {
	return combine("Sum", ops)
}

// Prod returns the product of observables as a composite. Factors are
// applied right to left, matching operator composition.
func Prod(ops ...*Observable) *Observable {
	return combine("Prod", ops)
}

// SProd scales an observable by a real coefficient.
func SProd(scalar float64, op *Observable) *Observable {
	o := combine("SProd", []*Observable{op})
	o.coeff = scalar
	return o
}

func combine(name string, ops []*Observable) *Observable {
	depth := 0
	for _, op := range ops {
		if op.depth >= depth {
			depth = op.depth + 1
		}
	}
	return &Observable{
		name:     name,
		kind:     KindComposite,
		wires:    unionWires(ops),
		depth:    depth,
		operands: ops,
	}
}

func unionWires(ops []*Observable) []int {
	seen := map[int]bool{}
	var wires []int
	for _, op := range ops {
		for _, w := range op.wires {
			if !seen[w] {
				seen[w] = true
				wires = append(wires, w)
			}
		}
	}
	sort.Ints(wires)
	return wires
}

// HasDiagonalizingGates reports whether the observable can be rotated into
// the computational basis by a known gate sequence. Hermitian observables
// qualify through their eigendecomposition even though their expectation
// goes through the serialized path.
func (o *Observable) HasDiagonalizingGates() bool {
	switch o.kind {
	case KindSimple, KindDiagonalizing:
		return true
	default:
		return o.name == "Hermitian"
	}
}

// DiagonalizingGates returns the gate sequence that rotates the state into
// the observable's eigenbasis. Empty for operators already diagonal in the
// computational basis.
func (o *Observable) DiagonalizingGates() []gate.Operation {
	switch o.name {
	case gate.PauliX:
		return []gate.Operation{gate.New(gate.Hadamard, o.wires[0])}
	case gate.PauliY:
		return []gate.Operation{
			gate.New(gate.PauliZ, o.wires[0]),
			gate.New(gate.S, o.wires[0]),
			gate.New(gate.Hadamard, o.wires[0]),
		}
	case gate.Hadamard:
		return []gate.Operation{gate.NewParam(gate.RY, -math.Pi/4, o.wires[0])}
	case "Hermitian":
		return []gate.Operation{gate.NewUnitary(o.rot, o.wires...)}
	default:
		// PauliZ, Identity and Projector are diagonal already.
		return nil
	}
}

// DiagonalEigenvalues returns the observable's eigenvalues in the rotated
// computational basis over its wires, index-ordered by the wires' bits. The
// second return is false for observables without a known diagonal form.
func (o *Observable) DiagonalEigenvalues() ([]float64, bool) {
	switch o.name {
	case gate.PauliX, gate.PauliY, gate.PauliZ, gate.Hadamard:
		return []float64{1, -1}, true
	case "Identity":
		ev := make([]float64, 1<<len(o.wires))
		for i := range ev {
			ev[i] = 1
		}
		return ev, true
	case "Projector":
		ev := make([]float64, 1<<len(o.wires))
		idx := 0
		for _, b := range o.basis {
			idx = idx<<1 | b
		}
		ev[idx] = 1
		return ev, true
	case "Hermitian":
		return o.eigvals, true
	default:
		return nil, false
	}
}
