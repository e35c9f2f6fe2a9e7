// Package gate defines the circuit operation value type shared by the state
// vector engine, observables and the circuit runner.
package gate

import "fmt"

// Operation is a single gate application: a named gate, the wires it acts on,
// and any rotation parameters. Wire 0 is the most significant bit of a basis
// state index. Matrix is set only for Unitary operations; it is not part of
// the JSON circuit format.
type Operation struct {
	Name   string       `json:"name"`
	Wires  []int        `json:"wires"`
	Params []float64    `json:"params,omitempty"`
	Matrix []complex128 `json:"-"`
}

// Supported gate names. The state vector engine rejects anything else.
const (
	Hadamard   = "Hadamard"
	PauliX     = "PauliX"
	PauliY     = "PauliY"
	PauliZ     = "PauliZ"
	S          = "S"
	Sdg        = "Sdg"
	T          = "T"
	Tdg        = "Tdg"
	RX         = "RX"
	RY         = "RY"
	RZ         = "RZ"
	PhaseShift = "PhaseShift"
	CNOT       = "CNOT"
	CZ         = "CZ"
	SWAP       = "SWAP"
	Unitary    = "QubitUnitary"
)

// New constructs an operation without parameters.
func New(name string, wires ...int) Operation {
	return Operation{Name: name, Wires: wires}
}

// NewParam constructs a parameterized operation.
func NewParam(name string, param float64, wires ...int) Operation {
	return Operation{Name: name, Wires: wires, Params: []float64{param}}
}

// NewUnitary constructs a matrix-backed operation. matrix is row-major with
// dimension 2^len(wires); the first wire is the most significant bit of the
// sub-block index.
func NewUnitary(matrix []complex128, wires ...int) Operation {
	return Operation{Name: Unitary, Wires: wires, Matrix: matrix}
}

// Arity returns how many wires the named gate acts on, or an error for an
// unknown gate name.
func Arity(name string) (int, error) {
	switch name {
	case Hadamard, PauliX, PauliY, PauliZ, S, Sdg, T, Tdg, RX, RY, RZ, PhaseShift:
		return 1, nil
	case CNOT, CZ, SWAP:
		return 2, nil
	default:
		return 0, fmt.Errorf("unknown gate %q", name)
	}
}

// Validate checks the operation against the known gate set and its arity. A
// Unitary operation has no fixed arity; its matrix must instead match its
// wire count.
func (op Operation) Validate() error {
	if op.Name == Unitary {
		if len(op.Wires) == 0 {
			return fmt.Errorf("gate %s needs at least one wire", op.Name)
		}
		dim := 1 << len(op.Wires)
		if len(op.Matrix) != dim*dim {
			return fmt.Errorf("gate %s matrix has %d entries, want %d", op.Name, len(op.Matrix), dim*dim)
		}
	} else {
		n, err := Arity(op.Name)
		if err != nil {
			return err
		}
		if len(op.Wires) != n {
			return fmt.Errorf("gate %s acts on %d wires, got %d", op.Name, n, len(op.Wires))
		}
	}
	for _, w := range op.Wires {
		if w < 0 {
			return fmt.Errorf("gate %s: negative wire %d", op.Name, w)
		}
	}
	return nil
}

func (op Operation) String() string {
	if len(op.Params) > 0 {
		return fmt.Sprintf("%s(%v)%v", op.Name, op.Params, op.Wires)
	}
	return fmt.Sprintf("%s%v", op.Name, op.Wires)
}
