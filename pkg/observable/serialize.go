package observable

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Factor is a single named one-wire operator inside a product term.
type Factor struct {
	Name string
	Wire int
}

// Term is one weighted product in a flattened observable: named factors in
// application order (first applied first), optionally one dense block.
type Term struct {
	Coeff       float64
	Factors     []Factor
	Matrix      *mat.CDense
	MatrixWires []int
}

// Descriptor is the backend-consumable form of a composite observable: a
// flat weighted sum of product terms.
type Descriptor struct {
	Terms []Term
}

// Serialize flattens an observable tree into a Descriptor. Sparse
// Hamiltonians cannot be nested inside combinations; they have their own
// backend primitive.
func Serialize(o *Observable) (*Descriptor, error) {
	terms, err := serializeTerms(o)
	if err != nil {
		return nil, err
	}
	return &Descriptor{Terms: terms}, nil
}

func serializeTerms(o *Observable) ([]Term, error) {
	switch o.name {
	case "PauliX", "PauliY", "PauliZ", "Hadamard":
		return []Term{{Coeff: 1, Factors: []Factor{{Name: o.name, Wire: o.wires[0]}}}}, nil

	case "Identity":
		return []Term{{Coeff: 1}}, nil

	case "Projector":
		return []Term{{Coeff: 1, Matrix: projectorMatrix(o), MatrixWires: o.wires}}, nil

	case "Hermitian":
		return []Term{{Coeff: 1, Matrix: o.matrix, MatrixWires: o.wires}}, nil

	case "Hamiltonian":
		var out []Term
		for i, child := range o.operands {
			terms, err := serializeTerms(child)
			if err != nil {
				return nil, err
			}
			for _, t := range terms {
				t.Coeff *= o.coeffs[i]
				out = append(out, t)
			}
		}
		return out, nil

	case "Sum":
		var out []Term
		for _, child := range o.operands {
			terms, err := serializeTerms(child)
			if err != nil {
				return nil, err
			}
			out = append(out, terms...)
		}
		return out, nil

	case "SProd":
		terms, err := serializeTerms(o.operands[0])
		if err != nil {
			return nil, err
		}
		for i := range terms {
			terms[i].Coeff *= o.coeff
		}
		return terms, nil

	case "Prod":
		// Product of sums expands to the cross product of the children's
		// terms. Factors apply right to left.
		out := []Term{{Coeff: 1}}
		for i := len(o.operands) - 1; i >= 0; i-- {
			terms, err := serializeTerms(o.operands[i])
			if err != nil {
				return nil, err
			}
			var next []Term
			for _, left := range out {
				for _, t := range terms {
					merged, err := mulTerms(left, t)
					if err != nil {
						return nil, err
					}
					next = append(next, merged)
				}
			}
			out = next
		}
		return out, nil

	default:
		return nil, fmt.Errorf("observable: cannot serialize %s (kind %s)", o.name, o.kind)
	}
}

func mulTerms(a, b Term) (Term, error) {
	if a.Matrix != nil && b.Matrix != nil {
		return Term{}, fmt.Errorf("observable: product with more than one dense block is not serializable")
	}
	merged := Term{
		Coeff:       a.Coeff * b.Coeff,
		Factors:     append(append([]Factor{}, a.Factors...), b.Factors...),
		Matrix:      a.Matrix,
		MatrixWires: a.MatrixWires,
	}
	if b.Matrix != nil {
		merged.Matrix = b.Matrix
		merged.MatrixWires = b.MatrixWires
	}
	return merged, nil
}

func projectorMatrix(o *Observable) *mat.CDense {
	dim := 1 << len(o.wires)
	m := mat.NewCDense(dim, dim, nil)
	idx := 0
	for _, b := range o.basis {
		idx = idx<<1 | b
	}
	m.Set(idx, idx, 1)
	return m
}
