// Package circuit describes a simulation: a gate sequence followed by an
// ordered list of measurement requests, with a JSON form for the CLI.
package circuit

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/photonq/lumen/pkg/gate"
	"github.com/photonq/lumen/pkg/measure"
	"github.com/photonq/lumen/pkg/observable"
)

// Circuit is an ordered gate sequence plus the measurements to perform on
// the final state. Shots > 0 requests finite-sample measurement, which the
// engine rejects.
type Circuit struct {
	Wires        int
	Shots        int
	Operations   []gate.Operation
	Measurements []*measure.Process
}

// Validate checks structural consistency before a run.
func (c *Circuit) Validate() error {
	if c.Wires < 1 {
		return fmt.Errorf("circuit: need at least one wire, got %d", c.Wires)
	}
	for _, op := range c.Operations {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("circuit: %w", err)
		}
		for _, w := range op.Wires {
			if w >= c.Wires {
				return fmt.Errorf("circuit: gate %s wire %d out of range", op.Name, w)
			}
		}
	}
	if len(c.Measurements) == 0 {
		return fmt.Errorf("circuit: no measurements")
	}
	for i, p := range c.Measurements {
		for _, w := range p.RequestedWires() {
			if w < 0 || w >= c.Wires {
				return fmt.Errorf("circuit: measurement %d wire %d out of range", i, w)
			}
		}
		if obs := p.Observable(); obs != nil {
			for _, w := range obs.Wires() {
				if w < 0 || w >= c.Wires {
					return fmt.Errorf("circuit: measurement %d observable wire %d out of range", i, w)
				}
			}
		}
	}
	return nil
}

type circuitJSON struct {
	Wires        int               `json:"wires"`
	Shots        int               `json:"shots,omitempty"`
	Operations   []gate.Operation  `json:"operations"`
	Measurements []measurementJSON `json:"measurements"`
}

type measurementJSON struct {
	Type       string          `json:"type"`
	Wires      []int           `json:"wires,omitempty"`
	Observable *observableJSON `json:"observable,omitempty"`
}

type observableJSON struct {
	Name     string            `json:"name"`
	Wires    []int             `json:"wires,omitempty"`
	Basis    []int             `json:"basis,omitempty"`
	Coeffs   []float64         `json:"coeffs,omitempty"`
	Scalar   float64           `json:"scalar,omitempty"`
	Operands []*observableJSON `json:"operands,omitempty"`
	Matrix   [][]float64       `json:"matrix,omitempty"` // row-major [re, im] pairs
	Dim      int               `json:"dim,omitempty"`
	RowPtr   []int             `json:"rowptr,omitempty"`
	ColIdx   []int             `json:"colidx,omitempty"`
	Values   [][]float64       `json:"values,omitempty"` // [re, im] pairs
}

// MarshalJSON implements json.Marshaler.
func (c *Circuit) MarshalJSON() ([]byte, error) {
	out := circuitJSON{
		Wires:      c.Wires,
		Shots:      c.Shots,
		Operations: c.Operations,
	}
	for _, p := range c.Measurements {
		mj := measurementJSON{Type: p.Kind().String(), Wires: p.RequestedWires()}
		if obs := p.Observable(); obs != nil {
			oj, err := encodeObservable(obs)
			if err != nil {
				return nil, err
			}
			mj.Observable = oj
		}
		out.Measurements = append(out.Measurements, mj)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Circuit) UnmarshalJSON(data []byte) error {
	var in circuitJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.Wires = in.Wires
	c.Shots = in.Shots
	c.Operations = in.Operations
	c.Measurements = nil
	for i, mj := range in.Measurements {
		p, err := decodeMeasurement(mj)
		if err != nil {
			return fmt.Errorf("circuit: measurement %d: %w", i, err)
		}
		c.Measurements = append(c.Measurements, p)
	}
	return nil
}

func decodeMeasurement(mj measurementJSON) (*measure.Process, error) {
	var obs *observable.Observable
	if mj.Observable != nil {
		var err error
		obs, err = decodeObservable(mj.Observable)
		if err != nil {
			return nil, err
		}
	}
	switch mj.Type {
	case "expval":
		if obs == nil {
			return nil, fmt.Errorf("expval needs an observable")
		}
		return measure.Expectation(obs), nil
	case "var":
		if obs == nil {
			return nil, fmt.Errorf("var needs an observable")
		}
		return measure.Variance(obs), nil
	case "probs":
		return measure.Probability(mj.Wires...), nil
	case "state":
		return measure.State(), nil
	case "sample":
		return measure.Sample(obs), nil
	default:
		return nil, fmt.Errorf("unknown measurement type %q", mj.Type)
	}
}

func decodeObservable(oj *observableJSON) (*observable.Observable, error) {
	switch oj.Name {
	case "PauliX":
		return observable.PauliX(oneWire(oj.Wires)), nil
	case "PauliY":
		return observable.PauliY(oneWire(oj.Wires)), nil
	case "PauliZ":
		return observable.PauliZ(oneWire(oj.Wires)), nil
	case "Hadamard":
		return observable.Hadamard(oneWire(oj.Wires)), nil
	case "Identity":
		return observable.Identity(oj.Wires...), nil
	case "Projector":
		return observable.Projector(oj.Basis, oj.Wires)
	case "Hermitian":
		m, err := decodeMatrix(oj.Matrix, len(oj.Wires))
		if err != nil {
			return nil, err
		}
		return observable.Hermitian(m, oj.Wires)
	case "Hamiltonian":
		terms := make([]*observable.Observable, len(oj.Operands))
		for i, op := range oj.Operands {
			t, err := decodeObservable(op)
			if err != nil {
				return nil, err
			}
			terms[i] = t
		}
		return observable.Hamiltonian(oj.Coeffs, terms)
	case "SparseHamiltonian":
		values := make([]complex128, len(oj.Values))
		for i, v := range oj.Values {
			if len(v) != 2 {
				return nil, fmt.Errorf("sparse value %d is not a [re, im] pair", i)
			}
			values[i] = complex(v[0], v[1])
		}
		csr, err := observable.NewCSR(oj.Dim, oj.RowPtr, oj.ColIdx, values)
		if err != nil {
			return nil, err
		}
		return observable.SparseHamiltonian(csr, oj.Wires)
	case "Sum", "Prod", "SProd":
		ops := make([]*observable.Observable, len(oj.Operands))
		for i, op := range oj.Operands {
			t, err := decodeObservable(op)
			if err != nil {
				return nil, err
			}
			ops[i] = t
		}
		switch oj.Name {
		case "Sum":
			return observable.Sum(ops...), nil
		case "Prod":
			return observable.Prod(ops...), nil
		default:
			if len(ops) != 1 {
				return nil, fmt.Errorf("sprod needs exactly one operand")
			}
			return observable.SProd(oj.Scalar, ops[0]), nil
		}
	default:
		return nil, fmt.Errorf("unknown observable %q", oj.Name)
	}
}

func encodeObservable(obs *observable.Observable) (*observableJSON, error) {
	oj := &observableJSON{Name: obs.Name(), Wires: obs.Wires()}
	switch obs.Name() {
	case "Projector":
		oj.Basis = obs.Basis()
	case "Hermitian":
		oj.Matrix = encodeMatrix(obs.Matrix())
	case "Hamiltonian":
		oj.Coeffs = obs.Coeffs()
		for _, t := range obs.Operands() {
			tj, err := encodeObservable(t)
			if err != nil {
				return nil, err
			}
			oj.Operands = append(oj.Operands, tj)
		}
	case "SparseHamiltonian":
		c := obs.Sparse()
		oj.Dim = c.Dim
		oj.RowPtr = c.RowPtr
		oj.ColIdx = c.ColIdx
		for _, v := range c.Values {
			oj.Values = append(oj.Values, []float64{real(v), imag(v)})
		}
	case "Sum", "Prod", "SProd":
		oj.Scalar = obs.Coeff()
		for _, t := range obs.Operands() {
			tj, err := encodeObservable(t)
			if err != nil {
				return nil, err
			}
			oj.Operands = append(oj.Operands, tj)
		}
	}
	return oj, nil
}

func decodeMatrix(rows [][]float64, wires int) (*mat.CDense, error) {
	dim := 1 << wires
	if len(rows) != dim*dim {
		return nil, fmt.Errorf("matrix has %d entries, want %d", len(rows), dim*dim)
	}
	data := make([]complex128, len(rows))
	for i, v := range rows {
		if len(v) != 2 {
			return nil, fmt.Errorf("matrix entry %d is not a [re, im] pair", i)
		}
		data[i] = complex(v[0], v[1])
	}
	return mat.NewCDense(dim, dim, data), nil
}

func encodeMatrix(m *mat.CDense) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			out = append(out, []float64{real(v), imag(v)})
		}
	}
	return out
}

func oneWire(wires []int) int {
	if len(wires) == 0 {
		return 0
	}
	return wires[0]
}
