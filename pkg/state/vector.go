// Package state implements the simulated quantum state: a contiguous complex
// amplitude buffer at single or double precision with in-place gate
// application.
//
// Basis state indices are big-endian in the wire order: wire 0 is the most
// significant bit of an index. A vector owns its buffer; gate application
// mutates it in place and is not safe for concurrent use.
package state

import (
	"fmt"
	"math"

	"github.com/photonq/lumen/pkg/gate"
)

// Vector is the handle to a simulated state shared with the measurement
// engine. The fallback measurement path mutates the vector through
// ApplyOperations; everything else is read-only.
type Vector interface {
	// Precision returns the amplitude precision tag fixed at construction.
	Precision() Precision
	// NumWires returns the number of qubits.
	NumWires() int
	// Amplitudes returns the amplitude buffer as complex128. For a
	// double-precision vector this is the live buffer; for single precision
	// it is a widened snapshot.
	Amplitudes() []complex128
	// ApplyOperations applies a gate sequence in place, in order.
	ApplyOperations(ops []gate.Operation) error
	// Clone returns an independent copy with the same precision and state.
	Clone() Vector
	// Reset returns the vector to |0...0>.
	Reset()
}

// New returns a vector initialized to |0...0>.
func New(p Precision, wires int) (Vector, error) {
	if wires < 1 {
		return nil, fmt.Errorf("state: need at least one wire, got %d", wires)
	}
	n := 1 << wires
	switch p {
	case Single:
		v := &single{wires: wires, amps: make([]complex64, n)}
		v.amps[0] = 1
		return v, nil
	case Double:
		v := &double{wires: wires, amps: make([]complex128, n)}
		v.amps[0] = 1
		return v, nil
	default:
		return nil, fmt.Errorf("state: unsupported precision %s", p)
	}
}

// NewWithAmplitudes returns a vector holding a copy of the given amplitudes,
// narrowed when p is Single. The length must be a power of two.
func NewWithAmplitudes(p Precision, amps []complex128) (Vector, error) {
	wires := wiresForSize(len(amps))
	if wires == 0 {
		return nil, fmt.Errorf("state: amplitude count %d is not a power of two", len(amps))
	}
	v, err := New(p, wires)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case *single:
		for i, a := range amps {
			v.amps[i] = complex64(a)
		}
	case *double:
		copy(v.amps, amps)
	}
	return v, nil
}

// wiresForSize returns w such that size == 2^w and w >= 1, or 0.
func wiresForSize(size int) int {
	if size < 2 || size&(size-1) != 0 {
		return 0
	}
	return int(math.Round(math.Log2(float64(size))))
}

type single struct {
	wires int
	amps  []complex64
}

// Data exposes the native buffer to the precision-matched backend engine.
func (v *single) Data() []complex64 { return v.amps }

func (v *single) Precision() Precision { return Single }
func (v *single) NumWires() int        { return v.wires }

func (v *single) Amplitudes() []complex128 {
	out := make([]complex128, len(v.amps))
	for i, a := range v.amps {
		out[i] = complex128(a)
	}
	return out
}

func (v *single) ApplyOperations(ops []gate.Operation) error {
	for _, op := range ops {
		if err := applyOp(v.amps, v.wires, op); err != nil {
			return err
		}
	}
	return nil
}

func (v *single) Clone() Vector {
	amps := make([]complex64, len(v.amps))
	copy(amps, v.amps)
	return &single{wires: v.wires, amps: amps}
}

func (v *single) Reset() {
	for i := range v.amps {
		v.amps[i] = 0
	}
	v.amps[0] = 1
}

type double struct {
	wires int
	amps  []complex128
}

// Data exposes the native buffer to the precision-matched backend engine.
func (v *double) Data() []complex128 { return v.amps }

func (v *double) Precision() Precision { return Double }
func (v *double) NumWires() int        { return v.wires }

func (v *double) Amplitudes() []complex128 { return v.amps }

func (v *double) ApplyOperations(ops []gate.Operation) error {
	for _, op := range ops {
		if err := applyOp(v.amps, v.wires, op); err != nil {
			return err
		}
	}
	return nil
}

func (v *double) Clone() Vector {
	amps := make([]complex128, len(v.amps))
	copy(amps, v.amps)
	return &double{wires: v.wires, amps: amps}
}

func (v *double) Reset() {
	for i := range v.amps {
		v.amps[i] = 0
	}
	v.amps[0] = 1
}

// applyOp validates and applies a single operation to a native buffer.
func applyOp[T amplitude](amps []T, wires int, op gate.Operation) error {
	if err := op.Validate(); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	for _, w := range op.Wires {
		if w >= wires {
			return fmt.Errorf("state: gate %s wire %d out of range for %d wires", op.Name, w, wires)
		}
	}
	mask := func(w int) int { return 1 << (wires - 1 - w) }
	theta := 0.0
	if len(op.Params) > 0 {
		theta = op.Params[0]
	}

	switch op.Name {
	case gate.Hadamard:
		applyHadamard(amps, mask(op.Wires[0]))
	case gate.PauliX:
		applyPauliX(amps, mask(op.Wires[0]))
	case gate.PauliY:
		applyPauliY(amps, mask(op.Wires[0]))
	case gate.PauliZ:
		applyPauliZ(amps, mask(op.Wires[0]))
	case gate.S:
		applyPhaseFactor(amps, mask(op.Wires[0]), 0, 1)
	case gate.Sdg:
		applyPhaseFactor(amps, mask(op.Wires[0]), 0, -1)
	case gate.T:
		applyPhaseFactor(amps, mask(op.Wires[0]), math.Sqrt2/2, math.Sqrt2/2)
	case gate.Tdg:
		applyPhaseFactor(amps, mask(op.Wires[0]), math.Sqrt2/2, -math.Sqrt2/2)
	case gate.RX:
		applyRX(amps, mask(op.Wires[0]), theta)
	case gate.RY:
		applyRY(amps, mask(op.Wires[0]), theta)
	case gate.RZ:
		applyRZ(amps, mask(op.Wires[0]), theta)
	case gate.PhaseShift:
		applyPhaseFactor(amps, mask(op.Wires[0]), math.Cos(theta), math.Sin(theta))
	case gate.CNOT:
		applyCNOT(amps, mask(op.Wires[0]), mask(op.Wires[1]))
	case gate.CZ:
		applyCZ(amps, mask(op.Wires[0]), mask(op.Wires[1]))
	case gate.SWAP:
		applySWAP(amps, mask(op.Wires[0]), mask(op.Wires[1]))
	case gate.Unitary:
		applyUnitary(amps, wires, op.Wires, op.Matrix)
	default:
		return fmt.Errorf("state: unknown gate %q", op.Name)
	}
	return nil
}
