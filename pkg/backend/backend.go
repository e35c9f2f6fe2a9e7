// Package backend implements the numeric expectation-value primitives, one
// engine per amplitude precision. An engine is bound to one state vector's
// native buffer and never mutates it.
package backend

import (
	"fmt"

	"github.com/photonq/lumen/pkg/observable"
	"github.com/photonq/lumen/pkg/state"
)

// Engine is the expectation backend bound to a state vector. All three
// primitives are read-only with respect to the amplitude buffer.
type Engine interface {
	// Precision returns the engine's amplitude precision, fixed at binding.
	Precision() state.Precision
	// Expval computes the expectation of an atomic named operator.
	Expval(name string, wires []int) (float64, error)
	// ExpvalSparse computes the expectation of a CSR matrix over the full
	// register. Dimension mismatches surface here unchanged.
	ExpvalSparse(rowPtr, colIdx []int, values []complex128) (float64, error)
	// ExpvalDescriptor computes the expectation of a serialized composite
	// observable.
	ExpvalDescriptor(d *observable.Descriptor) (float64, error)
}

type singleBuffer interface {
	Data() []complex64
}

type doubleBuffer interface {
	Data() []complex128
}

// For binds the precision-matched engine variant to a vector. It fails for
// a precision tag that is neither supported value.
func For(v state.Vector) (Engine, error) {
	switch v.Precision() {
	case state.Single:
		b, ok := v.(singleBuffer)
		if !ok {
			return nil, fmt.Errorf("backend: vector does not expose a single-precision buffer")
		}
		return &engine[complex64]{precision: state.Single, wires: v.NumWires(), amps: b.Data()}, nil
	case state.Double:
		b, ok := v.(doubleBuffer)
		if !ok {
			return nil, fmt.Errorf("backend: vector does not expose a double-precision buffer")
		}
		return &engine[complex128]{precision: state.Double, wires: v.NumWires(), amps: b.Data()}, nil
	default:
		return nil, fmt.Errorf("backend: unsupported precision %s", v.Precision())
	}
}
