// Package lumen is a quantum state-vector simulator for Go, focused on
// analytic measurement: expectation values, variances, probabilities and
// raw-state readout against the final state of a simulated circuit.
//
// The measurement engine classifies every observable once at construction
// and routes each request to the cheapest computation path that can serve
// it: a closed-form primitive for atomic named operators, a compressed-row
// primitive for sparse Hamiltonians, a serialized primitive for arbitrary
// algebraic combinations, and a generic basis-rotation fallback for
// everything else. State vectors come in single and double precision; the
// backend variant is bound to the vector's precision once, when the engine
// is built.
//
// # Quick Start
//
//	import (
//	    "context"
//
//	    "github.com/photonq/lumen"
//	    "github.com/photonq/lumen/pkg/circuit"
//	    "github.com/photonq/lumen/pkg/gate"
//	    "github.com/photonq/lumen/pkg/measure"
//	    "github.com/photonq/lumen/pkg/observable"
//	)
//
//	func main() {
//	    // Bell state, then <Z0>
//	    c := &circuit.Circuit{
//	        Wires: 2,
//	        Operations: []gate.Operation{
//	            gate.New(gate.Hadamard, 0),
//	            gate.New(gate.CNOT, 0, 1),
//	        },
//	        Measurements: []*measure.Process{
//	            measure.Expectation(observable.PauliZ(0)),
//	        },
//	    }
//	    result, _ := lumen.Simulate(context.Background(), c)
//	    _ = result // float64(0)
//	}
//
// # Observables
//
// Atomic operators (PauliX/Y/Z, Hadamard, Identity, Projector) combine into
// Hamiltonians, products and scaled sums; dense Hermitian blocks use gonum
// matrices and sparse Hamiltonians use compressed-row form:
//
//	h, _ := observable.Hamiltonian(
//	    []float64{0.5, -0.25},
//	    []*observable.Observable{
//	        observable.PauliZ(0),
//	        observable.Prod(observable.PauliX(0), observable.PauliX(1)),
//	    },
//	)
//
// # Run Journal
//
// With a journal path configured, every run is recorded in an embedded
// SQLite database and can be listed and re-inspected later, from Go or from
// the lumen CLI:
//
//	sim, _ := lumen.Open(lumen.Config{JournalPath: "runs.db"})
//	defer sim.Close()
//
// # Shots
//
// Finite-sample (shot-based) measurement is out of scope: a circuit
// requesting shots fails with measure.ErrUnsupportedMeasurementMode before
// any computation runs.
//
// # Concurrency
//
// A state vector is a single mutable resource. The diagonalizing fallback
// path rotates it in place, so consecutive fallback measurements against
// the same vector compose their gate effects unless the caller resets or
// clones the state in between. The engine adds no locking; do not run two
// measurements concurrently against one vector.
package lumen
