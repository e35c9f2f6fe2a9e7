package backend

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/photonq/lumen/pkg/gate"
	"github.com/photonq/lumen/pkg/observable"
	"github.com/photonq/lumen/pkg/state"
)

type amp interface {
	~complex64 | ~complex128
}

// engine holds a non-owning view of one vector's native buffer. The buffer
// is shared with the caller; the engine only reads it.
type engine[T amp] struct {
	precision state.Precision
	wires     int
	amps      []T
}

func (e *engine[T]) Precision() state.Precision { return e.precision }

func (e *engine[T]) mask(wire int) int {
	return 1 << (e.wires - 1 - wire)
}

// Expval contracts <psi|M|psi> for a named one-wire operator without
// touching the buffer: each 2x2 subspace contributes
// conj(a)·(m00·a + m01·b) + conj(b)·(m10·a + m11·b).
func (e *engine[T]) Expval(name string, wires []int) (float64, error) {
	m, ok := named1q(name)
	if !ok {
		return 0, fmt.Errorf("backend: no closed-form expectation for %q", name)
	}
	if len(wires) != 1 {
		return 0, fmt.Errorf("backend: %s acts on one wire, got %d", name, len(wires))
	}
	if wires[0] < 0 || wires[0] >= e.wires {
		return 0, fmt.Errorf("backend: wire %d out of range for %d wires", wires[0], e.wires)
	}
	mask := e.mask(wires[0])
	var acc float64
	for i := range e.amps {
		if i&mask == 0 {
			j := i | mask
			a := complex128(e.amps[i])
			b := complex128(e.amps[j])
			v := conj(a)*(m[0][0]*a+m[0][1]*b) + conj(b)*(m[1][0]*a+m[1][1]*b)
			acc += real(v)
		}
	}
	return acc, nil
}

func (e *engine[T]) ExpvalSparse(rowPtr, colIdx []int, values []complex128) (float64, error) {
	n := len(e.amps)
	if len(rowPtr) != n+1 {
		return 0, fmt.Errorf("backend: sparse dimension %d does not match state size %d", len(rowPtr)-1, n)
	}
	psi := e.widened()
	var acc float64
	for i := 0; i < n; i++ {
		var row complex128
		for k := rowPtr[i]; k < rowPtr[i+1]; k++ {
			c := colIdx[k]
			if c < 0 || c >= n {
				return 0, fmt.Errorf("backend: sparse column %d out of range [0,%d)", c, n)
			}
			row += values[k] * psi[c]
		}
		acc += real(conj(psi[i]) * row)
	}
	return acc, nil
}

// ExpvalDescriptor accumulates phi = sum_t coeff_t · T_t |psi> and returns
// Re(<psi|phi>).
func (e *engine[T]) ExpvalDescriptor(d *observable.Descriptor) (float64, error) {
	psi := e.widened()
	phi := make([]complex128, len(psi))
	scratch := make([]complex128, len(psi))
	for _, term := range d.Terms {
		copy(scratch, psi)
		for _, f := range term.Factors {
			m, ok := named1q(f.Name)
			if !ok {
				return 0, fmt.Errorf("backend: unknown factor %q in descriptor", f.Name)
			}
			if f.Wire < 0 || f.Wire >= e.wires {
				return 0, fmt.Errorf("backend: factor wire %d out of range for %d wires", f.Wire, e.wires)
			}
			apply1q(scratch, m, e.mask(f.Wire))
		}
		if term.Matrix != nil {
			if err := e.applyDense(scratch, term.Matrix, term.MatrixWires); err != nil {
				return 0, err
			}
		}
		c := complex(term.Coeff, 0)
		for i := range phi {
			phi[i] += c * scratch[i]
		}
	}
	var acc float64
	for i := range psi {
		acc += real(conj(psi[i]) * phi[i])
	}
	return acc, nil
}

func (e *engine[T]) widened() []complex128 {
	out := make([]complex128, len(e.amps))
	for i, a := range e.amps {
		out[i] = complex128(a)
	}
	return out
}

// applyDense applies a dense block on a wire subset to a scratch buffer.
// Sub-index bit order follows the block's wire order, first wire most
// significant.
func (e *engine[T]) applyDense(scratch []complex128, m *mat.CDense, wires []int) error {
	r, c := m.Dims()
	if len(wires) == 0 || r != c || r != 1<<len(wires) {
		return fmt.Errorf("backend: dense block %dx%d does not match %d wires", r, c, len(wires))
	}
	masks := make([]int, len(wires))
	full := 0
	for i, w := range wires {
		if w < 0 || w >= e.wires {
			return fmt.Errorf("backend: dense block wire %d out of range for %d wires", w, e.wires)
		}
		masks[i] = e.mask(w)
		full |= masks[i]
	}
	dim := r
	idx := make([]int, dim)
	old := make([]complex128, dim)
	for base := range scratch {
		if base&full != 0 {
			continue
		}
		for j := 0; j < dim; j++ {
			k := base
			for b, mk := range masks {
				if j&(1<<(len(masks)-1-b)) != 0 {
					k |= mk
				}
			}
			idx[j] = k
			old[j] = scratch[k]
		}
		for row := 0; row < dim; row++ {
			var acc complex128
			for col := 0; col < dim; col++ {
				acc += m.At(row, col) * old[col]
			}
			scratch[idx[row]] = acc
		}
	}
	return nil
}

func conj(z complex128) complex128 {
	return complex(real(z), -imag(z))
}

// apply1q applies a 2x2 matrix to a complex128 scratch buffer.
func apply1q(amps []complex128, m [2][2]complex128, mask int) {
	for i := range amps {
		if i&mask == 0 {
			j := i | mask
			a, b := amps[i], amps[j]
			amps[i] = m[0][0]*a + m[0][1]*b
			amps[j] = m[1][0]*a + m[1][1]*b
		}
	}
}

// named1q returns the matrix of an atomic named operator.
func named1q(name string) ([2][2]complex128, bool) {
	inv := complex(1/math.Sqrt2, 0)
	switch name {
	case gate.PauliX:
		return [2][2]complex128{{0, 1}, {1, 0}}, true
	case gate.PauliY:
		return [2][2]complex128{{0, -1i}, {1i, 0}}, true
	case gate.PauliZ:
		return [2][2]complex128{{1, 0}, {0, -1}}, true
	case gate.Hadamard:
		return [2][2]complex128{{inv, inv}, {inv, -inv}}, true
	default:
		return [2][2]complex128{}, false
	}
}
