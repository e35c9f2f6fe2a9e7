package state

import (
	"math"
)

// amplitude constrains the two supported complex widths.
type amplitude interface {
	~complex64 | ~complex128
}

// cval builds an amplitude of the target precision from float64 components.
func cval[T amplitude](re, im float64) T {
	return T(complex(re, im))
}

// The kernels below act in place on a full amplitude buffer. mask selects the
// target qubit's bit within a basis state index; pairs (i, i|mask) with the
// bit clear in i enumerate each 2x2 subspace exactly once.

func applyHadamard[T amplitude](amps []T, mask int) {
	inv := cval[T](1/math.Sqrt2, 0)
	for i := range amps {
		if i&mask == 0 {
			j := i | mask
			a, b := amps[i], amps[j]
			amps[i] = inv * (a + b)
			amps[j] = inv * (a - b)
		}
	}
}

func applyPauliX[T amplitude](amps []T, mask int) {
	for i := range amps {
		if i&mask == 0 {
			j := i | mask
			amps[i], amps[j] = amps[j], amps[i]
		}
	}
}

func applyPauliY[T amplitude](amps []T, mask int) {
	im := cval[T](0, 1)
	for i := range amps {
		if i&mask == 0 {
			j := i | mask
			a, b := amps[i], amps[j]
			amps[i] = -im * b
			amps[j] = im * a
		}
	}
}

func applyPauliZ[T amplitude](amps []T, mask int) {
	for i := range amps {
		if i&mask != 0 {
			amps[i] = -amps[i]
		}
	}
}

// applyPhaseFactor multiplies the |1> component of the target qubit by the
// given unit factor. Covers S, Sdg, T, Tdg and PhaseShift.
func applyPhaseFactor[T amplitude](amps []T, mask int, re, im float64) {
	f := cval[T](re, im)
	for i := range amps {
		if i&mask != 0 {
			amps[i] *= f
		}
	}
}

func applyRX[T amplitude](amps []T, mask int, theta float64) {
	c := cval[T](math.Cos(theta/2), 0)
	js := cval[T](0, -math.Sin(theta/2))
	for i := range amps {
		if i&mask == 0 {
			j := i | mask
			a, b := amps[i], amps[j]
			amps[i] = c*a + js*b
			amps[j] = js*a + c*b
		}
	}
}

func applyRY[T amplitude](amps []T, mask int, theta float64) {
	c := cval[T](math.Cos(theta/2), 0)
	s := cval[T](math.Sin(theta/2), 0)
	for i := range amps {
		if i&mask == 0 {
			j := i | mask
			a, b := amps[i], amps[j]
			amps[i] = c*a - s*b
			amps[j] = s*a + c*b
		}
	}
}

func applyRZ[T amplitude](amps []T, mask int, theta float64) {
	pos := cval[T](math.Cos(theta/2), math.Sin(theta/2))
	neg := cval[T](math.Cos(theta/2), -math.Sin(theta/2))
	for i := range amps {
		if i&mask != 0 {
			amps[i] *= pos
		} else {
			amps[i] *= neg
		}
	}
}

// applyUnitary applies a row-major dense block to a wire subset. The
// sub-block index orders the target wires as given, first wire most
// significant.
func applyUnitary[T amplitude](amps []T, wires int, target []int, matrix []complex128) {
	dim := 1 << len(target)
	masks := make([]int, len(target))
	full := 0
	for i, w := range target {
		masks[i] = 1 << (wires - 1 - w)
		full |= masks[i]
	}
	idx := make([]int, dim)
	old := make([]complex128, dim)
	for base := range amps {
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
			old[j] = complex128(amps[k])
		}
		for row := 0; row < dim; row++ {
			var acc complex128
			for col := 0; col < dim; col++ {
				acc += matrix[row*dim+col] * old[col]
			}
			amps[idx[row]] = T(acc)
		}
	}
}

func applyCNOT[T amplitude](amps []T, cmask, tmask int) {
	for i := range amps {
		if i&cmask != 0 && i&tmask == 0 {
			j := i | tmask
			amps[i], amps[j] = amps[j], amps[i]
		}
	}
}

func applyCZ[T amplitude](amps []T, cmask, tmask int) {
	for i := range amps {
		if i&cmask != 0 && i&tmask != 0 {
			amps[i] = -amps[i]
		}
	}
}

func applySWAP[T amplitude](amps []T, amask, bmask int) {
	for i := range amps {
		if i&amask != 0 && i&bmask == 0 {
			j := (i &^ amask) | bmask
			amps[i], amps[j] = amps[j], amps[i]
		}
	}
}
