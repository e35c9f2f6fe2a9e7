package observable

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// eigh computes the eigendecomposition of a Hermitian matrix. It returns the
// eigenvalues in ascending order and the rotation U with the conjugated
// eigenvectors as rows, so U maps the k-th eigenvector to basis state k.
//
// gonum's symmetric solver is real-valued, so H = A + iB is embedded as the
// real symmetric block matrix [[A, -B], [B, A]]. Every eigenpair of H shows
// up twice in the embedding: if x + iy is an eigenvector, both [x; y] and
// [-y; x] are embedded eigenvectors for the same eigenvalue, and they map to
// the complex-dependent pair x+iy and i(x+iy). Gram-Schmidt over the complex
// inner product keeps one representative per pair.
func eigh(m *mat.CDense) ([]float64, []complex128, error) {
	n, _ := m.Dims()

	sym := mat.NewSymDense(2*n, nil)
	for r := 0; r < 2*n; r++ {
		for c := r; c < 2*n; c++ {
			v := m.At(r%n, c%n)
			switch {
			case r < n && c < n:
				sym.SetSym(r, c, real(v))
			case r < n && c >= n:
				sym.SetSym(r, c, -imag(v))
			default:
				sym.SetSym(r, c, real(v))
			}
		}
	}

	var es mat.EigenSym
	if !es.Factorize(sym, true) {
		return nil, nil, fmt.Errorf("observable: eigendecomposition failed")
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	eigvals := make([]float64, 0, n)
	basis := make([][]complex128, 0, n)
	for k := 0; k < 2*n && len(basis) < n; k++ {
		v := make([]complex128, n)
		for i := 0; i < n; i++ {
			v[i] = complex(vecs.At(i, k), vecs.At(n+i, k))
		}
		for _, b := range basis {
			var dot complex128
			for i := range b {
				dot += cmplx.Conj(b[i]) * v[i]
			}
			for i := range v {
				v[i] -= dot * b[i]
			}
		}
		var norm float64
		for _, x := range v {
			norm += real(x)*real(x) + imag(x)*imag(x)
		}
		if norm < 1e-12 {
			continue
		}
		inv := complex(1/math.Sqrt(norm), 0)
		for i := range v {
			v[i] *= inv
		}
		basis = append(basis, v)
		eigvals = append(eigvals, vals[k])
	}
	if len(basis) != n {
		return nil, nil, fmt.Errorf("observable: eigenvector extraction yielded %d of %d vectors", len(basis), n)
	}

	rot := make([]complex128, 0, n*n)
	for _, b := range basis {
		for _, x := range b {
			rot = append(rot, cmplx.Conj(x))
		}
	}
	return eigvals, rot, nil
}
