package observable

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// CSR is a square sparse matrix in compressed-row form: RowPtr has Dim+1
// entries, row i's nonzeros live at positions RowPtr[i]:RowPtr[i+1] of
// ColIdx and Values.
type CSR struct {
	Dim    int
	RowPtr []int
	ColIdx []int
	Values []complex128
}

// NewCSR validates and returns a CSR matrix. The structural checks here are
// deliberate: malformed sparse input fails at construction, not inside the
// backend primitive.
func NewCSR(dim int, rowPtr, colIdx []int, values []complex128) (*CSR, error) {
	if dim < 1 {
		return nil, fmt.Errorf("observable: csr dimension must be positive, got %d", dim)
	}
	if len(rowPtr) != dim+1 {
		return nil, fmt.Errorf("observable: csr row pointer length %d, want %d", len(rowPtr), dim+1)
	}
	if rowPtr[0] != 0 {
		return nil, fmt.Errorf("observable: csr row pointer must start at 0, got %d", rowPtr[0])
	}
	for i := 1; i <= dim; i++ {
		if rowPtr[i] < rowPtr[i-1] {
			return nil, fmt.Errorf("observable: csr row pointer decreases at row %d", i)
		}
	}
	nnz := rowPtr[dim]
	if len(colIdx) != nnz || len(values) != nnz {
		return nil, fmt.Errorf("observable: csr has %d nonzeros, got %d columns and %d values",
			nnz, len(colIdx), len(values))
	}
	for _, c := range colIdx {
		if c < 0 || c >= dim {
			return nil, fmt.Errorf("observable: csr column %d out of range [0,%d)", c, dim)
		}
	}
	return &CSR{Dim: dim, RowPtr: rowPtr, ColIdx: colIdx, Values: values}, nil
}

// CSRFromDense converts a square dense matrix to compressed-row form,
// dropping exact zeros.
func CSRFromDense(m mat.CMatrix) (*CSR, error) {
	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("observable: matrix must be square, got %dx%d", r, c)
	}
	rowPtr := make([]int, r+1)
	var colIdx []int
	var values []complex128
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); v != 0 {
				colIdx = append(colIdx, j)
				values = append(values, v)
			}
		}
		rowPtr[i+1] = len(values)
	}
	return &CSR{Dim: r, RowPtr: rowPtr, ColIdx: colIdx, Values: values}, nil
}

// Dense materializes the matrix, for small reference computations.
func (c *CSR) Dense() *mat.CDense {
	out := mat.NewCDense(c.Dim, c.Dim, nil)
	for i := 0; i < c.Dim; i++ {
		for k := c.RowPtr[i]; k < c.RowPtr[i+1]; k++ {
			out.Set(i, c.ColIdx[k], c.Values[k])
		}
	}
	return out
}

// MulVec computes y = A·x.
func (c *CSR) MulVec(x []complex128) ([]complex128, error) {
	if len(x) != c.Dim {
		return nil, fmt.Errorf("observable: csr dimension %d does not match vector length %d", c.Dim, len(x))
	}
	y := make([]complex128, c.Dim)
	for i := 0; i < c.Dim; i++ {
		var acc complex128
		for k := c.RowPtr[i]; k < c.RowPtr[i+1]; k++ {
			acc += c.Values[k] * x[c.ColIdx[k]]
		}
		y[i] = acc
	}
	return y, nil
}
