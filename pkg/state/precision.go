package state

import "fmt"

// Precision identifies the complex amplitude width of a state vector. It is a
// closed two-valued enumeration: every vector and every backend engine carries
// exactly one of these tags, fixed at construction.
type Precision uint8

const (
	// Single is complex64 amplitudes.
	Single Precision = iota + 1
	// Double is complex128 amplitudes.
	Double
)

// String returns the conventional name of the precision.
func (p Precision) String() string {
	switch p {
	case Single:
		return "single"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("precision(%d)", uint8(p))
	}
}

// Valid reports whether p is one of the two supported precisions.
func (p Precision) Valid() bool {
	return p == Single || p == Double
}
