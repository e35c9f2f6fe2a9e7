package gate

import "testing"

func TestArity(t *testing.T) {
	tests := []struct {
		name       string
		gate       string
		want       int
		shouldFail bool
	}{
		{name: "Hadamard", gate: Hadamard, want: 1},
		{name: "RZ", gate: RZ, want: 1},
		{name: "CNOT", gate: CNOT, want: 2},
		{name: "SWAP", gate: SWAP, want: 2},
		{name: "unknown", gate: "Toffoli", shouldFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Arity(tt.gate)
			if tt.shouldFail {
				if err == nil {
					t.Fatalf("expected error for %q", tt.gate)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != tt.want {
				t.Errorf("arity = %d, want %d", n, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		op         Operation
		shouldFail bool
	}{
		{name: "valid single wire", op: New(PauliX, 0)},
		{name: "valid two wire", op: New(CNOT, 0, 1)},
		{name: "valid parameterized", op: NewParam(RY, 0.5, 2)},
		{name: "wrong wire count", op: New(CNOT, 0), shouldFail: true},
		{name: "too many wires", op: New(Hadamard, 0, 1), shouldFail: true},
		{name: "negative wire", op: New(PauliZ, -1), shouldFail: true},
		{name: "unknown gate", op: New("Fredkin", 0, 1), shouldFail: true},
		{name: "valid unitary", op: NewUnitary([]complex128{0, 1, 1, 0}, 0)},
		{name: "valid two-wire unitary", op: NewUnitary(make([]complex128, 16), 0, 1)},
		{name: "unitary without wires", op: NewUnitary([]complex128{1}), shouldFail: true},
		{name: "unitary matrix size mismatch", op: NewUnitary([]complex128{0, 1, 1, 0}, 0, 1), shouldFail: true},
		{name: "unitary negative wire", op: NewUnitary([]complex128{0, 1, 1, 0}, -1), shouldFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if tt.shouldFail && err == nil {
				t.Fatalf("expected error for %v", tt.op)
			}
			if !tt.shouldFail && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestOperationString(t *testing.T) {
	if got := New(CNOT, 0, 1).String(); got != "CNOT[0 1]" {
		t.Errorf("String() = %q", got)
	}
	if got := NewParam(RX, 0.5, 1).String(); got != "RX([0.5])[1]" {
		t.Errorf("String() = %q", got)
	}
}
