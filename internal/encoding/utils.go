// Package encoding converts numeric result buffers to and from the
// little-endian byte form stored in journal BLOB columns.
package encoding

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrInvalidBuffer is returned when an encoded buffer is malformed.
var ErrInvalidBuffer = errors.New("invalid result buffer")

// EncodeFloats encodes a float64 slice as a length-prefixed little-endian
// byte buffer.
func EncodeFloats(values []float64) ([]byte, error) {
	if values == nil {
		return nil, ErrInvalidBuffer
	}

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, int32(len(values))); err != nil {
		return nil, fmt.Errorf("failed to encode length: %w", err)
	}
	for _, v := range values {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("failed to encode value: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// DecodeFloats decodes a buffer produced by EncodeFloats.
func DecodeFloats(data []byte) ([]float64, error) {
	buf := bytes.NewReader(data)

	var length int32
	if err := binary.Read(buf, binary.LittleEndian, &length); err != nil {
		return nil, ErrInvalidBuffer
	}
	if length < 0 || buf.Len() < int(length)*8 {
		return nil, ErrInvalidBuffer
	}

	values := make([]float64, length)
	for i := range values {
		if err := binary.Read(buf, binary.LittleEndian, &values[i]); err != nil {
			return nil, fmt.Errorf("failed to decode value at index %d: %w", i, err)
		}
	}
	return values, nil
}

// EncodeComplex encodes a complex128 slice as interleaved re/im float64
// pairs with a length prefix.
func EncodeComplex(values []complex128) ([]byte, error) {
	if values == nil {
		return nil, ErrInvalidBuffer
	}

	flat := make([]float64, 0, 2*len(values))
	for _, v := range values {
		flat = append(flat, real(v), imag(v))
	}
	buf, err := EncodeFloats(flat)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// DecodeComplex decodes a buffer produced by EncodeComplex.
func DecodeComplex(data []byte) ([]complex128, error) {
	flat, err := DecodeFloats(data)
	if err != nil {
		return nil, err
	}
	if len(flat)%2 != 0 {
		return nil, ErrInvalidBuffer
	}
	values := make([]complex128, len(flat)/2)
	for i := range values {
		values[i] = complex(flat[2*i], flat[2*i+1])
	}
	return values, nil
}
