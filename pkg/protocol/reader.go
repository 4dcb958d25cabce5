// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Thermoquad/tlc/pkg/datamodel"
)

var (
	// ErrShortPayload is returned when a value would read past the frame.
	ErrShortPayload = errors.New("payload too short")
	// ErrCount is returned for a non-positive or oversized array count.
	ErrCount = errors.New("invalid array count")
	// ErrRange is returned for a value outside its legal range.
	ErrRange = errors.New("value out of range")
)

const waypointSize = 8

// Scratch is the fixed-capacity buffer arrays are decoded into. Views
// returned from it stay valid until the next array decode.
type Scratch struct {
	floats    [ScratchSize / 4]float32
	waypoints [ScratchSize / waypointSize]datamodel.Waypoint
}

// Reader decodes little-endian scalars from a frame payload with bounds checks.
type Reader struct {
	data []byte
	off  int
}

// NewReader returns a Reader over payload.
func NewReader(payload []byte) Reader {
	return Reader{data: payload}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) take(n int) ([]byte, error) {
	if n > r.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortPayload, n, r.off, r.Remaining())
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Int8() (int8, error) {
	v, err := r.Uint8()
	return int8(v), err
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

// count decodes an int32 array length and checks that count elements of
// elemSize bytes fit both the remaining payload and the scratch capacity.
func (r *Reader) count(elemSize int) (int, error) {
	n, err := r.Int32()
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrCount, n)
	}
	size := int64(n) * int64(elemSize)
	if size > int64(r.Remaining()) {
		return 0, fmt.Errorf("%w: %d elements need %d bytes, have %d", ErrShortPayload, n, size, r.Remaining())
	}
	if size > ScratchSize {
		return 0, fmt.Errorf("%w: %d elements exceed %d byte scratch", ErrCount, n, ScratchSize)
	}
	return int(n), nil
}

// Float32Array decodes a count-prefixed float32 array into s.
func (r *Reader) Float32Array(s *Scratch) ([]float32, error) {
	n, err := r.count(4)
	if err != nil {
		return nil, err
	}
	out := s.floats[:n]
	for i := range out {
		if out[i], err = r.Float32(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// WaypointArray decodes a count-prefixed array of (float32 pressure,
// uint32 hold) pairs into s.
func (r *Reader) WaypointArray(s *Scratch) ([]datamodel.Waypoint, error) {
	n, err := r.count(waypointSize)
	if err != nil {
		return nil, err
	}
	out := s.waypoints[:n]
	for i := range out {
		if out[i].PressureMmH2O, err = r.Float32(); err != nil {
			return nil, err
		}
		if out[i].HoldMs, err = r.Uint32(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
