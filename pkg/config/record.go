// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config holds the versioned, checksummed tuning record and its
// persistence contract.
package config

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Thermoquad/tlc/internal/checksum"
)

const (
	// Version is the schema version compiled into this firmware.
	Version = 1
	// RecordSize is the encoded size including the trailing checksum.
	RecordSize = 55
	// MaxSize is the capacity of the durable storage image.
	MaxSize = 512
)

var (
	ErrTruncated = errors.New("config record truncated")
	ErrVersion   = errors.New("config record version mismatch")
	ErrChecksum  = errors.New("config record checksum mismatch")
)

// Record is the tuning and calibration record.
type Record struct {
	Version        uint8     `yaml:"version"`
	PressureOffset [2]uint16 `yaml:"pressure_offset"`

	MinBattery       float32 `yaml:"min_battery"`
	MaxPressure      float32 `yaml:"max_pressure"`
	MinPressure      float32 `yaml:"min_pressure"`
	MaxPressureDelta float32 `yaml:"max_pressure_delta"`

	GainP           float32 `yaml:"gain_p"`
	GainI           float32 `yaml:"gain_i"`
	GainD           float32 `yaml:"gain_d"`
	ILimit          float32 `yaml:"i_limit"`
	PILimit         float32 `yaml:"pi_limit"`
	ControlTransfer float32 `yaml:"control_transfer"`
	PatientTrigger  float32 `yaml:"patient_trigger"`

	ServoExhaleOpen  uint16 `yaml:"servo_exhale_open"`
	ServoExhaleClose uint16 `yaml:"servo_exhale_close"`
}

// Defaults returns the record used when nothing valid is stored.
func Defaults() Record {
	return Record{
		Version:          Version,
		MinBattery:       11.0,
		MaxPressure:      1000,
		MinPressure:      -100,
		MaxPressureDelta: 40,
		GainP:            0.5,
		GainI:            1.0,
		GainD:            0,
		ILimit:           500,
		PILimit:          1023,
		ControlTransfer:  1.0,
		PatientTrigger:   -20,
		ServoExhaleOpen:  90,
		ServoExhaleClose: 10,
	}
}

func (r *Record) floats() []*float32 {
	return []*float32{
		&r.MinBattery, &r.MaxPressure, &r.MinPressure, &r.MaxPressureDelta,
		&r.GainP, &r.GainI, &r.GainD, &r.ILimit, &r.PILimit,
		&r.ControlTransfer, &r.PatientTrigger,
	}
}

// MarshalBinary encodes the record little-endian with a CRC-16 trailer.
func (r Record) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, RecordSize)
	buf = append(buf, r.Version)
	buf = binary.LittleEndian.AppendUint16(buf, r.PressureOffset[0])
	buf = binary.LittleEndian.AppendUint16(buf, r.PressureOffset[1])
	for _, f := range r.floats() {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(*f))
	}
	buf = binary.LittleEndian.AppendUint16(buf, r.ServoExhaleOpen)
	buf = binary.LittleEndian.AppendUint16(buf, r.ServoExhaleClose)
	buf = binary.LittleEndian.AppendUint16(buf, checksum.CRC16(buf))
	return buf, nil
}

// UnmarshalBinary decodes and verifies data. Trailing bytes past RecordSize
// are ignored. r is left untouched on error.
func (r *Record) UnmarshalBinary(data []byte) error {
	if len(data) < RecordSize {
		return fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}
	body := data[:RecordSize-2]
	want := binary.LittleEndian.Uint16(data[RecordSize-2:])
	if got := checksum.CRC16(body); got != want {
		return fmt.Errorf("%w: computed 0x%04X, stored 0x%04X", ErrChecksum, got, want)
	}
	if body[0] != Version {
		return fmt.Errorf("%w: stored %d, want %d", ErrVersion, body[0], Version)
	}

	var out Record
	out.Version = body[0]
	out.PressureOffset[0] = binary.LittleEndian.Uint16(body[1:])
	out.PressureOffset[1] = binary.LittleEndian.Uint16(body[3:])
	off := 5
	for _, f := range out.floats() {
		*f = math.Float32frombits(binary.LittleEndian.Uint32(body[off:]))
		off += 4
	}
	out.ServoExhaleOpen = binary.LittleEndian.Uint16(body[off:])
	out.ServoExhaleClose = binary.LittleEndian.Uint16(body[off+2:])
	*r = out
	return nil
}
