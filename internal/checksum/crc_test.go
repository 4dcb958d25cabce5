// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package checksum

import "testing"

func TestCRC16(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{"empty", nil, 0xFFFF},
		{"check string", []byte("123456789"), 0x29B1},
		{"single zero", []byte{0x00}, 0xE1F0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CRC16(tt.data); got != tt.want {
				t.Errorf("CRC16() = 0x%04X, want 0x%04X", got, tt.want)
			}
		})
	}
}

func TestUpdateIsIncremental(t *testing.T) {
	data := []byte("ventilator")
	whole := CRC16(data)
	split := Update(Update(Initial, data[:4]), data[4:])
	if whole != split {
		t.Errorf("split CRC = 0x%04X, want 0x%04X", split, whole)
	}
}
