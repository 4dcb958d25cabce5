// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package checksum implements the CRC-16-CCITT used by the configuration
// record and telemetry frames.
package checksum

const (
	// Polynomial is the CRC-16-CCITT generator polynomial.
	Polynomial = 0x1021
	// Initial is the register seed.
	Initial = 0xFFFF
)

// CRC16 computes CRC-16-CCITT checksum for the given data
func CRC16(data []byte) uint16 {
	return Update(Initial, data)
}

// Update continues a running checksum with more data.
func Update(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ Polynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
