// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/tlc/internal/checksum"
)

// Decoder errors
var (
	ErrCRCMismatch = errors.New("telemetry: CRC mismatch")
	ErrFraming     = errors.New("telemetry: framing error")
	ErrLength      = errors.New("telemetry: invalid length")
)

// Decoder states
const (
	stateIdle = iota
	stateLength
	statePayload
	stateCRC1
	stateCRC2
	stateEnd
)

// Decoder reassembles packets from a byte stream.
type Decoder struct {
	state      int
	buffer     [MaxPacketSize]byte
	n          int
	escapeNext bool
	packet     *Packet
	rawBuffer  []byte
}

// NewDecoder creates a new frame decoder
func NewDecoder() *Decoder {
	return &Decoder{rawBuffer: make([]byte, 0, MaxPacketSize*2)}
}

// Reset resets the decoder state to idle
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.n = 0
	d.escapeNext = false
	d.packet = nil
	d.rawBuffer = d.rawBuffer[:0]
}

// RawBytes returns the bytes accumulated since the last frame start.
func (d *Decoder) RawBytes() []byte {
	return d.rawBuffer
}

// DecodeByte processes a single byte through the decoder state machine.
// It returns a completed packet, or nil if the frame is incomplete.
func (d *Decoder) DecodeByte(b byte) (*Packet, error) {
	switch {
	case b == StartByte:
		d.Reset()
		d.rawBuffer = append(d.rawBuffer, b)
		d.state = stateLength
		return nil, nil
	case d.state == stateIdle:
		return nil, nil
	}

	d.rawBuffer = append(d.rawBuffer, b)

	if b == EndByte {
		state, packet := d.state, d.packet
		if state != stateEnd || d.escapeNext {
			d.Reset()
			return nil, fmt.Errorf("%w: unexpected END byte in state %d", ErrFraming, state)
		}
		calculated := checksum.CRC16(d.buffer[:d.n])
		d.Reset()
		if packet.crc != calculated {
			return nil, fmt.Errorf("%w: expected 0x%04X, got 0x%04X", ErrCRCMismatch, calculated, packet.crc)
		}
		packet.timestamp = time.Now()
		return packet, nil
	}

	if b == EscByte && !d.escapeNext {
		d.escapeNext = true
		return nil, nil
	}
	if d.escapeNext {
		b ^= EscXor
		d.escapeNext = false
	}

	switch d.state {
	case stateLength:
		if b > MaxPayloadSize {
			d.Reset()
			return nil, fmt.Errorf("%w: %d (max %d)", ErrLength, b, MaxPayloadSize)
		}
		d.packet = &Packet{length: b, cborPayload: make([]byte, 0, b)}
		d.buffer[0] = b
		d.n = 1
		if b == 0 {
			d.state = stateCRC1
		} else {
			d.state = statePayload
		}

	case statePayload:
		d.packet.cborPayload = append(d.packet.cborPayload, b)
		d.buffer[d.n] = b
		d.n++
		if len(d.packet.cborPayload) >= int(d.packet.length) {
			d.state = stateCRC1
		}

	case stateCRC1:
		d.packet.crc = uint16(b) << 8
		d.state = stateCRC2

	case stateCRC2:
		d.packet.crc |= uint16(b)
		d.state = stateEnd

	case stateEnd:
		d.Reset()
		return nil, fmt.Errorf("%w: missing END byte", ErrFraming)
	}
	return nil, nil
}

// Decode feeds data through the decoder and returns every completed packet.
// Errors are reported through onError when it is not nil.
func (d *Decoder) Decode(data []byte, onError func(error)) []*Packet {
	var packets []*Packet
	for _, b := range data {
		p, err := d.DecodeByte(b)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			continue
		}
		if p != nil {
			packets = append(packets, p)
		}
	}
	return packets
}
