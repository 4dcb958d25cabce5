// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package telemetry publishes ventilator status, alarm and configuration
// snapshots as framed CBOR packets.
//
// A frame on the wire is
//
//	START | length | cbor[msg_type, {key: value}] | crc_hi | crc_lo | END
//
// where the length byte, payload and CRC are byte-stuffed. The CRC-16-CCITT
// covers the length byte and the CBOR payload.
package telemetry

// Protocol framing bytes
const (
	StartByte = 0x7E
	EndByte   = 0x7F
	EscByte   = 0x7D
	EscXor    = 0x20
)

// Packet size limits
const (
	MaxPacketSize  = 128 // 1 length + 125 payload + 2 crc
	MaxPayloadSize = 125
)

// Message types
const (
	MsgStatusData = 0x30
	MsgAlarmEvent = 0x31
	MsgConfigData = 0x32
	MsgCycleEvent = 0x33
)

// Status data keys
const (
	KeySystem = iota
	KeyCycle
	KeyStart
	KeyAlarms
	KeyPressure0
	KeyPressure1
	KeyRequest
	KeyDrive
	KeyBattery
	KeyCurveIndex
	KeyUptime
)

// Alarm event keys
const (
	KeyAlarmCurrent = iota
	KeyAlarmPrevious
	KeyAlarmUptime
)

// Cycle event keys
const (
	KeyCycleCurrent = iota
	KeyCyclePrevious
	KeyCycleUptime
)

// Config data keys follow the CFG line field order, 0 through 15.
const ConfigFieldCount = 16
