// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/Thermoquad/tlc/internal/checksum"
)

// ============================================================
// Encoder Tests
// ============================================================

func TestEncode_Framing(t *testing.T) {
	frame, err := Encode(MsgStatusData, map[int]interface{}{KeyDrive: uint64(512)})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if frame[0] != StartByte {
		t.Errorf("frame[0] = 0x%02X, want START", frame[0])
	}
	if frame[len(frame)-1] != EndByte {
		t.Errorf("frame[last] = 0x%02X, want END", frame[len(frame)-1])
	}
	for i, b := range frame[1 : len(frame)-1] {
		if b == StartByte || b == EndByte {
			t.Errorf("unstuffed framing byte 0x%02X at %d", b, i+1)
		}
	}

	body, err := UnstuffBytes(frame[1 : len(frame)-1])
	if err != nil {
		t.Fatalf("UnstuffBytes() error = %v", err)
	}
	length := int(body[0])
	if len(body) != 1+length+2 {
		t.Fatalf("body length = %d, want %d", len(body), 1+length+2)
	}
	crc := uint16(body[len(body)-2])<<8 | uint16(body[len(body)-1])
	if want := checksum.CRC16(body[:1+length]); crc != want {
		t.Errorf("crc = 0x%04X, want 0x%04X", crc, want)
	}
}

func TestEncode_PayloadTooLarge(t *testing.T) {
	m := make(map[int]interface{})
	for i := 0; i < 40; i++ {
		m[i] = float64(i) + 0.5
	}
	if _, err := Encode(MsgStatusData, m); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("Encode() error = %v, want ErrPayloadTooLarge", err)
	}
}

func TestStuffBytes(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"plain", []byte{0x01, 0x02}, []byte{0x01, 0x02}},
		{"start", []byte{StartByte}, []byte{EscByte, StartByte ^ EscXor}},
		{"end", []byte{EndByte}, []byte{EscByte, EndByte ^ EscXor}},
		{"escape", []byte{EscByte}, []byte{EscByte, EscByte ^ EscXor}},
		{"mixed", []byte{0x10, StartByte, 0x20}, []byte{0x10, EscByte, 0x5E, 0x20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stuffBytes(tt.in)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("stuffBytes() = %X, want %X", got, tt.want)
			}
			back, err := UnstuffBytes(got)
			if err != nil {
				t.Fatalf("UnstuffBytes() error = %v", err)
			}
			if !bytes.Equal(back, tt.in) {
				t.Errorf("UnstuffBytes() = %X, want %X", back, tt.in)
			}
		})
	}
}

func TestUnstuffBytes_TrailingEscape(t *testing.T) {
	if _, err := UnstuffBytes([]byte{0x01, EscByte}); err == nil {
		t.Error("UnstuffBytes() error = nil, want incomplete escape")
	}
}

// ============================================================
// Decoder Tests
// ============================================================

func decodeAll(t *testing.T, d *Decoder, data []byte) []*Packet {
	t.Helper()
	return d.Decode(data, func(err error) { t.Errorf("unexpected decode error: %v", err) })
}

func TestDecoder_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		msgType uint8
		payload map[int]interface{}
	}{
		{"empty payload", MsgCycleEvent, nil},
		{"alarm event", MsgAlarmEvent, map[int]interface{}{
			KeyAlarmCurrent:  uint64(3),
			KeyAlarmPrevious: uint64(0),
			KeyAlarmUptime:   uint64(126),
		}},
		{"status with floats", MsgStatusData, map[int]interface{}{
			KeyPressure0: float32(251.5),
			KeyStart:     true,
			KeyDrive:     uint64(0x7E7F),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := Encode(tt.msgType, tt.payload)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			packets := decodeAll(t, NewDecoder(), frame)
			if len(packets) != 1 {
				t.Fatalf("decoded %d packets, want 1", len(packets))
			}
			p := packets[0]
			if p.Type() != tt.msgType {
				t.Errorf("Type() = 0x%02X, want 0x%02X", p.Type(), tt.msgType)
			}
			if err := p.ParseError(); err != nil {
				t.Fatalf("ParseError() = %v", err)
			}
			if len(p.PayloadMap()) != len(tt.payload) {
				t.Fatalf("payload has %d keys, want %d", len(p.PayloadMap()), len(tt.payload))
			}
			for k, want := range tt.payload {
				switch w := want.(type) {
				case uint64:
					if got, ok := GetMapUint(p.PayloadMap(), k); !ok || got != w {
						t.Errorf("key %d = %v, want %v", k, got, w)
					}
				case float32:
					if got, ok := GetMapFloat(p.PayloadMap(), k); !ok || math.Abs(got-float64(w)) > 1e-4 {
						t.Errorf("key %d = %v, want %v", k, got, w)
					}
				case bool:
					if got, ok := GetMapBool(p.PayloadMap(), k); !ok || got != w {
						t.Errorf("key %d = %v, want %v", k, got, w)
					}
				}
			}
		})
	}
}

func TestDecoder_BackToBack(t *testing.T) {
	var stream []byte
	for i := 0; i < 3; i++ {
		frame, err := Encode(MsgAlarmEvent, map[int]interface{}{KeyAlarmCurrent: uint64(i)})
		if err != nil {
			t.Fatal(err)
		}
		stream = append(stream, 0x00, 0x55) // line noise between frames
		stream = append(stream, frame...)
	}
	packets := decodeAll(t, NewDecoder(), stream)
	if len(packets) != 3 {
		t.Fatalf("decoded %d packets, want 3", len(packets))
	}
	for i, p := range packets {
		if got, _ := GetMapUint(p.PayloadMap(), KeyAlarmCurrent); got != uint64(i) {
			t.Errorf("packet %d alarms = %d, want %d", i, got, i)
		}
	}
}

func TestDecoder_Errors(t *testing.T) {
	payload, err := encodeCBORPayload(MsgStatusData, map[int]interface{}{KeyDrive: uint64(1)})
	if err != nil {
		t.Fatal(err)
	}
	body := append([]byte{uint8(len(payload))}, payload...)
	crc := checksum.CRC16(body) ^ 0x0101
	body = append(body, byte(crc>>8), byte(crc))
	corrupt := append([]byte{StartByte}, stuffBytes(body)...)
	corrupt = append(corrupt, EndByte)

	early := []byte{StartByte, 0x05, 0x01, EndByte}

	tooLong := []byte{StartByte, MaxPayloadSize + 1}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"crc mismatch", corrupt, ErrCRCMismatch},
		{"early end", early, ErrFraming},
		{"length over max", tooLong, ErrLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []error
			packets := NewDecoder().Decode(tt.data, func(err error) { got = append(got, err) })
			if len(packets) != 0 {
				t.Errorf("decoded %d packets, want 0", len(packets))
			}
			if len(got) != 1 || !errors.Is(got[0], tt.want) {
				t.Errorf("errors = %v, want one %v", got, tt.want)
			}
		})
	}
}

func TestDecoder_StartResyncs(t *testing.T) {
	good, err := Encode(MsgCycleEvent, map[int]interface{}{KeyCycleCurrent: uint64(1)})
	if err != nil {
		t.Fatal(err)
	}
	stream := append([]byte{StartByte, 0x03, 0x01}, good...)
	packets := decodeAll(t, NewDecoder(), stream)
	if len(packets) != 1 {
		t.Fatalf("decoded %d packets, want 1", len(packets))
	}
}

// ============================================================
// Statistics Tests
// ============================================================

func TestStatistics_Update(t *testing.T) {
	s := NewStatistics()
	good, _ := Encode(MsgAlarmEvent, map[int]interface{}{KeyAlarmCurrent: uint64(1)})
	packets := decodeAll(t, NewDecoder(), good)

	s.Update(packets[0], nil)
	s.Update(nil, ErrCRCMismatch)
	s.Update(nil, ErrFraming)

	if s.TotalPackets != 3 {
		t.Errorf("TotalPackets = %d, want 3", s.TotalPackets)
	}
	if s.ValidPackets != 1 || s.AlarmEvents != 1 {
		t.Errorf("ValidPackets = %d, AlarmEvents = %d, want 1, 1", s.ValidPackets, s.AlarmEvents)
	}
	if s.CRCErrors != 1 || s.DecodeErrors != 1 {
		t.Errorf("CRCErrors = %d, DecodeErrors = %d, want 1, 1", s.CRCErrors, s.DecodeErrors)
	}
	if out := s.String(); !bytes.Contains([]byte(out), []byte("CRC Errors")) {
		t.Errorf("String() missing CRC line:\n%s", out)
	}

	s.Reset()
	if s.TotalPackets != 0 {
		t.Errorf("TotalPackets after Reset = %d", s.TotalPackets)
	}
}

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatMessageType(t *testing.T) {
	tests := map[uint8]string{
		MsgStatusData: "STATUS_DATA",
		MsgAlarmEvent: "ALARM_EVENT",
		MsgConfigData: "CONFIG_DATA",
		MsgCycleEvent: "CYCLE_EVENT",
		0x00:          "UNKNOWN",
	}
	for msgType, want := range tests {
		if got := FormatMessageType(msgType); got != want {
			t.Errorf("FormatMessageType(0x%02X) = %q, want %q", msgType, got, want)
		}
	}
	if got := TopicName(MsgStatusData); got != "status_data" {
		t.Errorf("TopicName() = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   uint64
		want string
	}{
		{250, "250 ms"},
		{5000, "5s"},
		{65000, "1m 5s"},
		{3725000, "1h 2m 5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.ms); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
