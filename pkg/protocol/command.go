// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package protocol

import (
	"encoding/binary"
	"math"

	"github.com/Thermoquad/tlc/pkg/datamodel"
)

// Command is one decoded frame. The concrete type is one of the structs in
// this file; Engine matches on them exhaustively.
type Command interface {
	Kind() Kind
	// AppendPayload appends the binary payload, mnemonic excluded.
	AppendPayload(b []byte) []byte
}

// Unknown is any frame whose mnemonic is not in the table.
type Unknown struct {
	Mnemonic [MnemonicSize]byte
}

// Query is a payload-less request: CFG, STA or ALI.
type Query struct {
	Which Kind
}

// SetTrigger selects the trigger mode (TRI).
type SetTrigger struct {
	Mode datamodel.TriggerMode
}

// SetControl selects the control mode (CTL).
type SetControl struct {
	Mode datamodel.ControlMode
}

// SetCycle sets the start/stop flag (CYC).
type SetCycle struct {
	Start bool
}

// SetFiO2 sets the FiO2 target in percent (FIO).
type SetFiO2 struct {
	Percent float32
}

// SetCurve sets the curve synthesis parameters (CUR).
type SetCurve struct {
	Params datamodel.CurveParams
}

// SetTakeOver sets the take-over threshold in milliseconds (TTH).
type SetTakeOver struct {
	Ms int32
}

// SetThreshold sets one float alarm threshold. Which is one of MBL, ALT,
// AHT, ALP, AHP, ADP, ALF, AHF or ANR.
type SetThreshold struct {
	Which Kind
	Value float32
}

// Action is a payload-less side-effecting command: IPS, IPV, ITV, ART,
// CSV or CLD.
type Action struct {
	Which Kind
}

// AlarmEnable turns the safety checks on or off (AEN).
type AlarmEnable struct {
	On bool
}

// SetGains sets the PID gains (SGP).
type SetGains struct {
	P, I, D float32
}

// SetLimits sets the PID clamp limits (SLP).
type SetLimits struct {
	I, PI float32
}

// SetCurvePoints replaces a whole curve (ICP for inhale, ECP for exhale).
type SetCurvePoints struct {
	Which Kind
	Curve datamodel.PressureCurve
}

// SetDrive sets the pump drive used in feed-forward mode (DRV).
type SetDrive struct {
	Drive uint16
}

func (Unknown) Kind() Kind          { return KindUnknown }
func (q Query) Kind() Kind          { return q.Which }
func (SetTrigger) Kind() Kind       { return KindTrigger }
func (SetControl) Kind() Kind       { return KindControl }
func (SetCycle) Kind() Kind         { return KindCycle }
func (SetFiO2) Kind() Kind          { return KindFiO2 }
func (SetCurve) Kind() Kind         { return KindCurve }
func (SetTakeOver) Kind() Kind      { return KindTakeOver }
func (t SetThreshold) Kind() Kind   { return t.Which }
func (a Action) Kind() Kind         { return a.Which }
func (AlarmEnable) Kind() Kind      { return KindAlarmEnable }
func (SetGains) Kind() Kind         { return KindSetGains }
func (SetLimits) Kind() Kind        { return KindSetLimits }
func (c SetCurvePoints) Kind() Kind { return c.Which }
func (SetDrive) Kind() Kind         { return KindDrive }

func appendFloat32(b []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
}

func appendInt32(b []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(b, uint32(v))
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}

func (Unknown) AppendPayload(b []byte) []byte { return b }
func (Query) AppendPayload(b []byte) []byte   { return b }
func (Action) AppendPayload(b []byte) []byte  { return b }

func (c SetTrigger) AppendPayload(b []byte) []byte  { return appendInt32(b, int32(c.Mode)) }
func (c SetControl) AppendPayload(b []byte) []byte  { return appendInt32(b, int32(c.Mode)) }
func (c SetCycle) AppendPayload(b []byte) []byte    { return appendBool(b, c.Start) }
func (c SetFiO2) AppendPayload(b []byte) []byte     { return appendFloat32(b, c.Percent) }
func (c SetTakeOver) AppendPayload(b []byte) []byte { return appendInt32(b, c.Ms) }
func (c SetThreshold) AppendPayload(b []byte) []byte {
	return appendFloat32(b, c.Value)
}
func (c AlarmEnable) AppendPayload(b []byte) []byte { return appendBool(b, c.On) }
func (c SetDrive) AppendPayload(b []byte) []byte {
	return binary.LittleEndian.AppendUint16(b, c.Drive)
}

func (c SetCurve) AppendPayload(b []byte) []byte {
	p := c.Params
	for _, v := range []float32{p.RespirationsPerMinute, p.InhaleTargetMmH2O, p.ExhaleTargetMmH2O, p.InhaleRatio, p.ExhaleRatio} {
		b = appendFloat32(b, v)
	}
	return b
}

func (c SetGains) AppendPayload(b []byte) []byte {
	b = appendInt32(b, 3)
	b = appendFloat32(b, c.P)
	b = appendFloat32(b, c.I)
	return appendFloat32(b, c.D)
}

func (c SetLimits) AppendPayload(b []byte) []byte {
	b = appendInt32(b, 2)
	b = appendFloat32(b, c.I)
	return appendFloat32(b, c.PI)
}

func (c SetCurvePoints) AppendPayload(b []byte) []byte {
	points := c.Curve.Active()
	b = appendInt32(b, int32(len(points)))
	for _, wp := range points {
		b = appendFloat32(b, wp.PressureMmH2O)
		b = binary.LittleEndian.AppendUint32(b, wp.HoldMs)
	}
	return b
}

// Encode returns the complete wire frame for c, CR-LF terminated.
func Encode(c Command) []byte {
	b := make([]byte, 0, 64)
	if u, ok := c.(Unknown); ok {
		b = append(b, u.Mnemonic[:]...)
	} else {
		b = append(b, c.Kind().Mnemonic()...)
	}
	b = c.AppendPayload(b)
	return append(b, LineEnd...)
}
