// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package protocol

import (
	"fmt"
	"math"

	"github.com/Thermoquad/tlc/internal/mathx"
	"github.com/Thermoquad/tlc/pkg/datamodel"
)

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}

func rangeErr(field string, v any) error {
	return fmt.Errorf("%w: %s = %v", ErrRange, field, v)
}

// Decode parses one frame (mnemonic + payload, line end already removed).
// Arrays are materialized in scratch. A frame with an unrecognized mnemonic
// decodes to Unknown without error.
func Decode(frame []byte, scratch *Scratch) (Command, error) {
	if len(frame) < MnemonicSize {
		return nil, fmt.Errorf("%w: frame of %d bytes", ErrShortPayload, len(frame))
	}
	kind := Lookup(frame[:MnemonicSize])
	r := NewReader(frame[MnemonicSize:])

	switch kind {
	case KindConfig, KindStatus, KindAlive:
		return Query{Which: kind}, nil

	case KindTrigger:
		v, err := r.Int32()
		if err != nil {
			return nil, err
		}
		if v < 0 || v >= int32(datamodel.TriggerModeCount) {
			return nil, rangeErr("trigger mode", v)
		}
		return SetTrigger{Mode: datamodel.TriggerMode(v)}, nil

	case KindControl:
		v, err := r.Int32()
		if err != nil {
			return nil, err
		}
		if v < 0 || v >= int32(datamodel.ControlModeCount) {
			return nil, rangeErr("control mode", v)
		}
		return SetControl{Mode: datamodel.ControlMode(v)}, nil

	case KindCycle:
		v, err := r.Int8()
		if err != nil {
			return nil, err
		}
		return SetCycle{Start: v != 0}, nil

	case KindFiO2:
		v, err := r.Float32()
		if err != nil {
			return nil, err
		}
		if !mathx.Within(v, MinFiO2, MaxFiO2) {
			return nil, rangeErr("fio2", v)
		}
		return SetFiO2{Percent: v}, nil

	case KindCurve:
		return decodeCurve(&r)

	case KindTakeOver:
		v, err := r.Int32()
		if err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, rangeErr("take-over threshold", v)
		}
		return SetTakeOver{Ms: v}, nil

	case KindMinBattery, KindTidalLow, KindTidalHigh, KindPressureLow, KindPressureHigh,
		KindPressureDelta, KindFiO2Low, KindFiO2High, KindNonRebreathing:
		v, err := r.Float32()
		if err != nil {
			return nil, err
		}
		if !finite(v) {
			return nil, rangeErr(kind.Mnemonic(), v)
		}
		if (kind == KindMinBattery || kind == KindPressureDelta) && v < 0 {
			return nil, rangeErr(kind.Mnemonic(), v)
		}
		return SetThreshold{Which: kind, Value: v}, nil

	case KindInitPressureSensor, KindInitPEEP, KindInitTidalVolume,
		KindAlarmReset, KindConfigSave, KindConfigLoad:
		return Action{Which: kind}, nil

	case KindAlarmEnable:
		v, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		return AlarmEnable{On: v != 0}, nil

	case KindSetGains:
		v, err := r.Float32Array(scratch)
		if err != nil {
			return nil, err
		}
		if len(v) != 3 {
			return nil, fmt.Errorf("%w: %d gains, want 3", ErrCount, len(v))
		}
		for _, g := range v {
			if !finite(g) {
				return nil, rangeErr("gain", g)
			}
		}
		return SetGains{P: v[0], I: v[1], D: v[2]}, nil

	case KindSetLimits:
		v, err := r.Float32Array(scratch)
		if err != nil {
			return nil, err
		}
		if len(v) != 2 {
			return nil, fmt.Errorf("%w: %d limits, want 2", ErrCount, len(v))
		}
		for _, l := range v {
			if !finite(l) || l < 0 {
				return nil, rangeErr("limit", l)
			}
		}
		return SetLimits{I: v[0], PI: v[1]}, nil

	case KindInhaleCurve, KindExhaleCurve:
		points, err := r.WaypointArray(scratch)
		if err != nil {
			return nil, err
		}
		cmd := SetCurvePoints{Which: kind}
		for _, wp := range points {
			if !mathx.Within(wp.PressureMmH2O, 0, MaxWaypointPressure) {
				return nil, rangeErr("waypoint pressure", wp.PressureMmH2O)
			}
			if wp.HoldMs > MaxWaypointHoldMs {
				return nil, rangeErr("waypoint hold", wp.HoldMs)
			}
		}
		if err := cmd.Curve.Load(points); err != nil {
			return nil, err
		}
		return cmd, nil

	case KindDrive:
		v, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		return SetDrive{Drive: v}, nil
	}

	var u Unknown
	copy(u.Mnemonic[:], frame[:MnemonicSize])
	return u, nil
}

func decodeCurve(r *Reader) (Command, error) {
	var v [5]float32
	for i := range v {
		f, err := r.Float32()
		if err != nil {
			return nil, err
		}
		if !finite(f) {
			return nil, rangeErr("curve parameter", f)
		}
		v[i] = f
	}
	p := datamodel.CurveParams{
		RespirationsPerMinute: v[0],
		InhaleTargetMmH2O:     v[1],
		ExhaleTargetMmH2O:     v[2],
		InhaleRatio:           v[3],
		ExhaleRatio:           v[4],
	}
	switch {
	case !mathx.Within(p.InhaleTargetMmH2O, 0, MaxInhaleTarget):
		return nil, rangeErr("inhale target", p.InhaleTargetMmH2O)
	case !mathx.Within(p.ExhaleTargetMmH2O, 0, MaxExhaleTarget):
		return nil, rangeErr("exhale target", p.ExhaleTargetMmH2O)
	case p.InhaleRatio < 0 || p.ExhaleRatio < 0:
		return nil, rangeErr("ratio", fmt.Sprintf("%v/%v", p.InhaleRatio, p.ExhaleRatio))
	case !mathx.Within(p.RespirationsPerMinute, MinRespirationRate, MaxRespirationRate):
		return nil, rangeErr("respiration rate", p.RespirationsPerMinute)
	}
	return SetCurve{Params: p}, nil
}
