// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/tlc/pkg/datamodel"
)

// ParseArgs builds a Command from a mnemonic and textual arguments, as typed
// on a host console. Values are not range checked; the device does that.
func ParseArgs(mnemonic string, args []string) (Command, error) {
	mnemonic = strings.ToUpper(mnemonic)
	if len(mnemonic) != MnemonicSize {
		return nil, fmt.Errorf("mnemonic %q must be %d characters", mnemonic, MnemonicSize)
	}
	kind := LookupString(mnemonic)

	want := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s takes %d argument(s), got %d", mnemonic, n, len(args))
		}
		return nil
	}

	switch kind {
	case KindUnknown:
		var u Unknown
		copy(u.Mnemonic[:], mnemonic)
		return u, nil

	case KindConfig, KindStatus, KindAlive:
		return Query{Which: kind}, want(0)

	case KindInitPressureSensor, KindInitPEEP, KindInitTidalVolume,
		KindAlarmReset, KindConfigSave, KindConfigLoad:
		return Action{Which: kind}, want(0)

	case KindTrigger:
		if err := want(1); err != nil {
			return nil, err
		}
		v, err := parseEnum(args[0], datamodel.TriggerModeCount, func(i uint8) string { return datamodel.TriggerMode(i).String() })
		return SetTrigger{Mode: datamodel.TriggerMode(v)}, err

	case KindControl:
		if err := want(1); err != nil {
			return nil, err
		}
		v, err := parseEnum(args[0], datamodel.ControlModeCount, func(i uint8) string { return datamodel.ControlMode(i).String() })
		return SetControl{Mode: datamodel.ControlMode(v)}, err

	case KindCycle, KindAlarmEnable:
		if err := want(1); err != nil {
			return nil, err
		}
		on, err := parseSwitch(args[0])
		if err != nil {
			return nil, err
		}
		if kind == KindCycle {
			return SetCycle{Start: on}, nil
		}
		return AlarmEnable{On: on}, nil

	case KindFiO2:
		v, err := parseFloats(args, 1)
		if err != nil {
			return nil, err
		}
		return SetFiO2{Percent: v[0]}, nil

	case KindCurve:
		v, err := parseFloats(args, 5)
		if err != nil {
			return nil, err
		}
		return SetCurve{Params: datamodel.CurveParams{
			RespirationsPerMinute: v[0],
			InhaleTargetMmH2O:     v[1],
			ExhaleTargetMmH2O:     v[2],
			InhaleRatio:           v[3],
			ExhaleRatio:           v[4],
		}}, nil

	case KindTakeOver:
		if err := want(1); err != nil {
			return nil, err
		}
		v, err := strconv.ParseInt(args[0], 10, 32)
		if err != nil {
			return nil, err
		}
		return SetTakeOver{Ms: int32(v)}, nil

	case KindMinBattery, KindTidalLow, KindTidalHigh, KindPressureLow, KindPressureHigh,
		KindPressureDelta, KindFiO2Low, KindFiO2High, KindNonRebreathing:
		v, err := parseFloats(args, 1)
		if err != nil {
			return nil, err
		}
		return SetThreshold{Which: kind, Value: v[0]}, nil

	case KindSetGains:
		v, err := parseFloats(args, 3)
		if err != nil {
			return nil, err
		}
		return SetGains{P: v[0], I: v[1], D: v[2]}, nil

	case KindSetLimits:
		v, err := parseFloats(args, 2)
		if err != nil {
			return nil, err
		}
		return SetLimits{I: v[0], PI: v[1]}, nil

	case KindInhaleCurve, KindExhaleCurve:
		points := make([]datamodel.Waypoint, 0, len(args))
		for _, a := range args {
			wp, err := parseWaypoint(a)
			if err != nil {
				return nil, err
			}
			points = append(points, wp)
		}
		cmd := SetCurvePoints{Which: kind}
		if err := cmd.Curve.Load(points); err != nil {
			return nil, err
		}
		return cmd, nil

	case KindDrive:
		if err := want(1); err != nil {
			return nil, err
		}
		v, err := strconv.ParseUint(args[0], 10, 16)
		if err != nil {
			return nil, err
		}
		return SetDrive{Drive: uint16(v)}, nil
	}
	return nil, fmt.Errorf("unsupported mnemonic %s", mnemonic)
}

func parseFloats(args []string, n int) ([]float32, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d value(s), got %d", n, len(args))
	}
	out := make([]float32, n)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 32)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// parseEnum accepts either the numeric value or the case-insensitive name.
func parseEnum[T ~uint8](arg string, count T, name func(uint8) string) (T, error) {
	if v, err := strconv.ParseInt(arg, 10, 32); err == nil {
		return T(v), nil
	}
	for i := T(0); i < count; i++ {
		if strings.EqualFold(arg, name(uint8(i))) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown value %q", arg)
}

func parseSwitch(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "1", "on", "start", "true", "enable":
		return true, nil
	case "0", "off", "stop", "false", "disable":
		return false, nil
	}
	return false, fmt.Errorf("expected on/off, got %q", arg)
}

// parseWaypoint parses "pressure:holdMs".
func parseWaypoint(arg string) (datamodel.Waypoint, error) {
	p, h, ok := strings.Cut(arg, ":")
	if !ok {
		return datamodel.Waypoint{}, fmt.Errorf("waypoint %q must be pressure:holdMs", arg)
	}
	pressure, err := strconv.ParseFloat(p, 32)
	if err != nil {
		return datamodel.Waypoint{}, fmt.Errorf("waypoint %q: %w", arg, err)
	}
	hold, err := strconv.ParseUint(h, 10, 32)
	if err != nil {
		return datamodel.Waypoint{}, fmt.Errorf("waypoint %q: %w", arg, err)
	}
	return datamodel.Waypoint{PressureMmH2O: float32(pressure), HoldMs: uint32(hold)}, nil
}
