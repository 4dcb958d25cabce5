// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/tlc/pkg/config"
	"github.com/Thermoquad/tlc/pkg/datamodel"
)

// FloatPrecision is the number of decimals used for floats in reply lines.
const FloatPrecision = 5

// statusAlarmOrder is the order alarm bits are reported in a status line.
var statusAlarmOrder = []datamodel.Alarm{
	datamodel.AlarmMinPressure,
	datamodel.AlarmMaxPressure,
	datamodel.AlarmSensorRedundancy,
	datamodel.AlarmInvalidConfig,
	datamodel.AlarmBatteryLow,
}

// Status is the live snapshot reported by STA.
type Status struct {
	Pressure [datamodel.SensorCount]float32
	Request  float32
	Battery  float32
	Drive    uint16
	System   datamodel.SystemState
	Control  datamodel.ControlMode
	Trigger  datamodel.TriggerMode
	Cycle    datamodel.CycleState
	Alarms   datamodel.Alarm
}

// StatusOf snapshots s.
func StatusOf(s *datamodel.State) Status {
	return Status{
		Pressure: s.Pressure,
		Request:  s.RequestPressure,
		Battery:  s.Battery,
		Drive:    s.Drive,
		System:   s.System,
		Control:  s.ControlMode,
		Trigger:  s.TriggerMode,
		Cycle:    s.Cycle,
		Alarms:   s.Alarms,
	}
}

// Settings is the configuration snapshot reported by CFG.
type Settings struct {
	FiO2           float32
	TakeOverMs     float32
	Rate           float32
	InhaleTarget   float32
	ExhaleTarget   float32
	InhaleRatio    float32
	ExhaleRatio    float32
	MinBattery     float32
	TidalLow       float32
	TidalHigh      float32
	MinPressure    float32
	MaxPressure    float32
	MaxDelta       float32
	FiO2Low        float32
	FiO2High       float32
	NonRebreathing float32
}

// SettingsOf snapshots the operator settings held in s and rec.
func SettingsOf(s *datamodel.State, rec *config.Record) Settings {
	return Settings{
		FiO2:           s.FiO2,
		TakeOverMs:     float32(s.Advisory.TakeOverMs),
		Rate:           s.Curve.RespirationsPerMinute,
		InhaleTarget:   s.Curve.InhaleTargetMmH2O,
		ExhaleTarget:   s.Curve.ExhaleTargetMmH2O,
		InhaleRatio:    s.Curve.InhaleRatio,
		ExhaleRatio:    s.Curve.ExhaleRatio,
		MinBattery:     rec.MinBattery,
		TidalLow:       s.Advisory.TidalVolumeLow,
		TidalHigh:      s.Advisory.TidalVolumeHigh,
		MinPressure:    rec.MinPressure,
		MaxPressure:    rec.MaxPressure,
		MaxDelta:       rec.MaxPressureDelta,
		FiO2Low:        s.Advisory.FiO2Low,
		FiO2High:       s.Advisory.FiO2High,
		NonRebreathing: s.Advisory.NonRebreathing,
	}
}

func (c *Settings) fields() []*float32 {
	return []*float32{
		&c.FiO2, &c.TakeOverMs, &c.Rate, &c.InhaleTarget, &c.ExhaleTarget,
		&c.InhaleRatio, &c.ExhaleRatio, &c.MinBattery, &c.TidalLow, &c.TidalHigh,
		&c.MinPressure, &c.MaxPressure, &c.MaxDelta, &c.FiO2Low, &c.FiO2High,
		&c.NonRebreathing,
	}
}

func appendFloatField(b []byte, v float32) []byte {
	return strconv.AppendFloat(b, float64(v), 'f', FloatPrecision, 32)
}

// AppendStatus appends the STA reply line, CR-LF included.
func AppendStatus(b []byte, st Status) []byte {
	b = appendFloatField(b, st.Pressure[0])
	b = append(b, ',')
	b = appendFloatField(b, st.Pressure[1])
	b = append(b, ',')
	b = appendFloatField(b, st.Request)
	b = append(b, ',')
	b = appendFloatField(b, st.Battery)
	for _, v := range []int64{int64(st.Drive), int64(st.System), int64(st.Control), int64(st.Trigger), int64(st.Cycle)} {
		b = append(b, ',')
		b = strconv.AppendInt(b, v, 10)
	}
	for _, flag := range statusAlarmOrder {
		if st.Alarms.Has(flag) {
			b = append(b, ",1"...)
		} else {
			b = append(b, ",0"...)
		}
	}
	return append(b, LineEnd...)
}

// AppendSettings appends the CFG reply line, CR-LF included.
func AppendSettings(b []byte, c Settings) []byte {
	for i, f := range c.fields() {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendFloatField(b, *f)
	}
	return append(b, LineEnd...)
}

func splitLine(line string, want int) ([]string, error) {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.Split(line, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("expected %d fields, got %d", want, len(parts))
	}
	return parts, nil
}

// ParseStatus parses a STA reply line.
func ParseStatus(line string) (Status, error) {
	parts, err := splitLine(line, 9+len(statusAlarmOrder))
	if err != nil {
		return Status{}, fmt.Errorf("status: %w", err)
	}

	var st Status
	floats := []*float32{&st.Pressure[0], &st.Pressure[1], &st.Request, &st.Battery}
	for i, f := range floats {
		v, err := strconv.ParseFloat(parts[i], 32)
		if err != nil {
			return Status{}, fmt.Errorf("status field %d: %w", i, err)
		}
		*f = float32(v)
	}

	ints := make([]uint64, 5)
	for i := range ints {
		v, err := strconv.ParseUint(parts[4+i], 10, 16)
		if err != nil {
			return Status{}, fmt.Errorf("status field %d: %w", 4+i, err)
		}
		ints[i] = v
	}
	st.Drive = uint16(ints[0])
	st.System = datamodel.SystemState(ints[1])
	st.Control = datamodel.ControlMode(ints[2])
	st.Trigger = datamodel.TriggerMode(ints[3])
	st.Cycle = datamodel.CycleState(ints[4])

	for i, flag := range statusAlarmOrder {
		switch parts[9+i] {
		case "1":
			st.Alarms |= flag
		case "0":
		default:
			return Status{}, fmt.Errorf("status alarm field %d: %q", 9+i, parts[9+i])
		}
	}
	return st, nil
}

// ParseSettings parses a CFG reply line.
func ParseSettings(line string) (Settings, error) {
	var c Settings
	fields := c.fields()
	parts, err := splitLine(line, len(fields))
	if err != nil {
		return Settings{}, fmt.Errorf("settings: %w", err)
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(parts[i], 32)
		if err != nil {
			return Settings{}, fmt.Errorf("settings field %d: %w", i, err)
		}
		*f = float32(v)
	}
	return c, nil
}
