// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"github.com/Thermoquad/tlc/pkg/datamodel"
	"github.com/Thermoquad/tlc/pkg/protocol"
)

// StatusPayload builds the MsgStatusData map for s at uptime.
func StatusPayload(s *datamodel.State, uptime uint32) map[int]interface{} {
	return map[int]interface{}{
		KeySystem:     uint64(s.System),
		KeyCycle:      uint64(s.Cycle),
		KeyStart:      s.Start,
		KeyAlarms:     uint64(s.Alarms),
		KeyPressure0:  s.Pressure[0],
		KeyPressure1:  s.Pressure[1],
		KeyRequest:    s.RequestPressure,
		KeyDrive:      uint64(s.Drive),
		KeyBattery:    s.Battery,
		KeyCurveIndex: uint64(s.CurveIndex),
		KeyUptime:     uint64(uptime),
	}
}

// AlarmPayload builds the MsgAlarmEvent map for a bitmask change.
func AlarmPayload(current, previous datamodel.Alarm, uptime uint32) map[int]interface{} {
	return map[int]interface{}{
		KeyAlarmCurrent:  uint64(current),
		KeyAlarmPrevious: uint64(previous),
		KeyAlarmUptime:   uint64(uptime),
	}
}

// CyclePayload builds the MsgCycleEvent map for a phase change.
func CyclePayload(current, previous datamodel.CycleState, uptime uint32) map[int]interface{} {
	return map[int]interface{}{
		KeyCycleCurrent:  uint64(current),
		KeyCyclePrevious: uint64(previous),
		KeyCycleUptime:   uint64(uptime),
	}
}

// ConfigPayload builds the MsgConfigData map. Keys follow the CFG line order.
func ConfigPayload(c protocol.Settings) map[int]interface{} {
	values := []float32{
		c.FiO2, c.TakeOverMs, c.Rate, c.InhaleTarget, c.ExhaleTarget,
		c.InhaleRatio, c.ExhaleRatio, c.MinBattery, c.TidalLow, c.TidalHigh,
		c.MinPressure, c.MaxPressure, c.MaxDelta, c.FiO2Low, c.FiO2High,
		c.NonRebreathing,
	}
	m := make(map[int]interface{}, len(values))
	for i, v := range values {
		m[i] = v
	}
	return m
}

// SettingsFromPayload rebuilds the settings carried by a MsgConfigData map.
func SettingsFromPayload(m map[int]interface{}) (protocol.Settings, bool) {
	var c protocol.Settings
	fields := []*float32{
		&c.FiO2, &c.TakeOverMs, &c.Rate, &c.InhaleTarget, &c.ExhaleTarget,
		&c.InhaleRatio, &c.ExhaleRatio, &c.MinBattery, &c.TidalLow, &c.TidalHigh,
		&c.MinPressure, &c.MaxPressure, &c.MaxDelta, &c.FiO2Low, &c.FiO2High,
		&c.NonRebreathing,
	}
	for i, f := range fields {
		v, ok := GetMapFloat(m, i)
		if !ok {
			return protocol.Settings{}, false
		}
		*f = float32(v)
	}
	return c, true
}
