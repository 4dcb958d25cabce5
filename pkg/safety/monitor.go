// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package safety cross-checks the redundant pressure sensors and limits
// once per control tick and halts the system when any check fails.
package safety

import (
	"math"

	"github.com/Thermoquad/tlc/pkg/config"
	"github.com/Thermoquad/tlc/pkg/datamodel"
)

// Monitor holds the safety flags. Critical is latched until Clear.
type Monitor struct {
	Enabled              bool
	Critical             bool
	ConfigurationInvalid bool
}

// New returns a Monitor with checks enabled.
func New() *Monitor {
	return &Monitor{Enabled: true}
}

// Evaluate tests every condition against s and rec, replaces the alarm
// bitmask and forces StateError when any bit is set. It does nothing unless
// checks are enabled and the system is in StateProcess.
func (m *Monitor) Evaluate(s *datamodel.State, rec *config.Record) datamodel.Alarm {
	if !m.Enabled || s.System != datamodel.StateProcess {
		return s.Alarms
	}

	primary, secondary := s.Pressure[0], s.Pressure[1]
	delta := float32(math.Abs(float64(primary - secondary)))

	var alarms datamodel.Alarm
	if primary >= rec.MaxPressure {
		alarms |= datamodel.AlarmMaxPressure
	}
	if secondary <= rec.MinPressure {
		alarms |= datamodel.AlarmMinPressure
	}
	if delta >= rec.MaxPressureDelta {
		alarms |= datamodel.AlarmSensorRedundancy
	}
	if m.ConfigurationInvalid {
		alarms |= datamodel.AlarmInvalidConfig
	}
	if s.Battery < rec.MinBattery {
		alarms |= datamodel.AlarmBatteryLow
	}

	s.Alarms = alarms
	if alarms != 0 {
		m.Critical = true
		s.System = datamodel.StateError
	}
	return alarms
}

// Clear drops the critical latch and the alarm bitmask. It is idempotent.
// The configuration-invalid flag is kept; only a successful configuration
// load clears it.
func (m *Monitor) Clear(s *datamodel.State) {
	m.Critical = false
	s.Alarms = 0
}

// Enable turns evaluation on or off. Existing flags are kept.
func (m *Monitor) Enable(on bool) {
	m.Enabled = on
}

// MarkCritical latches the critical flag.
func (m *Monitor) MarkCritical() {
	m.Critical = true
}

// MarkConfigurationInvalid sets the persistent invalid-configuration flag.
func (m *Monitor) MarkConfigurationInvalid() {
	m.ConfigurationInvalid = true
}

// ConfigurationRestored clears the invalid-configuration flag.
func (m *Monitor) ConfigurationRestored() {
	m.ConfigurationInvalid = false
}
