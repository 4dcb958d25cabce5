// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/tlc/pkg/config"
	"github.com/Thermoquad/tlc/pkg/datamodel"
)

// nominal returns a state in Process with readings inside every limit.
func nominal() (*datamodel.State, config.Record) {
	s := datamodel.New()
	s.System = datamodel.StateProcess
	s.Pressure = [2]float32{200, 205}
	s.Battery = 12.6
	return s, config.Defaults()
}

func TestEvaluateNominal(t *testing.T) {
	s, rec := nominal()
	m := New()

	assert.Zero(t, m.Evaluate(s, &rec))
	assert.False(t, m.Critical)
	assert.Equal(t, datamodel.StateProcess, s.System)
}

func TestEvaluateMaxPressure(t *testing.T) {
	s, rec := nominal()
	s.Pressure = [2]float32{rec.MaxPressure, rec.MaxPressure}
	m := New()

	alarms := m.Evaluate(s, &rec)

	assert.True(t, alarms.Has(datamodel.AlarmMaxPressure))
	assert.Equal(t, alarms, s.Alarms)
	assert.True(t, m.Critical)
	assert.Equal(t, datamodel.StateError, s.System)
}

func TestEvaluateEachCondition(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*datamodel.State, *config.Record, *Monitor)
		want  datamodel.Alarm
	}{
		{
			name:  "secondary at min limit",
			setup: func(s *datamodel.State, r *config.Record, _ *Monitor) { s.Pressure = [2]float32{r.MinPressure, r.MinPressure} },
			want:  datamodel.AlarmMinPressure,
		},
		{
			name:  "sensor disagreement",
			setup: func(s *datamodel.State, r *config.Record, _ *Monitor) { s.Pressure = [2]float32{300, 300 - r.MaxPressureDelta} },
			want:  datamodel.AlarmSensorRedundancy,
		},
		{
			name:  "invalid configuration",
			setup: func(_ *datamodel.State, _ *config.Record, m *Monitor) { m.MarkConfigurationInvalid() },
			want:  datamodel.AlarmInvalidConfig,
		},
		{
			name:  "battery low",
			setup: func(s *datamodel.State, r *config.Record, _ *Monitor) { s.Battery = r.MinBattery - 0.1 },
			want:  datamodel.AlarmBatteryLow,
		},
		{
			name:  "all at once",
			setup: func(s *datamodel.State, r *config.Record, m *Monitor) {
				s.Pressure = [2]float32{r.MaxPressure + 100, r.MinPressure}
				s.Battery = 0
				m.MarkConfigurationInvalid()
			},
			want: datamodel.AlarmMaxPressure | datamodel.AlarmMinPressure |
				datamodel.AlarmSensorRedundancy | datamodel.AlarmInvalidConfig | datamodel.AlarmBatteryLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rec := nominal()
			m := New()
			tt.setup(s, &rec, m)

			assert.Equal(t, tt.want, m.Evaluate(s, &rec))
			assert.True(t, m.Critical)
			assert.Equal(t, datamodel.StateError, s.System)
		})
	}
}

func TestEvaluateReplacesBitmask(t *testing.T) {
	s, rec := nominal()
	s.Alarms = datamodel.AlarmBatteryLow
	m := New()

	assert.Zero(t, m.Evaluate(s, &rec))
	assert.Zero(t, s.Alarms)
}

func TestEvaluateSkipped(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s, rec := nominal()
		s.Pressure[0] = rec.MaxPressure * 2
		s.Alarms = datamodel.AlarmBatteryLow
		m := New()
		m.Enable(false)

		assert.Equal(t, datamodel.AlarmBatteryLow, m.Evaluate(s, &rec))
		assert.False(t, m.Critical)
		assert.Equal(t, datamodel.StateProcess, s.System)
	})

	t.Run("not in process", func(t *testing.T) {
		s, rec := nominal()
		s.System = datamodel.StateWarmup
		s.Pressure[0] = rec.MaxPressure * 2
		m := New()

		assert.Zero(t, m.Evaluate(s, &rec))
		assert.Equal(t, datamodel.StateWarmup, s.System)
	})
}

func TestClearIsIdempotent(t *testing.T) {
	s, rec := nominal()
	s.Pressure[0] = rec.MaxPressure
	m := New()
	m.MarkConfigurationInvalid()
	require.NotZero(t, m.Evaluate(s, &rec))

	m.Clear(s)
	assert.False(t, m.Critical)
	assert.Zero(t, s.Alarms)

	m.Clear(s)
	assert.False(t, m.Critical)
	assert.Zero(t, s.Alarms)
	assert.True(t, m.ConfigurationInvalid)
	assert.True(t, m.Enabled)
	assert.Equal(t, datamodel.StateError, s.System, "clear does not restore the system state")
}
