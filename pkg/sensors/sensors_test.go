// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sensors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/tlc/pkg/config"
	"github.com/Thermoquad/tlc/pkg/datamodel"
)

type fixedADC struct {
	pressure [2]uint16
	battery  uint16
}

func (f fixedADC) ReadPressure(sensor int) uint16 { return f.pressure[sensor] }
func (f fixedADC) ReadBattery() uint16            { return f.battery }

func TestTransferFunction(t *testing.T) {
	assert.Zero(t, PressureMmH2O(0))
	assert.InDelta(t, 1133.0, PressureMmH2O(1024), 0.5)
	assert.InDelta(t, 15.0, BatteryVolts(1024), 1e-4)
	assert.InDelta(t, 250.0, PressureMmH2O(PressureCounts(250)), 1.2)
	assert.Equal(t, uint16(ADCCounts-1), PressureCounts(5000))
	assert.Zero(t, PressureCounts(-10))
}

func TestSamplerGating(t *testing.T) {
	rec := config.Defaults()
	adc := fixedADC{pressure: [2]uint16{300, 300}, battery: 860}

	for _, st := range []datamodel.SystemState{datamodel.StateInit, datamodel.StateIdle, datamodel.StateError} {
		s := datamodel.New()
		s.System = st
		NewSampler(s, &rec, adc).Process()
		assert.Zero(t, s.RawPressure, st.String())
		assert.Zero(t, s.Battery, st.String())
	}

	for _, st := range []datamodel.SystemState{datamodel.StateWarmup, datamodel.StateProcess} {
		s := datamodel.New()
		s.System = st
		NewSampler(s, &rec, adc).Process()
		assert.Equal(t, [2]uint16{300, 300}, s.RawPressure, st.String())
		assert.InDelta(t, 12.6, s.Battery, 0.01, st.String())
	}
}

func TestSamplerOffsets(t *testing.T) {
	rec := config.Defaults()
	rec.PressureOffset = [2]uint16{40, 500}
	s := datamodel.New()
	s.System = datamodel.StateProcess

	NewSampler(s, &rec, fixedADC{pressure: [2]uint16{266, 300}}).Process()

	assert.Equal(t, [2]uint16{266, 300}, s.RawPressure, "raw readings keep the offset")
	assert.InDelta(t, PressureMmH2O(226), s.Pressure[0], 1e-3)
	assert.Zero(t, s.Pressure[1], "reading below offset floors at zero")
}

func TestLungResponds(t *testing.T) {
	lung := NewLung(90)
	lung.SetExhaleValve(10)
	lung.SetPumpDrive(512)
	for i := 0; i < 400; i++ {
		lung.Step(5)
	}
	closed := lung.Pressure()
	require.Greater(t, closed, 100.0)

	lung.SetExhaleValve(90)
	lung.SetPumpDrive(0)
	for i := 0; i < 400; i++ {
		lung.Step(5)
	}
	assert.Less(t, lung.Pressure(), closed/10)
	assert.True(t, lung.ValveOpen())

	raw := lung.ReadPressure(0)
	assert.GreaterOrEqual(t, raw, lung.Offset[0])
	assert.InDelta(t, 12.6, BatteryVolts(lung.ReadBattery()), 0.02)
}
