// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package sensors samples the pressure sensors and battery into the shared
// state.
package sensors

import (
	"github.com/Thermoquad/tlc/pkg/config"
	"github.com/Thermoquad/tlc/pkg/datamodel"
)

// Transfer function constants for the MPX5010 sensor on a 10-bit, 5 V ADC.
const (
	ADCCounts             = 1024
	ADCReferenceMv        = 5000.0
	SensitivityMvPerMmH2O = 4.413
	BatteryDividerGain    = 3.0
)

// ADC reads raw 10-bit conversions.
type ADC interface {
	ReadPressure(sensor int) uint16
	ReadBattery() uint16
}

// Sampler converts ADC readings into pressures and battery voltage.
type Sampler struct {
	state *datamodel.State
	rec   *config.Record
	adc   ADC
}

// NewSampler returns a Sampler writing into state.
func NewSampler(state *datamodel.State, rec *config.Record, adc ADC) *Sampler {
	return &Sampler{state: state, rec: rec, adc: adc}
}

// Process samples every sensor. It only runs in Warmup and Process.
func (s *Sampler) Process() {
	st := s.state
	if st.System != datamodel.StateProcess && st.System != datamodel.StateWarmup {
		return
	}
	for i := 0; i < datamodel.SensorCount; i++ {
		raw := s.adc.ReadPressure(i)
		st.RawPressure[i] = raw
		st.Pressure[i] = PressureMmH2O(subtractOffset(raw, s.rec.PressureOffset[i]))
	}
	st.Battery = BatteryVolts(s.adc.ReadBattery())
}

func subtractOffset(raw, offset uint16) uint16 {
	if raw > offset {
		return raw - offset
	}
	return 0
}

// PressureMmH2O converts offset-corrected ADC counts to mmH2O.
func PressureMmH2O(counts uint16) float32 {
	mv := float32(counts) * (1.0 / ADCCounts) * ADCReferenceMv
	return mv * (1.0 / SensitivityMvPerMmH2O)
}

// PressureCounts is the inverse of PressureMmH2O, saturated to the ADC range.
func PressureCounts(mmH2O float64) uint16 {
	counts := mmH2O * SensitivityMvPerMmH2O * ADCCounts / ADCReferenceMv
	switch {
	case counts <= 0:
		return 0
	case counts >= ADCCounts-1:
		return ADCCounts - 1
	}
	return uint16(counts)
}

// BatteryVolts converts the battery divider reading to volts.
func BatteryVolts(counts uint16) float32 {
	return float32(counts) * (1.0 / ADCCounts) * (BatteryDividerGain * 5.0)
}
