// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sensors

import (
	"math"
	"sync"
)

// Lung is a first-order model of a patient circuit. It stands in for the
// pump, exhale valve and sensors when the firmware runs on a host.
type Lung struct {
	mu sync.Mutex

	pressure float64
	drive    uint16
	valve    uint16

	// OpenAngle is the servo angle at which the exhale valve vents.
	OpenAngle uint16
	// InflowGain is the pressure rise rate in mmH2O/s at drive FullDrive.
	InflowGain float64
	// FullDrive is the drive value treated as 100% pump power.
	FullDrive float64
	// ClosedLeak and OpenLeak are the per-second decay rates with the exhale
	// valve closed and open.
	ClosedLeak float64
	OpenLeak   float64
	// Offset is the zero-pressure ADC reading of each sensor.
	Offset [2]uint16
	// Bias is added to the second sensor's reading in mmH2O.
	Bias float64
	// Battery is the supply voltage reported to the ADC.
	Battery float64
}

// NewLung returns a Lung tuned to the default record.
func NewLung(openAngle uint16) *Lung {
	return &Lung{
		OpenAngle:  openAngle,
		valve:      openAngle,
		InflowGain: 2000,
		FullDrive:  1023,
		ClosedLeak: 4,
		OpenLeak:   20,
		Offset:     [2]uint16{40, 38},
		Battery:    12.6,
	}
}

// SetPumpDrive implements control.Actuator.
func (l *Lung) SetPumpDrive(drive uint16) {
	l.mu.Lock()
	l.drive = drive
	l.mu.Unlock()
}

// SetExhaleValve implements control.Actuator.
func (l *Lung) SetExhaleValve(angle uint16) {
	l.mu.Lock()
	l.valve = angle
	l.mu.Unlock()
}

// Step advances the model by dtMs milliseconds.
func (l *Lung) Step(dtMs uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()

	dt := float64(dtMs) / 1000
	leak := l.ClosedLeak
	if l.valve == l.OpenAngle {
		leak = l.OpenLeak
	}
	inflow := l.InflowGain * math.Min(float64(l.drive)/l.FullDrive, 1)
	l.pressure += (inflow - leak*l.pressure) * dt
	if l.pressure < 0 {
		l.pressure = 0
	}
}

// Pressure returns the modeled circuit pressure in mmH2O.
func (l *Lung) Pressure() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pressure
}

// Drive returns the last pump drive written.
func (l *Lung) Drive() uint16 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.drive
}

// ValveOpen reports whether the exhale valve is at its open angle.
func (l *Lung) ValveOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.valve == l.OpenAngle
}

// ReadPressure implements ADC.
func (l *Lung) ReadPressure(sensor int) uint16 {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := l.pressure
	if sensor == 1 {
		p += l.Bias
	}
	counts := uint32(PressureCounts(p)) + uint32(l.Offset[sensor&1])
	if counts > ADCCounts-1 {
		counts = ADCCounts - 1
	}
	return uint16(counts)
}

// ReadBattery implements ADC.
func (l *Lung) ReadBattery() uint16 {
	l.mu.Lock()
	defer l.mu.Unlock()
	counts := l.Battery / (BatteryDividerGain * 5.0) * ADCCounts
	if counts >= ADCCounts-1 {
		return ADCCounts - 1
	}
	return uint16(counts)
}
