// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package datamodel holds the shared state register read and written by
// every firmware step.
package datamodel

import "math"

// PIDTerms are the controller internals exposed for telemetry.
type PIDTerms struct {
	Error    float32
	P        float32
	I        float32
	D        float32
	Combined float32
}

// Timers hold the tick at which each timed phase began.
type Timers struct {
	SetPoint      uint32
	Respiration   uint32
	Stabilization uint32
}

// CurveParams are the inputs of curve synthesis.
type CurveParams struct {
	RespirationsPerMinute float32
	InhaleTargetMmH2O     float32
	ExhaleTargetMmH2O     float32
	InhaleRatio           float32
	ExhaleRatio           float32
}

// Advisory holds operator thresholds that are reported but not evaluated.
type Advisory struct {
	TidalVolumeLow  float32
	TidalVolumeHigh float32
	FiO2Low         float32
	FiO2High        float32
	NonRebreathing  float32
	TakeOverMs      int32
}

// State is the shared register. It is created once at boot and mutated in
// place by the step that owns each field.
type State struct {
	System      SystemState
	Cycle       CycleState
	ControlMode ControlMode
	TriggerMode TriggerMode
	Start       bool
	Alarms      Alarm

	InhaleCurve PressureCurve
	ExhaleCurve PressureCurve
	CurveIndex  uint8
	Curve       CurveParams

	RawPressure [SensorCount]uint16
	Pressure    [SensorCount]float32
	Battery     float32

	RequestPressure float32
	PID             PIDTerms
	Drive           uint16

	FiO2     float32
	Advisory Advisory
	Timers   Timers
}

// New returns a State with boot defaults: 8-point curves, 12 respirations
// per minute, PID control and timed trigger.
func New() *State {
	s := &State{
		System:      StateInit,
		Cycle:       CycleWaitTrigger,
		ControlMode: ControlPID,
		TriggerMode: TriggerTimed,
		InhaleCurve: uniformCurve(250, 100),
		ExhaleCurve: uniformCurve(80, 100),
		Curve: CurveParams{
			RespirationsPerMinute: 12,
			InhaleTargetMmH2O:     2500,
			ExhaleTargetMmH2O:     500,
			InhaleRatio:           1,
			ExhaleRatio:           3,
		},
		FiO2: 21,
	}
	s.ExhaleCurve.Points[MaxCurveCount-1].PressureMmH2O = 0
	return s
}

// PhaseDurationMs returns the length of a phase with the given ratio at the
// current respiration rate.
func (p CurveParams) PhaseDurationMs(ratio float32) uint32 {
	if p.RespirationsPerMinute == 0 {
		return 0
	}
	d := float64(ratio) * 1000 / float64(p.RespirationsPerMinute)
	if d <= 0 || math.IsNaN(d) {
		return 0
	}
	if d > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(d)
}

// UpdateCurves synthesizes 3-waypoint inhale and exhale curves from Curve.
// Waypoints sit at 0, d/2 and d milliseconds into each phase; slots past the
// third are left untouched.
func (s *State) UpdateCurves() error {
	if s.Curve.RespirationsPerMinute == 0 {
		return ErrZeroRate
	}
	in := s.Curve.PhaseDurationMs(s.Curve.InhaleRatio)
	ex := s.Curve.PhaseDurationMs(s.Curve.ExhaleRatio)
	inT, exT := s.Curve.InhaleTargetMmH2O, s.Curve.ExhaleTargetMmH2O

	s.InhaleCurve.Points[0] = Waypoint{PressureMmH2O: exT, HoldMs: 0}
	s.InhaleCurve.Points[1] = Waypoint{PressureMmH2O: inT, HoldMs: in / 2}
	s.InhaleCurve.Points[2] = Waypoint{PressureMmH2O: inT, HoldMs: in}
	s.InhaleCurve.Count = 3

	s.ExhaleCurve.Points[0] = Waypoint{PressureMmH2O: inT, HoldMs: 0}
	s.ExhaleCurve.Points[1] = Waypoint{PressureMmH2O: exT, HoldMs: ex / 2}
	s.ExhaleCurve.Points[2] = Waypoint{PressureMmH2O: exT, HoldMs: ex}
	s.ExhaleCurve.Count = 3
	return nil
}

// RespirationPeriodMs is the timed trigger deadline, 0 when the rate is 0.
func (s *State) RespirationPeriodMs() uint32 {
	if s.Curve.RespirationsPerMinute <= 0 {
		return 0
	}
	return uint32(60000 / s.Curve.RespirationsPerMinute)
}
