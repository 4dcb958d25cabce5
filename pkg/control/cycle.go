// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package control

import "github.com/Thermoquad/tlc/pkg/datamodel"

// computeSetPoint advances the cycle state machine. It returns false when
// the tick must not reach the PID step.
func (c *Controller) computeSetPoint() bool {
	s := c.state
	switch s.Cycle {
	case datamodel.CycleWaitTrigger:
		c.detail = "Trigger"
		fired, ok := c.checkTrigger()
		if !ok {
			return false
		}
		if !fired {
			return true
		}
		s.Timers.Respiration = c.clock.Millis()
		if !c.startPhase(&s.InhaleCurve) {
			c.monitor.MarkCritical()
			return false
		}
		c.closeValve()
		s.Cycle = datamodel.CycleInhale

	case datamodel.CycleInhale:
		c.detail = "Inhale"
		finished, ok := c.playback(&s.InhaleCurve)
		if !ok {
			return false
		}
		if finished {
			if !c.startPhase(&s.ExhaleCurve) {
				c.monitor.MarkCritical()
				return false
			}
			c.openValve()
			s.Cycle = datamodel.CycleExhale
		}

	case datamodel.CycleExhale:
		c.detail = "Exhale"
		finished, ok := c.playback(&s.ExhaleCurve)
		if !ok {
			return false
		}
		if finished {
			c.closeValve()
			s.Timers.Stabilization = c.clock.Millis()
			s.Cycle = datamodel.CycleStabilization
		}

	case datamodel.CycleStabilization:
		c.detail = "Stabil"
		if c.elapsed(s.Timers.Stabilization) >= datamodel.PeriodStabilization {
			s.Cycle = datamodel.CycleWaitTrigger
		}

	default:
		c.detail = "N/A"
		c.monitor.MarkConfigurationInvalid()
		s.Drive = 0
		s.Cycle = datamodel.CycleWaitTrigger
		return false
	}
	return true
}

// checkTrigger evaluates the trigger predicate. ok is false when the trigger
// mode is invalid; the drive is then zeroed and the configuration flagged.
func (c *Controller) checkTrigger() (fired, ok bool) {
	s := c.state
	switch s.TriggerMode {
	case datamodel.TriggerTimed:
		return c.timedTrigger(), true
	case datamodel.TriggerPatient:
		return c.patientTrigger(), true
	case datamodel.TriggerPatientSemiAutomatic:
		return c.patientTrigger() || c.timedTrigger(), true
	default:
		c.monitor.MarkConfigurationInvalid()
		s.Drive = 0
		return false, false
	}
}

func (c *Controller) timedTrigger() bool {
	period := c.state.RespirationPeriodMs()
	return period > 0 && c.elapsed(c.state.Timers.Respiration) >= period
}

func (c *Controller) patientTrigger() bool {
	return c.state.Pressure[0] < c.rec.PatientTrigger
}

// startPhase rewinds playback to the first waypoint of curve. It refuses
// an empty curve.
func (c *Controller) startPhase(curve *datamodel.PressureCurve) bool {
	if curve.Count == 0 {
		return false
	}
	s := c.state
	s.CurveIndex = 0
	s.Timers.SetPoint = c.clock.Millis()
	s.RequestPressure = curve.Points[0].PressureMmH2O
	return true
}

// playback holds the current waypoint's pressure and advances once its hold
// elapses. finished is true when the index reaches the curve's count; ok is
// false when the index is past the curve capacity, which latches the
// critical flag.
func (c *Controller) playback(curve *datamodel.PressureCurve) (finished, ok bool) {
	s := c.state
	count := curve.Count
	if count > datamodel.MaxCurveCount {
		count = datamodel.MaxCurveCount
	}
	if s.CurveIndex > datamodel.MaxCurveCount {
		c.monitor.MarkCritical()
		s.CurveIndex = count
		return true, false
	}
	if s.CurveIndex >= count {
		return true, true
	}

	wp := curve.Points[s.CurveIndex]
	s.RequestPressure = wp.PressureMmH2O
	if c.elapsed(s.Timers.SetPoint) >= wp.HoldMs {
		s.Timers.SetPoint = c.clock.Millis()
		s.CurveIndex++
	}
	return false, true
}
