// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package control runs the respiration cycle state machine and the PID
// pressure controller.
package control

import (
	"github.com/Thermoquad/tlc/pkg/clock"
	"github.com/Thermoquad/tlc/pkg/config"
	"github.com/Thermoquad/tlc/pkg/datamodel"
	"github.com/Thermoquad/tlc/pkg/safety"
)

// Actuator drives the pump and the exhale valve servo.
type Actuator interface {
	SetPumpDrive(drive uint16)
	SetExhaleValve(angle uint16)
}

// Controller advances the respiration cycle once per control tick.
type Controller struct {
	state   *datamodel.State
	rec     *config.Record
	monitor *safety.Monitor
	clock   clock.Clock
	act     Actuator

	detail string
}

// New returns a Controller bound to the shared state and collaborators.
func New(state *datamodel.State, rec *config.Record, monitor *safety.Monitor, clk clock.Clock, act Actuator) *Controller {
	return &Controller{
		state:   state,
		rec:     rec,
		monitor: monitor,
		clock:   clk,
		act:     act,
		detail:  "Idle",
	}
}

// Detail returns a short label for the current cycle phase.
func (c *Controller) Detail() string {
	return c.detail
}

// Init opens the exhale valve, clears the start flag and the PID terms and
// starts the respiration timer.
func (c *Controller) Init() {
	c.state.Timers.Respiration = c.clock.Millis()
	c.state.Start = false
	c.ResetPID()
	c.openValve()
}

// Process runs one control tick. The pump drive is written to the actuator
// exactly once per call whatever the run state.
func (c *Controller) Process() {
	s := c.state
	if !s.Start || s.System != datamodel.StateProcess {
		s.Cycle = datamodel.CycleWaitTrigger
		c.openValve()
		s.Timers.Respiration = c.clock.Millis()
		c.ResetPID()
		c.detail = "Idle"
		c.act.SetPumpDrive(s.Drive)
		return
	}

	switch s.ControlMode {
	case datamodel.ControlPID:
		if c.computeSetPoint() {
			c.pid()
		}
	case datamodel.ControlFeedForward:
		// Drive is written by the host.
	default:
		c.monitor.MarkConfigurationInvalid()
		s.Drive = 0
	}

	c.act.SetPumpDrive(s.Drive)
}

func (c *Controller) openValve() {
	c.act.SetExhaleValve(c.rec.ServoExhaleOpen)
}

func (c *Controller) closeValve() {
	c.act.SetExhaleValve(c.rec.ServoExhaleClose)
}

func (c *Controller) elapsed(since uint32) uint32 {
	return clock.Since(c.clock, since)
}
