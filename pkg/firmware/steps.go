// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package firmware

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/Thermoquad/tlc/pkg/clock"
	"github.com/Thermoquad/tlc/pkg/datamodel"
	"github.com/Thermoquad/tlc/pkg/link"
)

func (f *Firmware) communicate() {
	if f.port == nil {
		return
	}
	now := f.clock.Millis()
	stale, overflows := f.rx.Stale, f.rx.Overflows

	n, err := f.port.TryRead(f.rx.Free(now))
	if err != nil {
		if !f.linkDown {
			if errors.Is(err, link.ErrClosed) {
				glog.Warningf("firmware: command link closed")
			} else {
				glog.Warningf("firmware: command link: %v", err)
			}
			f.linkDown = true
		}
		return
	}
	f.linkDown = false
	f.rx.Commit(now, n, f.handleFrame)

	if f.rx.Stale != stale {
		glog.Warningf("firmware: discarded stale receive buffer")
	}
	if f.rx.Overflows != overflows {
		glog.Warningf("firmware: receive buffer overflow, discarded")
	}
}

func (f *Firmware) handleFrame(frame []byte) {
	if err := f.Engine.Handle(frame); err != nil {
		glog.Warningf("firmware: reply: %v", err)
	}
}

// control runs the supervisor, the safety monitor and the controller, in
// that order, so a fault found this tick already idles the actuators.
func (f *Firmware) control() {
	f.supervise()

	s := f.State
	f.Safety.Evaluate(s, f.Config.Record())
	if f.Safety.Critical && s.System == datamodel.StateProcess {
		s.System = datamodel.StateError
	}
	f.logTransition()

	f.Controller.Process()
}

// supervise moves the system through Init, Warmup and Process, and back to
// Warmup once an Error has been acknowledged with an alarm reset.
func (f *Firmware) supervise() {
	s := f.State
	now := f.clock.Millis()
	switch s.System {
	case datamodel.StateInit, datamodel.StateIdle:
		f.enterWarmup(now)
	case datamodel.StateWarmup:
		if clock.Since(f.clock, f.warmupStart) >= f.periods.Warmup {
			s.System = datamodel.StateProcess
		}
	case datamodel.StateError:
		if !f.Safety.Critical {
			f.enterWarmup(now)
		}
	}
	f.logTransition()
}

func (f *Firmware) enterWarmup(now uint32) {
	f.State.System = datamodel.StateWarmup
	f.warmupStart = now
}

func (f *Firmware) logTransition() {
	s := f.State
	if s.System == f.lastSystem {
		return
	}
	if s.System == datamodel.StateError {
		glog.Errorf("firmware: %s -> %s, alarms %s", f.lastSystem, s.System, s.Alarms)
	} else {
		glog.Infof("firmware: %s -> %s", f.lastSystem, s.System)
	}
	f.lastSystem = s.System
}

func (f *Firmware) sample() {
	if f.plant != nil {
		f.plant.Step(f.periods.Sensors)
	}
	f.Sampler.Process()
}

func (f *Firmware) render() {
	message := fmt.Sprintf("mmH2O:%.2f", f.State.Pressure[0])
	detail := f.Controller.Detail()
	if f.State.System != datamodel.StateProcess {
		detail = f.State.System.String()
	}
	if f.display.Set(message, detail) {
		glog.V(1).Infof("lcd: %-16s | %s", message, detail)
	}
}
