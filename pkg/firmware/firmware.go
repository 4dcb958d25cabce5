// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package firmware wires the ventilator core together and runs it on the
// cooperative scheduler.
package firmware

import (
	"context"
	"io"

	"github.com/golang/glog"

	"github.com/Thermoquad/tlc/pkg/clock"
	"github.com/Thermoquad/tlc/pkg/config"
	"github.com/Thermoquad/tlc/pkg/control"
	"github.com/Thermoquad/tlc/pkg/datamodel"
	"github.com/Thermoquad/tlc/pkg/protocol"
	"github.com/Thermoquad/tlc/pkg/safety"
	"github.com/Thermoquad/tlc/pkg/scheduler"
	"github.com/Thermoquad/tlc/pkg/sensors"
	"github.com/Thermoquad/tlc/pkg/telemetry"
)

// Port is the command channel. TryRead must not block.
type Port interface {
	io.Writer
	TryRead(b []byte) (int, error)
}

// Plant is a simulated process advanced alongside the sensor step.
type Plant interface {
	Step(dtMs uint32)
}

// Periods holds the step periods in milliseconds.
type Periods struct {
	Communications uint32
	Control        uint32
	Sensors        uint32
	UI             uint32
	Publish        uint32
	Warmup         uint32
	RxDiscard      uint32
}

// DefaultPeriods returns the reference firmware timing.
func DefaultPeriods() Periods {
	return Periods{
		Communications: datamodel.PeriodCommunications,
		Control:        datamodel.PeriodControl,
		Sensors:        datamodel.PeriodSensors,
		UI:             datamodel.PeriodUI,
		Publish:        datamodel.PeriodPublish,
		Warmup:         datamodel.PeriodWarmup,
		RxDiscard:      datamodel.SerialDiscardTimeout,
	}
}

// Options configures New. Clock, Actuator, ADC and Store are required.
type Options struct {
	Clock    clock.Clock
	Port     Port
	Actuator control.Actuator
	ADC      sensors.ADC
	Store    config.Store
	Plant    Plant
	Sinks    []telemetry.Sink
	Periods  Periods
}

// Firmware is one running controller instance.
type Firmware struct {
	State      *datamodel.State
	Config     *config.Manager
	Safety     *safety.Monitor
	Controller *control.Controller
	Engine     *protocol.Engine
	Sampler    *sensors.Sampler
	Publisher  *telemetry.Publisher
	Scheduler  *scheduler.Scheduler

	clock   clock.Clock
	port    Port
	plant   Plant
	periods Periods
	rx      *protocol.RxBuffer
	display Display

	warmupStart uint32
	lastSystem  datamodel.SystemState
	linkDown    bool
}

// New builds a firmware instance. Call Boot before running it.
func New(opts Options) *Firmware {
	periods := opts.Periods
	if periods == (Periods{}) {
		periods = DefaultPeriods()
	}

	f := &Firmware{
		State:   datamodel.New(),
		Config:  config.NewManager(opts.Store),
		Safety:  safety.New(),
		clock:   opts.Clock,
		port:    opts.Port,
		plant:   opts.Plant,
		periods: periods,
		rx:      protocol.NewRxBuffer(periods.RxDiscard),
	}
	rec := f.Config.Record()

	var out io.Writer = io.Discard
	if opts.Port != nil {
		out = opts.Port
	}
	f.Engine = protocol.NewEngine(f.State, f.Config, f.Safety, out)
	f.Controller = control.New(f.State, rec, f.Safety, opts.Clock, opts.Actuator)
	f.Sampler = sensors.NewSampler(f.State, rec, opts.ADC)
	f.Publisher = telemetry.NewPublisher(f.State, rec, opts.Clock, opts.Sinks...)

	f.Scheduler = scheduler.New(opts.Clock).
		Add("communications", periods.Communications, f.communicate).
		Add("control", periods.Control, f.control).
		Add("sensors", periods.Sensors, f.sample).
		Add("ui", periods.UI, f.render).
		Add("publish", periods.Publish, f.Publisher.Process)
	return f
}

// Boot restores the configuration and puts the controller in its fail-open
// posture. A configuration that cannot be restored leaves defaults in place
// and raises the invalid-configuration flag.
func (f *Firmware) Boot() {
	if err := f.Config.Load(); err != nil {
		glog.Warningf("firmware: %v, using defaults", err)
		f.Safety.MarkConfigurationInvalid()
	} else {
		glog.Infof("firmware: configuration v%d loaded", f.Config.Record().Version)
	}
	f.Controller.Init()
	f.State.System = datamodel.StateInit
	f.lastSystem = datamodel.StateInit
}

// Poll runs every due step once.
func (f *Firmware) Poll() int {
	return f.Scheduler.Poll()
}

// Run runs the scheduler until ctx is done.
func (f *Firmware) Run(ctx context.Context) error {
	glog.Infof("firmware: running")
	return f.Scheduler.Run(ctx)
}

// Display returns the last rendered two-line text.
func (f *Firmware) Display() (message, detail string) {
	return f.display.Lines()
}

// RxStats returns the receive buffer discard counters.
func (f *Firmware) RxStats() (stale, overflows uint64) {
	return f.rx.Stale, f.rx.Overflows
}
