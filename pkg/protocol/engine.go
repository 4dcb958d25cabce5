// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package protocol

import (
	"bytes"
	"io"

	"github.com/golang/glog"

	"github.com/Thermoquad/tlc/pkg/config"
	"github.com/Thermoquad/tlc/pkg/datamodel"
	"github.com/Thermoquad/tlc/pkg/safety"
)

var lineEnd = []byte(LineEnd)

// ConfigStore is the configuration collaborator used by CFG, IPS, CSV, CLD
// and the threshold and PID setters.
type ConfigStore interface {
	Record() *config.Record
	Save() error
	Load() error
}

// Counters tally handled frames.
type Counters struct {
	Frames  uint64
	Acked   uint64
	Nacked  uint64
	Unknown uint64
	Queries uint64
}

// Engine dispatches decoded commands against the shared state and writes
// exactly one reply per frame.
type Engine struct {
	state  *datamodel.State
	config ConfigStore
	safety *safety.Monitor
	out    io.Writer

	scratch Scratch
	line    []byte
	stats   Counters
}

// NewEngine returns an Engine writing replies to out.
func NewEngine(state *datamodel.State, cfg ConfigStore, monitor *safety.Monitor, out io.Writer) *Engine {
	return &Engine{
		state:  state,
		config: cfg,
		safety: monitor,
		out:    out,
		line:   make([]byte, 0, 192),
	}
}

// Stats returns the frame counters.
func (e *Engine) Stats() Counters {
	return e.stats
}

// Handle parses and applies one frame. A trailing CR-LF is ignored. The
// returned error only reports a failed reply write.
func (e *Engine) Handle(frame []byte) error {
	frame = bytes.TrimSuffix(frame, lineEnd)
	e.stats.Frames++

	cmd, err := Decode(frame, &e.scratch)
	if err != nil {
		glog.V(1).Infof("NACK %q: %v", frame, err)
		return e.reply(false)
	}
	if glog.V(2) {
		glog.Infof("command %s %+v", cmd.Kind(), cmd)
	}
	return e.dispatch(cmd)
}

func (e *Engine) dispatch(cmd Command) error {
	s := e.state
	rec := e.config.Record()

	switch c := cmd.(type) {
	case Unknown:
		e.stats.Unknown++
		glog.V(1).Infof("unknown mnemonic %q", c.Mnemonic[:])
		return e.reply(false)

	case Query:
		e.stats.Queries++
		switch c.Which {
		case KindStatus:
			return e.writeLine(AppendStatus(e.line[:0], e.status()))
		case KindConfig:
			return e.writeLine(AppendSettings(e.line[:0], SettingsOf(s, rec)))
		}
		return e.reply(true)

	case SetTrigger:
		s.TriggerMode = c.Mode
	case SetControl:
		s.ControlMode = c.Mode
	case SetCycle:
		s.Start = c.Start
	case SetFiO2:
		s.FiO2 = c.Percent
	case SetCurve:
		return e.reply(e.applyCurve(c.Params))
	case SetTakeOver:
		s.Advisory.TakeOverMs = c.Ms
	case SetThreshold:
		e.applyThreshold(c, rec)
	case Action:
		return e.reply(e.runAction(c.Which, rec))
	case AlarmEnable:
		e.safety.Enable(c.On)
	case SetGains:
		rec.GainP, rec.GainI, rec.GainD = c.P, c.I, c.D
	case SetLimits:
		rec.ILimit, rec.PILimit = c.I, c.PI
	case SetCurvePoints:
		curve := &s.InhaleCurve
		if c.Which == KindExhaleCurve {
			curve = &s.ExhaleCurve
		}
		return e.reply(curve.Load(c.Curve.Active()) == nil)
	case SetDrive:
		s.Drive = c.Drive
	default:
		return e.reply(false)
	}
	return e.reply(true)
}

// status is the STA snapshot with the battery bit folded in from the live
// reading so it is visible outside Process.
func (e *Engine) status() Status {
	st := StatusOf(e.state)
	if e.state.Battery < e.config.Record().MinBattery {
		st.Alarms |= datamodel.AlarmBatteryLow
	}
	return st
}

func (e *Engine) applyCurve(p datamodel.CurveParams) bool {
	s := e.state
	prev := s.Curve
	s.Curve = p
	if err := s.UpdateCurves(); err != nil {
		s.Curve = prev
		e.safety.MarkConfigurationInvalid()
		glog.Warningf("curve update rejected: %v", err)
		return false
	}
	return true
}

func (e *Engine) applyThreshold(c SetThreshold, rec *config.Record) {
	a := &e.state.Advisory
	switch c.Which {
	case KindMinBattery:
		rec.MinBattery = c.Value
	case KindPressureLow:
		rec.MinPressure = c.Value
	case KindPressureHigh:
		rec.MaxPressure = c.Value
	case KindPressureDelta:
		rec.MaxPressureDelta = c.Value
	case KindTidalLow:
		a.TidalVolumeLow = c.Value
	case KindTidalHigh:
		a.TidalVolumeHigh = c.Value
	case KindFiO2Low:
		a.FiO2Low = c.Value
	case KindFiO2High:
		a.FiO2High = c.Value
	case KindNonRebreathing:
		a.NonRebreathing = c.Value
	}
}

func (e *Engine) runAction(which Kind, rec *config.Record) bool {
	switch which {
	case KindInitPressureSensor:
		rec.PressureOffset = e.state.RawPressure
	case KindInitPEEP, KindInitTidalVolume:
	case KindAlarmReset:
		e.safety.Clear(e.state)
	case KindConfigSave:
		if err := e.config.Save(); err != nil {
			glog.Errorf("CSV: %v", err)
			return false
		}
	case KindConfigLoad:
		if err := e.config.Load(); err != nil {
			e.safety.MarkConfigurationInvalid()
			glog.Errorf("CLD: %v", err)
			return false
		}
		e.safety.ConfigurationRestored()
	default:
		return false
	}
	return true
}

func (e *Engine) reply(ok bool) error {
	if ok {
		e.stats.Acked++
		return e.writeLine(append(e.line[:0], ReplyACK+LineEnd...))
	}
	e.stats.Nacked++
	return e.writeLine(append(e.line[:0], ReplyNACK+LineEnd...))
}

func (e *Engine) writeLine(b []byte) error {
	e.line = b[:0]
	_, err := e.out.Write(b)
	return err
}
