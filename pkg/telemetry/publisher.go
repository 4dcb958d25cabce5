// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"github.com/golang/glog"

	"github.com/Thermoquad/tlc/pkg/clock"
	"github.com/Thermoquad/tlc/pkg/config"
	"github.com/Thermoquad/tlc/pkg/datamodel"
	"github.com/Thermoquad/tlc/pkg/protocol"
)

// PublishCounters counts frames handed to sinks.
type PublishCounters struct {
	Frames       uint64
	EncodeErrors uint64
	SinkErrors   uint64
}

// Publisher emits a status frame on every Process call, plus alarm, cycle
// and configuration frames when those values changed since the last call.
type Publisher struct {
	state *datamodel.State
	rec   *config.Record
	clock clock.Clock
	sinks []Sink

	primed       bool
	lastAlarms   datamodel.Alarm
	lastCycle    datamodel.CycleState
	lastSettings protocol.Settings

	stats PublishCounters
}

// NewPublisher creates a publisher over state and rec writing to sinks.
func NewPublisher(state *datamodel.State, rec *config.Record, clk clock.Clock, sinks ...Sink) *Publisher {
	return &Publisher{state: state, rec: rec, clock: clk, sinks: sinks}
}

// AddSink attaches another sink.
func (p *Publisher) AddSink(s Sink) {
	p.sinks = append(p.sinks, s)
}

// Stats returns the publish counters.
func (p *Publisher) Stats() PublishCounters {
	return p.stats
}

// Process runs one publication step.
func (p *Publisher) Process() {
	if len(p.sinks) == 0 {
		return
	}
	now := p.clock.Millis()
	s := p.state

	p.emit(MsgStatusData, StatusPayload(s, now))

	if !p.primed || s.Alarms != p.lastAlarms {
		if p.primed || s.Alarms != 0 {
			p.emit(MsgAlarmEvent, AlarmPayload(s.Alarms, p.lastAlarms, now))
		}
		p.lastAlarms = s.Alarms
	}
	if p.primed && s.Cycle != p.lastCycle {
		p.emit(MsgCycleEvent, CyclePayload(s.Cycle, p.lastCycle, now))
	}
	p.lastCycle = s.Cycle

	settings := protocol.SettingsOf(s, p.rec)
	if !p.primed || settings != p.lastSettings {
		p.emit(MsgConfigData, ConfigPayload(settings))
		p.lastSettings = settings
	}
	p.primed = true
}

func (p *Publisher) emit(msgType uint8, payload map[int]interface{}) {
	frame, err := Encode(msgType, payload)
	if err != nil {
		p.stats.EncodeErrors++
		glog.Warningf("telemetry: encode %s: %v", FormatMessageType(msgType), err)
		return
	}
	p.stats.Frames++
	for _, sink := range p.sinks {
		if err := sink.Publish(msgType, frame); err != nil {
			p.stats.SinkErrors++
			glog.Warningf("telemetry: %s: %v", sink, err)
		}
	}
}
