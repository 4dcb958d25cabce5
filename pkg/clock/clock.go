// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package clock provides the millisecond tick source shared by the control
// and communication steps.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock returns a wrapping millisecond counter.
//
// Elapsed time must be computed with unsigned subtraction (now - then) so
// that it stays correct across the 49.7 day wrap.
type Clock interface {
	Millis() uint32
}

// System is a Clock backed by the monotonic wall clock.
type System struct {
	start time.Time
}

// NewSystem returns a System clock starting at zero.
func NewSystem() *System {
	return &System{start: time.Now()}
}

// Millis implements Clock.
func (s *System) Millis() uint32 {
	return uint32(time.Since(s.start).Milliseconds())
}

// Manual is a Clock that only moves when told to.
type Manual struct {
	now atomic.Uint32
}

// NewManual returns a Manual clock set to start.
func NewManual(start uint32) *Manual {
	m := &Manual{}
	m.now.Store(start)
	return m
}

// Millis implements Clock.
func (m *Manual) Millis() uint32 {
	return m.now.Load()
}

// Advance moves the clock forward by ms and returns the new time.
func (m *Manual) Advance(ms uint32) uint32 {
	return m.now.Add(ms)
}

// Set jumps the clock to an absolute value.
func (m *Manual) Set(ms uint32) {
	m.now.Store(ms)
}

// Since returns the elapsed milliseconds between then and c's current time.
func Since(c Clock, then uint32) uint32 {
	return c.Millis() - then
}
