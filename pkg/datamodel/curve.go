// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package datamodel

import (
	"errors"
	"fmt"
)

var (
	// ErrCurveLength is returned when a waypoint list is empty or exceeds MaxCurveCount.
	ErrCurveLength = errors.New("curve length out of range")
	// ErrZeroRate is returned when curves are synthesized from a zero respiration rate.
	ErrZeroRate = errors.New("respiration rate is zero")
)

// Waypoint is one (target pressure, hold duration) pair of a PressureCurve.
type Waypoint struct {
	PressureMmH2O float32
	HoldMs        uint32
}

// PressureCurve is an ordered, fixed-capacity list of waypoints played back in order.
// Count == 0 is an invalid curve that cannot be started.
type PressureCurve struct {
	Points [MaxCurveCount]Waypoint
	Count  uint8
}

// Valid reports whether the curve can be started.
func (c *PressureCurve) Valid() bool {
	return c.Count > 0 && c.Count <= MaxCurveCount
}

// Active returns the populated waypoints.
func (c *PressureCurve) Active() []Waypoint {
	n := c.Count
	if n > MaxCurveCount {
		n = MaxCurveCount
	}
	return c.Points[:n]
}

// Load replaces the curve with points. Slots past len(points) are left untouched.
func (c *PressureCurve) Load(points []Waypoint) error {
	if len(points) == 0 || len(points) > MaxCurveCount {
		return fmt.Errorf("%w: %d points", ErrCurveLength, len(points))
	}
	copy(c.Points[:], points)
	c.Count = uint8(len(points))
	return nil
}

func uniformCurve(pressure float32, holdMs uint32) PressureCurve {
	var c PressureCurve
	for i := range c.Points {
		c.Points[i] = Waypoint{PressureMmH2O: pressure, HoldMs: holdMs}
	}
	c.Count = MaxCurveCount
	return c
}
