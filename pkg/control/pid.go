// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package control

import (
	"math"

	"github.com/Thermoquad/tlc/internal/mathx"
	"github.com/Thermoquad/tlc/pkg/datamodel"
)

// pid computes pump drive from the requested and primary measured pressure.
// The derivative gain is carried in the record but not applied.
func (c *Controller) pid() {
	s, rec := c.state, c.rec
	t := &s.PID

	t.Error = s.RequestPressure - s.Pressure[0]
	t.P = t.Error * rec.GainP
	t.I = mathx.Symmetric(t.I+t.Error*rec.GainI, rec.ILimit)
	t.D = 0

	t.Combined = mathx.Symmetric(t.P+t.I, rec.PILimit)
	if t.Combined < 0 {
		t.Combined = 0
	}

	s.Drive = toDrive(float64(t.Combined) * float64(rec.ControlTransfer))
}

// toDrive truncates v to the unsigned 16-bit drive range.
func toDrive(v float64) uint16 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return uint16(mathx.Clamp(v, 0, math.MaxUint16))
}

// ResetPID clears the integrator and derived terms.
func (c *Controller) ResetPID() {
	c.state.PID = datamodel.PIDTerms{}
}
