// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package clock

import "testing"

func TestManualAdvance(t *testing.T) {
	c := NewManual(100)
	if got := c.Advance(50); got != 150 {
		t.Errorf("Advance() = %d, want 150", got)
	}
	if got := Since(c, 100); got != 50 {
		t.Errorf("Since() = %d, want 50", got)
	}
}

func TestSinceAcrossWrap(t *testing.T) {
	c := NewManual(0xFFFFFFF0)
	start := c.Millis()
	c.Advance(0x20)
	if got := Since(c, start); got != 0x20 {
		t.Errorf("Since() across wrap = %d, want 32", got)
	}
}

func TestSystemMonotonic(t *testing.T) {
	c := NewSystem()
	a := c.Millis()
	b := c.Millis()
	if b < a {
		t.Errorf("System clock went backwards: %d then %d", a, b)
	}
}
