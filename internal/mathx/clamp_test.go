// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mathx

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Errorf("Clamp(5, 0, 3) = %d, want 3", got)
	}
	if got := Clamp(-1.5, -1.0, 1.0); got != -1.0 {
		t.Errorf("Clamp(-1.5, -1, 1) = %v, want -1", got)
	}
	if got := Clamp(uint8(7), 1, 9); got != 7 {
		t.Errorf("Clamp(7, 1, 9) = %d, want 7", got)
	}
}

func TestSymmetric(t *testing.T) {
	tests := []struct {
		v, limit, want float32
	}{
		{10, 5, 5},
		{-10, 5, -5},
		{3, 5, 3},
		{10, -5, 5},
		{1, 0, 0},
	}
	for _, tt := range tests {
		if got := Symmetric(tt.v, tt.limit); got != tt.want {
			t.Errorf("Symmetric(%v, %v) = %v, want %v", tt.v, tt.limit, got, tt.want)
		}
	}
}

func TestWithin(t *testing.T) {
	if !Within(20.0, 20.0, 100.0) || !Within(100.0, 20.0, 100.0) {
		t.Error("Within should include both bounds")
	}
	if Within(19.99, 20.0, 100.0) {
		t.Error("Within(19.99, 20, 100) = true, want false")
	}
}
