// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Symmetric limits v to [-limit, +limit]. A negative limit is treated as its magnitude.
func Symmetric[T constraints.Float | constraints.Signed](v, limit T) T {
	if limit < 0 {
		limit = -limit
	}
	return Clamp(v, -limit, limit)
}

// Within reports lo <= v && v <= hi.
func Within[T constraints.Ordered](v, lo, hi T) bool {
	return v >= lo && v <= hi
}
