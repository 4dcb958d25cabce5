// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package firmware

import "sync"

// Display holds the two text lines shown on the front panel.
type Display struct {
	mu      sync.Mutex
	message string
	detail  string
}

// Set replaces both lines and reports whether anything changed.
func (d *Display) Set(message, detail string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.message == message && d.detail == detail {
		return false
	}
	d.message, d.detail = message, detail
	return true
}

// Lines returns the message and detail lines.
func (d *Display) Lines() (message, detail string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.message, d.detail
}
