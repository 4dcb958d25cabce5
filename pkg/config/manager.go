// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import "fmt"

// Manager owns the live Record for the lifetime of the process.
type Manager struct {
	store  Store
	record Record
}

// NewManager returns a Manager holding Defaults until Load succeeds.
func NewManager(store Store) *Manager {
	return &Manager{store: store, record: Defaults()}
}

// Record returns the live record. The pointer is stable across Load calls.
func (m *Manager) Record() *Record {
	return &m.record
}

// Load restores the record from the store. On any failure the live record
// is replaced by Defaults and the error is returned so the caller can raise
// the invalid-configuration alarm.
func (m *Manager) Load() error {
	image, err := m.store.Load()
	if err != nil {
		m.record = Defaults()
		return fmt.Errorf("load config: %w", err)
	}
	var rec Record
	if err := rec.UnmarshalBinary(image); err != nil {
		m.record = Defaults()
		return fmt.Errorf("load config: %w", err)
	}
	m.record = rec
	return nil
}

// Save persists the live record.
func (m *Manager) Save() error {
	m.record.Version = Version
	image, err := m.record.MarshalBinary()
	if err != nil {
		return err
	}
	if err := m.store.Save(image); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}
