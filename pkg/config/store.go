// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists an opaque configuration image.
type Store interface {
	Load() ([]byte, error)
	Save(image []byte) error
}

// MemoryStore is an EEPROM-like image held in memory. It reads as erased
// (0xFF) until written.
type MemoryStore struct {
	mu    sync.Mutex
	image [MaxSize]byte
}

// NewMemoryStore returns an erased MemoryStore.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{}
	for i := range m.image {
		m.image[i] = 0xFF
	}
	return m
}

func (m *MemoryStore) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, MaxSize)
	copy(out, m.image[:])
	return out, nil
}

func (m *MemoryStore) Save(image []byte) error {
	if len(image) > MaxSize {
		return fmt.Errorf("image of %d bytes exceeds %d byte store", len(image), MaxSize)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(m.image[:], image)
	return nil
}

// FileStore keeps the image in a file on the host.
type FileStore struct {
	Path string
}

func (f FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	return data, nil
}

// Save writes through a temporary file so a crash never leaves a torn image.
func (f FileStore) Save(image []byte) error {
	if len(image) > MaxSize {
		return fmt.Errorf("image of %d bytes exceeds %d byte store", len(image), MaxSize)
	}
	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, ".eeprom-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}
