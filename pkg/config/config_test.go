// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() Record {
	r := Defaults()
	r.PressureOffset = [2]uint16{41, 39}
	r.GainP = 0.75
	r.MaxPressure = 900
	r.ServoExhaleClose = 12
	return r
}

func TestRecordEncodingLayout(t *testing.T) {
	image, err := sampleRecord().MarshalBinary()
	require.NoError(t, err)
	require.Len(t, image, RecordSize)
	assert.LessOrEqual(t, len(image), MaxSize)

	assert.Equal(t, byte(Version), image[0])
	assert.Equal(t, []byte{41, 0, 39, 0}, image[1:5])

	var got Record
	require.NoError(t, got.UnmarshalBinary(image))
	assert.Equal(t, sampleRecord(), got)
}

func TestRecordRejectsCorruption(t *testing.T) {
	image, err := sampleRecord().MarshalBinary()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		want   error
	}{
		{"flipped payload bit", func(b []byte) []byte { b[10] ^= 0x01; return b }, ErrChecksum},
		{"flipped checksum", func(b []byte) []byte { b[RecordSize-1] ^= 0xFF; return b }, ErrChecksum},
		{"truncated", func(b []byte) []byte { return b[:RecordSize-1] }, ErrTruncated},
		{"erased", func(b []byte) []byte { return bytes.Repeat([]byte{0xFF}, MaxSize) }, ErrChecksum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), image...))
			rec := Defaults()
			err := rec.UnmarshalBinary(data)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
			assert.Equal(t, Defaults(), rec, "record must be untouched on error")
		})
	}
}

func TestRecordRejectsVersionMismatch(t *testing.T) {
	r := sampleRecord()
	r.Version = Version + 1
	image, err := r.MarshalBinary()
	require.NoError(t, err)

	var got Record
	assert.ErrorIs(t, got.UnmarshalBinary(image), ErrVersion)
}

func TestManagerLoadFailsClosed(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store)
	rec := m.Record()
	rec.GainP = 9

	err := m.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChecksum)
	assert.Equal(t, Defaults(), *m.Record())
	assert.Same(t, rec, m.Record())
}

func TestManagerSaveLoad(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store)
	m.Record().GainP = 2.5
	m.Record().PressureOffset = [2]uint16{10, 20}
	require.NoError(t, m.Save())

	other := NewManager(store)
	require.NoError(t, other.Load())
	assert.Equal(t, *m.Record(), *other.Record())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.bin")
	m := NewManager(FileStore{Path: path})

	require.Error(t, m.Load(), "missing file must fail")
	m.Record().MinBattery = 10.5
	require.NoError(t, m.Save())

	reloaded := NewManager(FileStore{Path: path})
	require.NoError(t, reloaded.Load())
	assert.Equal(t, float32(10.5), reloaded.Record().MinBattery)
}

func TestMemoryStoreRejectsOversize(t *testing.T) {
	assert.Error(t, NewMemoryStore().Save(make([]byte, MaxSize+1)))
}

func TestYAMLExportImport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportYAML(&buf, sampleRecord()))
	assert.Contains(t, buf.String(), "gain_p: 0.75")

	rec, err := ImportYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleRecord(), rec)
}

func TestYAMLImportPartialAndInvalid(t *testing.T) {
	rec, err := ImportYAML(strings.NewReader("version: 1\ngain_p: 1.25\n"))
	require.NoError(t, err)
	assert.Equal(t, float32(1.25), rec.GainP)
	assert.Equal(t, Defaults().PILimit, rec.PILimit)

	_, err = ImportYAML(strings.NewReader("version: 7\n"))
	assert.ErrorIs(t, err, ErrVersion)

	_, err = ImportYAML(strings.NewReader("gain_q: 1\n"))
	assert.Error(t, err)
}
