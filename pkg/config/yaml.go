// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ExportYAML writes r as a YAML document.
func ExportYAML(w io.Writer, r Record) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// ImportYAML reads a record from YAML. Fields missing from the document keep
// their default values.
func ImportYAML(rd io.Reader) (Record, error) {
	rec := Defaults()
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	if err := dec.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decode yaml: %w", err)
	}
	if rec.Version != Version {
		return Record{}, fmt.Errorf("%w: document has %d, want %d", ErrVersion, rec.Version, Version)
	}
	return rec, nil
}
