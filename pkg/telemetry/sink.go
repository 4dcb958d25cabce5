// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Sink receives encoded frames.
type Sink interface {
	Publish(msgType uint8, frame []byte) error
	String() string
}

// WriterSink writes frames back to back to an io.Writer.
type WriterSink struct {
	mu   sync.Mutex
	w    io.Writer
	name string
}

// NewWriterSink wraps w. name is used in log messages.
func NewWriterSink(w io.Writer, name string) *WriterSink {
	return &WriterSink{w: w, name: name}
}

// Publish implements Sink.
func (s *WriterSink) Publish(_ uint8, frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(frame); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (s *WriterSink) String() string {
	return "writer:" + s.name
}

// TopicName returns the topic suffix used for msgType, e.g. "status_data".
func TopicName(msgType uint8) string {
	return strings.ToLower(FormatMessageType(msgType))
}
