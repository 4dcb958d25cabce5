// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package protocol

import (
	"bytes"
	"testing"

	"github.com/Thermoquad/tlc/pkg/datamodel"
)

type frameLog struct {
	frames []string
}

func (l *frameLog) handle(frame []byte) {
	l.frames = append(l.frames, string(frame))
}

func TestRxBufferSplitsFrames(t *testing.T) {
	var log frameLog
	rx := NewRxBuffer(datamodel.SerialDiscardTimeout)

	rx.Feed(0, []byte("ALI\r\nSTA\r\nCY"), log.handle)
	if len(log.frames) != 2 || log.frames[0] != "ALI" || log.frames[1] != "STA" {
		t.Fatalf("frames = %q, want [ALI STA]", log.frames)
	}
	if rx.Len() != 2 {
		t.Errorf("Len() = %d, want 2 leftover bytes", rx.Len())
	}

	rx.Feed(10, []byte("C\x01\r"), log.handle)
	rx.Feed(20, []byte("\n"), log.handle)
	if len(log.frames) != 3 || log.frames[2] != "CYC\x01" {
		t.Fatalf("frames = %q, want CYC frame joined across reads", log.frames)
	}
	if rx.Len() != 0 {
		t.Errorf("Len() = %d, want 0", rx.Len())
	}
}

func TestRxBufferEmptyFrame(t *testing.T) {
	var log frameLog
	rx := NewRxBuffer(datamodel.SerialDiscardTimeout)
	rx.Feed(0, []byte("\r\n"), log.handle)
	if len(log.frames) != 1 || log.frames[0] != "" {
		t.Errorf("frames = %q, want one empty frame", log.frames)
	}
}

func TestRxBufferStaleDiscard(t *testing.T) {
	var log frameLog
	rx := NewRxBuffer(datamodel.SerialDiscardTimeout)

	rx.Feed(0, []byte("GARBAGE"), log.handle)
	rx.Feed(datamodel.SerialDiscardTimeout, []byte("X"), log.handle)
	if rx.Len() != 8 || rx.Stale != 0 {
		t.Fatalf("Len() = %d, Stale = %d; timeout boundary must keep data", rx.Len(), rx.Stale)
	}

	rx.Feed(2*datamodel.SerialDiscardTimeout+1, []byte("ALI\r\n"), log.handle)
	if rx.Stale != 1 {
		t.Errorf("Stale = %d, want 1", rx.Stale)
	}
	if len(log.frames) != 1 || log.frames[0] != "ALI" {
		t.Errorf("frames = %q, want [ALI]", log.frames)
	}
}

func TestRxBufferOverflowDiscard(t *testing.T) {
	var log frameLog
	rx := NewRxBuffer(datamodel.SerialDiscardTimeout)

	limit := datamodel.RxBufferSize - datamodel.RxBufferReserve
	rx.Feed(0, bytes.Repeat([]byte{'A'}, limit), log.handle)
	if rx.Len() != limit || rx.Overflows != 0 {
		t.Fatalf("Len() = %d, Overflows = %d; buffer at the limit must be kept", rx.Len(), rx.Overflows)
	}

	rx.Feed(1, []byte{'A'}, log.handle)
	if rx.Len() != 0 || rx.Overflows != 1 {
		t.Errorf("Len() = %d, Overflows = %d; want full discard", rx.Len(), rx.Overflows)
	}

	rx.Feed(2, []byte("STA\r\n"), log.handle)
	if len(log.frames) != 1 || log.frames[0] != "STA" {
		t.Errorf("frames = %q, want [STA] after discard", log.frames)
	}
}

func TestRxBufferLargeInput(t *testing.T) {
	var log frameLog
	rx := NewRxBuffer(datamodel.SerialDiscardTimeout)

	in := bytes.Repeat([]byte("ALI\r\n"), 200)
	rx.Feed(0, in, log.handle)
	if len(log.frames) != 200 {
		t.Errorf("got %d frames, want 200", len(log.frames))
	}
}
