// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package protocol

import "github.com/Thermoquad/tlc/pkg/datamodel"

// RxBuffer accumulates received bytes and splits them into CR-LF delimited
// frames. Bytes left unterminated for longer than the timeout are dropped,
// and the whole buffer is dropped when it fills past its reserve margin.
type RxBuffer struct {
	data    [datamodel.RxBufferSize]byte
	n       int
	lastRx  uint32
	timeout uint32

	// Stale and Overflows count discarded buffers.
	Stale     uint64
	Overflows uint64
}

// NewRxBuffer returns an empty buffer with the given inactivity timeout in ms.
func NewRxBuffer(timeoutMs uint32) *RxBuffer {
	return &RxBuffer{timeout: timeoutMs}
}

// Len returns the number of buffered bytes.
func (b *RxBuffer) Len() int {
	return b.n
}

// Free returns the writable tail of the buffer. A buffer idle for longer
// than the timeout is emptied first.
func (b *RxBuffer) Free(now uint32) []byte {
	if b.n > 0 && now-b.lastRx > b.timeout {
		b.n = 0
		b.Stale++
	}
	return b.data[b.n:]
}

// Commit accounts for n bytes written into the slice returned by Free and
// passes every complete frame, line end removed, to handle in order.
func (b *RxBuffer) Commit(now uint32, n int, handle func(frame []byte)) {
	if n <= 0 {
		return
	}
	b.n += n
	b.lastRx = now

	start := 0
	for i := 0; i+1 < b.n; i++ {
		if b.data[i] == '\r' && b.data[i+1] == '\n' {
			handle(b.data[start:i])
			i++
			start = i + 1
		}
	}
	if start > 0 {
		b.n = copy(b.data[:], b.data[start:b.n])
	}

	if b.n > len(b.data)-datamodel.RxBufferReserve {
		b.n = 0
		b.Overflows++
	}
}

// Feed copies in through Free/Commit, however many passes it takes.
func (b *RxBuffer) Feed(now uint32, in []byte, handle func(frame []byte)) {
	for len(in) > 0 {
		k := copy(b.Free(now), in)
		b.Commit(now, k, handle)
		in = in[k:]
	}
}
