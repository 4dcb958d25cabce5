// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package link turns a blocking byte stream into a port the cooperative
// scheduler can poll without blocking.
package link

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
)

// ErrClosed is returned by a Port after Close or after the stream ended.
var ErrClosed = errors.New("link: closed")

const (
	chunkSize  = 128
	queueDepth = 64
	retryDelay = 10 * time.Millisecond
)

// Port reads its stream on a background goroutine and hands the bytes out
// through TryRead.
type Port struct {
	rw      io.ReadWriter
	chunks  chan []byte
	pending []byte

	done      chan struct{}
	readerEnd chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	err     error
	dropped uint64
}

// New starts reading rw. If rw is also an io.Closer it is closed by Close.
func New(rw io.ReadWriter) *Port {
	p := &Port{
		rw:        rw,
		chunks:    make(chan []byte, queueDepth),
		done:      make(chan struct{}),
		readerEnd: make(chan struct{}),
	}
	go p.readLoop()
	return p
}

func (p *Port) readLoop() {
	defer close(p.readerEnd)
	buf := make([]byte, chunkSize)
	for {
		select {
		case <-p.done:
			return
		default:
		}

		n, err := p.rw.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case p.chunks <- chunk:
			case <-p.done:
				return
			default:
				p.mu.Lock()
				p.dropped += uint64(n)
				p.mu.Unlock()
			}
		}
		if err != nil {
			select {
			case <-p.done:
				return
			default:
			}
			if errors.Is(err, io.EOF) || errors.Is(err, ErrClosed) {
				p.setErr(ErrClosed)
				return
			}
			glog.V(2).Infof("link: read: %v", err)
			p.setErr(err)
			time.Sleep(retryDelay)
		}
	}
}

func (p *Port) setErr(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// Err returns the most recent read error, or ErrClosed once the stream ended.
func (p *Port) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Dropped returns the number of bytes lost because the queue was full.
func (p *Port) Dropped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// TryRead copies whatever bytes are already available into b and never
// blocks. It returns ErrClosed once the stream ended and every queued byte
// was consumed.
func (p *Port) TryRead(b []byte) (int, error) {
	n := 0
	for n < len(b) {
		if len(p.pending) == 0 {
			select {
			case chunk := <-p.chunks:
				p.pending = chunk
			default:
				if n == 0 && p.ended() {
					return 0, ErrClosed
				}
				return n, nil
			}
		}
		c := copy(b[n:], p.pending)
		p.pending = p.pending[c:]
		n += c
	}
	return n, nil
}

func (p *Port) ended() bool {
	select {
	case <-p.readerEnd:
		return len(p.chunks) == 0
	default:
		return false
	}
}

// Write writes b to the underlying stream.
func (p *Port) Write(b []byte) (int, error) {
	select {
	case <-p.done:
		return 0, ErrClosed
	default:
	}
	return p.rw.Write(b)
}

// Close stops the reader and closes the stream when it is closable.
func (p *Port) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		if c, ok := p.rw.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}
