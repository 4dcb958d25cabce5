// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Thermoquad/tlc/pkg/protocol"
)

// ErrTimeout is returned when no complete reply line arrived in time.
var ErrTimeout = errors.New("link: timeout waiting for reply")

// DefaultTimeout bounds a single request.
const DefaultTimeout = time.Second

const pollInterval = time.Millisecond

// Client issues commands to a controller and collects the reply lines.
type Client struct {
	Timeout time.Duration

	port    *Port
	pending []byte
	buf     []byte
}

// NewClient starts a client over rw.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{
		Timeout: DefaultTimeout,
		port:    New(rw),
		buf:     make([]byte, chunkSize),
	}
}

// Do sends c and returns the reply line without its CR-LF.
func (cl *Client) Do(c protocol.Command) (string, error) {
	return cl.DoRaw(protocol.Encode(c))
}

// DoRaw sends frame verbatim and returns the reply line without its CR-LF.
// Bytes received before the request are discarded.
func (cl *Client) DoRaw(frame []byte) (string, error) {
	cl.Drain()
	if _, err := cl.port.Write(frame); err != nil {
		return "", fmt.Errorf("send: %w", err)
	}
	return cl.ReadLine(cl.Timeout)
}

// ReadLine waits up to timeout for the next CR-LF terminated line.
func (cl *Client) ReadLine(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		if i := bytes.Index(cl.pending, []byte(protocol.LineEnd)); i >= 0 {
			line := string(cl.pending[:i])
			cl.pending = cl.pending[i+len(protocol.LineEnd):]
			return line, nil
		}
		n, err := cl.port.TryRead(cl.buf)
		cl.pending = append(cl.pending, cl.buf[:n]...)
		if err != nil {
			return "", err
		}
		if n > 0 {
			continue
		}
		if time.Now().After(deadline) {
			return "", ErrTimeout
		}
		time.Sleep(pollInterval)
	}
}

// Drain drops every byte received so far.
func (cl *Client) Drain() {
	cl.pending = cl.pending[:0]
	for {
		n, err := cl.port.TryRead(cl.buf)
		if n == 0 || err != nil {
			return
		}
	}
}

// Close closes the underlying port.
func (cl *Client) Close() error {
	return cl.port.Close()
}

// Reply classifies a reply line.
func Reply(line string) (ack, nack bool) {
	return line == protocol.ReplyACK, line == protocol.ReplyNACK
}
