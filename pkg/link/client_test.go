// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"bufio"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/tlc/pkg/protocol"
)

// duplex is one end of a pair of pipes.
type duplex struct {
	io.Reader
	io.Writer
}

// echoController answers every line it reads using reply.
func echoController(t *testing.T, reply func(line string) string) (*Client, func()) {
	t.Helper()
	toCtl, fromHost := io.Pipe()
	toHost, fromCtl := io.Pipe()

	go func() {
		sc := bufio.NewScanner(toCtl)
		for sc.Scan() {
			line := strings.TrimSuffix(sc.Text(), "\r")
			if out := reply(line); out != "" {
				fromCtl.Write([]byte(out))
			}
		}
	}()

	cl := NewClient(duplex{Reader: toHost, Writer: fromHost})
	cl.Timeout = 200 * time.Millisecond
	return cl, func() {
		cl.Close()
		fromHost.Close()
		fromCtl.Close()
	}
}

func TestClient_Do(t *testing.T) {
	cl, done := echoController(t, func(line string) string {
		if line == "ALI" {
			return "ACK\r\n"
		}
		return "NACK\r\n"
	})
	defer done()

	line, err := cl.Do(protocol.Query{Which: protocol.KindAlive})
	require.NoError(t, err)
	ack, nack := Reply(line)
	assert.True(t, ack)
	assert.False(t, nack)

	line, err = cl.DoRaw([]byte("ZZZ\r\n"))
	require.NoError(t, err)
	_, nack = Reply(line)
	assert.True(t, nack)
}

func TestClient_SplitReply(t *testing.T) {
	cl, done := echoController(t, func(string) string { return "" })
	defer done()

	cl.pending = append(cl.pending, []byte("1.00000,2.0")...)
	cl.pending = append(cl.pending, []byte("0000\r\nACK\r\n")...)

	line, err := cl.ReadLine(50 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "1.00000,2.00000", line)

	line, err = cl.ReadLine(50 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "ACK", line)
}

func TestClient_Timeout(t *testing.T) {
	cl, done := echoController(t, func(string) string { return "" })
	defer done()

	_, err := cl.Do(protocol.Query{Which: protocol.KindStatus})
	assert.ErrorIs(t, err, ErrTimeout)
}
