// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/tlc/pkg/clock"
)

func TestPoll_Periods(t *testing.T) {
	clk := clock.NewManual(0)
	var fast, slow int
	s := New(clk).
		Add("fast", 2, func() { fast++ }).
		Add("slow", 5, func() { slow++ })

	for i := 0; i < 20; i++ {
		clk.Advance(1)
		s.Poll()
	}
	assert.Equal(t, 10, fast)
	assert.Equal(t, 4, slow)
	assert.Equal(t, uint64(10), s.Tasks()[0].Runs)
}

func TestPoll_NotDueAtStart(t *testing.T) {
	clk := clock.NewManual(0)
	ran := false
	s := New(clk).Add("ui", 250, func() { ran = true })

	assert.Zero(t, s.Poll())
	clk.Set(249)
	assert.Zero(t, s.Poll())
	clk.Set(250)
	assert.Equal(t, 1, s.Poll())
	assert.True(t, ran)
}

func TestPoll_RegistrationOrder(t *testing.T) {
	clk := clock.NewManual(10)
	var order []string
	s := New(clk).
		Add("comm", 2, func() { order = append(order, "comm") }).
		Add("control", 5, func() { order = append(order, "control") }).
		Add("sensors", 5, func() { order = append(order, "sensors") })

	require.Equal(t, 3, s.Poll())
	assert.Equal(t, []string{"comm", "control", "sensors"}, order)
}

func TestPoll_LateTickRunsOnce(t *testing.T) {
	clk := clock.NewManual(0)
	runs := 0
	s := New(clk).Add("control", 5, func() { runs++ })

	clk.Set(50)
	s.Poll()
	s.Poll()
	assert.Equal(t, 1, runs, "missed periods are not replayed")
}

func TestPoll_ClockWrap(t *testing.T) {
	clk := clock.NewManual(^uint32(0) - 1)
	runs := 0
	s := New(clk).Add("comm", 2, func() { runs++ })
	s.Poll()
	require.Equal(t, 1, runs)

	clk.Advance(2) // wraps past zero
	s.Poll()
	assert.Equal(t, 2, runs)
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	calls := make(chan struct{}, 1)
	s := New(clock.NewSystem()).Add("tick", 0, func() {
		select {
		case calls <- struct{}{}:
		default:
		}
	})

	go func() { done <- s.Run(ctx) }()

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("step never ran")
	}
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}
