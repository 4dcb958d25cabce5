// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package scheduler runs fixed-period steps cooperatively on one goroutine.
// Every step runs to completion before the next one is considered.
package scheduler

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/Thermoquad/tlc/pkg/clock"
)

// DefaultInterval is the polling interval used by Run.
const DefaultInterval = time.Millisecond

// Step is one unit of periodic work.
type Step func()

// Task is a registered step with its period.
type Task struct {
	Name     string
	PeriodMs uint32
	Runs     uint64

	step Step
	last uint32
}

// Due reports whether the task should run at now.
func (t *Task) Due(now uint32) bool {
	return now-t.last >= t.PeriodMs
}

// Scheduler polls its tasks in registration order.
type Scheduler struct {
	Interval time.Duration

	clock clock.Clock
	tasks []*Task
}

// New creates a scheduler reading time from clk.
func New(clk clock.Clock) *Scheduler {
	return &Scheduler{Interval: DefaultInterval, clock: clk}
}

// Add registers step to run every periodMs milliseconds.
func (s *Scheduler) Add(name string, periodMs uint32, step Step) *Scheduler {
	s.tasks = append(s.tasks, &Task{Name: name, PeriodMs: periodMs, step: step})
	return s
}

// Tasks returns the registered tasks.
func (s *Scheduler) Tasks() []*Task {
	return s.tasks
}

// Poll runs every due task once and returns how many ran.
func (s *Scheduler) Poll() int {
	ran := 0
	for _, t := range s.tasks {
		now := s.clock.Millis()
		if !t.Due(now) {
			continue
		}
		t.last = now
		t.step()
		t.Runs++
		ran++
	}
	return ran
}

// Run polls until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	for _, t := range s.tasks {
		glog.V(1).Infof("scheduler: %s every %d ms", t.Name, t.PeriodMs)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			glog.Infof("scheduler: stopped: %v", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			s.Poll()
		}
	}
}
