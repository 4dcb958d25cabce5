// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package datamodel

// Step periods in milliseconds.
const (
	PeriodPublish        = 500
	PeriodControl        = 5
	PeriodCommunications = 2
	PeriodUI             = 250
	PeriodSensors        = 5
	PeriodWarmup         = 1000
	PeriodStabilization  = 100
)

// Serial link parameters.
const (
	BaudRate             = 115200
	RxBufferSize         = 250
	RxBufferReserve      = 10
	SerialDiscardTimeout = 500
)

// MaxCurveCount is the waypoint capacity of a PressureCurve.
const MaxCurveCount = 8

// SensorCount is the number of redundant pressure sensors.
const SensorCount = 2

// SystemState is the top-level operating state.
type SystemState uint8

const (
	StateInit SystemState = iota
	StateIdle
	StateWarmup
	StateProcess
	StateError
	SystemStateCount
)

var systemStateNames = [...]string{"INIT", "IDLE", "WARMUP", "PROCESS", "ERROR"}

func (s SystemState) String() string {
	if s < SystemStateCount {
		return systemStateNames[s]
	}
	return "UNKNOWN"
}

// CycleState is the phase within one respiration.
type CycleState uint8

const (
	CycleWaitTrigger CycleState = iota
	CycleInhale
	CycleExhale
	CycleStabilization
	CycleStateCount
)

var cycleStateNames = [...]string{"WAIT_TRIGGER", "INHALE", "EXHALE", "STABILIZATION"}

func (c CycleState) String() string {
	if c < CycleStateCount {
		return cycleStateNames[c]
	}
	return "UNKNOWN"
}

// ControlMode selects how pump drive is produced.
type ControlMode uint8

const (
	ControlPID ControlMode = iota
	ControlFeedForward
	ControlModeCount
)

func (m ControlMode) String() string {
	switch m {
	case ControlPID:
		return "PID"
	case ControlFeedForward:
		return "FEED_FORWARD"
	default:
		return "UNKNOWN"
	}
}

// TriggerMode selects the policy that starts a new respiration.
type TriggerMode uint8

const (
	TriggerTimed TriggerMode = iota
	TriggerPatient
	TriggerPatientSemiAutomatic
	TriggerModeCount
)

func (m TriggerMode) String() string {
	switch m {
	case TriggerTimed:
		return "TIMED"
	case TriggerPatient:
		return "PATIENT"
	case TriggerPatientSemiAutomatic:
		return "PATIENT_SEMI_AUTO"
	default:
		return "UNKNOWN"
	}
}
