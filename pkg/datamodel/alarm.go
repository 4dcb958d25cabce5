// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package datamodel

import "strings"

// Alarm is a bitmask of active safety conditions.
type Alarm uint8

const (
	AlarmMaxPressure Alarm = 1 << iota
	AlarmMinPressure
	AlarmSensorRedundancy
	AlarmInvalidConfig
	AlarmBatteryLow
)

// AllAlarms lists every alarm bit in reporting order.
var AllAlarms = []Alarm{
	AlarmMaxPressure,
	AlarmMinPressure,
	AlarmSensorRedundancy,
	AlarmInvalidConfig,
	AlarmBatteryLow,
}

// Has reports whether every bit of flag is set in a.
func (a Alarm) Has(flag Alarm) bool {
	return flag != 0 && a&flag == flag
}

func (a Alarm) String() string {
	if a == 0 {
		return "NONE"
	}
	var names []string
	for _, flag := range AllAlarms {
		if a.Has(flag) {
			names = append(names, alarmName(flag))
		}
	}
	return strings.Join(names, "|")
}

func alarmName(flag Alarm) string {
	switch flag {
	case AlarmMaxPressure:
		return "MAX_PRESSURE"
	case AlarmMinPressure:
		return "MIN_PRESSURE"
	case AlarmSensorRedundancy:
		return "SENSOR_REDUNDANCY"
	case AlarmInvalidConfig:
		return "INVALID_CONFIG"
	case AlarmBatteryLow:
		return "BATTERY_LOW"
	}
	return "UNKNOWN"
}
