// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package telemetry

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/tlc/pkg/datamodel"
)

// FormatPacket formats a packet into a human-readable string
func FormatPacket(p *Packet) string {
	timestamp := p.timestamp.Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %s (0x%02X) len=%d\n", timestamp, FormatMessageType(p.Type()), p.Type(), p.length)
	if err := p.ParseError(); err != nil {
		return result + fmt.Sprintf("  (unparseable payload: %v)\n", err)
	}
	return result + FormatPayloadMap(p.Type(), p.PayloadMap())
}

// FormatMessageType returns the human-readable name for a message type
func FormatMessageType(msgType uint8) string {
	switch msgType {
	case MsgStatusData:
		return "STATUS_DATA"
	case MsgAlarmEvent:
		return "ALARM_EVENT"
	case MsgConfigData:
		return "CONFIG_DATA"
	case MsgCycleEvent:
		return "CYCLE_EVENT"
	default:
		return "UNKNOWN"
	}
}

// FormatPayloadMap formats the CBOR payload map based on message type
func FormatPayloadMap(msgType uint8, m map[int]interface{}) string {
	switch msgType {
	case MsgStatusData:
		system, _ := GetMapUint(m, KeySystem)
		cycle, _ := GetMapUint(m, KeyCycle)
		start, _ := GetMapBool(m, KeyStart)
		alarms, _ := GetMapUint(m, KeyAlarms)
		p0, _ := GetMapFloat(m, KeyPressure0)
		p1, _ := GetMapFloat(m, KeyPressure1)
		req, _ := GetMapFloat(m, KeyRequest)
		drive, _ := GetMapUint(m, KeyDrive)
		battery, _ := GetMapFloat(m, KeyBattery)
		index, _ := GetMapUint(m, KeyCurveIndex)
		uptime, _ := GetMapUint(m, KeyUptime)
		var b strings.Builder
		fmt.Fprintf(&b, "  State: %s, Cycle: %s, Running: %t, Uptime: %s\n",
			datamodel.SystemState(system), datamodel.CycleState(cycle), start, formatDuration(uptime))
		fmt.Fprintf(&b, "  Pressure: %.2f / %.2f mmH2O, Request: %.2f mmH2O, Waypoint: %d\n", p0, p1, req, index)
		fmt.Fprintf(&b, "  Drive: %d, Battery: %.2f V, Alarms: %s\n", drive, battery, datamodel.Alarm(alarms))
		return b.String()

	case MsgAlarmEvent:
		current, _ := GetMapUint(m, KeyAlarmCurrent)
		previous, _ := GetMapUint(m, KeyAlarmPrevious)
		uptime, _ := GetMapUint(m, KeyAlarmUptime)
		return fmt.Sprintf("  Alarms: %s (was %s) at %s\n",
			datamodel.Alarm(current), datamodel.Alarm(previous), formatDuration(uptime))

	case MsgCycleEvent:
		current, _ := GetMapUint(m, KeyCycleCurrent)
		previous, _ := GetMapUint(m, KeyCyclePrevious)
		uptime, _ := GetMapUint(m, KeyCycleUptime)
		return fmt.Sprintf("  Cycle: %s -> %s at %s\n",
			datamodel.CycleState(previous), datamodel.CycleState(current), formatDuration(uptime))

	case MsgConfigData:
		c, ok := SettingsFromPayload(m)
		if !ok {
			return "  (incomplete config payload)\n"
		}
		var b strings.Builder
		fmt.Fprintf(&b, "  Rate: %.1f rpm, Inhale: %.1f mmH2O x%.1f, Exhale: %.1f mmH2O x%.1f\n",
			c.Rate, c.InhaleTarget, c.InhaleRatio, c.ExhaleTarget, c.ExhaleRatio)
		fmt.Fprintf(&b, "  FiO2: %.0f%%, Take-over: %.0f ms, Min battery: %.1f V\n", c.FiO2, c.TakeOverMs, c.MinBattery)
		fmt.Fprintf(&b, "  Pressure limits: %.0f..%.0f mmH2O, Max delta: %.0f\n", c.MinPressure, c.MaxPressure, c.MaxDelta)
		return b.String()

	default:
		if len(m) == 0 {
			return "  (no payload)\n"
		}
		return fmt.Sprintf("  %v\n", m)
	}
}

func formatDuration(ms uint64) string {
	seconds := ms / 1000
	if seconds == 0 {
		return fmt.Sprintf("%d ms", ms)
	}
	hours := seconds / 3600
	seconds %= 3600
	minutes := seconds / 60
	seconds %= 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
