// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/tlc/pkg/datamodel"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		mnemonic string
		args     []string
		want     Command
	}{
		{"sta", nil, Query{Which: KindStatus}},
		{"TRI", []string{"patient"}, SetTrigger{Mode: datamodel.TriggerPatient}},
		{"TRI", []string{"2"}, SetTrigger{Mode: datamodel.TriggerPatientSemiAutomatic}},
		{"CTL", []string{"feed_forward"}, SetControl{Mode: datamodel.ControlFeedForward}},
		{"CYC", []string{"start"}, SetCycle{Start: true}},
		{"AEN", []string{"off"}, AlarmEnable{On: false}},
		{"CUR", []string{"12", "25", "5", "1", "3"}, SetCurve{Params: datamodel.CurveParams{
			RespirationsPerMinute: 12, InhaleTargetMmH2O: 25, ExhaleTargetMmH2O: 5, InhaleRatio: 1, ExhaleRatio: 3,
		}}},
		{"AHP", []string{"900"}, SetThreshold{Which: KindPressureHigh, Value: 900}},
		{"SGP", []string{"0.5", "1", "0"}, SetGains{P: 0.5, I: 1}},
		{"DRV", []string{"512"}, SetDrive{Drive: 512}},
		{"QQQ", nil, Unknown{Mnemonic: [3]byte{'Q', 'Q', 'Q'}}},
	}

	for _, tt := range tests {
		t.Run(tt.mnemonic, func(t *testing.T) {
			got, err := ParseArgs(tt.mnemonic, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseArgsCurvePoints(t *testing.T) {
	got, err := ParseArgs("ICP", []string{"300:40", "350:80"})
	require.NoError(t, err)
	cmd := got.(SetCurvePoints)
	assert.Equal(t, KindInhaleCurve, cmd.Which)
	assert.Equal(t, []datamodel.Waypoint{{PressureMmH2O: 300, HoldMs: 40}, {PressureMmH2O: 350, HoldMs: 80}}, cmd.Curve.Active())
}

func TestParseArgsErrors(t *testing.T) {
	for _, tc := range []struct {
		mnemonic string
		args     []string
	}{
		{"STAT", nil},
		{"SGP", []string{"1", "2"}},
		{"TRI", []string{"sometimes"}},
		{"CYC", []string{"maybe"}},
		{"ICP", []string{"300"}},
		{"ICP", nil},
		{"DRV", []string{"70000"}},
		{"FIO", []string{"abc"}},
	} {
		_, err := ParseArgs(tc.mnemonic, tc.args)
		assert.Error(t, err, "%s %v", tc.mnemonic, tc.args)
	}
}
