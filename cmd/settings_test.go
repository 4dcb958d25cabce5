// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/tlc/pkg/firmware"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("port", "", "")
	fs.Int("baud", defaultBaud, "")
	fs.String("telemetry-file", "", "")
	fs.Bool("no-ssl-verify", false, "")
	return fs
}

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tlc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestSettingsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	v, err := loadSettings("", testFlags())
	require.NoError(t, err)

	assert.Equal(t, defaultBaud, v.GetInt(keyBaud))
	assert.Equal(t, defaultEEPROM, v.GetString(keyEEPROM))

	p, err := runtimePeriods(v)
	require.NoError(t, err)
	assert.Equal(t, firmware.DefaultPeriods(), p)
}

func TestSettingsFilePrecedence(t *testing.T) {
	path := writeSettings(t, `
port: /dev/ttyS1
baud: 57600
eeprom: bench.bin
periods:
  control: 10
  publish: 1000
`)
	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--baud", "9600", "--no-ssl-verify"}))

	v, err := loadSettings(path, fs)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyS1", v.GetString(keyPort))
	assert.Equal(t, 9600, v.GetInt(keyBaud), "flag beats file")
	assert.Equal(t, "bench.bin", v.GetString(keyEEPROM))
	assert.True(t, v.GetBool(keyNoSSLVerify))

	p, err := runtimePeriods(v)
	require.NoError(t, err)
	assert.EqualValues(t, 10, p.Control)
	assert.EqualValues(t, 1000, p.Publish)
	assert.Equal(t, firmware.DefaultPeriods().Communications, p.Communications)
}

func TestSettingsEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TLC_PORT", "/dev/ttyACM3")
	t.Setenv("TLC_TELEMETRY_FILE", "frames.bin")
	t.Setenv("TLC_PERIODS_CONTROL", "7")

	v, err := loadSettings("", testFlags())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM3", v.GetString(keyPort))
	assert.Equal(t, "frames.bin", v.GetString(keyTelemetryFile))

	p, err := runtimePeriods(v)
	require.NoError(t, err)
	assert.EqualValues(t, 7, p.Control)
}

func TestSettingsExplicitFileMissing(t *testing.T) {
	_, err := loadSettings(filepath.Join(t.TempDir(), "absent.yaml"), testFlags())
	assert.Error(t, err)
}

func TestSettingsZeroPeriodRejected(t *testing.T) {
	path := writeSettings(t, "periods:\n  control: 0\n")
	v, err := loadSettings(path, testFlags())
	require.NoError(t, err)
	_, err = runtimePeriods(v)
	assert.Error(t, err)
}
