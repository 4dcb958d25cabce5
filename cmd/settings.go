// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Thermoquad/tlc/pkg/datamodel"
	"github.com/Thermoquad/tlc/pkg/firmware"
)

const (
	settingsName = "tlc"
	settingsType = "yaml"
	envPrefix    = "TLC"

	defaultBaud   = datamodel.BaudRate
	defaultEEPROM = "tlc-eeprom.bin"
)

// Settings keys. Flags with dashes map to the underscore form.
const (
	keyPort          = "port"
	keyBaud          = "baud"
	keyURL           = "url"
	keyUsername      = "username"
	keyNoSSLVerify   = "no_ssl_verify"
	keyEEPROM        = "eeprom"
	keyListen        = "listen"
	keyTelemetryPort = "telemetry_port"
	keyTelemetryFile = "telemetry_file"
	keyMQTT          = "mqtt"
	keyTimeout       = "timeout"
	keyPeriods       = "periods"

	flagNoSSLVerify = "no-ssl-verify"
)

// loadSettings merges defaults, tlc.yaml, TLC_* environment variables and
// the command line flags, in increasing precedence. A missing tlc.yaml is
// not an error unless it was named explicitly.
func loadSettings(path string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(keyBaud, defaultBaud)
	v.SetDefault(keyEEPROM, defaultEEPROM)
	v.SetDefault(keyTimeout, 1000)
	p := firmware.DefaultPeriods()
	v.SetDefault(keyPeriods+".communications", p.Communications)
	v.SetDefault(keyPeriods+".control", p.Control)
	v.SetDefault(keyPeriods+".sensors", p.Sensors)
	v.SetDefault(keyPeriods+".ui", p.UI)
	v.SetDefault(keyPeriods+".publish", p.Publish)
	v.SetDefault(keyPeriods+".warmup", p.Warmup)
	v.SetDefault(keyPeriods+".rx_discard", p.RxDiscard)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(settingsName)
		v.SetConfigType(settingsType)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, settingsName))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	if bindErr != nil {
		return nil, fmt.Errorf("bind flags: %w", bindErr)
	}
	return v, nil
}

// runtimePeriods reads the periods section key by key so a partial section
// in tlc.yaml keeps the defaults for the keys it leaves out.
func runtimePeriods(v *viper.Viper) (firmware.Periods, error) {
	get := func(name string) uint32 {
		return v.GetUint32(keyPeriods + "." + name)
	}
	p := firmware.Periods{
		Communications: get("communications"),
		Control:        get("control"),
		Sensors:        get("sensors"),
		UI:             get("ui"),
		Publish:        get("publish"),
		Warmup:         get("warmup"),
		RxDiscard:      get("rx_discard"),
	}
	if p.Communications == 0 || p.Control == 0 || p.Sensors == 0 {
		return firmware.Periods{}, fmt.Errorf("periods: communications, control and sensors must be non-zero")
	}
	return p, nil
}
