// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"flag"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// settingsFile overrides the tlc.yaml search path
	settingsFile string

	// settings holds the merged runtime settings, loaded before any command runs
	settings *viper.Viper
)

var rootCmd = &cobra.Command{
	Use:   "tlc",
	Short: "Lung controller firmware host and tools",
	Long: `tlc - host runtime and tooling for the lung controller.

Runs the controller core against a simulated patient circuit, and talks to a
running controller (real or simulated) over its line protocol.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Every flag can also be set in tlc.yaml (current directory or the user config
directory) or through a TLC_ environment variable, e.g. TLC_PORT=/dev/ttyACM0.

For WebSocket authentication, the password is read from the TLC_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:      "1.0.0",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// glog refuses to log cleanly until the go flag set was parsed
		if !flag.Parsed() {
			_ = flag.CommandLine.Parse(nil)
		}
		v, err := loadSettings(settingsFile, cmd.Flags())
		if err != nil {
			return err
		}
		settings = v
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&settingsFile, "config", "", "Settings file (default: tlc.yaml in . or the user config dir)")

	// Serial connection flags
	pf.StringP(keyPort, "p", "", "Serial port device")
	pf.IntP(keyBaud, "b", defaultBaud, "Baud rate (serial only)")

	// WebSocket connection flags
	pf.StringP(keyURL, "u", "", "WebSocket URL (ws:// or wss://)")
	pf.String(keyUsername, "", "Username for HTTP Basic auth")
	pf.Bool(flagNoSSLVerify, false, "Skip TLS certificate verification (wss:// only)")

	// glog flags (-v, -logtostderr, ...)
	pf.AddGoFlagSet(flag.CommandLine)
	_ = flag.Set("logtostderr", "true")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
