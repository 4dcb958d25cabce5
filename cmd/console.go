// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/tlc/pkg/link"
	"github.com/Thermoquad/tlc/pkg/protocol"
)

var consoleCmd = &cobra.Command{
	Use:   "console [COMMAND ARGS...]",
	Short: "Interactive command shell",
	Long: `Open an interactive shell with one command per mnemonic.

Type 'help' for the command list. Mnemonics are case-insensitive:
  > cyc on
  > cur 12 100 20 1 2
  > icp 100:500 200:800
  > sta

Given arguments, the shell runs that single command and exits.`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

const consoleClientKey = "$client"

// commandUsage documents the arguments each mnemonic takes.
var commandUsage = map[protocol.Kind]string{
	protocol.KindConfig:             "report operator settings",
	protocol.KindStatus:             "report live status",
	protocol.KindAlive:              "keep-alive",
	protocol.KindTrigger:            "TIMED|PATIENT|PATIENT_SEMI_AUTO",
	protocol.KindControl:            "MODE (name or number)",
	protocol.KindCycle:              "on|off",
	protocol.KindFiO2:               "PERCENT",
	protocol.KindCurve:              "RPM INHALE EXHALE I E",
	protocol.KindTakeOver:           "MS",
	protocol.KindMinBattery:         "VOLTS",
	protocol.KindTidalLow:           "VALUE",
	protocol.KindTidalHigh:          "VALUE",
	protocol.KindPressureLow:        "mmH2O",
	protocol.KindPressureHigh:       "mmH2O",
	protocol.KindPressureDelta:      "mmH2O",
	protocol.KindFiO2Low:            "PERCENT",
	protocol.KindFiO2High:           "PERCENT",
	protocol.KindNonRebreathing:     "VALUE",
	protocol.KindInitPressureSensor: "calibrate pressure sensor zero",
	protocol.KindInitPEEP:           "calibrate PEEP",
	protocol.KindInitTidalVolume:    "calibrate tidal volume",
	protocol.KindAlarmReset:         "reset latched alarms",
	protocol.KindAlarmEnable:        "on|off",
	protocol.KindConfigSave:         "save configuration",
	protocol.KindConfigLoad:         "reload configuration",
	protocol.KindSetGains:           "P I D",
	protocol.KindSetLimits:          "I_LIMIT PI_LIMIT",
	protocol.KindInhaleCurve:        "PRESSURE:HOLD_MS ...",
	protocol.KindExhaleCurve:        "PRESSURE:HOLD_MS ...",
	protocol.KindDrive:              "DRIVE (0-1023)",
}

// newConsole builds the shell with one command per known mnemonic.
func newConsole(cl *link.Client) *ishell.Shell {
	shell := ishell.New()
	shell.Set(consoleClientKey, cl)
	shell.SetPrompt("tlc > ")
	for _, k := range protocol.Kinds() {
		shell.AddCmd(mnemonicCmd(k))
	}
	shell.AddCmd(&ishell.Cmd{
		Name: "raw",
		Help: "send the rest of the line verbatim",
		Func: func(c *ishell.Context) {
			frame := []byte(strings.Join(c.Args, " ") + protocol.LineEnd)
			line, err := clientFrom(c).DoRaw(frame)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(line)
		},
	})
	return shell
}

func clientFrom(c *ishell.Context) *link.Client {
	return c.Get(consoleClientKey).(*link.Client)
}

func mnemonicCmd(k protocol.Kind) *ishell.Cmd {
	mnemonic := k.Mnemonic()
	return &ishell.Cmd{
		Name:    strings.ToLower(mnemonic),
		Aliases: []string{mnemonic},
		Help:    commandUsage[k],
		Func: func(c *ishell.Context) {
			command, err := protocol.ParseArgs(mnemonic, c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			line, err := clientFrom(c).Do(command)
			if err != nil {
				c.Err(fmt.Errorf("%s: %w", mnemonic, err))
				return
			}
			c.Println(describeReply(mnemonic, line))
		},
	}
}

func runConsole(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(settings)
	if err != nil {
		return err
	}
	cl := link.NewClient(conn)
	defer cl.Close()
	cl.Timeout = time.Duration(settings.GetInt(keyTimeout)) * time.Millisecond

	shell := newConsole(cl)
	if len(args) > 0 {
		return shell.Process(args...)
	}
	shell.Printf("TLC console on %s\n", connInfo)
	shell.Run()
	return nil
}
